package graph

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gvbind/pkg/errors"
)

// Encoding selects the text form of a description.
type Encoding int

const (
	JSON Encoding = iota + 1
	TOML
)

func (e Encoding) String() string {
	switch e {
	case JSON:
		return "json"
	case TOML:
		return "toml"
	}
	return "unknown"
}

// EncodingForPath picks the encoding from a file extension. Anything other
// than .toml is read as JSON.
func EncodingForPath(path string) Encoding {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return TOML
	}
	return JSON
}

// EncodingForContentType picks the encoding from an HTTP Content-Type.
// An empty or unrecognized type means JSON.
func EncodingForContentType(ct string) Encoding {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return JSON
	}
	switch mt {
	case "application/toml", "text/toml", "text/x-toml":
		return TOML
	}
	return JSON
}

// Read decodes a description from r. Unknown fields are rejected.
func Read(r io.Reader, enc Encoding) (*Graph, error) {
	var g Graph
	switch enc {
	case TOML:
		md, err := toml.NewDecoder(r).Decode(&g)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode toml graph description")
		}
		if extra := md.Undecoded(); len(extra) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown field %q in graph description", extra[0].String())
		}
	default:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&g); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode json graph description")
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Unmarshal decodes a description from data.
func Unmarshal(data []byte, enc Encoding) (*Graph, error) {
	return Read(bytes.NewReader(data), enc)
}

// ReadFile decodes the description at path, choosing the encoding from the
// extension.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return Read(f, EncodingForPath(path))
}

// Write encodes g to w. JSON output is indented.
func Write(w io.Writer, g *Graph, enc Encoding) error {
	switch enc {
	case TOML:
		if err := toml.NewEncoder(w).Encode(g); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode toml graph description")
		}
	default:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		if err := e.Encode(g); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode json graph description")
		}
	}
	return nil
}

// Marshal encodes g.
func Marshal(g *Graph, enc Encoding) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, g, enc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes g to path, choosing the encoding from the extension.
func WriteFile(path string, g *Graph) error {
	data, err := Marshal(g, EncodingForPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}
