package gv

import (
	"strings"

	"github.com/matzehuels/gvbind/pkg/errors"
)

// Format selects an output encoding.
type Format int

const (
	FormatSVG Format = iota + 1
	FormatPDF
	FormatPS
	FormatEPS
	FormatFig
	FormatPNG
	FormatJPEG
	FormatGIF
	FormatBMP
	FormatDOT
	FormatXDOT
	FormatJSON
	FormatPlain
	FormatCanon
	FormatImap
	FormatCmapx
)

// Kind groups formats by the shape of their output.
type Kind int

const (
	KindVector Kind = iota + 1
	KindRaster
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindVector:
		return "vector"
	case KindRaster:
		return "raster"
	case KindText:
		return "text"
	}
	return "unknown"
}

type formatInfo struct {
	name   string // user-facing name
	native string // name the engine registers the device under
	kind   Kind
	text   bool // output is printable text
	mime   string
	ext    string
}

var formats = [...]formatInfo{
	FormatSVG:   {"svg", "svg", KindVector, true, "image/svg+xml", "svg"},
	FormatPDF:   {"pdf", "pdf", KindVector, false, "application/pdf", "pdf"},
	FormatPS:    {"ps", "ps", KindVector, true, "application/postscript", "ps"},
	FormatEPS:   {"eps", "eps", KindVector, true, "application/postscript", "eps"},
	FormatFig:   {"fig", "fig", KindVector, true, "application/x-xfig", "fig"},
	FormatPNG:   {"png", "png", KindRaster, false, "image/png", "png"},
	FormatJPEG:  {"jpeg", "jpg", KindRaster, false, "image/jpeg", "jpg"},
	FormatGIF:   {"gif", "gif", KindRaster, false, "image/gif", "gif"},
	FormatBMP:   {"bmp", "bmp", KindRaster, false, "image/bmp", "bmp"},
	FormatDOT:   {"dot", "dot", KindText, true, "text/vnd.graphviz", "dot"},
	FormatXDOT:  {"xdot", "xdot", KindText, true, "text/vnd.graphviz", "xdot"},
	FormatJSON:  {"json", "json", KindText, true, "application/json", "json"},
	FormatPlain: {"plain", "plain", KindText, true, "text/plain", "txt"},
	FormatCanon: {"canon", "canon", KindText, true, "text/vnd.graphviz", "dot"},
	FormatImap:  {"imap", "imap", KindText, true, "application/x-httpd-imap", "map"},
	FormatCmapx: {"cmapx", "cmapx", KindText, true, "text/html", "map"},
}

// Formats returns every supported format in declaration order.
func Formats() []Format {
	out := make([]Format, 0, len(formats)-1)
	for f := FormatSVG; f <= FormatCmapx; f++ {
		out = append(out, f)
	}
	return out
}

// ParseFormat maps a format name or file extension ("svg", "jpg", "txt")
// to a Format.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	for f := FormatSVG; f <= FormatCmapx; f++ {
		if formats[f].name == s {
			return f, nil
		}
	}
	switch s {
	case "jpg":
		return FormatJPEG, nil
	case "gv":
		return FormatDOT, nil
	case "txt":
		return FormatPlain, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidFormat, "unknown output format %q", s)
}

// Valid reports whether f is one of the declared formats.
func (f Format) Valid() bool { return f >= FormatSVG && f <= FormatCmapx }

func (f Format) String() string {
	if !f.Valid() {
		return "unknown"
	}
	return formats[f].name
}

// Kind reports whether f is a vector, raster or text format.
func (f Format) Kind() Kind {
	if !f.Valid() {
		return 0
	}
	return formats[f].kind
}

// IsText reports whether the output is printable text and can therefore
// be returned by RenderString. SVG and PostScript count as text.
func (f Format) IsText() bool { return f.Valid() && formats[f].text }

// IsBinary is the negation of IsText for valid formats.
func (f Format) IsBinary() bool { return f.Valid() && !formats[f].text }

// MIMEType returns the media type of the output.
func (f Format) MIMEType() string {
	if !f.Valid() {
		return "application/octet-stream"
	}
	return formats[f].mime
}

// Extension returns the conventional file extension without the dot.
func (f Format) Extension() string {
	if !f.Valid() {
		return ""
	}
	return formats[f].ext
}

func (f Format) native() string { return formats[f].native }

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid format %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
