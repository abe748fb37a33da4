// Package fonts supplies embedded fonts to the raster renderers.
//
// The PNG and JPEG renderers otherwise search the host for the font named
// by a node's fontname and fall back to Go Regular when it is missing, so
// the same graph can rasterize differently on two machines. Installing
// [Loader] resolves every font name to one of the Go font family faces
// compiled into the binary instead.
package fonts

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-graphviz/gvc"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Style is one face of the embedded family.
type Style int

const (
	Regular Style = iota
	Bold
	Italic
	BoldItalic
	Mono
	MonoBold
)

var ttf = [...][]byte{
	Regular:    goregular.TTF,
	Bold:       gobold.TTF,
	Italic:     goitalic.TTF,
	BoldItalic: gobolditalic.TTF,
	Mono:       gomono.TTF,
	MonoBold:   gomonobold.TTF,
}

func (s Style) String() string {
	switch s {
	case Regular:
		return "regular"
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "bold-italic"
	case Mono:
		return "mono"
	case MonoBold:
		return "mono-bold"
	}
	return "unknown"
}

// TTF returns the raw font data for s.
func TTF(s Style) []byte {
	if s < Regular || s > MonoBold {
		return goregular.TTF
	}
	return ttf[s]
}

var monoHints = []string{"courier", "mono", "consol", "menlo", "code"}

// StyleFor maps a fontname such as "Helvetica-Bold" or "Courier New" to
// the closest embedded face.
func StyleFor(name string) Style {
	n := strings.ToLower(name)
	bold := strings.Contains(n, "bold") || strings.Contains(n, "black") || strings.Contains(n, "heavy")
	italic := strings.Contains(n, "italic") || strings.Contains(n, "oblique")
	for _, h := range monoHints {
		if strings.Contains(n, h) {
			if bold {
				return MonoBold
			}
			return Mono
		}
	}
	switch {
	case bold && italic:
		return BoldItalic
	case bold:
		return Bold
	case italic:
		return Italic
	}
	return Regular
}

var (
	parsedMu sync.Mutex
	parsed   = map[Style]*opentype.Font{}

	facesMu sync.Mutex
	faces   = map[faceKey]font.Face{}
)

type faceKey struct {
	style Style
	size  float64
}

func parse(s Style) (*opentype.Font, error) {
	parsedMu.Lock()
	defer parsedMu.Unlock()
	if f, ok := parsed[s]; ok {
		return f, nil
	}
	f, err := opentype.Parse(TTF(s))
	if err != nil {
		return nil, fmt.Errorf("parse %s font: %w", s, err)
	}
	parsed[s] = f
	return f, nil
}

// Face returns a face of style s at size points (72 dpi). Faces are cached
// per style and size.
func Face(s Style, size float64) (font.Face, error) {
	key := faceKey{s, size}
	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[key]; ok {
		return f, nil
	}
	ft, err := parse(s)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("create %s face: %w", s, err)
	}
	faces[key] = face
	return face, nil
}

// Loader resolves every font the raster renderers ask for to an embedded
// face.
func Loader(_ context.Context, job *gvc.Job, tf *gvc.TextFont) (font.Face, error) {
	return Face(StyleFor(tf.Name()), tf.Size()*job.Zoom())
}

// Install makes [Loader] the process-wide font loader. The setting is
// global to the engine runtime and outlives any single context.
func Install() {
	gvc.SetFontLoader(Loader)
}

// Uninstall restores host font lookup.
func Uninstall() {
	gvc.SetFontLoader(nil)
}
