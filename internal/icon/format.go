package icon

import (
	"errors"
	"image"
	"image/png"
	"io"
	"path"
	"strings"
	"sync"

	"golang.org/x/image/bmp"
)

// ErrUnsupported is returned for files without a registered decoder.
var ErrUnsupported = errors.New("unsupported icon format")

// Format decodes one image file type.
type Format struct {
	Decode       func(io.Reader) (image.Image, error)
	DecodeConfig func(io.Reader) (image.Config, error)
}

var (
	formatsMu sync.RWMutex
	formats   = map[string]Format{
		"png": {Decode: png.Decode, DecodeConfig: png.DecodeConfig},
		"bmp": {Decode: bmp.Decode, DecodeConfig: bmp.DecodeConfig},
	}
)

// RegisterFormat makes files with extension ext (without the dot) eligible
// as icons, e.g. to add an XPM or SVG decoder.
func RegisterFormat(ext string, f Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	formats[strings.ToLower(ext)] = f
}

// formatFor returns the decoder for a file name.
func formatFor(name string) (Format, bool) {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if ext == "" {
		return Format{}, false
	}
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	f, ok := formats[ext]
	return f, ok
}
