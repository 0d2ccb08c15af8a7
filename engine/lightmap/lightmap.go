// Package lightmap decodes baked HDR lightmaps, Radiance RGBE (.hdr) and OpenEXR (.exr), into
// linear RGBA float pixels and packs them for upload as a half-float texture.
package lightmap

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/x448/float16"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither Radiance HDR nor OpenEXR.
	ErrUnsupportedFormat = errors.New("unsupported lightmap format")

	// ErrUnsupportedFeature is returned for valid files using an encoding this package cannot
	// read, e.g. tiled EXR or PIZ compression.
	ErrUnsupportedFeature = errors.New("unsupported lightmap encoding")

	// ErrMalformed is returned when a file is truncated or its header is inconsistent.
	ErrMalformed = errors.New("malformed lightmap")
)

// Format identifies a lightmap container.
type Format int

const (
	FormatUnknown Format = iota
	FormatHDR
	FormatEXR
)

func (f Format) String() string {
	switch f {
	case FormatHDR:
		return "hdr"
	case FormatEXR:
		return "exr"
	default:
		return "unknown"
	}
}

// BytesPerTexel is the size of one RGBA16Float texel.
const BytesPerTexel = 8

// Image is a decoded lightmap. Pixels holds linear RGBA, four floats per pixel, rows top to
// bottom so texture coordinate (0, 0) samples the first pixel.
type Image struct {
	Width  int
	Height int
	Pixels []float32
}

// NewImage allocates a black, opaque image.
func NewImage(width, height int) *Image {
	im := &Image{Width: width, Height: height, Pixels: make([]float32, width*height*4)}
	for i := 3; i < len(im.Pixels); i += 4 {
		im.Pixels[i] = 1
	}
	return im
}

// At returns the RGBA value of pixel (x, y).
func (im *Image) At(x, y int) [4]float32 {
	i := (y*im.Width + x) * 4
	return [4]float32{im.Pixels[i], im.Pixels[i+1], im.Pixels[i+2], im.Pixels[i+3]}
}

// Set overwrites pixel (x, y).
func (im *Image) Set(x, y int, c [4]float32) {
	i := (y*im.Width + x) * 4
	copy(im.Pixels[i:i+4], c[:])
}

// RGBA16F packs the image as little-endian half floats, BytesPerTexel bytes per pixel.
// Values beyond the half range saturate to infinity.
//
// Returns:
//   - []byte: Width*Height*BytesPerTexel bytes, rows top to bottom
func (im *Image) RGBA16F() []byte {
	buf := make([]byte, len(im.Pixels)*2)
	for i, v := range im.Pixels {
		binary.LittleEndian.PutUint16(buf[i*2:], float16.Fromfloat32(v).Bits())
	}
	return buf
}

// DetectFormat identifies a lightmap by its leading bytes, falling back to the file extension
// when the header is inconclusive.
//
// Parameters:
//   - name: file name or path, may be empty
//   - head: the first bytes of the file
//
// Returns:
//   - Format: the detected container
func DetectFormat(name string, head []byte) Format {
	switch {
	case bytes.HasPrefix(head, []byte("#?")):
		return FormatHDR
	case len(head) >= 4 && binary.LittleEndian.Uint32(head) == exrMagic:
		return FormatEXR
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".hdr", ".pic", ".rgbe":
		return FormatHDR
	case ".exr":
		return FormatEXR
	}
	return FormatUnknown
}

// Decode reads a lightmap from r.
//
// Parameters:
//   - r: the encoded file
//   - name: file name used for error messages and extension fallback
//
// Returns:
//   - *Image: the decoded image
//   - error: ErrUnsupportedFormat, ErrUnsupportedFeature or ErrMalformed, wrapped with name
func Decode(r io.Reader, name string) (*Image, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4)

	var (
		im  *Image
		err error
	)
	switch DetectFormat(name, head) {
	case FormatHDR:
		im, err = decodeHDR(br)
	case FormatEXR:
		var data []byte
		if data, err = io.ReadAll(br); err == nil {
			im, err = decodeEXR(data)
		}
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("lightmap %q: %w", name, err)
	}
	return im, nil
}

// Load opens and decodes a lightmap file.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lightmap: %w", err)
	}
	defer f.Close()
	return Decode(f, path)
}
