package lightmap

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/x448/float16"
)

const exrMagic = 20000630

// version field flags
const (
	exrTiled     = 0x200
	exrNonImage  = 0x800
	exrMultipart = 0x1000
)

// compression methods
const (
	exrNone = 0
	exrRLE  = 1
	exrZIPS = 2
	exrZIP  = 3
)

// pixel types
const (
	exrUint  = 0
	exrHalf  = 1
	exrFloat = 2
)

type exrChannel struct {
	name      string
	pixelType int32
}

func (c exrChannel) size() int {
	if c.pixelType == exrHalf {
		return 2
	}
	return 4
}

// slot maps a channel to an RGBA component, -1 for ignored channels. Layered names such as
// "diffuse.R" use their last segment.
func (c exrChannel) slot() int {
	name := c.name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	switch name {
	case "R", "Y":
		return 0
	case "G":
		return 1
	case "B":
		return 2
	case "A":
		return 3
	}
	return -1
}

type exrHeader struct {
	channels    []exrChannel
	compression byte
	xMin, yMin  int32
	xMax, yMax  int32
}

func (h *exrHeader) linesPerBlock() int {
	if h.compression == exrZIP {
		return 16
	}
	return 1
}

func (h *exrHeader) lineSize() int {
	width := int(h.xMax - h.xMin + 1)
	n := 0
	for _, c := range h.channels {
		n += width * c.size()
	}
	return n
}

// exrCursor reads little-endian fields from an in-memory file. The first read past the end
// sets err and every later read returns zero.
type exrCursor struct {
	data []byte
	off  int
	err  error
}

func (c *exrCursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.off+n > len(c.data) {
		c.err = io.ErrUnexpectedEOF
		return nil
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b
}

func (c *exrCursor) i32() int32 {
	if b := c.take(4); b != nil {
		return int32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

func (c *exrCursor) u64() uint64 {
	if b := c.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (c *exrCursor) cstring() string {
	if c.err != nil {
		return ""
	}
	i := bytes.IndexByte(c.data[c.off:], 0)
	if i < 0 {
		c.err = io.ErrUnexpectedEOF
		return ""
	}
	s := string(c.data[c.off : c.off+i])
	c.off += i + 1
	return s
}

// decodeEXR reads a single-part scanline OpenEXR file with NONE, RLE, ZIPS or ZIP compression.
func decodeEXR(data []byte) (*Image, error) {
	c := &exrCursor{data: data}
	if uint32(c.i32()) != exrMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformed)
	}
	version := c.i32()
	if version&0xff != 2 {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedFeature, version&0xff)
	}
	if version&(exrTiled|exrNonImage|exrMultipart) != 0 {
		return nil, fmt.Errorf("%w: tiled, deep or multipart file", ErrUnsupportedFeature)
	}

	h, err := readEXRHeader(c)
	if err != nil {
		return nil, err
	}
	width := int(h.xMax - h.xMin + 1)
	height := int(h.yMax - h.yMin + 1)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: empty data window", ErrMalformed)
	}

	lpb := h.linesPerBlock()
	chunks := (height + lpb - 1) / lpb
	offsets := make([]uint64, chunks)
	for i := range offsets {
		offsets[i] = c.u64()
	}
	if c.err != nil {
		return nil, fmt.Errorf("%w: offset table: %v", ErrMalformed, c.err)
	}

	im := NewImage(width, height)
	for _, off := range offsets {
		if off >= uint64(len(data)) {
			return nil, fmt.Errorf("%w: chunk offset %d out of range", ErrMalformed, off)
		}
		if err := readEXRChunk(&exrCursor{data: data, off: int(off)}, h, im); err != nil {
			return nil, err
		}
	}
	return im, nil
}

func readEXRHeader(c *exrCursor) (*exrHeader, error) {
	h := &exrHeader{}
	var haveChannels, haveWindow bool
	for {
		name := c.cstring()
		if c.err != nil {
			return nil, fmt.Errorf("%w: header: %v", ErrMalformed, c.err)
		}
		if name == "" {
			break
		}
		c.cstring() // attribute type
		size := c.i32()
		val := &exrCursor{data: c.take(int(size))}
		if c.err != nil {
			return nil, fmt.Errorf("%w: attribute %s: %v", ErrMalformed, name, c.err)
		}

		switch name {
		case "channels":
			for {
				cname := val.cstring()
				if cname == "" || val.err != nil {
					break
				}
				ch := exrChannel{name: cname, pixelType: val.i32()}
				val.take(4) // pLinear and reserved
				xs, ys := val.i32(), val.i32()
				if xs != 1 || ys != 1 {
					return nil, fmt.Errorf("%w: subsampled channel %s", ErrUnsupportedFeature, cname)
				}
				if ch.pixelType < exrUint || ch.pixelType > exrFloat {
					return nil, fmt.Errorf("%w: channel %s pixel type %d", ErrMalformed, cname, ch.pixelType)
				}
				h.channels = append(h.channels, ch)
			}
			haveChannels = val.err == nil && len(h.channels) > 0
		case "compression":
			if b := val.take(1); b != nil {
				h.compression = b[0]
			}
		case "dataWindow":
			h.xMin, h.yMin, h.xMax, h.yMax = val.i32(), val.i32(), val.i32(), val.i32()
			haveWindow = val.err == nil
		}
	}

	if !haveChannels || !haveWindow {
		return nil, fmt.Errorf("%w: missing channels or dataWindow", ErrMalformed)
	}
	switch h.compression {
	case exrNone, exrRLE, exrZIPS, exrZIP:
	default:
		return nil, fmt.Errorf("%w: compression %d", ErrUnsupportedFeature, h.compression)
	}
	return h, nil
}

func readEXRChunk(c *exrCursor, h *exrHeader, im *Image) error {
	y := c.i32()
	size := c.i32()
	packed := c.take(int(size))
	if c.err != nil {
		return fmt.Errorf("%w: chunk: %v", ErrMalformed, c.err)
	}
	if y < h.yMin || y > h.yMax {
		return fmt.Errorf("%w: chunk line %d outside data window", ErrMalformed, y)
	}

	lines := min(h.linesPerBlock(), int(h.yMax-y+1))
	raw, err := exrUnpack(h.compression, packed, lines*h.lineSize())
	if err != nil {
		return fmt.Errorf("%w: chunk at line %d: %v", ErrMalformed, y, err)
	}

	width := im.Width
	pos := 0
	for l := range lines {
		row := int(y-h.yMin) + l
		for _, ch := range h.channels {
			slot := ch.slot()
			for x := range width {
				v := exrValue(ch.pixelType, raw[pos:])
				pos += ch.size()
				if slot < 0 {
					continue
				}
				i := (row*width + x) * 4
				im.Pixels[i+slot] = v
				if ch.name == "Y" || strings.HasSuffix(ch.name, ".Y") {
					im.Pixels[i+1], im.Pixels[i+2] = v, v
				}
			}
		}
	}
	return nil
}

func exrValue(pixelType int32, b []byte) float32 {
	switch pixelType {
	case exrHalf:
		return float16.Frombits(binary.LittleEndian.Uint16(b)).Float32()
	case exrFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	default:
		return float32(binary.LittleEndian.Uint32(b))
	}
}

// exrUnpack restores the raw scanline bytes of a chunk. A chunk whose packed size equals the
// raw size was stored uncompressed.
func exrUnpack(compression byte, packed []byte, rawSize int) ([]byte, error) {
	if compression == exrNone || len(packed) == rawSize {
		if len(packed) != rawSize {
			return nil, fmt.Errorf("size %d, want %d", len(packed), rawSize)
		}
		return packed, nil
	}

	var (
		tmp []byte
		err error
	)
	switch compression {
	case exrRLE:
		tmp, err = exrRunLength(packed, rawSize)
	case exrZIPS, exrZIP:
		tmp, err = exrInflate(packed, rawSize)
	}
	if err != nil {
		return nil, err
	}
	return exrReorder(tmp), nil
}

func exrInflate(packed []byte, rawSize int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(packed))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out := make([]byte, rawSize)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return out, nil
}

// exrRunLength expands signed-count runs: a negative count precedes that many literal bytes,
// a non-negative count n repeats the next byte n+1 times.
func exrRunLength(packed []byte, rawSize int) ([]byte, error) {
	out := make([]byte, 0, rawSize)
	for len(packed) > 0 {
		count := int(int8(packed[0]))
		packed = packed[1:]
		if count < 0 {
			n := -count
			if n > len(packed) || len(out)+n > rawSize {
				return nil, fmt.Errorf("literal run overflows")
			}
			out = append(out, packed[:n]...)
			packed = packed[n:]
			continue
		}
		if len(packed) == 0 || len(out)+count+1 > rawSize {
			return nil, fmt.Errorf("repeat run overflows")
		}
		for range count + 1 {
			out = append(out, packed[0])
		}
		packed = packed[1:]
	}
	if len(out) != rawSize {
		return nil, fmt.Errorf("expanded to %d bytes, want %d", len(out), rawSize)
	}
	return out, nil
}

// exrReorder undoes the byte delta predictor and then merges the two halves the encoder split
// even and odd bytes into.
func exrReorder(tmp []byte) []byte {
	for i := 1; i < len(tmp); i++ {
		tmp[i] = byte(int(tmp[i-1]) + int(tmp[i]) - 128)
	}
	out := make([]byte, len(tmp))
	half := (len(tmp) + 1) / 2
	for i := range out {
		if i%2 == 0 {
			out[i] = tmp[i/2]
		} else {
			out[i] = tmp[half+i/2]
		}
	}
	return out
}
