package lightmap

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

// hdrFile builds a Radiance file from RGBE quads, run-length encoding lines when rle is set.
func hdrFile(t *testing.T, orientation string, width, height int, quads [][4]byte, rle bool) []byte {
	t.Helper()
	var b bytes.Buffer
	b.WriteString("#?RADIANCE\n# made in a test\nFORMAT=32-bit_rle_rgbe\nEXPOSURE=1.0\n\n")
	fmt.Fprintf(&b, "%s %d +X %d\n", orientation, height, width)
	for y := range height {
		line := quads[y*width : (y+1)*width]
		if !rle {
			for _, q := range line {
				b.Write(q[:])
			}
			continue
		}
		b.Write([]byte{2, 2, byte(width >> 8), byte(width)})
		for c := range 4 {
			// first two pixels as a literal, the rest as one run of the last pixel's value
			b.Write([]byte{2, line[0][c], line[1][c]})
			for x := 2; x < width; {
				n := min(width-x, 127)
				b.Write([]byte{byte(128 + n), line[width-1][c]})
				x += n
			}
		}
	}
	return b.Bytes()
}

func TestDecodeHDR_Flat(t *testing.T) {
	quads := [][4]byte{
		{128, 64, 0, 129}, {0, 0, 0, 0},
		{128, 128, 128, 128}, {255, 0, 0, 136},
	}
	im, err := Decode(bytes.NewReader(hdrFile(t, "-Y", 2, 2, quads, false)), "scene.hdr")
	require.NoError(t, err)
	require.Equal(t, 2, im.Width)
	require.Equal(t, 2, im.Height)

	assert.Equal(t, [4]float32{1, 0.5, 0, 1}, im.At(0, 0))
	assert.Equal(t, [4]float32{0, 0, 0, 1}, im.At(1, 0))
	assert.Equal(t, [4]float32{0.5, 0.5, 0.5, 1}, im.At(0, 1))
	assert.Equal(t, [4]float32{255, 0, 0, 1}, im.At(1, 1))
}

func TestDecodeHDR_BottomUpRowsFlipped(t *testing.T) {
	quads := [][4]byte{{128, 0, 0, 129}, {0, 128, 0, 129}}
	im, err := Decode(bytes.NewReader(hdrFile(t, "+Y", 1, 2, quads, false)), "")
	require.NoError(t, err)
	assert.Equal(t, [4]float32{0, 1, 0, 1}, im.At(0, 0))
	assert.Equal(t, [4]float32{1, 0, 0, 1}, im.At(0, 1))
}

func TestDecodeHDR_RunLength(t *testing.T) {
	const width = 200
	quads := make([][4]byte, width*2)
	for y := range 2 {
		quads[y*width] = [4]byte{10, 20, 30, 128}
		quads[y*width+1] = [4]byte{40, 50, 60, 128}
		for x := 2; x < width; x++ {
			quads[y*width+x] = [4]byte{128, 0, 64, 130}
		}
	}
	im, err := Decode(bytes.NewReader(hdrFile(t, "-Y", width, 2, quads, true)), "lm.hdr")
	require.NoError(t, err)

	f := float32(math.Ldexp(1, 128-136))
	assert.Equal(t, [4]float32{10 * f, 20 * f, 30 * f, 1}, im.At(0, 1))
	assert.Equal(t, [4]float32{40 * f, 50 * f, 60 * f, 1}, im.At(1, 0))
	assert.Equal(t, [4]float32{2, 0, 1, 1}, im.At(width-1, 1))
	assert.Equal(t, [4]float32{2, 0, 1, 1}, im.At(57, 0))
}

func TestDecodeHDR_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"xyze", "#?RADIANCE\nFORMAT=32-bit_rle_xyze\n\n-Y 1 +X 1\n\x01\x01\x01\x80", ErrUnsupportedFeature},
		{"rotated", "#?RADIANCE\n\n+X 1 -Y 1\n\x01\x01\x01\x80", ErrUnsupportedFeature},
		{"truncated", "#?RADIANCE\n\n-Y 2 +X 2\n\x01\x01", ErrMalformed},
		{"no header end", "#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n", ErrMalformed},
		{"bad size", "#?RADIANCE\n\n-Y 0 +X 4\n", ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader([]byte(tt.data)), "x.hdr")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

type exrTestChannel struct {
	name      string
	pixelType int32
	values    []float32 // row-major, one per pixel
}

// exrFile writes a single-part scanline EXR. Channels must be given in alphabetical order.
func exrFile(t *testing.T, width, height int, compression byte, channels []exrTestChannel) []byte {
	t.Helper()
	le := binary.LittleEndian
	var b bytes.Buffer
	put32 := func(v int32) { _ = binary.Write(&b, le, v) }
	attr := func(name, typ string, val []byte) {
		b.WriteString(name + "\x00" + typ + "\x00")
		put32(int32(len(val)))
		b.Write(val)
	}

	put32(exrMagic)
	put32(2)

	var chl bytes.Buffer
	for _, ch := range channels {
		chl.WriteString(ch.name + "\x00")
		_ = binary.Write(&chl, le, []int32{ch.pixelType, 0, 1, 1})
	}
	chl.WriteByte(0)
	attr("channels", "chlist", chl.Bytes())
	attr("compression", "compression", []byte{compression})
	var win bytes.Buffer
	_ = binary.Write(&win, le, []int32{0, 0, int32(width - 1), int32(height - 1)})
	attr("dataWindow", "box2i", win.Bytes())
	attr("displayWindow", "box2i", win.Bytes())
	attr("lineOrder", "lineOrder", []byte{0})
	b.WriteByte(0)

	lpb := 1
	if compression == exrZIP {
		lpb = 16
	}
	var blocks [][]byte
	for y0 := 0; y0 < height; y0 += lpb {
		var raw bytes.Buffer
		for y := y0; y < min(y0+lpb, height); y++ {
			for _, ch := range channels {
				for x := range width {
					v := ch.values[y*width+x]
					switch ch.pixelType {
					case exrHalf:
						_ = binary.Write(&raw, le, float16.Fromfloat32(v).Bits())
					case exrFloat:
						_ = binary.Write(&raw, le, v)
					default:
						_ = binary.Write(&raw, le, uint32(v))
					}
				}
			}
		}
		data := raw.Bytes()
		// writers store a chunk raw when compression does not shrink it
		if compression == exrZIP || compression == exrZIPS {
			if z := exrDeflate(t, data); len(z) < len(data) {
				data = z
			}
		}
		var chunk bytes.Buffer
		_ = binary.Write(&chunk, le, []int32{int32(y0), int32(len(data))})
		chunk.Write(data)
		blocks = append(blocks, chunk.Bytes())
	}

	off := uint64(b.Len() + 8*len(blocks))
	for _, blk := range blocks {
		_ = binary.Write(&b, le, off)
		off += uint64(len(blk))
	}
	for _, blk := range blocks {
		b.Write(blk)
	}
	return b.Bytes()
}

// exrDeflate applies the split, the delta predictor and zlib, mirroring an EXR writer.
func exrDeflate(t *testing.T, raw []byte) []byte {
	t.Helper()
	tmp := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i += 2 {
		tmp = append(tmp, raw[i])
	}
	for i := 1; i < len(raw); i += 2 {
		tmp = append(tmp, raw[i])
	}
	p := int(tmp[0])
	for i := 1; i < len(tmp); i++ {
		d := int(tmp[i]) - p + 128 + 256
		p = int(tmp[i])
		tmp[i] = byte(d)
	}
	var z bytes.Buffer
	w := zlib.NewWriter(&z)
	_, err := w.Write(tmp)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return z.Bytes()
}

func rgbChannels(pixelType int32, r, g, b []float32) []exrTestChannel {
	return []exrTestChannel{{"B", pixelType, b}, {"G", pixelType, g}, {"R", pixelType, r}}
}

func TestDecodeEXR(t *testing.T) {
	r := []float32{0, 0.5, 1, 2, 4, 8}
	g := []float32{1, 1, 1, 0.25, 0.25, 0.25}
	b := []float32{16, 0, 3, 0, 0.125, 1}

	tests := []struct {
		name        string
		compression byte
		pixelType   int32
	}{
		{"none half", exrNone, exrHalf},
		{"none float", exrNone, exrFloat},
		{"zips half", exrZIPS, exrHalf},
		{"zip float", exrZIP, exrFloat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := exrFile(t, 3, 2, tt.compression, rgbChannels(tt.pixelType, r, g, b))
			im, err := Decode(bytes.NewReader(data), "bake.exr")
			require.NoError(t, err)
			require.Equal(t, 3, im.Width)
			require.Equal(t, 2, im.Height)
			for y := range 2 {
				for x := range 3 {
					i := y*3 + x
					assert.Equal(t, [4]float32{r[i], g[i], b[i], 1}, im.At(x, y), "pixel %d,%d", x, y)
				}
			}
		})
	}
}

func TestDecodeEXR_LuminanceAndAlpha(t *testing.T) {
	data := exrFile(t, 2, 1, exrNone, []exrTestChannel{
		{"A", exrHalf, []float32{0.5, 1}},
		{"Y", exrFloat, []float32{3, 0.75}},
	})
	im, err := Decode(bytes.NewReader(data), "")
	require.NoError(t, err)
	assert.Equal(t, [4]float32{3, 3, 3, 0.5}, im.At(0, 0))
	assert.Equal(t, [4]float32{0.75, 0.75, 0.75, 1}, im.At(1, 0))
}

func TestDecodeEXR_Errors(t *testing.T) {
	good := exrFile(t, 1, 1, exrNone, rgbChannels(exrHalf, []float32{1}, []float32{1}, []float32{1}))

	piz := exrFile(t, 1, 1, 4, rgbChannels(exrHalf, []float32{1}, []float32{1}, []float32{1}))
	_, err := Decode(bytes.NewReader(piz), "piz.exr")
	assert.ErrorIs(t, err, ErrUnsupportedFeature)

	tiled := bytes.Clone(good)
	binary.LittleEndian.PutUint32(tiled[4:], 2|exrTiled)
	_, err = Decode(bytes.NewReader(tiled), "tiled.exr")
	assert.ErrorIs(t, err, ErrUnsupportedFeature)

	_, err = Decode(bytes.NewReader(good[:len(good)-3]), "short.exr")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Decode(bytes.NewReader([]byte("PK\x03\x04 not an image")), "lightmap.png")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEXRUnpackZip(t *testing.T) {
	raw := make([]byte, 96)
	for i := range raw {
		raw[i] = byte(i / 8)
	}
	packed := exrDeflate(t, raw)
	require.Less(t, len(packed), len(raw))

	out, err := exrUnpack(exrZIP, packed, len(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, out)

	_, err = exrUnpack(exrZIP, packed[:len(packed)/2], len(raw))
	assert.Error(t, err)
}

func TestEXRRunLength(t *testing.T) {
	out, err := exrRunLength([]byte{0xfe, 7, 8, 2, 9}, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 8, 9, 9, 9}, out)

	_, err = exrRunLength([]byte{5, 1}, 3)
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatHDR, DetectFormat("", []byte("#?RGBE")))
	assert.Equal(t, FormatEXR, DetectFormat("", []byte{0x76, 0x2f, 0x31, 0x01}))
	assert.Equal(t, FormatEXR, DetectFormat("Lightmaps/bake.EXR", nil))
	assert.Equal(t, FormatHDR, DetectFormat("lightmap2048.0001.hdr", []byte{1, 2}))
	assert.Equal(t, FormatUnknown, DetectFormat("lightmap.png", []byte{0x89, 'P'}))
	assert.Equal(t, "exr", FormatEXR.String())
}

func TestRGBA16F(t *testing.T) {
	im := NewImage(2, 1)
	im.Set(1, 0, [4]float32{1, 0.5, 70000, 1})

	buf := im.RGBA16F()
	require.Len(t, buf, 2*BytesPerTexel)
	half := func(i int) float32 { return float16.Frombits(binary.LittleEndian.Uint16(buf[i*2:])).Float32() }

	assert.Equal(t, []float32{0, 0, 0, 1}, []float32{half(0), half(1), half(2), half(3)})
	assert.Equal(t, float32(1), half(4))
	assert.Equal(t, float32(0.5), half(5))
	assert.True(t, math.IsInf(float64(half(6)), 1), "beyond half range saturates")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lightmap.hdr")
	require.NoError(t, os.WriteFile(path, hdrFile(t, "-Y", 1, 1, [][4]byte{{128, 128, 128, 129}}, false), 0o644))

	im, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, im.At(0, 0))

	_, err = Load(filepath.Join(t.TempDir(), "missing.exr"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
