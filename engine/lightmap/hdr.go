package lightmap

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// hdrMaxHeaderLines bounds the header scan of a Radiance file.
const hdrMaxHeaderLines = 1024

// decodeHDR reads a Radiance RGBE picture: a text header, a resolution line and scanlines
// that are either flat RGBE quads or run-length encoded per component.
func decodeHDR(r *bufio.Reader) (*Image, error) {
	first, err := hdrLine(r)
	if err != nil || !strings.HasPrefix(first, "#?") {
		return nil, fmt.Errorf("%w: missing #? signature", ErrMalformed)
	}

	for i := 0; ; i++ {
		if i == hdrMaxHeaderLines {
			return nil, fmt.Errorf("%w: header not terminated", ErrMalformed)
		}
		line, err := hdrLine(r)
		if err != nil {
			return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
		}
		if line == "" {
			break
		}
		if format, ok := strings.CutPrefix(line, "FORMAT="); ok && format != "32-bit_rle_rgbe" {
			return nil, fmt.Errorf("%w: pixel format %s", ErrUnsupportedFeature, format)
		}
	}

	res, err := hdrLine(r)
	if err != nil {
		return nil, fmt.Errorf("%w: resolution: %v", ErrMalformed, err)
	}
	width, height, flip, err := hdrResolution(res)
	if err != nil {
		return nil, err
	}

	im := NewImage(width, height)
	scan := make([]byte, width*4)
	for y := range height {
		if err := hdrScanline(r, scan); err != nil {
			return nil, fmt.Errorf("%w: scanline %d: %v", ErrMalformed, y, err)
		}
		row := y
		if flip {
			row = height - 1 - y
		}
		for x := range width {
			q := scan[x*4 : x*4+4]
			im.Set(x, row, rgbe(q[0], q[1], q[2], q[3]))
		}
	}
	return im, nil
}

func hdrLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// hdrResolution parses "-Y h +X w" (top to bottom) or "+Y h +X w" (bottom to top).
func hdrResolution(line string) (width, height int, flip bool, err error) {
	f := strings.Fields(line)
	if len(f) != 4 || f[2] != "+X" || (f[0] != "-Y" && f[0] != "+Y") {
		return 0, 0, false, fmt.Errorf("%w: orientation %q", ErrUnsupportedFeature, line)
	}
	height, errH := strconv.Atoi(f[1])
	width, errW := strconv.Atoi(f[3])
	if errH != nil || errW != nil || width <= 0 || height <= 0 {
		return 0, 0, false, fmt.Errorf("%w: resolution %q", ErrMalformed, line)
	}
	return width, height, f[0] == "+Y", nil
}

// hdrScanline fills scan with width RGBE quads. Run-length encoded lines start with
// 2, 2 and the big-endian width, then store each component as runs and literals.
func hdrScanline(r *bufio.Reader, scan []byte) error {
	width := len(scan) / 4
	head, err := r.Peek(4)
	if width < 8 || width > 0x7fff || err != nil || head[0] != 2 || head[1] != 2 || head[2]&0x80 != 0 {
		_, err := io.ReadFull(r, scan)
		return err
	}
	if int(head[2])<<8|int(head[3]) != width {
		return fmt.Errorf("encoded width %d", int(head[2])<<8|int(head[3]))
	}
	if _, err := r.Discard(4); err != nil {
		return err
	}

	for c := range 4 {
		for x := 0; x < width; {
			count, err := r.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				n := int(count) - 128
				if x+n > width {
					return fmt.Errorf("run overflows scanline")
				}
				v, err := r.ReadByte()
				if err != nil {
					return err
				}
				for ; n > 0; n-- {
					scan[x*4+c] = v
					x++
				}
				continue
			}
			n := int(count)
			if n == 0 || x+n > width {
				return fmt.Errorf("bad literal length %d", n)
			}
			for ; n > 0; n-- {
				v, err := r.ReadByte()
				if err != nil {
					return err
				}
				scan[x*4+c] = v
				x++
			}
		}
	}
	return nil
}

// rgbe expands a shared-exponent pixel to linear RGB.
func rgbe(r, g, b, e byte) [4]float32 {
	if e == 0 {
		return [4]float32{0, 0, 0, 1}
	}
	f := float32(math.Ldexp(1, int(e)-(128+8)))
	return [4]float32{float32(r) * f, float32(g) * f, float32(b) * f, 1}
}
