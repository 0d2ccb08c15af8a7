package loader

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

var (
	errNoDocument         = errors.New("no glTF document loaded")
	errBadGLTFVersion     = errors.New("only glTF 2.x assets are supported")
	errBadGLB             = errors.New("malformed GLB container")
	errBufferSizeMismatch = errors.New("buffer shorter than declared")
	errSparseAccessor     = errors.New("sparse accessors are not supported")
)

// gltfParser decodes a glTF or GLB container, resolves its buffers and reads typed attribute
// data out of accessors. It is not safe for concurrent use.
type gltfParser interface {
	// Parse reads the file at path. GLB is recognised by extension or magic number.
	//
	// Parameters:
	//   - path: path of the .gltf or .glb file; external buffers resolve relative to it
	//
	// Returns:
	//   - error: error if the file cannot be read or decoded
	Parse(path string) error

	// ParseReader decodes a container from r. External buffer URIs resolve relative to the
	// working directory.
	//
	// Parameters:
	//   - r: the encoded asset
	//   - isGLB: force GLB decoding; GLB magic is detected either way
	//
	// Returns:
	//   - error: error if decoding fails
	ParseReader(r io.Reader, isGLB bool) error

	// Document returns the decoded document, or nil before a successful parse.
	Document() *gltfDocument

	// BaseDir returns the directory external URIs are resolved against.
	BaseDir() string

	// ReadVec3Accessor reads a VEC3 FLOAT accessor such as POSITION.
	//
	// Parameters:
	//   - index: the accessor index
	//
	// Returns:
	//   - [][3]float32: one element per accessor entry
	//   - error: error if the accessor has another layout or overruns its buffer
	ReadVec3Accessor(index int) ([][3]float32, error)

	// ReadVec2Accessor reads a VEC2 accessor such as TEXCOORD_n. FLOAT data is returned as is;
	// normalized UNSIGNED_BYTE and UNSIGNED_SHORT data is mapped to [0, 1].
	//
	// Parameters:
	//   - index: the accessor index
	//
	// Returns:
	//   - [][2]float32: one element per accessor entry
	//   - error: error if the accessor has another layout or overruns its buffer
	ReadVec2Accessor(index int) ([][2]float32, error)

	// ReadIndicesAccessor reads a SCALAR accessor of unsigned integers and widens it.
	//
	// Parameters:
	//   - index: the accessor index
	//
	// Returns:
	//   - []uint32: the indices
	//   - error: error if the accessor has another layout or overruns its buffer
	ReadIndicesAccessor(index int) ([]uint32, error)
}

type gltfParserImpl struct {
	baseDir  string
	document *gltfDocument
	bin      []byte
}

var _ gltfParser = &gltfParserImpl{}

func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) BaseDir() string {
	return p.baseDir
}

func (p *gltfParserImpl) Parse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	p.baseDir = filepath.Dir(path)
	return p.decode(data, strings.EqualFold(filepath.Ext(path), ".glb"))
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read glTF stream: %w", err)
	}
	return p.decode(data, isGLB)
}

func (p *gltfParserImpl) decode(data []byte, isGLB bool) error {
	text := data
	p.bin = nil
	if isGLB || (len(data) >= 4 && binary.LittleEndian.Uint32(data) == glbMagic) {
		var err error
		if text, p.bin, err = readGLBChunks(data); err != nil {
			return err
		}
	}

	doc := &gltfDocument{}
	if err := json.Unmarshal(text, doc); err != nil {
		return fmt.Errorf("decode glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return fmt.Errorf("%w: got %q", errBadGLTFVersion, doc.Asset.Version)
	}
	for i := range doc.Buffers {
		if err := p.fillBuffer(&doc.Buffers[i], i); err != nil {
			return fmt.Errorf("buffer %d: %w", i, err)
		}
	}
	p.document = doc
	return nil
}

// readGLBChunks returns the JSON and optional BIN payloads of a GLB container, ignoring
// chunk types it does not know.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func readGLBChunks(data []byte) (text, bin []byte, err error) {
	le := binary.LittleEndian
	if len(data) < glbHeaderSize || le.Uint32(data) != glbMagic {
		return nil, nil, fmt.Errorf("%w: bad header", errBadGLB)
	}
	if v := le.Uint32(data[4:]); v != glbVersion {
		return nil, nil, fmt.Errorf("%w: version %d", errBadGLB, v)
	}

	rest := data[glbHeaderSize:]
	for len(rest) > 0 {
		if len(rest) < 8 {
			return nil, nil, fmt.Errorf("%w: truncated chunk header", errBadGLB)
		}
		size, kind := le.Uint32(rest), le.Uint32(rest[4:])
		rest = rest[8:]
		if uint64(size) > uint64(len(rest)) {
			return nil, nil, fmt.Errorf("%w: chunk of %d bytes with %d left", errBadGLB, size, len(rest))
		}
		switch kind {
		case glbChunkJSON:
			text = rest[:size]
		case glbChunkBIN:
			bin = rest[:size]
		}
		rest = rest[size:]
	}

	if text == nil {
		return nil, nil, fmt.Errorf("%w: no JSON chunk", errBadGLB)
	}
	return text, bin, nil
}

// fillBuffer loads a buffer's bytes. Only buffer 0 of a GLB may omit its URI.
func (p *gltfParserImpl) fillBuffer(buf *gltfBuffer, index int) error {
	var err error
	switch {
	case buf.URI == "" && index == 0 && p.bin != nil:
		buf.data = p.bin
	case buf.URI == "":
		return errors.New("no URI and no GLB BIN chunk")
	case strings.HasPrefix(buf.URI, "data:"):
		buf.data, err = decodeDataURI(buf.URI)
	default:
		buf.data, err = os.ReadFile(filepath.Join(p.baseDir, buf.URI))
	}
	if err != nil {
		return err
	}
	if len(buf.data) < buf.ByteLength {
		return fmt.Errorf("%w: %d of %d bytes", errBufferSizeMismatch, len(buf.data), buf.ByteLength)
	}
	return nil
}

// decodeDataURI accepts base64 data URIs of any media type.
func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("data URI is not base64 encoded: %.40q", uri)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data URI: %w", err)
	}
	return data, nil
}

// gltfView is a bounds-checked window onto the elements of one accessor.
type gltfView struct {
	acc    *gltfAccessor
	data   []byte
	start  int
	stride int
}

// elem returns the bytes of element i.
func (v gltfView) elem(i int) []byte {
	return v.data[v.start+i*v.stride:]
}

// view resolves an accessor to its buffer bytes after checking that every element fits.
func (p *gltfParserImpl) view(index int, elemType string) (gltfView, error) {
	if p.document == nil {
		return gltfView{}, errNoDocument
	}
	doc := p.document
	if index < 0 || index >= len(doc.Accessors) {
		return gltfView{}, fmt.Errorf("accessor %d out of range", index)
	}
	acc := &doc.Accessors[index]
	switch {
	case acc.Type != elemType:
		return gltfView{}, fmt.Errorf("accessor %d is %s, want %s", index, acc.Type, elemType)
	case acc.Sparse != nil:
		return gltfView{}, fmt.Errorf("accessor %d: %w", index, errSparseAccessor)
	case acc.BufferView == nil:
		return gltfView{}, fmt.Errorf("accessor %d has no buffer view", index)
	case *acc.BufferView < 0 || *acc.BufferView >= len(doc.BufferViews):
		return gltfView{}, fmt.Errorf("accessor %d: buffer view %d out of range", index, *acc.BufferView)
	}
	bv := &doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) {
		return gltfView{}, fmt.Errorf("buffer view %d: buffer %d out of range", *acc.BufferView, bv.Buffer)
	}

	size := gltfComponentBytes[acc.ComponentType] * gltfTypeWidth[acc.Type]
	if size == 0 {
		return gltfView{}, fmt.Errorf("accessor %d: unknown component type %d", index, acc.ComponentType)
	}
	v := gltfView{acc: acc, data: doc.Buffers[bv.Buffer].data, start: bv.ByteOffset + acc.ByteOffset, stride: size}
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		v.stride = *bv.ByteStride
	}
	if acc.Count > 0 && v.start+(acc.Count-1)*v.stride+size > len(v.data) {
		return gltfView{}, fmt.Errorf("accessor %d: %w", index, errBufferSizeMismatch)
	}
	return v, nil
}

func (p *gltfParserImpl) ReadVec3Accessor(index int) ([][3]float32, error) {
	v, err := p.view(index, "VEC3")
	if err != nil {
		return nil, err
	}
	if v.acc.ComponentType != gltfFloat {
		return nil, fmt.Errorf("accessor %d: VEC3 component type %d, want FLOAT", index, v.acc.ComponentType)
	}
	out := make([][3]float32, v.acc.Count)
	for i := range out {
		e := v.elem(i)
		out[i] = [3]float32{f32(e), f32(e[4:]), f32(e[8:])}
	}
	return out, nil
}

func (p *gltfParserImpl) ReadVec2Accessor(index int) ([][2]float32, error) {
	v, err := p.view(index, "VEC2")
	if err != nil {
		return nil, err
	}
	var read func(e []byte) [2]float32
	switch {
	case v.acc.ComponentType == gltfFloat:
		read = func(e []byte) [2]float32 { return [2]float32{f32(e), f32(e[4:])} }
	case v.acc.ComponentType == gltfUnsignedShort && v.acc.Normalized:
		read = func(e []byte) [2]float32 {
			return [2]float32{unorm(binary.LittleEndian.Uint16(e), math.MaxUint16), unorm(binary.LittleEndian.Uint16(e[2:]), math.MaxUint16)}
		}
	case v.acc.ComponentType == gltfUnsignedByte && v.acc.Normalized:
		read = func(e []byte) [2]float32 {
			return [2]float32{unorm(uint16(e[0]), math.MaxUint8), unorm(uint16(e[1]), math.MaxUint8)}
		}
	default:
		return nil, fmt.Errorf("accessor %d: VEC2 component type %d (normalized=%v) is not a texture coordinate",
			index, v.acc.ComponentType, v.acc.Normalized)
	}
	out := make([][2]float32, v.acc.Count)
	for i := range out {
		out[i] = read(v.elem(i))
	}
	return out, nil
}

func (p *gltfParserImpl) ReadIndicesAccessor(index int) ([]uint32, error) {
	v, err := p.view(index, "SCALAR")
	if err != nil {
		return nil, err
	}
	var read func(e []byte) uint32
	switch v.acc.ComponentType {
	case gltfUnsignedByte:
		read = func(e []byte) uint32 { return uint32(e[0]) }
	case gltfUnsignedShort:
		read = func(e []byte) uint32 { return uint32(binary.LittleEndian.Uint16(e)) }
	case gltfUnsignedInt:
		read = binary.LittleEndian.Uint32
	default:
		return nil, fmt.Errorf("accessor %d: index component type %d", index, v.acc.ComponentType)
	}
	out := make([]uint32, v.acc.Count)
	for i := range out {
		out[i] = read(v.elem(i))
	}
	return out, nil
}

func f32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func unorm(v, full uint16) float32 {
	return float32(v) / float32(full)
}
