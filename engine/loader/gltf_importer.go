package loader

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-walk/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter orchestrates a glTF/GLB import: it parses the container, walks the default
// scene's node hierarchy, and produces a scene graph with one mesh node per triangle primitive.
type gltfImporter interface {
	// Import loads a glTF/GLB file into a scene graph.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - scene.Node: the root group of the imported scene
	//   - error: error if import fails
	Import(path string) (scene.Node, error)

	// ImportReader loads a glTF document from a reader.
	// Relative buffer URIs cannot be resolved, so the document must be self-contained.
	//
	// Parameters:
	//   - name: the name given to the root node
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data, false for glTF JSON
	//
	// Returns:
	//   - scene.Node: the root group of the imported scene
	//   - error: error if import fails
	ImportReader(name string, r io.Reader, isGLB bool) (scene.Node, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string) (scene.Node, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return imp.importFromParser(parser, filepath.Base(path))
}

func (imp *gltfImporterImpl) ImportReader(name string, r io.Reader, isGLB bool) (scene.Node, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}
	return imp.importFromParser(parser, name)
}

// importFromParser builds the scene graph from a parser that has already loaded a document.
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackName string) (scene.Node, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document after parsing")
	}

	meshes := newGLTFMeshExtractor(parser, newGLTFMaterialExtractor(parser))
	root := scene.NewGroup(gltfExtractSceneName(doc, fallbackName))

	visited := make([]bool, len(doc.Nodes))
	for _, idx := range gltfRootNodes(doc) {
		child, err := imp.buildNode(doc, meshes, idx, visited)
		if err != nil {
			return nil, err
		}
		root.Add(child)
	}
	return root, nil
}

// buildNode converts a glTF node and its subtree. visited guards against malformed cyclic hierarchies.
func (imp *gltfImporterImpl) buildNode(doc *gltfDocument, meshes gltfMeshExtractor, idx int, visited []bool) (scene.Node, error) {
	if idx < 0 || idx >= len(doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if visited[idx] {
		return nil, fmt.Errorf("node %d appears more than once in the hierarchy", idx)
	}
	visited[idx] = true

	gn := &doc.Nodes[idx]
	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", idx)
	}
	n := scene.NewGroup(name, scene.WithTransform(gltfNodeMatrix(gn)))

	if gn.Mesh != nil {
		prims, err := meshes.ExtractMesh(*gn.Mesh)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", name, err)
		}
		for _, p := range prims {
			n.Add(scene.NewMesh(p.Name, p.Geometry))
		}
	}

	for _, c := range gn.Children {
		child, err := imp.buildNode(doc, meshes, c, visited)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

// --- Helper Functions ---

// gltfRootNodes returns the root node indices of the default scene. Documents without scenes
// fall back to every node that is not some other node's child.
func gltfRootNodes(doc *gltfDocument) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}

// gltfNodeMatrix returns the node's local transform. Matrix takes precedence over TRS,
// and TRS composes as T * R * S.
func gltfNodeMatrix(node *gltfNode) mgl32.Mat4 {
	if node.Matrix != nil {
		return mgl32.Mat4(*node.Matrix)
	}

	m := mgl32.Ident4()
	if node.Translation != nil {
		t := node.Translation
		m = mgl32.Translate3D(t[0], t[1], t[2])
	}
	if node.Rotation != nil {
		r := node.Rotation
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
		m = m.Mul4(q.Mat4())
	}
	if node.Scale != nil {
		s := node.Scale
		m = m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return m
}

// gltfExtractSceneName derives a root name from the default scene or the fallback.
func gltfExtractSceneName(doc *gltfDocument, fallback string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}
	if fallback != "" {
		return fallback
	}
	return "unnamed_model"
}
