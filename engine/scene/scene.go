// Package scene holds the node graph produced by the model loader and consumed by the
// renderer and the obstacle collector.
package scene

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeKind distinguishes grouping nodes from renderable mesh nodes.
type NodeKind int

const (
	// NodeKindGroup is a transform-only node.
	NodeKindGroup NodeKind = iota
	// NodeKindMesh is a renderable node carrying triangle geometry.
	NodeKindMesh
)

// String returns the kind name.
func (k NodeKind) String() string {
	switch k {
	case NodeKindGroup:
		return "group"
	case NodeKindMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

type node struct {
	mu *sync.Mutex

	name     string
	kind     NodeKind
	parent   *node
	children []Node
	local    mgl32.Mat4
	geometry *Geometry
}

// Node is an element of the scene graph. Every node has a local transform relative to its
// parent; mesh nodes additionally carry Geometry in their local space.
type Node interface {
	// Name returns the node name, which may be empty.
	//
	// Returns:
	//   - string: the node name
	Name() string

	// Kind returns whether the node is a group or a mesh.
	//
	// Returns:
	//   - NodeKind: the node kind
	Kind() NodeKind

	// Parent returns the parent node, or nil for a root.
	//
	// Returns:
	//   - Node: the parent or nil
	Parent() Node

	// Children returns a copy of the child list.
	//
	// Returns:
	//   - []Node: the children in insertion order
	Children() []Node

	// Add appends children to this node and sets their parent. Nodes that already
	// have a parent are detached from it first.
	//
	// Parameters:
	//   - children: the nodes to attach
	Add(children ...Node)

	// LocalTransform returns the transform relative to the parent.
	//
	// Returns:
	//   - mgl32.Mat4: the local transform
	LocalTransform() mgl32.Mat4

	// SetLocalTransform replaces the transform relative to the parent.
	//
	// Parameters:
	//   - m: the new local transform
	SetLocalTransform(m mgl32.Mat4)

	// WorldTransform returns the product of all local transforms from the root down to this node.
	//
	// Returns:
	//   - mgl32.Mat4: the world transform
	WorldTransform() mgl32.Mat4

	// Geometry returns the mesh geometry, or nil for group nodes.
	//
	// Returns:
	//   - *Geometry: the geometry or nil
	Geometry() *Geometry

	// Traverse visits this node and every descendant depth-first in pre-order.
	//
	// Parameters:
	//   - fn: called once per node
	Traverse(fn func(Node))
}

var _ Node = &node{}

// NewGroup creates a transform-only node.
//
// Parameters:
//   - name: the node name
//   - options: functional options to configure the node
//
// Returns:
//   - Node: the new group node
func NewGroup(name string, options ...NodeBuilderOption) Node {
	return newNode(name, NodeKindGroup, nil, options...)
}

// NewMesh creates a renderable node carrying geometry.
//
// Parameters:
//   - name: the node name
//   - geom: the triangle geometry in the node's local space
//   - options: functional options to configure the node
//
// Returns:
//   - Node: the new mesh node
func NewMesh(name string, geom *Geometry, options ...NodeBuilderOption) Node {
	return newNode(name, NodeKindMesh, geom, options...)
}

func newNode(name string, kind NodeKind, geom *Geometry, options ...NodeBuilderOption) *node {
	n := &node{
		mu:       &sync.Mutex{},
		name:     name,
		kind:     kind,
		local:    mgl32.Ident4(),
		geometry: geom,
	}
	for _, option := range options {
		option(n)
	}
	return n
}

func (n *node) Name() string {
	return n.name
}

func (n *node) Kind() NodeKind {
	return n.kind
}

func (n *node) Parent() Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *node) Children() []Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *node) Add(children ...Node) {
	for _, c := range children {
		child, ok := c.(*node)
		if !ok || child == n {
			continue
		}
		child.detach()

		child.mu.Lock()
		child.parent = n
		child.mu.Unlock()

		n.mu.Lock()
		n.children = append(n.children, child)
		n.mu.Unlock()
	}
}

func (n *node) LocalTransform() mgl32.Mat4 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.local
}

func (n *node) SetLocalTransform(m mgl32.Mat4) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.local = m
}

func (n *node) WorldTransform() mgl32.Mat4 {
	n.mu.Lock()
	local, parent := n.local, n.parent
	n.mu.Unlock()
	if parent == nil {
		return local
	}
	return parent.WorldTransform().Mul4(local)
}

func (n *node) Geometry() *Geometry {
	return n.geometry
}

func (n *node) Traverse(fn func(Node)) {
	fn(n)
	for _, c := range n.Children() {
		c.Traverse(fn)
	}
}

// detach removes the node from its current parent's child list.
func (n *node) detach() {
	n.mu.Lock()
	parent := n.parent
	n.parent = nil
	n.mu.Unlock()
	if parent == nil {
		return
	}

	parent.mu.Lock()
	defer parent.mu.Unlock()
	for i, c := range parent.children {
		if c == Node(n) {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			return
		}
	}
}

// Stats summarizes a graph for logging.
type Stats struct {
	Nodes     int
	Meshes    int
	Triangles int
}

// Summarize counts nodes, mesh nodes, and triangles reachable from root.
//
// Parameters:
//   - root: the graph root
//
// Returns:
//   - Stats: the counts
func Summarize(root Node) Stats {
	var s Stats
	if root == nil {
		return s
	}
	root.Traverse(func(n Node) {
		s.Nodes++
		if g := n.Geometry(); n.Kind() == NodeKindMesh && g != nil {
			s.Meshes++
			s.Triangles += g.TriangleCount()
		}
	})
	return s
}
