package scene

import "github.com/go-gl/mathgl/mgl32"

// NodeBuilderOption is a functional option for configuring a Node.
// Use the With* functions to create options.
type NodeBuilderOption func(n *node)

// WithTransform sets the node's local transform.
//
// Parameters:
//   - m: the local transform relative to the parent
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithTransform(m mgl32.Mat4) NodeBuilderOption {
	return func(n *node) {
		n.local = m
	}
}

// WithTranslation sets the node's local transform to a pure translation.
//
// Parameters:
//   - x, y, z: the translation
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithTranslation(x, y, z float32) NodeBuilderOption {
	return func(n *node) {
		n.local = mgl32.Translate3D(x, y, z)
	}
}

// WithChildren attaches initial children to the node.
//
// Parameters:
//   - children: the nodes to attach
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithChildren(children ...Node) NodeBuilderOption {
	return func(n *node) {
		n.Add(children...)
	}
}
