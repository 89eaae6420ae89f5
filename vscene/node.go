// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vscene holds the runtime scene: a transform hierarchy of
// nodes referencing meshes and materials, cameras, and the renderer
// that turns a scene and camera into an ordered list of draw items
// and records them each frame. The scene is produced by an importer
// and is read-only during rendering.
package vscene

import "cogentcore.org/core/math32"

// Node is one element of the transform hierarchy. Nodes with a nil
// Mesh only group and transform their children.
type Node struct {

	// optional name from the source asset
	Name string

	// transform relative to the parent
	Local math32.Matrix4

	// world transform, composed by [Scene.UpdateWorldMatrices]
	World math32.Matrix4

	// mesh drawn at this node, nil for grouping nodes
	Mesh *Mesh

	Children []*Node
}

// NewNode returns a node with an identity local transform.
func NewNode(name string) *Node {
	nd := &Node{Name: name}
	nd.Local.SetIdentity()
	nd.World.SetIdentity()
	return nd
}

// UpdateWorldMatrix composes this node's world matrix from the parent
// world matrix and recurses into children.
func (nd *Node) UpdateWorldMatrix(parent *math32.Matrix4) {
	nd.World.MulMatrices(parent, &nd.Local)
	for _, kid := range nd.Children {
		kid.UpdateWorldMatrix(&nd.World)
	}
}

// Walk calls fn for this node and all descendants, depth first.
func (nd *Node) Walk(fn func(nd *Node)) {
	fn(nd)
	for _, kid := range nd.Children {
		kid.Walk(fn)
	}
}
