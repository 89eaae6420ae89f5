// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vscene

import (
	"cogentcore.org/core/math32"
	"cogentcore.org/vgltf/vgpu"
	"cogentcore.org/vgltf/vpbr"
)

// Mesh is a named group of primitives drawn together at a node.
type Mesh struct {
	Name string

	Primitives []*Primitive
}

// Primitive is one indexed triangle list with a single material.
// The vertex and index data live on the GPU, referenced through
// arena handles, so a primitive carries no CPU-side geometry.
type Primitive struct {

	// which attributes the vertex buffer interleaves
	Attrs vgpu.VertexAttrs

	// interleaved vertex data
	VtxBuff vgpu.BufferHandle

	// uint32 index data
	IndexBuff vgpu.BufferHandle

	// number of indices to draw
	NIndex int

	Material *vpbr.Material

	// local-space bounds, for camera framing and depth sorting
	BBox math32.Box3
}

// BBox returns the union of the primitive bounds in mesh-local space.
func (ms *Mesh) BBox() math32.Box3 {
	bb := math32.B3Empty()
	for _, pr := range ms.Primitives {
		bb.ExpandByBox(pr.BBox)
	}
	return bb
}
