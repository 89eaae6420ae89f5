// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vscene

import (
	"cogentcore.org/core/math32"
	"cogentcore.org/vgltf/vgpu"
	"cogentcore.org/vgltf/vpbr"
)

// Scene is a complete renderable asset: the node hierarchy plus the
// meshes, materials, and texture handles it references. The importer
// produces it and the renderer reads it; nothing mutates it during
// drawing except the world matrices.
type Scene struct {
	Name string

	// root of the hierarchy, with an identity transform
	Root Node

	Meshes []*Mesh

	Materials []*vpbr.Material

	// every texture uploaded for this scene, each exactly once,
	// so shared textures are not destroyed twice
	Textures []vgpu.ImageHandle

	// world-space bounds, updated by [Scene.UpdateWorldMatrices]
	BBox math32.Box3
}

// NewScene returns an empty scene with an identity root.
func NewScene(name string) *Scene {
	sc := &Scene{Name: name}
	sc.Root.Local.SetIdentity()
	sc.Root.World.SetIdentity()
	return sc
}

// UpdateWorldMatrices recomposes all world matrices from the node
// hierarchy and recomputes the world-space scene bounds.
func (sc *Scene) UpdateWorldMatrices() {
	ident := math32.Identity4()
	sc.Root.UpdateWorldMatrix(ident)
	bb := math32.B3Empty()
	sc.Root.Walk(func(nd *Node) {
		if nd.Mesh == nil {
			return
		}
		for _, pr := range nd.Mesh.Primitives {
			if pr.BBox.IsEmpty() {
				continue
			}
			bb.ExpandByBox(pr.BBox.MulMatrix4(&nd.World))
		}
	})
	sc.BBox = bb
}

// Free releases all GPU buffers and textures the scene references.
// Release is deferred until the frames that may still reference them
// have completed.
func (sc *Scene) Free(rm *vgpu.ResourceManager) {
	for _, ms := range sc.Meshes {
		for _, pr := range ms.Primitives {
			rm.DestroyBuffer(pr.VtxBuff)
			rm.DestroyBuffer(pr.IndexBuff)
		}
	}
	for _, tx := range sc.Textures {
		rm.DestroyImage(tx)
	}
	sc.Textures = nil
}
