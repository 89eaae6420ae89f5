// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vscene

import (
	"sort"

	"cogentcore.org/core/math32"
	"cogentcore.org/vgltf/vpbr"
)

// DrawPasses orders the three material passes within a frame.
type DrawPasses int32

const (
	// fully opaque materials, drawn first, front to back
	PassOpaque DrawPasses = iota

	// alpha cutout materials, also front to back
	PassMask

	// alpha blended materials, drawn last, back to front
	PassBlend
)

// DrawItem is one primitive resolved for drawing this frame: the
// primitive, the world transform of its node, and the sort keys.
// Items are rebuilt from the scene every frame and never persisted.
type DrawItem struct {
	Prim *Primitive

	// world transform captured at list build time
	World math32.Matrix4

	// view-space distance from the camera, for depth ordering
	Depth float32

	Pass DrawPasses
}

func passFor(mt *vpbr.Material) DrawPasses {
	if mt == nil {
		return PassOpaque
	}
	switch mt.AlphaMode {
	case vpbr.AlphaMask:
		return PassMask
	case vpbr.AlphaBlend:
		return PassBlend
	}
	return PassOpaque
}

// BuildDrawList resolves the scene into the ordered list of items to
// draw for the given camera: opaque then masked items front to back
// to cut overdraw, then blended items back to front so transparency
// composes correctly. Items at equal depth keep traversal order. The
// list depends only on its inputs.
func BuildDrawList(sc *Scene, cm *Camera) []DrawItem {
	var items []DrawItem
	sc.Root.Walk(func(nd *Node) {
		if nd.Mesh == nil {
			return
		}
		for _, pr := range nd.Mesh.Primitives {
			center := math32.Vector3{}.MulMatrix4(&nd.World)
			if !pr.BBox.IsEmpty() {
				center = pr.BBox.Center().MulMatrix4(&nd.World)
			}
			vpos := center.MulMatrix4(&cm.View)
			items = append(items, DrawItem{
				Prim:  pr,
				World: nd.World,
				Depth: -vpos.Z,
				Pass:  passFor(pr.Material),
			})
		}
	})
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if a.Pass != b.Pass {
			return a.Pass < b.Pass
		}
		if a.Pass == PassBlend {
			return a.Depth > b.Depth
		}
		return a.Depth < b.Depth
	})
	return items
}
