// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vscene

import (
	"testing"

	"cogentcore.org/core/math32"
	"cogentcore.org/vgltf/vgpu"
	"cogentcore.org/vgltf/vpbr"
	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

// addPrim adds a node holding one unit-cube primitive at z with the
// given material.
func addPrim(sc *Scene, name string, z float32, mt *vpbr.Material) *Primitive {
	pr := &Primitive{
		Attrs:    vgpu.StdVertexAttrs,
		NIndex:   36,
		Material: mt,
		BBox:     math32.B3(-1, -1, -1, 1, 1, 1),
	}
	ms := &Mesh{Name: name, Primitives: []*Primitive{pr}}
	nd := NewNode(name)
	nd.Local.SetTranslation(0, 0, z)
	nd.Mesh = ms
	sc.Root.Children = append(sc.Root.Children, nd)
	sc.Meshes = append(sc.Meshes, ms)
	return pr
}

func testCamera() *Camera {
	cm := &Camera{}
	cm.Defaults()
	return cm
}

func TestBuildDrawListEmpty(t *testing.T) {
	sc := NewScene("empty")
	sc.UpdateWorldMatrices()
	items := BuildDrawList(sc, testCamera())
	assert.Empty(t, items)
}

func TestBuildDrawListOrder(t *testing.T) {
	opaque := vpbr.NewMaterial("opaque")
	mask := vpbr.NewMaterial("mask")
	mask.AlphaMode = vpbr.AlphaMask
	blend := vpbr.NewMaterial("blend")
	blend.AlphaMode = vpbr.AlphaBlend

	sc := NewScene("order")
	bNear := addPrim(sc, "blend-near", -2, blend)
	oFar := addPrim(sc, "opaque-far", -8, opaque)
	oNear := addPrim(sc, "opaque-near", -3, opaque)
	mk := addPrim(sc, "mask", -5, mask)
	bFar := addPrim(sc, "blend-far", -9, blend)
	sc.UpdateWorldMatrices()

	items := BuildDrawList(sc, testCamera())
	assert.Len(t, items, 5)

	// opaque front to back, then mask, then blend back to front
	assert.Same(t, oNear, items[0].Prim)
	assert.Same(t, oFar, items[1].Prim)
	assert.Same(t, mk, items[2].Prim)
	assert.Same(t, bFar, items[3].Prim)
	assert.Same(t, bNear, items[4].Prim)

	assert.Equal(t, PassOpaque, items[0].Pass)
	assert.Equal(t, PassMask, items[2].Pass)
	assert.Equal(t, PassBlend, items[3].Pass)
	assert.InDelta(t, 3, items[0].Depth, 1e-5)
	assert.InDelta(t, 8, items[1].Depth, 1e-5)
}

func TestBuildDrawListStableTies(t *testing.T) {
	mt := vpbr.NewMaterial("m")
	sc := NewScene("ties")
	first := addPrim(sc, "first", -4, mt)
	second := addPrim(sc, "second", -4, mt)
	sc.UpdateWorldMatrices()

	items := BuildDrawList(sc, testCamera())
	assert.Len(t, items, 2)
	assert.Same(t, first, items[0].Prim)
	assert.Same(t, second, items[1].Prim)
}

func TestBuildDrawListNilMaterial(t *testing.T) {
	sc := NewScene("nilmat")
	addPrim(sc, "bare", -3, nil)
	sc.UpdateWorldMatrices()

	items := BuildDrawList(sc, testCamera())
	assert.Len(t, items, 1)
	assert.Equal(t, PassOpaque, items[0].Pass)
}

func TestBuildDrawListWorldCapture(t *testing.T) {
	mt := vpbr.NewMaterial("m")
	sc := NewScene("world")
	addPrim(sc, "a", -6, mt)
	sc.UpdateWorldMatrices()

	items := BuildDrawList(sc, testCamera())
	assert.Equal(t, sc.Root.Children[0].World, items[0].World)
}

// Primitives sharing a vertex layout and material flags must map to
// the same pipeline key, so the cache compiles one pipeline for both.
func TestSharedPipelineKey(t *testing.T) {
	a := vpbr.NewMaterial("a")
	b := vpbr.NewMaterial("b")
	b.BaseColorFactor = math32.Vec4(1, 0, 0, 1)

	var pass vk.RenderPass
	ka := vgpu.PipelineKey{Attrs: vgpu.StdVertexAttrs, Flags: a.Flags(), Pass: pass}
	kb := vgpu.PipelineKey{Attrs: vgpu.StdVertexAttrs, Flags: b.Flags(), Pass: pass}
	assert.Equal(t, ka, kb)

	b.DoubleSided = true
	kc := vgpu.PipelineKey{Attrs: vgpu.StdVertexAttrs, Flags: b.Flags(), Pass: pass}
	assert.NotEqual(t, ka, kc)
}
