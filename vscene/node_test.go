// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vscene

import (
	"testing"

	"cogentcore.org/core/math32"
	"cogentcore.org/vgltf/vgpu"
	"github.com/stretchr/testify/assert"
)

func TestNodeWorldMatrix(t *testing.T) {
	parent := NewNode("parent")
	parent.Local.SetTranslation(1, 0, 0)
	child := NewNode("child")
	child.Local.SetTranslation(0, 2, 0)
	parent.Children = append(parent.Children, child)

	parent.UpdateWorldMatrix(math32.Identity4())

	pp := math32.Vector3{}.MulMatrix4(&parent.World)
	cp := math32.Vector3{}.MulMatrix4(&child.World)
	assert.InDelta(t, 1, pp.X, 1e-6)
	assert.InDelta(t, 1, cp.X, 1e-6)
	assert.InDelta(t, 2, cp.Y, 1e-6)
}

func TestNodeWalk(t *testing.T) {
	root := NewNode("root")
	a := NewNode("a")
	b := NewNode("b")
	ab := NewNode("ab")
	a.Children = append(a.Children, ab)
	root.Children = append(root.Children, a, b)

	var names []string
	root.Walk(func(nd *Node) {
		names = append(names, nd.Name)
	})
	assert.Equal(t, []string{"root", "a", "ab", "b"}, names)
}

func TestSceneBBox(t *testing.T) {
	sc := NewScene("bbox")
	pr := &Primitive{BBox: math32.B3(-1, -1, -1, 1, 1, 1)}
	ms := &Mesh{Name: "cube", Primitives: []*Primitive{pr}}
	nd := NewNode("cube")
	nd.Local.SetTranslation(5, 0, 0)
	nd.Mesh = ms
	sc.Root.Children = append(sc.Root.Children, nd)
	sc.Meshes = append(sc.Meshes, ms)

	sc.UpdateWorldMatrices()
	assert.InDelta(t, 4, sc.BBox.Min.X, 1e-5)
	assert.InDelta(t, 6, sc.BBox.Max.X, 1e-5)
	assert.InDelta(t, -1, sc.BBox.Min.Y, 1e-5)
}

func TestSceneBBoxEmpty(t *testing.T) {
	sc := NewScene("empty")
	sc.UpdateWorldMatrices()
	assert.True(t, sc.BBox.IsEmpty())
}

func TestMeshBBox(t *testing.T) {
	ms := &Mesh{Primitives: []*Primitive{
		{BBox: math32.B3(-1, 0, 0, 0, 1, 1)},
		{BBox: math32.B3(0, -2, 0, 3, 0, 1)},
	}}
	bb := ms.BBox()
	assert.Equal(t, math32.Vec3(-1, -2, 0), bb.Min)
	assert.Equal(t, math32.Vec3(3, 1, 1), bb.Max)
}

// Freeing a scene whose handles were never uploaded must not panic;
// the stale destroys are logged and dropped.
func TestSceneFreeStale(t *testing.T) {
	rm := &vgpu.ResourceManager{Dev: &vgpu.Device{}}
	sc := NewScene("stale")
	pr := &Primitive{}
	ms := &Mesh{Primitives: []*Primitive{pr}}
	sc.Meshes = append(sc.Meshes, ms)
	sc.Textures = append(sc.Textures, vgpu.ImageHandle{})

	assert.NotPanics(t, func() { sc.Free(rm) })
	assert.Nil(t, sc.Textures)
}
