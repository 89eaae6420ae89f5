// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgltf

import (
	"image"
	"path/filepath"
	"testing"

	"cogentcore.org/core/math32"
	"cogentcore.org/vgltf/vgpu"
	"cogentcore.org/vgltf/vpbr"
	vk "github.com/goki/vulkan"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTriangle(t *testing.T) {
	as, err := Open(filepath.Join("testdata", "triangle.gltf"))
	require.NoError(t, err)
	assert.Equal(t, "triangle", as.Name)

	require.Len(t, as.Meshes, 1)
	require.Len(t, as.Meshes[0].Primitives, 1)
	pd := as.Meshes[0].Primitives[0]
	assert.Equal(t, vgpu.StdVertexAttrs, pd.Attrs)
	assert.Equal(t, []uint32{0, 1, 2}, pd.Indices)
	require.Len(t, pd.Verts, 24)

	// positions at stride 8, computed normals all +Z, zero texcoords
	want := []float32{
		0, 0, 0, 0, 0, 1, 0, 0,
		1, 0, 0, 0, 0, 1, 0, 0,
		0, 1, 0, 0, 0, 1, 0, 0,
	}
	for i, v := range want {
		assert.InDelta(t, v, pd.Verts[i], 1e-6, "vertex float %d", i)
	}
	assert.Equal(t, math32.Vec3(0, 0, 0), pd.BBox.Min)
	assert.Equal(t, math32.Vec3(1, 1, 0), pd.BBox.Max)

	require.Len(t, as.Materials, 1)
	assert.Equal(t, 0, pd.Material)
	md := as.Materials[0]
	assert.Equal(t, "red", md.Name)
	assert.Equal(t, math32.Vec4(1, 0, 0, 1), md.BaseColorFactor)
	assert.Equal(t, float32(0), md.MetallicFactor)
	assert.InDelta(t, 0.8, md.RoughnessFactor, 1e-6)
	assert.InDelta(t, 0.5, md.AlphaCutoff, 1e-6)
	assert.Equal(t, vpbr.AlphaOpaque, md.AlphaMode)
	assert.True(t, md.DoubleSided)
	assert.Equal(t, -1, md.BaseColorTex)
	assert.Equal(t, -1, md.NormalTex)

	require.Len(t, as.Roots, 1)
	nd := as.Roots[0]
	assert.Equal(t, "tri", nd.Name)
	assert.Equal(t, 0, nd.Mesh)
	assert.Empty(t, nd.Children)
	assert.Equal(t, float32(-2), nd.Local[14])
}

func TestNodeLocal(t *testing.T) {
	var gn gltf.Node
	m := nodeLocal(&gn)
	assert.Equal(t, *math32.Identity4(), m)

	gn.Translation[0] = 1
	gn.Translation[1] = 2
	gn.Translation[2] = 3
	m = nodeLocal(&gn)
	assert.Equal(t, float32(1), m[0])
	assert.Equal(t, float32(1), m[12])
	assert.Equal(t, float32(2), m[13])
	assert.Equal(t, float32(3), m[14])

	var gs gltf.Node
	gs.Scale[0], gs.Scale[1], gs.Scale[2] = 2, 3, 4
	m = nodeLocal(&gs)
	assert.Equal(t, float32(2), m[0])
	assert.Equal(t, float32(3), m[5])
	assert.Equal(t, float32(4), m[10])

	// quarter turn about Z maps +X to +Y
	var gr gltf.Node
	gr.Rotation[2] = 0.7071068
	gr.Rotation[3] = 0.7071068
	m = nodeLocal(&gr)
	assert.InDelta(t, 0, m[0], 1e-5)
	assert.InDelta(t, 1, m[1], 1e-5)

	var gm gltf.Node
	gm.Matrix[0], gm.Matrix[5], gm.Matrix[10], gm.Matrix[15] = 1, 1, 1, 1
	gm.Matrix[12] = 5
	m = nodeLocal(&gm)
	assert.Equal(t, float32(5), m[12])
	assert.Equal(t, float32(1), m[5])
}

func TestComputeNormals(t *testing.T) {
	pos := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {5, 5, 5}}
	idx := []uint32{0, 1, 2, 0, 2, 3}
	norms := computeNormals(pos, idx)
	require.Len(t, norms, 5)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 0, norms[i][0], 1e-6)
		assert.InDelta(t, 0, norms[i][1], 1e-6)
		assert.InDelta(t, 1, norms[i][2], 1e-6)
	}
	// vertex on no face falls back to +Z
	assert.Equal(t, [3]float32{0, 0, 1}, norms[4])
}

func TestConvertSampler(t *testing.T) {
	smp := convertSampler(nil)
	assert.Equal(t, vk.SamplerAddressModeRepeat, smp.WrapS)
	assert.Equal(t, vk.SamplerAddressModeRepeat, smp.WrapT)
	assert.True(t, smp.MagLinear)
	assert.True(t, smp.MinLinear)

	gs := &gltf.Sampler{
		WrapS:     gltf.WrapClampToEdge,
		WrapT:     gltf.WrapMirroredRepeat,
		MagFilter: gltf.MagNearest,
		MinFilter: gltf.MinNearestMipMapLinear,
	}
	smp = convertSampler(gs)
	assert.Equal(t, vk.SamplerAddressModeClampToEdge, smp.WrapS)
	assert.Equal(t, vk.SamplerAddressModeMirroredRepeat, smp.WrapT)
	assert.False(t, smp.MagLinear)
	assert.False(t, smp.MinLinear)
}

func TestDecodeMaterials(t *testing.T) {
	as := &Asset{}
	doc := &gltf.Document{Materials: []*gltf.Material{
		{Name: "plain"},
		{Name: "glass", AlphaMode: gltf.AlphaBlend, DoubleSided: true},
	}}
	as.decodeMaterials(doc)
	require.Len(t, as.Materials, 2)

	pm := as.Materials[0]
	assert.Equal(t, math32.Vec4(1, 1, 1, 1), pm.BaseColorFactor)
	assert.Equal(t, float32(1), pm.MetallicFactor)
	assert.Equal(t, float32(1), pm.RoughnessFactor)
	assert.InDelta(t, 0.5, pm.AlphaCutoff, 1e-6)
	assert.Equal(t, vpbr.AlphaOpaque, pm.AlphaMode)
	assert.False(t, pm.DoubleSided)
	assert.Equal(t, -1, pm.BaseColorTex)
	assert.Equal(t, -1, pm.EmissiveTex)

	gl := as.Materials[1]
	assert.Equal(t, vpbr.AlphaBlend, gl.AlphaMode)
	assert.True(t, gl.DoubleSided)
}

func TestClampImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 50))
	assert.Same(t, img, clampImage(img, 256))

	out := clampImage(img, 10)
	assert.Equal(t, image.Point{10, 5}, out.Bounds().Size())

	tall := image.NewRGBA(image.Rect(0, 0, 50, 200))
	out = clampImage(tall, 20)
	assert.Equal(t, image.Point{5, 20}, out.Bounds().Size())
}

func TestUploadTriangle(t *testing.T) {
	t.Skip("Need vulkan device on CI")
	if err := vgpu.Init(); err != nil {
		t.Fatal(err)
	}
	defer vgpu.Terminate()

	gp := vgpu.NewGPU()
	require.NoError(t, gp.Config("test"))
	defer gp.Destroy()

	sy := &vgpu.System{}
	require.NoError(t, sy.InitGraphics(gp, "test"))
	defer sy.Destroy()

	as, err := Open(filepath.Join("testdata", "triangle.gltf"))
	require.NoError(t, err)
	sc, err := as.Upload(sy)
	require.NoError(t, err)

	require.Len(t, sc.Meshes, 1)
	pr := sc.Meshes[0].Primitives[0]
	assert.True(t, pr.VtxBuff.IsValid())
	assert.True(t, pr.IndexBuff.IsValid())
	assert.Equal(t, 3, pr.NIndex)
	assert.Equal(t, "red", pr.Material.Name)
	assert.False(t, sc.BBox.IsEmpty())

	sc.Free(&sy.Res)
	sy.Res.Reap(sy.Frames.Completed())
	_, err = sy.Res.Buffer(pr.VtxBuff)
	assert.ErrorIs(t, err, vgpu.ErrStaleHandle)
}
