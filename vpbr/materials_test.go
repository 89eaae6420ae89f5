// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vpbr

import (
	"testing"
	"unsafe"

	"cogentcore.org/core/math32"
	"cogentcore.org/vgltf/vgpu"
	"github.com/stretchr/testify/assert"
)

// The shaders declare these blocks with std140 / std430 rules, so the
// Go structs must land every field on the same byte offsets.

func TestPushBlockLayout(t *testing.T) {
	var pk PushBlock
	assert.Equal(t, uintptr(112), unsafe.Sizeof(pk))
	assert.LessOrEqual(t, unsafe.Sizeof(pk), uintptr(128)) // maxPushConstantsSize floor

	assert.Equal(t, uintptr(0), unsafe.Offsetof(pk.Model))
	assert.Equal(t, uintptr(64), unsafe.Offsetof(pk.BaseColorFactor))
	assert.Equal(t, uintptr(80), unsafe.Offsetof(pk.EmissiveFactor))
	assert.Equal(t, uintptr(92), unsafe.Offsetof(pk.MetallicFactor))
	assert.Equal(t, uintptr(96), unsafe.Offsetof(pk.RoughnessFactor))
	assert.Equal(t, uintptr(100), unsafe.Offsetof(pk.AlphaCutoff))
	assert.Equal(t, uintptr(104), unsafe.Offsetof(pk.AlphaMode))
}

func TestGlobalsLayout(t *testing.T) {
	var gb Globals
	assert.Equal(t, uintptr(928), unsafe.Sizeof(gb))

	assert.Equal(t, uintptr(0), unsafe.Offsetof(gb.View))
	assert.Equal(t, uintptr(64), unsafe.Offsetof(gb.Projection))
	assert.Equal(t, uintptr(128), unsafe.Offsetof(gb.CameraPos))
	assert.Equal(t, uintptr(144), unsafe.Offsetof(gb.NLights))
	assert.Equal(t, uintptr(160), unsafe.Offsetof(gb.Ambient))
	assert.Equal(t, uintptr(288), unsafe.Offsetof(gb.Dir))
	assert.Equal(t, uintptr(544), unsafe.Offsetof(gb.Point))

	assert.Equal(t, uintptr(16), unsafe.Sizeof(AmbientLight{}))
	assert.Equal(t, uintptr(32), unsafe.Sizeof(DirLight{}))
	assert.Equal(t, uintptr(48), unsafe.Sizeof(PointLight{}))
}

func TestMaterialDefaults(t *testing.T) {
	mt := NewMaterial("steel")
	assert.Equal(t, "steel", mt.Name)
	assert.Equal(t, math32.Vec4(1, 1, 1, 1), mt.BaseColorFactor)
	assert.Equal(t, float32(1), mt.MetallicFactor)
	assert.Equal(t, float32(1), mt.RoughnessFactor)
	assert.Equal(t, float32(0.5), mt.AlphaCutoff)
	assert.Equal(t, AlphaOpaque, mt.AlphaMode)
	assert.False(t, mt.DoubleSided)
	assert.False(t, mt.BaseColorTex.IsValid())
}

func TestMaterialFlags(t *testing.T) {
	mt := NewMaterial("m")
	assert.Equal(t, vgpu.PipelineFlags(0), mt.Flags())

	mt.AlphaMode = AlphaMask
	assert.Equal(t, vgpu.PipeAlphaMask, mt.Flags())

	mt.AlphaMode = AlphaBlend
	mt.DoubleSided = true
	assert.Equal(t, vgpu.PipeAlphaBlend|vgpu.PipeDoubleSided, mt.Flags())
}

func TestAlphaModesString(t *testing.T) {
	assert.Equal(t, "opaque", AlphaOpaque.String())
	assert.Equal(t, "mask", AlphaMask.String())
	assert.Equal(t, "blend", AlphaBlend.String())
}

func TestNewPushBlock(t *testing.T) {
	mt := NewMaterial("m")
	mt.BaseColorFactor = math32.Vec4(1, 0.5, 0.25, 0.8)
	mt.EmissiveFactor = math32.Vec3(0, 1, 0)
	mt.MetallicFactor = 0.3
	mt.RoughnessFactor = 0.7
	mt.AlphaMode = AlphaMask
	mt.AlphaCutoff = 0.25

	model := math32.Identity4()
	model.SetTranslation(1, 2, 3)
	pk := NewPushBlock(model, mt)

	assert.Equal(t, *model, pk.Model)
	assert.Equal(t, mt.BaseColorFactor, pk.BaseColorFactor)
	assert.Equal(t, mt.EmissiveFactor, pk.EmissiveFactor)
	assert.Equal(t, float32(0.3), pk.MetallicFactor)
	assert.Equal(t, float32(0.7), pk.RoughnessFactor)
	assert.Equal(t, float32(0.25), pk.AlphaCutoff)
	assert.Equal(t, int32(AlphaMask), pk.AlphaMode)
}

func TestLights(t *testing.T) {
	pb := &PBR{}
	pb.AddAmbientLight(math32.Vec3(0.1, 0.1, 0.1))
	pb.AddDirLight(math32.Vec3(1, 1, 1), math32.Vec3(0, 1, 0))
	pb.AddDirLight(math32.Vec3(0.5, 0.5, 0.5), math32.Vec3(1, 0, 0))
	pb.AddPointLight(math32.Vec3(1, 0, 0), math32.Vec3(2, 2, 2), 0.1, 0.01)

	assert.Equal(t, int32(1), pb.Globals.NLights.Ambient)
	assert.Equal(t, int32(2), pb.Globals.NLights.Dir)
	assert.Equal(t, int32(1), pb.Globals.NLights.Point)
	assert.Equal(t, math32.Vec3(1, 0, 0), pb.Globals.Point[0].Color)
	assert.Equal(t, float32(0.1), pb.Globals.Point[0].Decay.X)
	assert.Equal(t, float32(0.01), pb.Globals.Point[0].Decay.Y)

	pb.SetDirLight(1, math32.Vec3(0, 0, 1), math32.Vec3(-1, 1, 0))
	assert.Equal(t, math32.Vec3(0, 0, 1), pb.Globals.Dir[1].Color)
	assert.Equal(t, int32(2), pb.Globals.NLights.Dir)

	pb.ResetLights()
	assert.Equal(t, int32(0), pb.Globals.NLights.Ambient)
	assert.Equal(t, int32(0), pb.Globals.NLights.Dir)
	assert.Equal(t, int32(0), pb.Globals.NLights.Point)
}

func TestDefaultLights(t *testing.T) {
	pb := &PBR{}
	pb.DefaultLights()
	assert.Equal(t, int32(1), pb.Globals.NLights.Ambient)
	assert.Equal(t, int32(2), pb.Globals.NLights.Dir)
	assert.Equal(t, int32(0), pb.Globals.NLights.Point)
}
