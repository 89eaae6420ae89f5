// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vpbr

import (
	"fmt"

	"cogentcore.org/core/math32"
	"cogentcore.org/vgltf/vgpu"
	vk "github.com/goki/vulkan"
)

// AlphaModes is how a material's base color alpha is interpreted.
type AlphaModes int32

const (
	// AlphaOpaque ignores alpha; the surface is fully opaque.
	AlphaOpaque AlphaModes = iota

	// AlphaMask discards fragments whose alpha is below the cutoff.
	AlphaMask

	// AlphaBlend composites the surface over what is behind it.
	AlphaBlend

	AlphaModesN
)

func (am AlphaModes) String() string {
	switch am {
	case AlphaOpaque:
		return "opaque"
	case AlphaMask:
		return "mask"
	case AlphaBlend:
		return "blend"
	}
	return fmt.Sprintf("AlphaModes(%d)", int32(am))
}

// Material is a metallic-roughness material. Factors multiply the
// corresponding texture samples; a zero (invalid) texture handle means
// the 1x1 default texture is bound in its place, so the factors alone
// determine the result.
type Material struct {
	Name string

	// multiplies the base color texture; the alpha channel drives
	// AlphaMask and AlphaBlend
	BaseColorFactor math32.Vector4

	// emitted light, multiplying the emissive texture
	EmissiveFactor math32.Vector3

	// multiplies the metal channel (B) of the metal-rough texture
	MetallicFactor float32

	// multiplies the roughness channel (G) of the metal-rough texture
	RoughnessFactor float32

	// alpha below this discards the fragment in AlphaMask mode
	AlphaCutoff float32

	// how alpha is interpreted
	AlphaMode AlphaModes

	// render both faces, disabling back-face culling
	DoubleSided bool

	// textures; zero handles use the defaults
	BaseColorTex  vgpu.ImageHandle
	MetalRoughTex vgpu.ImageHandle
	NormalTex     vgpu.ImageHandle
	OcclusionTex  vgpu.ImageHandle
	EmissiveTex   vgpu.ImageHandle

	// per-frame-slot descriptor sets, rebuilt when the slot's pool
	// is reset
	sets []matSet
}

// matSet caches the descriptor set written for a frame slot, stamped
// with the frame it was allocated on. The slot's pool reset on reuse
// invalidates it, which the stamp detects.
type matSet struct {
	set   vk.DescriptorSet
	frame uint64
}

// Defaults sets the metallic-roughness defaults: white base color,
// full metallic and roughness factors, opaque, cutoff 0.5.
func (mt *Material) Defaults() {
	mt.BaseColorFactor = math32.Vec4(1, 1, 1, 1)
	mt.MetallicFactor = 1
	mt.RoughnessFactor = 1
	mt.AlphaCutoff = 0.5
	mt.AlphaMode = AlphaOpaque
}

// NewMaterial returns a new named material with defaults.
func NewMaterial(name string) *Material {
	mt := &Material{Name: name}
	mt.Defaults()
	return mt
}

// Flags returns the pipeline flags this material requires.
func (mt *Material) Flags() vgpu.PipelineFlags {
	var fl vgpu.PipelineFlags
	switch mt.AlphaMode {
	case AlphaMask:
		fl |= vgpu.PipeAlphaMask
	case AlphaBlend:
		fl |= vgpu.PipeAlphaBlend
	}
	if mt.DoubleSided {
		fl |= vgpu.PipeDoubleSided
	}
	return fl
}

// PushBlock is the per-draw push constant data: the model matrix for
// the vertex stage and the material factors for the fragment stage.
// Layout must match the push_constant block in the shaders.
type PushBlock struct {
	Model           math32.Matrix4
	BaseColorFactor math32.Vector4
	EmissiveFactor  math32.Vector3
	MetallicFactor  float32
	RoughnessFactor float32
	AlphaCutoff     float32
	AlphaMode       int32
	pad0            float32
}

// NewPushBlock composes the push block for drawing one item.
func NewPushBlock(model *math32.Matrix4, mt *Material) PushBlock {
	return PushBlock{
		Model:           *model,
		BaseColorFactor: mt.BaseColorFactor,
		EmissiveFactor:  mt.EmissiveFactor,
		MetallicFactor:  mt.MetallicFactor,
		RoughnessFactor: mt.RoughnessFactor,
		AlphaCutoff:     mt.AlphaCutoff,
		AlphaMode:       int32(mt.AlphaMode),
	}
}

// Globals is the per-frame uniform block shared by all draws: camera
// matrices and the light tables. Layout must match the set 0 uniform
// block in the shaders (arrays of vec4-padded structs).
type Globals struct {
	View       math32.Matrix4
	Projection math32.Matrix4

	// camera world position, w unused
	CameraPos math32.Vector4

	NLights NLights
	Ambient [MaxLights]AmbientLight
	Dir     [MaxLights]DirLight
	Point   [MaxLights]PointLight
}

// SetCamera sets the view and projection matrices and the camera
// world position for the next frame.
func (pb *PBR) SetCamera(view, proj *math32.Matrix4, pos math32.Vector3) {
	pb.Globals.View = *view
	pb.Globals.Projection = *proj
	pb.Globals.CameraPos = math32.Vec4(pos.X, pos.Y, pos.Z, 1)
}
