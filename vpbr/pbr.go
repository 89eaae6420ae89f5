// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vpbr implements metallic-roughness physically based rendering
// pipelines on the vgpu system: the standard shading pipeline compiled
// per vertex-layout and material-flag combination, a fallback pipeline
// for materials whose shaders fail, per-frame global uniforms (camera
// and lights), and per-material texture descriptor sets.
//
// Descriptor sets: set 0 holds the frame Globals uniform, set 1 holds
// the five material textures. Per-draw data (model matrix and material
// factors) goes through push constants, so no per-object uniform
// buffers exist at all.
package vpbr

import (
	"fmt"
	"path/filepath"
	"unsafe"

	"cogentcore.org/core/math32"
	"cogentcore.org/vgltf/vgpu"
	vk "github.com/goki/vulkan"
)

// maxMaterialSets is how many material descriptor sets each frame
// slot's pool can hold. Materials beyond this fail to bind for the
// frame and their items are skipped.
const maxMaterialSets = 256

// PBR is the physically based rendering system: pipelines, global
// uniforms, and material descriptors, all built on a [vgpu.System].
type PBR struct {

	// the rendering system, providing device, arena, cache, pools
	Sys *vgpu.System

	// per-frame camera and light uniforms, uploaded each frame
	Globals Globals

	// directory holding the compiled .spv shaders
	ShaderDir string

	// set 0 layout: the Globals uniform
	GlobalsLayout vk.DescriptorSetLayout

	// set 1 layout: the five material textures
	MaterialLayout vk.DescriptorSetLayout

	// pipeline layout shared by every pipeline this system builds
	PipelineLayout vk.PipelineLayout

	// 1x1 defaults for material slots with no texture
	WhiteTex  vgpu.ImageHandle
	NormalTex vgpu.ImageHandle

	// per-frame-slot host-visible Globals buffers and their sets
	globalsBufs []vgpu.GPUBuffer
	globalsSets []vk.DescriptorSet
}

// Config builds the descriptor layouts, pipeline layout, per-slot
// uniform buffers and descriptor pools, default textures, and the
// fallback pipeline. The system's renderpass and frame scheduler must
// already be configured. shaderDir holds the compiled .spv files;
// failing to load the fallback shaders is fatal here, while standard
// shader failures at pipeline build time degrade to the fallback.
func (pb *PBR) Config(sy *vgpu.System, shaderDir string) error {
	pb.Sys = sy
	pb.ShaderDir = shaderDir
	dev := sy.Device.Device
	nframes := sy.Frames.NFrames()

	var err error
	pb.GlobalsLayout, err = vgpu.NewDescriptorSetLayout(dev,
		vgpu.UniformLayoutBinding(0, vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit))
	if err != nil {
		return err
	}
	pb.MaterialLayout, err = vgpu.NewDescriptorSetLayout(dev,
		vgpu.SamplerLayoutBinding(0, 1, vk.ShaderStageFragmentBit),
		vgpu.SamplerLayoutBinding(1, 1, vk.ShaderStageFragmentBit),
		vgpu.SamplerLayoutBinding(2, 1, vk.ShaderStageFragmentBit),
		vgpu.SamplerLayoutBinding(3, 1, vk.ShaderStageFragmentBit),
		vgpu.SamplerLayoutBinding(4, 1, vk.ShaderStageFragmentBit))
	if err != nil {
		return err
	}

	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(dev, &vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 2,
		PSetLayouts:    []vk.DescriptorSetLayout{pb.GlobalsLayout, pb.MaterialLayout},
		PushConstantRangeCount: 1,
		PPushConstantRanges: []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit),
			Offset:     0,
			Size:       uint32(unsafe.Sizeof(PushBlock{})),
		}},
	}, nil, &layout)
	if vgpu.IsError(ret) {
		return vgpu.NewError(ret)
	}
	pb.PipelineLayout = layout

	err = sy.Descriptors.Config(&sy.Device, nframes, maxMaterialSets+1,
		vk.DescriptorPoolSize{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 8,
		},
		vk.DescriptorPoolSize{
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: 5 * maxMaterialSets,
		})
	if err != nil {
		return err
	}

	pb.globalsBufs = make([]vgpu.GPUBuffer, nframes)
	pb.globalsSets = make([]vk.DescriptorSet, nframes)
	for i := range pb.globalsBufs {
		pb.globalsBufs[i], err = vgpu.NewHostBuffer(sy.GPU, dev,
			int(unsafe.Sizeof(pb.Globals)), vk.BufferUsageUniformBufferBit)
		if err != nil {
			return err
		}
	}

	if err := pb.configDefaultTextures(); err != nil {
		return err
	}

	fb, err := pb.buildFallback()
	if err != nil {
		return fmt.Errorf("vpbr: fallback pipeline: %w", err)
	}
	sy.Cache.Default = fb
	return nil
}

// Release destroys the layouts and uniform buffers this system owns.
// Pipelines belong to the system's cache and textures to its arena;
// both are freed by [vgpu.System.Destroy].
func (pb *PBR) Release() {
	dev := pb.Sys.Device.Device
	for i := range pb.globalsBufs {
		pb.globalsBufs[i].Free(dev)
	}
	pb.globalsBufs = nil
	if pb.PipelineLayout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(dev, pb.PipelineLayout, nil)
		pb.PipelineLayout = vk.NullPipelineLayout
	}
	if pb.GlobalsLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(dev, pb.GlobalsLayout, nil)
		pb.GlobalsLayout = vk.NullDescriptorSetLayout
	}
	if pb.MaterialLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(dev, pb.MaterialLayout, nil)
		pb.MaterialLayout = vk.NullDescriptorSetLayout
	}
}

// shaderFile returns the path of a compiled shader in ShaderDir.
func (pb *PBR) shaderFile(name string) string {
	return filepath.Join(pb.ShaderDir, name)
}

// buildFallback builds the flat magenta pipeline drawn for materials
// whose standard shaders fail to load. Never culls, so broken
// materials are visible from every side.
func (pb *PBR) buildFallback() (*vgpu.Pipeline, error) {
	dev := pb.Sys.Device.Device
	pl := vgpu.NewPipeline("fallback")
	pl.SetGraphicsDefaults()
	pl.SetCullMode(vk.CullModeNone)
	if err := pl.AddShaderFile(dev, "fallback.vert", vgpu.VertexShader, pb.shaderFile("fallback.vert.spv")); err != nil {
		return nil, err
	}
	if err := pl.AddShaderFile(dev, "fallback.frag", vgpu.FragmentShader, pb.shaderFile("fallback.frag.spv")); err != nil {
		return nil, err
	}
	if err := pl.Config(dev, &pb.Sys.Render, pb.PipelineLayout, vgpu.StdVertexAttrs); err != nil {
		return nil, err
	}
	return pl, nil
}

// buildPipeline is the cache build function for the standard shading
// pipeline, specialized by the key's vertex layout and flags.
func (pb *PBR) buildPipeline(key vgpu.PipelineKey) (*vgpu.Pipeline, error) {
	dev := pb.Sys.Device.Device
	pl := vgpu.NewPipeline("standard-" + key.Flags.String())
	pl.SetGraphicsDefaults()
	if key.Flags&vgpu.PipeAlphaBlend != 0 {
		pl.SetAlphaBlend(true)
	}
	if key.Flags&(vgpu.PipeDoubleSided|vgpu.PipeAlphaBlend) != 0 {
		pl.SetCullMode(vk.CullModeNone)
	}
	if key.Flags&vgpu.PipeWireframe != 0 {
		pl.SetWireframe(true)
	}
	if err := pl.AddShaderFile(dev, "standard.vert", vgpu.VertexShader, pb.shaderFile("standard.vert.spv")); err != nil {
		return nil, err
	}
	if err := pl.AddShaderFile(dev, "standard.frag", vgpu.FragmentShader, pb.shaderFile("standard.frag.spv")); err != nil {
		return nil, err
	}
	if err := pl.Config(dev, &pb.Sys.Render, pb.PipelineLayout, key.Attrs); err != nil {
		return nil, err
	}
	return pl, nil
}

// PipelineFor returns the pipeline for given vertex layout and flags,
// compiling it on first use. A shader failure returns the fallback.
func (pb *PBR) PipelineFor(attrs vgpu.VertexAttrs, flags vgpu.PipelineFlags) (*vgpu.Pipeline, error) {
	key := vgpu.PipelineKey{Attrs: attrs, Flags: flags, Pass: pb.Sys.Render.VkClearPass}
	return pb.Sys.Cache.GetOrCompile(key, pb.buildPipeline)
}

// BeginFrame readies the frame slot's descriptors: resets its pool,
// uploads the current Globals to the slot's uniform buffer, and
// allocates and writes the frame's set 0.
func (pb *PBR) BeginFrame(sl *vgpu.FrameSlot) error {
	sy := pb.Sys
	sy.Descriptors.ResetSlot(sl.Index)

	buf := &pb.globalsBufs[sl.Index]
	sz := int(unsafe.Sizeof(pb.Globals))
	data := unsafe.Slice((*byte)(unsafe.Pointer(&pb.Globals)), sz)
	buf.Write(0, data)

	set, err := sy.Descriptors.Alloc(sl.Index, pb.GlobalsLayout)
	if err != nil {
		return err
	}
	vgpu.WriteUniform(sy.Device.Device, set, 0, buf.Buffer, 0, sz)
	pb.globalsSets[sl.Index] = set
	return nil
}

// BindFrame binds the frame's set 0 for all subsequent draws.
// Call once inside the render pass, before any pipeline binds.
func (pb *PBR) BindFrame(cmd vk.CommandBuffer, sl *vgpu.FrameSlot) {
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, pb.PipelineLayout,
		0, 1, []vk.DescriptorSet{pb.globalsSets[sl.Index]}, 0, nil)
}

// BindMaterial binds the material's texture set, allocating and
// writing it on the material's first use in this frame slot cycle.
// Fails if a material texture handle has gone stale or the slot's
// pool is exhausted; the caller skips the item.
func (pb *PBR) BindMaterial(cmd vk.CommandBuffer, sl *vgpu.FrameSlot, mt *Material) error {
	sy := pb.Sys
	nframes := sy.Frames.NFrames()
	if len(mt.sets) < nframes {
		mt.sets = make([]matSet, nframes)
	}
	stamp := sy.Frames.FrameCount + 1
	ms := &mt.sets[sl.Index]
	if ms.set == vk.NullDescriptorSet || ms.frame != stamp {
		set, err := sy.Descriptors.Alloc(sl.Index, pb.MaterialLayout)
		if err != nil {
			return err
		}
		texs := [5]struct {
			h   vgpu.ImageHandle
			def vgpu.ImageHandle
		}{
			{mt.BaseColorTex, pb.WhiteTex},
			{mt.MetalRoughTex, pb.WhiteTex},
			{mt.NormalTex, pb.NormalTex},
			{mt.OcclusionTex, pb.WhiteTex},
			{mt.EmissiveTex, pb.WhiteTex},
		}
		dev := sy.Device.Device
		for i, tx := range texs {
			view, smp, err := pb.resolveTex(tx.h, tx.def)
			if err != nil {
				return err
			}
			vgpu.WriteImage(dev, set, i, view, smp)
		}
		ms.set = set
		ms.frame = stamp
	}
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, pb.PipelineLayout,
		1, 1, []vk.DescriptorSet{ms.set}, 0, nil)
	return nil
}

// PushItem pushes the per-draw constants: the model matrix and the
// material factors.
func (pb *PBR) PushItem(cmd vk.CommandBuffer, model *math32.Matrix4, mt *Material) {
	block := NewPushBlock(model, mt)
	vgpu.Push(cmd, pb.PipelineLayout, vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit,
		0, int(unsafe.Sizeof(block)), unsafe.Pointer(&block))
}
