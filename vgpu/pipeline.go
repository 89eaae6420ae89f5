// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This is initially adapted from https://github.com/vulkan-go/asche
// Copyright © 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vgpu

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// Pipeline is one graphics pipeline: shader stages plus fixed-function
// state, built against a render pass and a pipeline layout. Viewport
// and scissor are always dynamic. Construction goes through the
// [PipelineCache], never directly in the render loop.
type Pipeline struct {
	Name string

	// shader stages, in AddShader order
	Shaders []*Shader

	// fixed-function state, set before Config
	Topology    vk.PrimitiveTopology
	CullMode    vk.CullModeFlagBits
	FrontFace   vk.FrontFace
	Wireframe   bool
	AlphaBlend  bool
	DepthTest   bool
	DepthWrite  bool
	LineWidth   float32

	VkPipeline vk.Pipeline
	VkCache    vk.PipelineCache
}

// NewPipeline returns a pipeline with given name and graphics defaults.
func NewPipeline(name string) *Pipeline {
	pl := &Pipeline{Name: name}
	pl.SetGraphicsDefaults()
	return pl
}

// SetGraphicsDefaults sets the standard opaque 3D defaults: triangle
// list, back culling with clockwise front faces (matching a Y-flipped
// projection), filled polygons, depth test and write on, no blending.
func (pl *Pipeline) SetGraphicsDefaults() {
	pl.Topology = vk.PrimitiveTopologyTriangleList
	pl.CullMode = vk.CullModeBackBit
	pl.FrontFace = vk.FrontFaceClockwise
	pl.Wireframe = false
	pl.AlphaBlend = false
	pl.DepthTest = true
	pl.DepthWrite = true
	pl.LineWidth = 1
}

// SetCullMode sets the face culling mode.
func (pl *Pipeline) SetCullMode(mode vk.CullModeFlagBits) {
	pl.CullMode = mode
}

// SetAlphaBlend enables straight-alpha blending; depth writes turn off
// so blended geometry, drawn back to front, does not occlude itself.
func (pl *Pipeline) SetAlphaBlend(on bool) {
	pl.AlphaBlend = on
	pl.DepthWrite = !on
}

// SetWireframe switches polygons to line rasterization.
func (pl *Pipeline) SetWireframe(on bool) {
	pl.Wireframe = on
}

// AddShaderFile adds a shader stage loaded from a SPIR-V file.
// The error wraps [ErrShaderLink].
func (pl *Pipeline) AddShaderFile(dev vk.Device, name string, typ ShaderTypes, fname string) error {
	sh := &Shader{Name: name, Type: typ}
	if err := sh.OpenFile(dev, fname); err != nil {
		return err
	}
	pl.Shaders = append(pl.Shaders, sh)
	return nil
}

// AddShaderCode adds a shader stage from SPIR-V bytecode in memory.
func (pl *Pipeline) AddShaderCode(dev vk.Device, name string, typ ShaderTypes, code []byte) error {
	sh := &Shader{Name: name, Type: typ}
	if err := sh.OpenCode(dev, code); err != nil {
		return err
	}
	pl.Shaders = append(pl.Shaders, sh)
	return nil
}

// Config builds the pipeline against the render pass and layout, with
// vertex input from the interleaved layout described by attrs. Shader
// modules are freed afterwards. Failures wrap [ErrShaderLink].
func (pl *Pipeline) Config(dev vk.Device, rp *RenderPass, layout vk.PipelineLayout, attrs VertexAttrs) error {
	defer pl.FreeShaders(dev)

	if len(pl.Shaders) == 0 {
		return fmt.Errorf("%w: pipeline %s has no shaders", ErrShaderLink, pl.Name)
	}
	stages := make([]vk.PipelineShaderStageCreateInfo, len(pl.Shaders))
	for i, sh := range pl.Shaders {
		stages[i] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  ShaderStageFlags[sh.Type],
			Module: sh.VkModule,
			PName:  SafeString("main"),
		}
	}

	binds, locs := attrs.InputDescriptions()

	polyMode := vk.PolygonModeFill
	if pl.Wireframe {
		polyMode = vk.PolygonModeLine
	}

	blendAttach := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit),
		BlendEnable: vk.False,
	}
	if pl.AlphaBlend {
		blendAttach.BlendEnable = vk.True
		blendAttach.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		blendAttach.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		blendAttach.ColorBlendOp = vk.BlendOpAdd
		blendAttach.SrcAlphaBlendFactor = vk.BlendFactorOne
		blendAttach.DstAlphaBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		blendAttach.AlphaBlendOp = vk.BlendOpAdd
	}

	var depth *vk.PipelineDepthStencilStateCreateInfo
	if rp.HasDepth {
		depth = &vk.PipelineDepthStencilStateCreateInfo{
			SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:  boolToVk(pl.DepthTest),
			DepthWriteEnable: boolToVk(pl.DepthWrite),
			DepthCompareOp:   vk.CompareOpLessOrEqual,
		}
	}

	var cache vk.PipelineCache
	ret := vk.CreatePipelineCache(dev, &vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}, nil, &cache)
	if err := NewError(ret); err != nil {
		return err
	}
	pl.VkCache = cache

	pipeline := make([]vk.Pipeline, 1)
	ret = vk.CreateGraphicsPipelines(dev, pl.VkCache, 1, []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(binds)),
			PVertexBindingDescriptions:      binds,
			VertexAttributeDescriptionCount: uint32(len(locs)),
			PVertexAttributeDescriptions:    locs,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: pl.Topology,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: polyMode,
			CullMode:    vk.CullModeFlags(pl.CullMode),
			FrontFace:   pl.FrontFace,
			LineWidth:   pl.LineWidth,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PDepthStencilState: depth,
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttach},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateViewport,
				vk.DynamicStateScissor,
			},
		},
		Layout:     layout,
		RenderPass: rp.VkClearPass,
	}}, nil, pipeline)
	if err := NewError(ret); err != nil {
		return fmt.Errorf("%w: pipeline %s: %w", ErrShaderLink, pl.Name, err)
	}
	pl.VkPipeline = pipeline[0]
	return nil
}

// FreeShaders frees the shader modules; the built pipeline keeps what
// it needs.
func (pl *Pipeline) FreeShaders(dev vk.Device) {
	for _, sh := range pl.Shaders {
		sh.Free(dev)
	}
	pl.Shaders = nil
}

// BindPipeline binds the pipeline for subsequent draws.
func (pl *Pipeline) BindPipeline(cmd vk.CommandBuffer) {
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pl.VkPipeline)
}

// Destroy frees the pipeline and its cache.
func (pl *Pipeline) Destroy(dev vk.Device) {
	pl.FreeShaders(dev)
	if pl.VkPipeline != vk.NullPipeline {
		vk.DestroyPipeline(dev, pl.VkPipeline, nil)
		pl.VkPipeline = vk.NullPipeline
	}
	if pl.VkCache != vk.NullPipelineCache {
		vk.DestroyPipelineCache(dev, pl.VkCache, nil)
		pl.VkCache = vk.NullPipelineCache
	}
}

// Push records a push constant update. ptr must point to size bytes of
// plain data whose layout matches the shader block.
func Push(cmd vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlagBits, offset, size int, ptr unsafe.Pointer) {
	vk.CmdPushConstants(cmd, layout, vk.ShaderStageFlags(stages), uint32(offset), uint32(size), ptr)
}

func boolToVk(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
