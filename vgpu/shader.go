// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"encoding/binary"
	"fmt"
	"os"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// ShaderTypes is the stage a shader module belongs to.
type ShaderTypes int32

const (
	VertexShader ShaderTypes = iota
	TessCtrlShader
	TessEvalShader
	GeometryShader
	FragmentShader
	ComputeShader
)

// ShaderStageFlags maps shader types to vulkan stage bits.
var ShaderStageFlags = map[ShaderTypes]vk.ShaderStageFlagBits{
	VertexShader:   vk.ShaderStageVertexBit,
	TessCtrlShader: vk.ShaderStageTessellationControlBit,
	TessEvalShader: vk.ShaderStageTessellationEvaluationBit,
	GeometryShader: vk.ShaderStageGeometryBit,
	FragmentShader: vk.ShaderStageFragmentBit,
	ComputeShader:  vk.ShaderStageComputeBit,
}

// spirvMagic is the first word of valid SPIR-V bytecode.
const spirvMagic = 0x07230203

// Shader is one shader module loaded from precompiled SPIR-V bytecode.
// The core never compiles shader source; .spv files are produced
// offline (go generate with glslangValidator).
type Shader struct {
	Name     string
	Type     ShaderTypes
	VkModule vk.ShaderModule
}

// OpenFile loads SPIR-V bytecode from the file and creates the module.
// All failures wrap [ErrShaderLink] so callers can fall back to the
// default pipeline.
func (sh *Shader) OpenFile(dev vk.Device, fname string) error {
	code, err := os.ReadFile(fname)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrShaderLink, sh.Name, err)
	}
	return sh.OpenCode(dev, code)
}

// OpenCode creates the module from SPIR-V bytecode in memory.
func (sh *Shader) OpenCode(dev vk.Device, code []byte) error {
	if len(code) < 4 || len(code)%4 != 0 {
		return fmt.Errorf("%w: %s: bytecode length %d not a multiple of 4", ErrShaderLink, sh.Name, len(code))
	}
	if binary.LittleEndian.Uint32(code) != spirvMagic {
		return fmt.Errorf("%w: %s: not SPIR-V bytecode", ErrShaderLink, sh.Name)
	}
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(dev, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    SliceUint32(code),
	}, nil, &module)
	if err := NewError(ret); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrShaderLink, sh.Name, err)
	}
	sh.VkModule = module
	return nil
}

// Free destroys the module. Pipelines keep their own reference, so this
// is safe once the pipeline has been built.
func (sh *Shader) Free(dev vk.Device) {
	if sh.VkModule != vk.NullShaderModule {
		vk.DestroyShaderModule(dev, sh.VkModule, nil)
		sh.VkModule = vk.NullShaderModule
	}
}

// SliceUint32 views byte data as uint32 words, as vulkan wants SPIR-V.
func SliceUint32(data []byte) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}
