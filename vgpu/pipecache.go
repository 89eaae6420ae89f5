// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"errors"
	"log/slog"
	"strings"

	vk "github.com/goki/vulkan"
)

// VertexAttrs is the set of attributes in an interleaved vertex stream,
// in fixed shader-location order: position (0), normal (1), texcoord
// (2). Part of the [PipelineKey]: meshes with equal attrs can share a
// pipeline.
type VertexAttrs int32

const (
	VtxPosition VertexAttrs = 1 << iota
	VtxNormal
	VtxTexcoord
)

// StdVertexAttrs is the standard mesh layout. Importers fill defaulted
// normals and texcoords so every mesh reaches the renderer with this
// full layout.
const StdVertexAttrs = VtxPosition | VtxNormal | VtxTexcoord

// vtxAttrSizes: position vec3, normal vec3, texcoord vec2
var vtxAttrSizes = []struct {
	attr   VertexAttrs
	format vk.Format
	size   int
}{
	{VtxPosition, vk.FormatR32g32b32Sfloat, 12},
	{VtxNormal, vk.FormatR32g32b32Sfloat, 12},
	{VtxTexcoord, vk.FormatR32g32Sfloat, 8},
}

// Has returns whether all of the given attrs are present.
func (va VertexAttrs) Has(f VertexAttrs) bool {
	return va&f == f
}

// Stride returns the interleaved vertex size in bytes.
func (va VertexAttrs) Stride() int {
	st := 0
	for _, as := range vtxAttrSizes {
		if va.Has(as.attr) {
			st += as.size
		}
	}
	return st
}

func (va VertexAttrs) String() string {
	names := []string{"pos", "norm", "uv"}
	var sb []string
	for i, as := range vtxAttrSizes {
		if va.Has(as.attr) {
			sb = append(sb, names[i])
		}
	}
	return strings.Join(sb, "+")
}

// InputDescriptions returns the single-binding vertex input state for
// the layout, with locations in fixed order over the present attrs.
func (va VertexAttrs) InputDescriptions() ([]vk.VertexInputBindingDescription, []vk.VertexInputAttributeDescription) {
	if va == 0 {
		return nil, nil
	}
	binds := []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(va.Stride()),
		InputRate: vk.VertexInputRateVertex,
	}}
	var locs []vk.VertexInputAttributeDescription
	off := 0
	loc := 0
	for _, as := range vtxAttrSizes {
		if !va.Has(as.attr) {
			loc++
			continue
		}
		locs = append(locs, vk.VertexInputAttributeDescription{
			Location: uint32(loc),
			Binding:  0,
			Format:   as.format,
			Offset:   uint32(off),
		})
		off += as.size
		loc++
	}
	return binds, locs
}

// PipelineFlags are the material-derived variations a pipeline can be
// specialized on. Part of the [PipelineKey].
type PipelineFlags int32

const (
	// PipeAlphaMask: fragment discards below the material alpha cutoff.
	PipeAlphaMask PipelineFlags = 1 << iota

	// PipeAlphaBlend: straight-alpha blending, no depth writes, no culling.
	PipeAlphaBlend

	// PipeDoubleSided: culling off.
	PipeDoubleSided

	// PipeWireframe: line rasterization.
	PipeWireframe
)

func (pf PipelineFlags) String() string {
	names := []struct {
		f PipelineFlags
		s string
	}{
		{PipeAlphaMask, "mask"},
		{PipeAlphaBlend, "blend"},
		{PipeDoubleSided, "2sided"},
		{PipeWireframe, "wire"},
	}
	var sb []string
	for _, n := range names {
		if pf&n.f != 0 {
			sb = append(sb, n.s)
		}
	}
	if len(sb) == 0 {
		return "opaque"
	}
	return strings.Join(sb, "+")
}

// PipelineKey identifies a pipeline by everything that shapes it:
// vertex layout, material-derived flags, and the render pass it targets.
// Keys compare structurally, so two meshes sharing a layout and flag
// set map to the same pipeline object.
type PipelineKey struct {
	Attrs VertexAttrs
	Flags PipelineFlags
	Pass  vk.RenderPass
}

// PipelineCache maps [PipelineKey]s to built pipelines. Each distinct
// key is compiled at most once, on first lookup; later lookups return
// the identical object. A key whose build fails with [ErrShaderLink] is
// bound to the Default pipeline from then on, so one bad material
// cannot fail frames. Single render thread only.
type PipelineCache struct {

	// the fallback for keys whose shaders fail; drawn for missing
	// materials. Set before the first GetOrCompile.
	Default *Pipeline

	pipelines map[PipelineKey]*Pipeline
	compiles  map[PipelineKey]int
}

// Init readies the maps.
func (pc *PipelineCache) Init() {
	pc.pipelines = make(map[PipelineKey]*Pipeline)
	pc.compiles = make(map[PipelineKey]int)
}

// GetOrCompile returns the pipeline for the key, building it with the
// given function on first sight of the key. A build failing with
// [ErrShaderLink] logs once and permanently maps the key to Default;
// other errors are returned without caching so transient failures can
// retry.
func (pc *PipelineCache) GetOrCompile(key PipelineKey, build func(key PipelineKey) (*Pipeline, error)) (*Pipeline, error) {
	if pl, ok := pc.pipelines[key]; ok {
		return pl, nil
	}
	pc.compiles[key]++
	pl, err := build(key)
	if err != nil {
		if errors.Is(err, ErrShaderLink) {
			slog.Warn("vgpu: pipeline build failed, using default", "attrs", key.Attrs, "flags", key.Flags, "err", err)
			pc.pipelines[key] = pc.Default
			return pc.Default, nil
		}
		return nil, err
	}
	pc.pipelines[key] = pl
	return pl, nil
}

// CompileCount returns how many times a build was attempted for the key.
func (pc *PipelineCache) CompileCount(key PipelineKey) int {
	return pc.compiles[key]
}

// Len returns the number of cached keys.
func (pc *PipelineCache) Len() int {
	return len(pc.pipelines)
}

// Destroy destroys all cached pipelines and the default.
func (pc *PipelineCache) Destroy(dev vk.Device) {
	done := map[*Pipeline]bool{}
	for _, pl := range pc.pipelines {
		if pl != nil && !done[pl] {
			pl.Destroy(dev)
			done[pl] = true
		}
	}
	if pc.Default != nil && !done[pc.Default] {
		pc.Default.Destroy(dev)
	}
	pc.Default = nil
	pc.pipelines = nil
	pc.compiles = nil
}
