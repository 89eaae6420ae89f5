// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"errors"
	"fmt"
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestVertexAttrs(t *testing.T) {
	assert.Equal(t, 32, StdVertexAttrs.Stride())
	assert.Equal(t, 20, (VtxPosition | VtxTexcoord).Stride())
	assert.Equal(t, 12, VtxPosition.Stride())

	assert.True(t, StdVertexAttrs.Has(VtxNormal))
	assert.False(t, VtxPosition.Has(VtxTexcoord))

	assert.Equal(t, "pos+norm+uv", StdVertexAttrs.String())

	binds, attrs := StdVertexAttrs.InputDescriptions()
	assert.Equal(t, 1, len(binds))
	assert.Equal(t, uint32(32), binds[0].Stride)
	assert.Equal(t, 3, len(attrs))
	assert.Equal(t, uint32(0), attrs[0].Location)
	assert.Equal(t, uint32(1), attrs[1].Location)
	assert.Equal(t, uint32(2), attrs[2].Location)
	assert.Equal(t, uint32(0), attrs[0].Offset)
	assert.Equal(t, uint32(12), attrs[1].Offset)
	assert.Equal(t, uint32(24), attrs[2].Offset)

	// locations stay fixed when an attribute is absent
	_, attrs = (VtxPosition | VtxTexcoord).InputDescriptions()
	assert.Equal(t, 2, len(attrs))
	assert.Equal(t, uint32(0), attrs[0].Location)
	assert.Equal(t, uint32(2), attrs[1].Location)
	assert.Equal(t, uint32(12), attrs[1].Offset)
}

func TestPipelineFlagsString(t *testing.T) {
	assert.Equal(t, "opaque", PipelineFlags(0).String())
	assert.Equal(t, "blend", PipeAlphaBlend.String())
	assert.Equal(t, "mask+2sided", (PipeAlphaMask | PipeDoubleSided).String())
}

func TestPipelineKeyEquality(t *testing.T) {
	k1 := PipelineKey{Attrs: StdVertexAttrs, Flags: PipeAlphaBlend}
	k2 := PipelineKey{Attrs: StdVertexAttrs, Flags: PipeAlphaBlend}
	k3 := PipelineKey{Attrs: StdVertexAttrs, Flags: PipeAlphaMask}
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)

	m := map[PipelineKey]int{k1: 1}
	m[k2]++
	assert.Equal(t, 1, len(m))
	assert.Equal(t, 2, m[k1])
}

func TestPipelineCacheCompileOnce(t *testing.T) {
	pc := &PipelineCache{}
	pc.Init()

	builds := 0
	build := func(key PipelineKey) (*Pipeline, error) {
		builds++
		return NewPipeline(key.Flags.String()), nil
	}

	key := PipelineKey{Attrs: StdVertexAttrs}
	pl1, err := pc.GetOrCompile(key, build)
	assert.NoError(t, err)
	pl2, err := pc.GetOrCompile(key, build)
	assert.NoError(t, err)
	assert.Same(t, pl1, pl2)
	assert.Equal(t, 1, builds)
	assert.Equal(t, 1, pc.CompileCount(key))

	other := PipelineKey{Attrs: StdVertexAttrs, Flags: PipeAlphaBlend}
	pl3, err := pc.GetOrCompile(other, build)
	assert.NoError(t, err)
	assert.NotSame(t, pl1, pl3)
	assert.Equal(t, 2, builds)
	assert.Equal(t, 2, pc.Len())
}

func TestPipelineCacheShaderFallback(t *testing.T) {
	pc := &PipelineCache{Default: NewPipeline("default")}
	pc.Init()

	builds := 0
	build := func(key PipelineKey) (*Pipeline, error) {
		builds++
		return nil, fmt.Errorf("standard.frag: %w", ErrShaderLink)
	}

	key := PipelineKey{Attrs: VtxPosition}
	pl, err := pc.GetOrCompile(key, build)
	assert.NoError(t, err)
	assert.Same(t, pc.Default, pl)

	// failure is cached: no rebuild on later lookups
	pl, err = pc.GetOrCompile(key, build)
	assert.NoError(t, err)
	assert.Same(t, pc.Default, pl)
	assert.Equal(t, 1, builds)
	assert.Equal(t, 1, pc.CompileCount(key))
}

func TestPipelineCacheTransientError(t *testing.T) {
	pc := &PipelineCache{Default: NewPipeline("default")}
	pc.Init()

	fail := errors.New("device lost")
	builds := 0
	build := func(key PipelineKey) (*Pipeline, error) {
		builds++
		if builds == 1 {
			return nil, fail
		}
		return NewPipeline("ok"), nil
	}

	key := PipelineKey{Attrs: StdVertexAttrs, Flags: PipeWireframe}
	_, err := pc.GetOrCompile(key, build)
	assert.ErrorIs(t, err, fail)
	assert.Equal(t, 0, pc.Len())

	// a non-shader failure is not cached, so the key can retry
	pl, err := pc.GetOrCompile(key, build)
	assert.NoError(t, err)
	assert.NotNil(t, pl)
	assert.NotSame(t, pc.Default, pl)
	assert.Equal(t, 2, pc.CompileCount(key))
}

func TestPipelineCacheDistinctPass(t *testing.T) {
	pc := &PipelineCache{}
	pc.Init()

	build := func(key PipelineKey) (*Pipeline, error) {
		return NewPipeline("p"), nil
	}

	var pass vk.RenderPass
	pass = vk.RenderPass(unsafe.Add(unsafe.Pointer(pass), 1))

	k1 := PipelineKey{Attrs: StdVertexAttrs}
	k2 := PipelineKey{Attrs: StdVertexAttrs, Pass: pass}
	pl1, _ := pc.GetOrCompile(k1, build)
	pl2, _ := pc.GetOrCompile(k2, build)
	assert.NotSame(t, pl1, pl2)
	assert.Equal(t, 2, pc.Len())
}
