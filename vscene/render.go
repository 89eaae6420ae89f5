// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vscene

import (
	"errors"
	"log/slog"

	"cogentcore.org/vgltf/vgpu"
	"cogentcore.org/vgltf/vpbr"
	vk "github.com/goki/vulkan"
)

// Renderer drives the per-frame loop: it resolves the scene into an
// ordered draw list, records one command buffer per frame, submits it,
// and presents. Failures of a single item are logged and skipped;
// swapchain rebuilds skip one frame; device errors end the loop.
type Renderer struct {
	Sys *vgpu.System

	Surf *vgpu.Surface

	PBR *vpbr.PBR

	// draw all items with line rasterization
	Wireframe bool

	// draw calls recorded for the last frame
	NDraws int

	// substituted for items with no material
	defMat *vpbr.Material
}

// NewRenderer returns a renderer over a configured system, surface,
// and shading system.
func NewRenderer(sy *vgpu.System, sf *vgpu.Surface, pb *vpbr.PBR) *Renderer {
	return &Renderer{Sys: sy, Surf: sf, PBR: pb, defMat: vpbr.NewMaterial("default")}
}

// RenderFrame renders and presents one frame of the scene from the
// camera. A nil error means the frame was drawn or legitimately
// skipped (swapchain rebuild, minimized window); a non-nil error is
// fatal to the render loop.
func (rd *Renderer) RenderFrame(sc *Scene, cm *Camera) error {
	if rd.Surf.NeedsRebuild {
		if !rd.Surf.ReConfigSwapchain() {
			return nil
		}
	}
	sz := rd.Surf.Size
	if sz.Y > 0 {
		cm.UpdateProjection(float32(sz.X) / float32(sz.Y))
	}
	rd.PBR.SetCamera(&cm.View, &cm.Projection, cm.Pos)

	sl, err := rd.Sys.Frames.BeginFrame()
	if err != nil {
		return err
	}
	rd.Sys.BeginFrameResources()

	idx, err := rd.Surf.AcquireNextImage(sl.ImageAcquired)
	if err != nil {
		rd.Sys.Frames.Abort(sl)
		if errors.Is(err, vgpu.ErrSwapchainOutOfDate) {
			return nil
		}
		return err
	}

	if err := rd.PBR.BeginFrame(sl); err != nil {
		rd.Sys.Frames.Abort(sl)
		return err
	}

	items := BuildDrawList(sc, cm)

	cmd := sl.Cmd
	vgpu.CmdResetBegin(cmd)
	rd.Sys.Render.BeginRenderPass(cmd, rd.Surf.Framebuffer(idx))
	rd.PBR.BindFrame(cmd, sl)
	rd.NDraws = 0
	for i := range items {
		it := &items[i]
		if err := rd.drawItem(cmd, sl, it); err != nil {
			mat := "nil"
			if it.Prim.Material != nil {
				mat = it.Prim.Material.Name
			}
			slog.Warn("vscene: skipping draw item", "material", mat, "err", err)
			continue
		}
		rd.NDraws++
	}
	vk.CmdEndRenderPass(cmd)
	vgpu.CmdEnd(cmd)

	if err := rd.Sys.Frames.EndFrame(sl); err != nil {
		return err
	}
	err = rd.Surf.Present(idx, sl.RenderFinished)
	if err != nil && !errors.Is(err, vgpu.ErrSwapchainOutOfDate) {
		return err
	}
	// out of date at present still drew the frame; the swapchain
	// rebuilds at the start of the next one
	return nil
}

// drawItem records one draw: pipeline, material set, push constants,
// geometry buffers, indexed draw.
func (rd *Renderer) drawItem(cmd vk.CommandBuffer, sl *vgpu.FrameSlot, it *DrawItem) error {
	mt := it.Prim.Material
	if mt == nil {
		mt = rd.defMat
	}
	flags := mt.Flags()
	if rd.Wireframe {
		flags |= vgpu.PipeWireframe
	}
	pl, err := rd.PBR.PipelineFor(it.Prim.Attrs, flags)
	if err != nil {
		return err
	}
	vtx, err := rd.Sys.Res.Buffer(it.Prim.VtxBuff)
	if err != nil {
		return err
	}
	ibf, err := rd.Sys.Res.Buffer(it.Prim.IndexBuff)
	if err != nil {
		return err
	}
	pl.BindPipeline(cmd)
	if err := rd.PBR.BindMaterial(cmd, sl, mt); err != nil {
		return err
	}
	rd.PBR.PushItem(cmd, &it.World, mt)
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{vtx.Buffer}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cmd, ibf.Buffer, 0, vk.IndexTypeUint32)
	vk.CmdDrawIndexed(cmd, uint32(it.Prim.NIndex), 1, 0, 0, 0)
	return nil
}
