// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"image"

	vk "github.com/goki/vulkan"
)

// RenderPass is a single-subpass clearing render pass over one color
// attachment and an optional shared depth attachment, which it owns.
// When configured for presentation the color attachment's final layout
// is PresentSrc, so ending the pass is the transition that readies the
// image for the present engine.
type RenderPass struct {
	Dev *Device

	// color attachment format
	Format vk.Format

	// depth attachment format; FormatUndefined for no depth
	DepthFormat vk.Format

	// the shared depth image, sized to the render target
	Depth GPUImage

	// the render pass with clearing load ops
	VkClearPass vk.RenderPass

	// clear values
	ClearColor   [4]float32
	ClearDepth   float32
	ClearStencil uint32

	HasDepth bool
}

// Config makes the render pass for the given formats. forPresent sets
// the color final layout for presentation (vs. sampling offscreen).
func (rp *RenderPass) Config(dv *Device, colorFormat, depthFormat vk.Format, forPresent bool) error {
	rp.Dev = dv
	rp.Format = colorFormat
	rp.DepthFormat = depthFormat
	rp.HasDepth = depthFormat != vk.FormatUndefined
	rp.ClearColor = [4]float32{0.1, 0.1, 0.1, 1}
	rp.ClearDepth = 1

	finalLayout := vk.ImageLayoutShaderReadOnlyOptimal
	if forPresent {
		finalLayout = vk.ImageLayoutPresentSrc
	}

	attachments := []vk.AttachmentDescription{{
		Format:         colorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    finalLayout,
	}}
	colorRef := vk.AttachmentReference{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    []vk.AttachmentReference{colorRef},
	}

	srcStages := vk.PipelineStageColorAttachmentOutputBit
	dstAccess := vk.AccessColorAttachmentWriteBit

	if rp.HasDepth {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         depthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		srcStages |= vk.PipelineStageEarlyFragmentTestsBit
		dstAccess |= vk.AccessDepthStencilAttachmentWriteBit
	}

	var pass vk.RenderPass
	ret := vk.CreateRenderPass(dv.Device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies: []vk.SubpassDependency{{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(srcStages),
			SrcAccessMask: 0,
			DstStageMask:  vk.PipelineStageFlags(srcStages),
			DstAccessMask: vk.AccessFlags(dstAccess),
		}},
	}, nil, &pass)
	if err := NewError(ret); err != nil {
		return err
	}
	rp.VkClearPass = pass
	return nil
}

// SetClearColor sets the color the pass clears to.
func (rp *RenderPass) SetClearColor(r, g, b, a float32) {
	rp.ClearColor = [4]float32{r, g, b, a}
}

// SetDepthSize (re)creates the shared depth image at given size,
// freeing any previous one. Call when the render target size changes,
// after the device is idle.
func (rp *RenderPass) SetDepthSize(gp *GPU, size image.Point) error {
	if !rp.HasDepth {
		return nil
	}
	rp.Depth.Free(rp.Dev.Device)
	return rp.Depth.Config(gp, rp.Dev.Device, size, rp.DepthFormat,
		vk.ImageUsageDepthStencilAttachmentBit, false)
}

// BeginRenderPass begins the clearing pass on the framebuffer and sets
// the dynamic viewport and scissor to its full size.
func (rp *RenderPass) BeginRenderPass(cmd vk.CommandBuffer, fb *Framebuffer) {
	clears := []vk.ClearValue{vk.NewClearValue(rp.ClearColor[:])}
	if rp.HasDepth {
		clears = append(clears, vk.NewClearDepthStencil(rp.ClearDepth, rp.ClearStencil))
	}
	w, h := uint32(fb.Size.X), uint32(fb.Size.Y)
	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.VkClearPass,
		Framebuffer: fb.VkFramebuffer,
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: w, Height: h},
		},
		ClearValueCount: uint32(len(clears)),
		PClearValues:    clears,
	}, vk.SubpassContentsInline)

	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{{
		Width:    float32(w),
		Height:   float32(h),
		MinDepth: 0,
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{{
		Extent: vk.Extent2D{Width: w, Height: h},
	}})
}

// Destroy frees the depth image and the pass.
func (rp *RenderPass) Destroy() {
	rp.Depth.Free(rp.Dev.Device)
	if rp.VkClearPass != vk.NullRenderPass {
		vk.DestroyRenderPass(rp.Dev.Device, rp.VkClearPass, nil)
		rp.VkClearPass = vk.NullRenderPass
	}
}
