// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"image"

	vk "github.com/goki/vulkan"
)

// Framebuffer binds one color target view (typically a swapchain image
// view, not owned here) together with the render pass's shared depth
// attachment.
type Framebuffer struct {

	// size of the target in pixels
	Size image.Point

	// the color target view; owned by the surface or image
	View vk.ImageView

	VkFramebuffer vk.Framebuffer
}

// Config makes the framebuffer on given render pass, with the pass's
// depth image as second attachment when it has one. The depth image
// must already be sized to match.
func (fb *Framebuffer) Config(dv *Device, rp *RenderPass, view vk.ImageView, size image.Point) error {
	fb.Destroy(dv.Device)
	fb.View = view
	fb.Size = size

	attachments := []vk.ImageView{view}
	if rp.HasDepth {
		attachments = append(attachments, rp.Depth.View)
	}
	var frameBuff vk.Framebuffer
	ret := vk.CreateFramebuffer(dv.Device, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp.VkClearPass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           uint32(size.X),
		Height:          uint32(size.Y),
		Layers:          1,
	}, nil, &frameBuff)
	if err := NewError(ret); err != nil {
		return err
	}
	fb.VkFramebuffer = frameBuff
	return nil
}

// Destroy destroys the framebuffer. The view is not owned and survives.
func (fb *Framebuffer) Destroy(dev vk.Device) {
	if fb.VkFramebuffer != vk.NullFramebuffer {
		vk.DestroyFramebuffer(dev, fb.VkFramebuffer, nil)
		fb.VkFramebuffer = vk.NullFramebuffer
	}
	fb.View = vk.NullImageView
}
