// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	vk "github.com/goki/vulkan"
)

// System bundles the device and the shared rendering machinery that
// all pipelines in a rendering system use: the resource arena for
// buffers and images, the pipeline cache, per-frame descriptor pools,
// and the frame scheduler that paces cpu recording against gpu
// completion. It owns the logical device and its graphics queue.
type System struct {
	// optional name of this System
	Name string

	// gpu device
	GPU *GPU

	// logical device with a graphics queue, owned by this System
	Device Device

	// command pool holding the per-frame render command buffers
	CmdPool CmdPool

	// renderpass with depth buffer for this system
	Render RenderPass

	// arena for device buffers and images, with deferred destroy
	Res ResourceManager

	// cache of compiled graphics pipelines by state key
	Cache PipelineCache

	// per-frame-slot descriptor pools
	Descriptors DescriptorAllocator

	// paces frames in flight against fence completion
	Frames FrameScheduler
}

// InitGraphics initializes the System for graphics rendering on given
// gpu, creating the logical device with a graphics queue, the command
// pool, and the resource arena. ConfigRender must be called once the
// target color and depth formats are known.
func (sy *System) InitGraphics(gp *GPU, name string) error {
	sy.Name = name
	sy.GPU = gp
	if err := sy.Device.Init(gp, vk.QueueGraphicsBit); err != nil {
		return err
	}
	sy.CmdPool.ConfigResettable(&sy.Device)
	sy.Res.Config(gp, &sy.Device)
	sy.Cache.Init()
	return nil
}

// ConfigRender configures the renderpass for given color format
// (typically the Surface format) and depth format (UndefinedType for
// no depth buffer), and the frame scheduler for given number of frames
// in flight. Descriptor pools are configured separately by the
// material system, which knows its layouts and counts.
func (sy *System) ConfigRender(colorFormat vk.Format, depth Types, nframes int) error {
	err := sy.Render.Config(&sy.Device, colorFormat, depth.VkFormat(), true)
	if err != nil {
		return err
	}
	sy.Frames.Config(&sy.Device, &sy.CmdPool, nframes)
	return nil
}

// WaitIdle blocks until the device queue has drained. Used around
// swapchain rebuilds and teardown, never in the steady-state frame
// loop.
func (sy *System) WaitIdle() {
	sy.Device.WaitIdle()
}

// BeginFrameResources stamps the resource arena with the frame number
// the current recording will carry at submit, and reaps resources whose
// retiring frame the gpu has completed. Call once per frame after
// FrameScheduler.BeginFrame.
func (sy *System) BeginFrameResources() {
	sy.Res.SetFrame(sy.Frames.FrameCount + 1)
	sy.Res.Reap(sy.Frames.Completed())
}

// Destroy frees all vulkan resources owned by the System, in
// dependency order. The device must be idle; callers that rendered to
// a Surface should destroy that first, while the device still exists.
func (sy *System) Destroy() {
	sy.WaitIdle()
	sy.Cache.Destroy(sy.Device.Device)
	sy.Descriptors.Destroy()
	sy.Frames.Destroy()
	sy.Res.Free()
	sy.Render.Destroy()
	sy.CmdPool.Destroy(sy.Device.Device)
	sy.Device.Destroy()
	sy.GPU = nil
}
