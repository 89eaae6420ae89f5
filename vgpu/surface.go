// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This is initially adapted from https://github.com/vulkan-go/asche
// Copyright © 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vgpu

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	vk "github.com/goki/vulkan"
)

// Surface manages the swapchain for presenting rendered images
// to an OS window surface.
type Surface struct {
	// pointer to gpu, for convenience
	GPU *GPU

	// device from the owning System. its queue is used for both
	// rendering and presenting, so the queue family must support
	// present on this surface, which Init verifies.
	Device *Device

	// the RenderPass that framebuffers are configured for,
	// set via SetRenderPass
	RenderPass *RenderPass

	// swapchain image format
	Format vk.Format

	// color space that goes with Format
	ColorSpace vk.ColorSpace

	// current swapchain size in pixels
	Size image.Point

	// number of swapchain images requested. after InitSwapchain this
	// reflects the actual count, which can differ per surface caps.
	NFrames int

	// use the tear-free Fifo present mode. when false, Mailbox or
	// Immediate is used if the surface supports it.
	VSync bool

	// set when acquire or present reports that the swapchain no
	// longer matches the surface, or when the window is resized.
	// ReConfigSwapchain clears it.
	NeedsRebuild bool

	// vulkan handle for the OS window surface
	Surface vk.Surface

	// vulkan handle for the swapchain
	Swapchain vk.Swapchain

	// images owned by the swapchain
	Images []vk.Image

	// views onto Images
	Views []vk.ImageView

	// framebuffers per swapchain image, valid after SetRenderPass
	Framebuffers []Framebuffer
}

func (sf *Surface) Defaults() {
	sf.NFrames = 2
	sf.Format = vk.FormatB8g8r8a8Srgb
	sf.ColorSpace = vk.ColorSpaceSrgbNonlinear
	sf.VSync = true
}

// Init sets the gpu and device for the surface, verifies that the
// device queue family can present to the given window surface handle
// (obtained from the OS window, e.g., via glfw CreateWindowSurface),
// and builds the initial swapchain.
func (sf *Surface) Init(gp *GPU, dv *Device, vs vk.Surface) error {
	sf.GPU = gp
	sf.Device = dv
	sf.Surface = vs
	var supportsPresent vk.Bool32
	vk.GetPhysicalDeviceSurfaceSupport(gp.GPU, dv.QueueIndex, vs, &supportsPresent)
	if !supportsPresent.B() {
		return fmt.Errorf("vgpu.Surface: queue family %d cannot present to this surface: %w", dv.QueueIndex, ErrDeviceUnavailable)
	}
	return sf.InitSwapchain()
}

// InitSwapchain builds the swapchain and views onto its images for the
// current surface size. An existing swapchain is passed as OldSwapchain
// and destroyed once the new one exists. Fails with ErrSwapchainOutOfDate
// if the surface currently has a zero extent (minimized window).
func (sf *Surface) InitSwapchain() error {
	dev := sf.Device.Device
	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(sf.GPU.GPU, sf.Surface, &caps)
	if IsError(ret) {
		return NewError(ret)
	}
	caps.Deref()
	caps.CurrentExtent.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(sf.GPU.GPU, sf.Surface, &formatCount, nil)
	if formatCount == 0 {
		return errors.New("vgpu.Surface: surface has no pixel formats")
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	vk.GetPhysicalDeviceSurfaceFormats(sf.GPU.GPU, sf.Surface, &formatCount, formats)
	for i := range formats {
		formats[i].Deref()
	}
	format := formats[0]
	if formatCount == 1 && format.Format == vk.FormatUndefined {
		// surface has no preference
		format.Format = sf.Format
		format.ColorSpace = sf.ColorSpace
	} else {
		for _, fm := range formats {
			if fm.Format == sf.Format && fm.ColorSpace == sf.ColorSpace {
				format = fm
				break
			}
		}
	}
	sf.Format = format.Format
	sf.ColorSpace = format.ColorSpace

	sz := image.Point{int(caps.CurrentExtent.Width), int(caps.CurrentExtent.Height)}
	if caps.CurrentExtent.Width == vk.MaxUint32 {
		sz = sf.Size // surface says: whatever the swapchain picks
	}
	if sz.X <= 0 || sz.Y <= 0 {
		return fmt.Errorf("vgpu.Surface: zero surface extent %v: %w", sz, ErrSwapchainOutOfDate)
	}
	sf.Size = sz

	desired := uint32(sf.NFrames)
	if desired < caps.MinImageCount {
		desired = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && desired > caps.MaxImageCount {
		desired = caps.MaxImageCount
	}

	preTransform := vk.SurfaceTransformIdentityBit
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&preTransform == 0 {
		preTransform = caps.CurrentTransform
	}

	// one of these is guaranteed to be supported
	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, ca := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(ca) != 0 {
			compositeAlpha = ca
			break
		}
	}

	oldSwapchain := sf.Swapchain
	var swapchain vk.Swapchain
	ret = vk.CreateSwapchain(dev, &vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         sf.Surface,
		MinImageCount:   desired,
		ImageFormat:     format.Format,
		ImageColorSpace: format.ColorSpace,
		ImageExtent: vk.Extent2D{
			Width:  uint32(sz.X),
			Height: uint32(sz.Y),
		},
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     preTransform,
		CompositeAlpha:   compositeAlpha,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		PresentMode:      sf.presentMode(),
		OldSwapchain:     oldSwapchain,
		Clipped:          vk.True,
	}, nil, &swapchain)
	if IsError(ret) {
		return NewError(ret)
	}
	if oldSwapchain != vk.NullSwapchain {
		vk.DestroySwapchain(dev, oldSwapchain, nil)
	}
	sf.Swapchain = swapchain

	var imageCount uint32
	ret = vk.GetSwapchainImages(dev, sf.Swapchain, &imageCount, nil)
	if IsError(ret) {
		return NewError(ret)
	}
	sf.NFrames = int(imageCount)
	sf.Images = make([]vk.Image, imageCount)
	ret = vk.GetSwapchainImages(dev, sf.Swapchain, &imageCount, sf.Images)
	if IsError(ret) {
		return NewError(ret)
	}

	sf.Views = make([]vk.ImageView, len(sf.Images))
	for i, img := range sf.Images {
		var view vk.ImageView
		ret = vk.CreateImageView(dev, &vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    img,
			ViewType: vk.ImageViewType2d,
			Format:   sf.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}, nil, &view)
		if IsError(ret) {
			return NewError(ret)
		}
		sf.Views[i] = view
	}
	return nil
}

// presentMode returns the swapchain present mode to use.
// Fifo is always supported and is the default. With VSync off,
// Mailbox then Immediate is used if the surface supports it.
func (sf *Surface) presentMode() vk.PresentMode {
	if sf.VSync {
		return vk.PresentModeFifo
	}
	var count uint32
	vk.GetPhysicalDeviceSurfacePresentModes(sf.GPU.GPU, sf.Surface, &count, nil)
	modes := make([]vk.PresentMode, count)
	vk.GetPhysicalDeviceSurfacePresentModes(sf.GPU.GPU, sf.Surface, &count, modes)
	for _, want := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
		for _, md := range modes {
			if md == want {
				return want
			}
		}
	}
	return vk.PresentModeFifo
}

// SetRenderPass sets the RenderPass used for rendering to this surface,
// sizes its depth buffer to the swapchain, and builds the per-image
// framebuffers.
func (sf *Surface) SetRenderPass(rp *RenderPass) error {
	sf.RenderPass = rp
	if rp.HasDepth {
		if err := rp.SetDepthSize(sf.GPU, sf.Size); err != nil {
			return err
		}
	}
	return sf.ConfigFramebuffers()
}

// ConfigFramebuffers (re)builds a framebuffer per swapchain image view
// against the current RenderPass. SetRenderPass must have been called.
func (sf *Surface) ConfigFramebuffers() error {
	dev := sf.Device.Device
	for i := range sf.Framebuffers {
		sf.Framebuffers[i].Destroy(dev)
	}
	sf.Framebuffers = make([]Framebuffer, len(sf.Views))
	for i, vw := range sf.Views {
		if err := sf.Framebuffers[i].Config(sf.Device, sf.RenderPass, vw, sf.Size); err != nil {
			return err
		}
	}
	return nil
}

// Framebuffer returns the framebuffer for given swapchain image index,
// as returned by AcquireNextImage.
func (sf *Surface) Framebuffer(idx uint32) *Framebuffer {
	return &sf.Framebuffers[idx]
}

// AcquireNextImage gets the index of the next available swapchain image,
// signaling the given semaphore when the image is actually ready to be
// rendered to. Fails with ErrSwapchainOutOfDate if the swapchain no
// longer matches the surface, in which case the caller must skip this
// frame and ReConfigSwapchain. A suboptimal result just sets
// NeedsRebuild and the frame proceeds.
func (sf *Surface) AcquireNextImage(sem vk.Semaphore) (uint32, error) {
	var idx uint32
	ret := vk.AcquireNextImage(sf.Device.Device, sf.Swapchain, vk.MaxUint64, sem, vk.NullFence, &idx)
	switch ret {
	case vk.Success:
	case vk.Suboptimal:
		sf.NeedsRebuild = true
	case vk.ErrorOutOfDate:
		sf.NeedsRebuild = true
		return idx, fmt.Errorf("vgpu.Surface acquire: %w", ErrSwapchainOutOfDate)
	default:
		return idx, NewError(ret)
	}
	return idx, nil
}

// Present queues presentation of given swapchain image, after waiting
// on the given rendering-complete semaphore. The frame's work has been
// submitted by this point, so an out-of-date report here only flags
// NeedsRebuild, returning ErrSwapchainOutOfDate for the caller's
// information.
func (sf *Surface) Present(idx uint32, wait vk.Semaphore) error {
	ret := vk.QueuePresent(sf.Device.Queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sf.Swapchain},
		PImageIndices:      []uint32{idx},
	})
	switch ret {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		sf.NeedsRebuild = true
		return nil
	case vk.ErrorOutOfDate:
		sf.NeedsRebuild = true
		return fmt.Errorf("vgpu.Surface present: %w", ErrSwapchainOutOfDate)
	default:
		return NewError(ret)
	}
}

// ReConfigSwapchain rebuilds the swapchain and dependent framebuffers
// for the current surface size, after a resize or an out-of-date
// report. Waits for the device to go idle first. Returns false if the
// surface currently has a zero extent (minimized window), in which
// case nothing was rebuilt and the caller should retry later.
func (sf *Surface) ReConfigSwapchain() bool {
	sf.Device.WaitIdle()
	sf.FreeFrames()
	if err := sf.InitSwapchain(); err != nil {
		if !errors.Is(err, ErrSwapchainOutOfDate) {
			slog.Error("vgpu.Surface: swapchain rebuild failed", "err", err)
		}
		return false
	}
	if sf.RenderPass != nil {
		if err := sf.SetRenderPass(sf.RenderPass); err != nil {
			slog.Error("vgpu.Surface: framebuffer rebuild failed", "err", err)
			return false
		}
	}
	sf.NeedsRebuild = false
	return true
}

// FreeFrames destroys the framebuffers and image views onto the current
// swapchain images, prior to a rebuild or destroy. The swapchain itself
// is kept, to be reused as OldSwapchain or destroyed in Destroy.
func (sf *Surface) FreeFrames() {
	dev := sf.Device.Device
	for i := range sf.Framebuffers {
		sf.Framebuffers[i].Destroy(dev)
	}
	sf.Framebuffers = nil
	for _, vw := range sf.Views {
		vk.DestroyImageView(dev, vw, nil)
	}
	sf.Views = nil
	sf.Images = nil
}

// Destroy frees all swapchain resources and the window surface handle.
// The Device is owned by the System, not destroyed here.
func (sf *Surface) Destroy() {
	sf.FreeFrames()
	if sf.Swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(sf.Device.Device, sf.Swapchain, nil)
		sf.Swapchain = vk.NullSwapchain
	}
	if sf.Surface != vk.NullSurface {
		vk.DestroySurface(sf.GPU.Instance, sf.Surface, nil)
		sf.Surface = vk.NullSurface
	}
	sf.GPU = nil
}
