// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"fmt"
	"image"
	"log/slog"

	vk "github.com/goki/vulkan"
)

// BufferHandle refers to a buffer in a [ResourceManager]. The zero
// handle is invalid. Handles stay cheap to copy and compare; the
// generation detects use after destroy.
type BufferHandle struct {
	Index      uint32
	Generation uint32
}

// IsValid returns whether the handle has ever been assigned.
func (h BufferHandle) IsValid() bool { return h.Generation != 0 }

// ImageHandle refers to an image (with its sampler) in a
// [ResourceManager]. The zero handle is invalid.
type ImageHandle struct {
	Index      uint32
	Generation uint32
}

// IsValid returns whether the handle has ever been assigned.
func (h ImageHandle) IsValid() bool { return h.Generation != 0 }

type bufferSlot struct {
	buf  GPUBuffer
	gen  uint32
	live bool
}

type imageSlot struct {
	img  GPUImage
	smp  Sampler
	gen  uint32
	live bool
}

// pendingFree is a destroyed resource whose vulkan objects are kept
// until every frame in flight at destroy time has completed.
type pendingFree struct {
	image bool
	index uint32
	frame uint64
}

// ResourceManager owns all long-lived GPU buffers and images, organized
// as slot arenas addressed by generation-checked handles. Uploads stage
// through a host-visible buffer into device-local memory on a one-time
// transfer command. Destroy marks a slot dead immediately but defers the
// vulkan frees until [ResourceManager.Reap] observes that the frames in
// flight at destroy time have completed on the GPU.
//
// Not safe for concurrent use: all calls happen on the render thread.
type ResourceManager struct {
	GPU *GPU
	Dev *Device

	// transient pool for upload commands
	CmdPool CmdPool

	buffers     []bufferSlot
	images      []imageSlot
	freeBuffers []uint32
	freeImages  []uint32
	pending     []pendingFree

	// current frame counter, set by the renderer each frame
	frame uint64
}

// Config initializes the manager on given GPU and device.
func (rm *ResourceManager) Config(gp *GPU, dv *Device) {
	rm.GPU = gp
	rm.Dev = dv
	rm.CmdPool.ConfigTransient(dv)
	rm.CmdPool.NewBuffer(dv)
}

// SetFrame records the current frame counter, which stamps subsequent
// Destroy calls for the deferral window.
func (rm *ResourceManager) SetFrame(frame uint64) {
	rm.frame = frame
}

// UploadBuffer creates a device-local buffer with given usage and fills
// it with data through a staging buffer on a one-time transfer command.
// Returns [ErrOutOfDeviceMemory] if either allocation fails; nothing is
// leaked on failure.
func (rm *ResourceManager) UploadBuffer(data []byte, usage vk.BufferUsageFlagBits) (BufferHandle, error) {
	if len(data) == 0 {
		return BufferHandle{}, fmt.Errorf("vgpu: UploadBuffer: empty data")
	}
	staging, err := NewHostBuffer(rm.GPU, rm.Dev.Device, len(data), vk.BufferUsageTransferSrcBit)
	if err != nil {
		return BufferHandle{}, err
	}
	defer staging.Free(rm.Dev.Device)
	staging.Write(0, data)

	dst, err := NewDeviceBuffer(rm.GPU, rm.Dev.Device, len(data), usage)
	if err != nil {
		return BufferHandle{}, err
	}

	cmd := rm.CmdPool.BeginCmd()
	vk.CmdCopyBuffer(cmd, staging.Buffer, dst.Buffer, 1, []vk.BufferCopy{
		{Size: vk.DeviceSize(len(data))},
	})
	rm.CmdPool.EndSubmitWait(rm.Dev)

	idx := rm.allocBufferSlot()
	slot := &rm.buffers[idx]
	slot.buf = dst
	slot.live = true
	return BufferHandle{Index: idx, Generation: slot.gen}, nil
}

// UploadImage creates a device-local 2D image in given format, fills
// mip level 0 with texels (tightly packed rows) through staging, blits
// the remaining mip levels, and transitions everything for shader
// sampling. The sampler is created from smp's settings.
func (rm *ResourceManager) UploadImage(texels []byte, size image.Point, format vk.Format, smp Sampler) (ImageHandle, error) {
	if size.X <= 0 || size.Y <= 0 || len(texels) == 0 {
		return ImageHandle{}, fmt.Errorf("vgpu: UploadImage: empty image")
	}
	staging, err := NewHostBuffer(rm.GPU, rm.Dev.Device, len(texels), vk.BufferUsageTransferSrcBit)
	if err != nil {
		return ImageHandle{}, err
	}
	defer staging.Free(rm.Dev.Device)
	staging.Write(0, texels)

	var img GPUImage
	err = img.Config(rm.GPU, rm.Dev.Device, size, format, vk.ImageUsageSampledBit, true)
	if err != nil {
		return ImageHandle{}, err
	}

	cmd := rm.CmdPool.BeginCmd()
	img.TransitionForDst(cmd)
	img.CopyFromBuffer(cmd, staging.Buffer)
	img.GenMipmaps(cmd)
	rm.CmdPool.EndSubmitWait(rm.Dev)

	if err := smp.Config(rm.GPU, rm.Dev.Device, img.Mips); err != nil {
		img.Free(rm.Dev.Device)
		return ImageHandle{}, err
	}

	idx := rm.allocImageSlot()
	slot := &rm.images[idx]
	slot.img = img
	slot.smp = smp
	slot.live = true
	return ImageHandle{Index: idx, Generation: slot.gen}, nil
}

// Buffer resolves a handle, returning [ErrStaleHandle] if the resource
// has been destroyed or the handle was never valid.
func (rm *ResourceManager) Buffer(h BufferHandle) (*GPUBuffer, error) {
	if !h.IsValid() || int(h.Index) >= len(rm.buffers) {
		return nil, fmt.Errorf("%w: buffer %d.%d", ErrStaleHandle, h.Index, h.Generation)
	}
	slot := &rm.buffers[h.Index]
	if !slot.live || slot.gen != h.Generation {
		return nil, fmt.Errorf("%w: buffer %d.%d", ErrStaleHandle, h.Index, h.Generation)
	}
	return &slot.buf, nil
}

// Image resolves a handle to the image and its sampler, returning
// [ErrStaleHandle] if the resource has been destroyed.
func (rm *ResourceManager) Image(h ImageHandle) (*GPUImage, *Sampler, error) {
	if !h.IsValid() || int(h.Index) >= len(rm.images) {
		return nil, nil, fmt.Errorf("%w: image %d.%d", ErrStaleHandle, h.Index, h.Generation)
	}
	slot := &rm.images[h.Index]
	if !slot.live || slot.gen != h.Generation {
		return nil, nil, fmt.Errorf("%w: image %d.%d", ErrStaleHandle, h.Index, h.Generation)
	}
	return &slot.img, &slot.smp, nil
}

// DestroyBuffer invalidates the handle now and queues the vulkan frees
// for after all frames currently in flight have completed. Destroying a
// stale handle is a logged no-op.
func (rm *ResourceManager) DestroyBuffer(h BufferHandle) {
	if _, err := rm.Buffer(h); err != nil {
		slog.Warn("vgpu: DestroyBuffer", "err", err)
		return
	}
	slot := &rm.buffers[h.Index]
	slot.live = false
	slot.gen++
	rm.pending = append(rm.pending, pendingFree{index: h.Index, frame: rm.frame})
}

// DestroyImage invalidates the handle now and queues the vulkan frees
// for after all frames currently in flight have completed.
func (rm *ResourceManager) DestroyImage(h ImageHandle) {
	if _, _, err := rm.Image(h); err != nil {
		slog.Warn("vgpu: DestroyImage", "err", err)
		return
	}
	slot := &rm.images[h.Index]
	slot.live = false
	slot.gen++
	rm.pending = append(rm.pending, pendingFree{image: true, index: h.Index, frame: rm.frame})
}

// Reap frees the vulkan objects of destroyed resources whose destroy
// frame is at or before the given completed frame counter, and returns
// their slots to the free lists. Called once per frame by the renderer.
func (rm *ResourceManager) Reap(completed uint64) {
	if len(rm.pending) == 0 {
		return
	}
	kept := rm.pending[:0]
	for _, p := range rm.pending {
		if p.frame > completed {
			kept = append(kept, p)
			continue
		}
		if p.image {
			slot := &rm.images[p.index]
			slot.img.Free(rm.Dev.Device)
			slot.smp.Free(rm.Dev.Device)
			rm.freeImages = append(rm.freeImages, p.index)
		} else {
			slot := &rm.buffers[p.index]
			slot.buf.Free(rm.Dev.Device)
			rm.freeBuffers = append(rm.freeBuffers, p.index)
		}
	}
	rm.pending = kept
}

// NAlive returns the live buffer and image counts.
func (rm *ResourceManager) NAlive() (nbufs, nimgs int) {
	for i := range rm.buffers {
		if rm.buffers[i].live {
			nbufs++
		}
	}
	for i := range rm.images {
		if rm.images[i].live {
			nimgs++
		}
	}
	return
}

// Free releases everything immediately. The device must be idle.
func (rm *ResourceManager) Free() {
	for i := range rm.buffers {
		if rm.buffers[i].live || rm.buffers[i].buf.IsActive() {
			rm.buffers[i].buf.Free(rm.Dev.Device)
			rm.buffers[i].live = false
		}
	}
	for i := range rm.images {
		slot := &rm.images[i]
		if slot.live || slot.img.Image != vk.NullImage {
			slot.img.Free(rm.Dev.Device)
			slot.smp.Free(rm.Dev.Device)
			slot.live = false
		}
	}
	rm.buffers = nil
	rm.images = nil
	rm.freeBuffers = nil
	rm.freeImages = nil
	rm.pending = nil
	rm.CmdPool.Destroy(rm.Dev.Device)
}

func (rm *ResourceManager) allocBufferSlot() uint32 {
	if n := len(rm.freeBuffers); n > 0 {
		idx := rm.freeBuffers[n-1]
		rm.freeBuffers = rm.freeBuffers[:n-1]
		return idx
	}
	rm.buffers = append(rm.buffers, bufferSlot{gen: 1})
	return uint32(len(rm.buffers) - 1)
}

func (rm *ResourceManager) allocImageSlot() uint32 {
	if n := len(rm.freeImages); n > 0 {
		idx := rm.freeImages[n-1]
		rm.freeImages = rm.freeImages[:n-1]
		return idx
	}
	rm.images = append(rm.images, imageSlot{gen: 1})
	return uint32(len(rm.images) - 1)
}
