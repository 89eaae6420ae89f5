// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// GPUBuffer is one vulkan buffer with its bound memory. Size and Usage
// are fixed at creation. Device-local buffers have nil HostPtr and their
// contents are immutable after upload; host-visible buffers stay mapped
// at HostPtr for per-frame updates (uniforms) or staging.
type GPUBuffer struct {

	// the buffer
	Buffer vk.Buffer

	// bound memory for the buffer
	Memory vk.DeviceMemory

	// allocation size in bytes
	Size int

	// usage the buffer was created with
	Usage vk.BufferUsageFlagBits

	// mapped pointer for host-visible buffers, nil for device-local
	HostPtr unsafe.Pointer
}

// NewHostBuffer makes a host-visible, coherent, mapped buffer of given
// size and usage, for staging and per-frame uniform data.
func NewHostBuffer(gp *GPU, dev vk.Device, size int, usage vk.BufferUsageFlagBits) (GPUBuffer, error) {
	bf := GPUBuffer{Size: size, Usage: usage}
	bf.Buffer = NewVkBuffer(dev, size, usage)
	mem, err := AllocBufferMemory(gp, dev, bf.Buffer,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		vk.DestroyBuffer(dev, bf.Buffer, nil)
		return GPUBuffer{}, err
	}
	bf.Memory = mem
	ptr, err := MapMemory(dev, mem, size)
	if err != nil {
		bf.Free(dev)
		return GPUBuffer{}, err
	}
	bf.HostPtr = ptr
	return bf, nil
}

// NewDeviceBuffer makes a device-local buffer of given size and usage.
// TransferDst is added so it can be filled from staging.
func NewDeviceBuffer(gp *GPU, dev vk.Device, size int, usage vk.BufferUsageFlagBits) (GPUBuffer, error) {
	bf := GPUBuffer{Size: size, Usage: usage}
	bf.Buffer = NewVkBuffer(dev, size, usage|vk.BufferUsageTransferDstBit)
	mem, err := AllocBufferMemory(gp, dev, bf.Buffer, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vk.DestroyBuffer(dev, bf.Buffer, nil)
		return GPUBuffer{}, err
	}
	bf.Memory = mem
	return bf, nil
}

// Write copies data into a mapped host-visible buffer at given byte
// offset. It is a no-op on device-local buffers.
func (bf *GPUBuffer) Write(offset int, data []byte) {
	if bf.HostPtr == nil || len(data) == 0 {
		return
	}
	dst := unsafe.Add(bf.HostPtr, offset)
	vk.Memcopy(dst, data)
}

// IsActive returns whether the buffer has been created.
func (bf *GPUBuffer) IsActive() bool {
	return bf.Buffer != vk.NullBuffer
}

// Free destroys the buffer and frees its memory. Safe on zero values.
func (bf *GPUBuffer) Free(dev vk.Device) {
	if bf.Buffer != vk.NullBuffer {
		vk.DestroyBuffer(dev, bf.Buffer, nil)
		bf.Buffer = vk.NullBuffer
	}
	FreeBufferMemory(dev, &bf.Memory, bf.HostPtr != nil)
	bf.HostPtr = nil
	bf.Size = 0
}
