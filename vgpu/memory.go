// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This is initially adapted from https://github.com/vulkan-go/asche
// Copyright © 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vgpu

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// NewVkBuffer makes a vulkan buffer of given size and usage.
func NewVkBuffer(dev vk.Device, size int, usage vk.BufferUsageFlagBits) vk.Buffer {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(dev, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	IfPanic(NewError(ret))
	return buffer
}

// AllocBufferMemory allocates memory matching the buffer's requirements
// with given property flags, and binds it to the buffer.
// Returns [ErrOutOfDeviceMemory] when the allocation fails for space.
func AllocBufferMemory(gp *GPU, dev vk.Device, buffer vk.Buffer, props vk.MemoryPropertyFlagBits) (vk.DeviceMemory, error) {
	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev, buffer, &memReqs)
	memReqs.Deref()

	memType, ok := FindMemoryType(gp, memReqs.MemoryTypeBits, props)
	if !ok {
		return vk.NullDeviceMemory, fmt.Errorf("%w: no memory type for flags %d", ErrOutOfDeviceMemory, props)
	}
	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &memory)
	if err := allocError(ret); err != nil {
		return vk.NullDeviceMemory, err
	}
	vk.BindBufferMemory(dev, buffer, memory, 0)
	return memory, nil
}

// FindMemoryType finds a device memory type in typeBits having all of the
// given property flags, returning its index.
func FindMemoryType(gp *GPU, typeBits uint32, props vk.MemoryPropertyFlagBits) (uint32, bool) {
	want := vk.MemoryPropertyFlags(props)
	for i := uint32(0); i < gp.MemoryProperties.MemoryTypeCount; i++ {
		if typeBits&(1<<i) == 0 {
			continue
		}
		gp.MemoryProperties.MemoryTypes[i].Deref()
		if gp.MemoryProperties.MemoryTypes[i].PropertyFlags&want == want {
			return i, true
		}
	}
	return 0, false
}

// MapMemory maps the memory, returning a pointer to its start.
func MapMemory(dev vk.Device, mem vk.DeviceMemory, size int) (unsafe.Pointer, error) {
	var ptr unsafe.Pointer
	ret := vk.MapMemory(dev, mem, 0, vk.DeviceSize(size), 0, &ptr)
	if err := NewError(ret); err != nil {
		return nil, err
	}
	return ptr, nil
}

// FreeBufferMemory unmaps (if mapped) and frees the memory, nil-ing it.
func FreeBufferMemory(dev vk.Device, memory *vk.DeviceMemory, mapped bool) {
	if *memory == vk.NullDeviceMemory {
		return
	}
	if mapped {
		vk.UnmapMemory(dev, *memory)
	}
	vk.FreeMemory(dev, *memory, nil)
	*memory = vk.NullDeviceMemory
}
