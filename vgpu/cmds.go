// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This is initially adapted from https://github.com/vulkan-go/asche
// Copyright © 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vgpu

import (
	vk "github.com/goki/vulkan"
)

// CmdPool is a command pool with a default primary buffer Buff.
// Additional buffers (e.g., one per frame slot) come from NewBuffer.
type CmdPool struct {
	Pool vk.CommandPool
	Buff vk.CommandBuffer
}

// ConfigResettable configures the pool so its buffers can be
// individually reset and re-recorded, for per-frame command buffers.
func (cp *CmdPool) ConfigResettable(dv *Device) {
	cp.config(dv, vk.CommandPoolCreateResetCommandBufferBit)
}

// ConfigTransient configures the pool for short-lived one-time
// buffers, for staging transfers.
func (cp *CmdPool) ConfigTransient(dv *Device) {
	cp.config(dv, vk.CommandPoolCreateTransientBit|vk.CommandPoolCreateResetCommandBufferBit)
}

func (cp *CmdPool) config(dv *Device, flags vk.CommandPoolCreateFlagBits) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(dv.Device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: dv.QueueIndex,
		Flags:            vk.CommandPoolCreateFlags(flags),
	}, nil, &pool)
	IfPanic(NewError(ret))
	cp.Pool = pool
}

// NewBuffer allocates a new primary command buffer from the pool,
// setting it as Buff and returning it.
func (cp *CmdPool) NewBuffer(dv *Device) vk.CommandBuffer {
	cmdBuff := make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(dv.Device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        cp.Pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, cmdBuff)
	IfPanic(NewError(ret))
	cp.Buff = cmdBuff[0]
	return cp.Buff
}

// BeginCmd begins recording the default buffer for one-time submission,
// returning it.
func (cp *CmdPool) BeginCmd() vk.CommandBuffer {
	CmdBeginOneTime(cp.Buff)
	return cp.Buff
}

// EndSubmitWait ends recording of the default buffer, submits it to the
// device queue, and blocks until it has executed, leaving the buffer
// ready for reuse. This is the staging upload path.
func (cp *CmdPool) EndSubmitWait(dv *Device) {
	CmdEnd(cp.Buff)
	CmdSubmitWait(cp.Buff, dv)
	vk.ResetCommandBuffer(cp.Buff, 0)
}

// Destroy destroys the pool and any buffers allocated from it.
func (cp *CmdPool) Destroy(dev vk.Device) {
	if cp.Pool == vk.NullCommandPool {
		return
	}
	vk.DestroyCommandPool(dev, cp.Pool, nil)
	cp.Pool = vk.NullCommandPool
	cp.Buff = nil
}

// CmdBeginOneTime begins recording given buffer with the one-time
// submit flag.
func CmdBeginOneTime(cmd vk.CommandBuffer) {
	ret := vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	IfPanic(NewError(ret))
}

// CmdResetBegin resets given buffer and begins one-time recording.
func CmdResetBegin(cmd vk.CommandBuffer) {
	vk.ResetCommandBuffer(cmd, 0)
	CmdBeginOneTime(cmd)
}

// CmdEnd ends recording of given buffer.
func CmdEnd(cmd vk.CommandBuffer) {
	IfPanic(NewError(vk.EndCommandBuffer(cmd)))
}

// CmdSubmitWait submits given buffer with no synchronization and waits
// for the queue to go idle. Only for uploads and shutdown paths.
func CmdSubmitWait(cmd vk.CommandBuffer, dv *Device) {
	ret := vk.QueueSubmit(dv.Queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}}, vk.NullFence)
	IfPanic(NewError(ret))
	vk.QueueWaitIdle(dv.Queue)
}

// NewSemaphore returns a new semaphore for GPU-side ordering.
func NewSemaphore(dev vk.Device) vk.Semaphore {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(dev, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	IfPanic(NewError(ret))
	return sem
}

// NewFence returns a new fence, created signaled if so flagged.
// Frame slot fences start signaled so the first use does not block.
func NewFence(dev vk.Device, signaled bool) vk.Fence {
	var flags vk.FenceCreateFlags
	if signaled {
		flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	ret := vk.CreateFence(dev, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: flags,
	}, nil, &fence)
	IfPanic(NewError(ret))
	return fence
}
