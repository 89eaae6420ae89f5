// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"fmt"
	"time"

	vk "github.com/goki/vulkan"
)

// FrameStates is the lifecycle state of a [FrameSlot].
type FrameStates int32

const (
	// FrameIdle: ready for recording; any prior GPU work has completed.
	FrameIdle FrameStates = iota

	// FrameRecording: the CPU is recording commands into the slot.
	FrameRecording

	// FrameSubmitted: handed to the GPU; the fence will signal completion.
	FrameSubmitted

	FrameStatesN
)

func (fs FrameStates) String() string {
	switch fs {
	case FrameIdle:
		return "Idle"
	case FrameRecording:
		return "Recording"
	case FrameSubmitted:
		return "Submitted"
	}
	return fmt.Sprintf("FrameStates(%d)", int32(fs))
}

// FrameSlot is the per-frame-in-flight unit: a command buffer to record
// into, the fence that gates CPU reuse of the slot, and the semaphores
// ordering GPU work against swapchain acquire and present. Slots are
// only handed out by [FrameScheduler.BeginFrame] after the fence from
// their previous submission has signaled.
type FrameSlot struct {

	// index in the scheduler ring
	Index int

	// lifecycle state
	State FrameStates

	// command buffer recorded each time the slot is used
	Cmd vk.CommandBuffer

	// signaled when this slot's submission has completed on the GPU.
	// Created signaled so the first use does not block.
	Fence vk.Fence

	// signaled by acquire when the swapchain image is ready; waited on
	// by the submission at the color output stage
	ImageAcquired vk.Semaphore

	// signaled by the submission; waited on by present
	RenderFinished vk.Semaphore

	// frame counter stamped at submit
	Frame uint64
}

// frameOps are the fence and queue submission calls the scheduler makes.
type frameOps interface {
	wait(dv *Device, fence vk.Fence, timeout time.Duration) vk.Result
	status(dv *Device, fence vk.Fence) vk.Result
	reset(dv *Device, fence vk.Fence)
	submit(dv *Device, sl *FrameSlot) vk.Result
}

// FrameScheduler rotates a small fixed ring of [FrameSlot]s, bounding
// CPU-ahead distance by the ring size. BeginFrame blocks (with timeout)
// on the current slot's fence; EndFrame submits and advances. Completion
// of other slots is observed lazily by polling fences, never by
// callback. Single render thread only.
type FrameScheduler struct {
	Dev *Device

	// the frame slots; fixed after Config
	Slots []FrameSlot

	// ring index of the slot BeginFrame hands out next
	Current int

	// count of frames submitted so far
	FrameCount uint64

	// highest frame counter observed complete on the GPU
	completed uint64

	ops frameOps
}

// Config creates nframes slots (clamped to 2..3) with command buffers
// from the given resettable pool, signaled fences, and semaphore pairs.
func (fs *FrameScheduler) Config(dv *Device, cp *CmdPool, nframes int) {
	nframes = min(max(nframes, 2), 3)
	fs.Dev = dv
	fs.ops = vkFrameOps{}
	fs.Slots = make([]FrameSlot, nframes)
	for i := range fs.Slots {
		sl := &fs.Slots[i]
		sl.Index = i
		sl.Cmd = cp.NewBuffer(dv)
		sl.Fence = NewFence(dv.Device, true)
		sl.ImageAcquired = NewSemaphore(dv.Device)
		sl.RenderFinished = NewSemaphore(dv.Device)
	}
	fs.Current = 0
	fs.FrameCount = 0
	fs.completed = 0
}

// NFrames returns the number of frame slots (frames in flight).
func (fs *FrameScheduler) NFrames() int {
	return len(fs.Slots)
}

// BeginFrame returns the current slot in Recording state, first waiting
// out its fence if its previous submission is still in flight. Returns
// [ErrFrameTimeout] if the fence does not signal within [FenceTimeout]:
// the device is hung or lost and the render loop must terminate.
// The fence is not touched otherwise, so an aborted frame (skipped
// before submit) leaves the slot immediately reusable.
func (fs *FrameScheduler) BeginFrame() (*FrameSlot, error) {
	sl := &fs.Slots[fs.Current]
	if sl.State == FrameSubmitted {
		switch ret := fs.ops.wait(fs.Dev, sl.Fence, FenceTimeout); ret {
		case vk.Success:
			sl.State = FrameIdle
			fs.observe(sl)
		case vk.Timeout:
			return nil, fmt.Errorf("%w: slot %d after %v", ErrFrameTimeout, sl.Index, FenceTimeout)
		case vk.ErrorDeviceLost:
			return nil, fmt.Errorf("%w: device lost on slot %d", ErrFrameTimeout, sl.Index)
		default:
			return nil, NewError(ret)
		}
	}
	if sl.State != FrameIdle {
		return nil, fmt.Errorf("vgpu: BeginFrame: slot %d is %v, not Idle", sl.Index, sl.State)
	}
	fs.pollCompleted()
	sl.State = FrameRecording
	return sl, nil
}

// EndFrame submits the slot's recorded commands, waiting on its
// ImageAcquired semaphore at the color output stage, signaling its
// RenderFinished semaphore and fence, and advances the ring.
// The command buffer must already be ended.
func (fs *FrameScheduler) EndFrame(sl *FrameSlot) error {
	if sl.State != FrameRecording {
		return fmt.Errorf("vgpu: EndFrame: slot %d is %v, not Recording", sl.Index, sl.State)
	}
	fs.ops.reset(fs.Dev, sl.Fence)
	if ret := fs.ops.submit(fs.Dev, sl); ret != vk.Success {
		if ret == vk.ErrorDeviceLost {
			return fmt.Errorf("%w: device lost on submit", ErrFrameTimeout)
		}
		return NewError(ret)
	}
	fs.FrameCount++
	sl.Frame = fs.FrameCount
	sl.State = FrameSubmitted
	fs.Current = (fs.Current + 1) % len(fs.Slots)
	return nil
}

// Abort returns a Recording slot to Idle without submitting, for frames
// skipped after a failed swapchain acquire. The ring does not advance:
// the next BeginFrame hands out the same slot, whose fence is still
// signaled from its last completed submission.
func (fs *FrameScheduler) Abort(sl *FrameSlot) {
	if sl.State == FrameRecording {
		sl.State = FrameIdle
	}
}

// Completed polls the fences of submitted slots and returns the highest
// frame counter known to have completed on the GPU. Resources destroyed
// at or before this point are safe to free.
func (fs *FrameScheduler) Completed() uint64 {
	fs.pollCompleted()
	return fs.completed
}

// pollCompleted lazily flips submitted slots whose fences have signaled.
func (fs *FrameScheduler) pollCompleted() {
	for i := range fs.Slots {
		sl := &fs.Slots[i]
		if sl.State != FrameSubmitted {
			continue
		}
		if fs.ops.status(fs.Dev, sl.Fence) == vk.Success {
			sl.State = FrameIdle
			fs.observe(sl)
		}
	}
}

func (fs *FrameScheduler) observe(sl *FrameSlot) {
	if sl.Frame > fs.completed {
		fs.completed = sl.Frame
	}
}

// WaitAll waits out every in-flight slot, for shutdown and swapchain
// recreation. Returns [ErrFrameTimeout] if any fence fails to signal.
func (fs *FrameScheduler) WaitAll() error {
	for i := range fs.Slots {
		sl := &fs.Slots[i]
		if sl.State != FrameSubmitted {
			continue
		}
		if ret := fs.ops.wait(fs.Dev, sl.Fence, FenceTimeout); ret != vk.Success {
			return fmt.Errorf("%w: slot %d on WaitAll", ErrFrameTimeout, sl.Index)
		}
		sl.State = FrameIdle
		fs.observe(sl)
	}
	return nil
}

// Destroy destroys the slots' sync objects. Command buffers are freed
// with their pool. The device must be idle.
func (fs *FrameScheduler) Destroy() {
	for i := range fs.Slots {
		sl := &fs.Slots[i]
		if sl.Fence != vk.NullFence {
			vk.DestroyFence(fs.Dev.Device, sl.Fence, nil)
			sl.Fence = vk.NullFence
		}
		if sl.ImageAcquired != vk.NullSemaphore {
			vk.DestroySemaphore(fs.Dev.Device, sl.ImageAcquired, nil)
			sl.ImageAcquired = vk.NullSemaphore
		}
		if sl.RenderFinished != vk.NullSemaphore {
			vk.DestroySemaphore(fs.Dev.Device, sl.RenderFinished, nil)
			sl.RenderFinished = vk.NullSemaphore
		}
	}
	fs.Slots = nil
}

// vkFrameOps is the real vulkan implementation of frameOps.
type vkFrameOps struct{}

func (vkFrameOps) wait(dv *Device, fence vk.Fence, timeout time.Duration) vk.Result {
	return vk.WaitForFences(dv.Device, 1, []vk.Fence{fence}, vk.True, uint64(timeout.Nanoseconds()))
}

func (vkFrameOps) status(dv *Device, fence vk.Fence) vk.Result {
	return vk.GetFenceStatus(dv.Device, fence)
}

func (vkFrameOps) reset(dv *Device, fence vk.Fence) {
	vk.ResetFences(dv.Device, 1, []vk.Fence{fence})
}

func (vkFrameOps) submit(dv *Device, sl *FrameSlot) vk.Result {
	return vk.QueueSubmit(dv.Queue, 1, []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{sl.ImageAcquired},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{sl.Cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{sl.RenderFinished},
	}}, sl.Fence)
}
