// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"testing"
	"time"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

// fakeFrameOps stands in for the fence and queue calls so the
// scheduler's bookkeeping can run without a device.
type fakeFrameOps struct {
	waitRet   vk.Result
	statusRet vk.Result
	submitRet vk.Result
	waits     int
	resets    int
	submits   int
}

func (f *fakeFrameOps) wait(dv *Device, fence vk.Fence, timeout time.Duration) vk.Result {
	f.waits++
	return f.waitRet
}

func (f *fakeFrameOps) status(dv *Device, fence vk.Fence) vk.Result {
	return f.statusRet
}

func (f *fakeFrameOps) reset(dv *Device, fence vk.Fence) {
	f.resets++
}

func (f *fakeFrameOps) submit(dv *Device, sl *FrameSlot) vk.Result {
	f.submits++
	return f.submitRet
}

// testScheduler builds a scheduler on the fake ops with nframes zero
// slots, skipping the vulkan setup that Config does.
func testScheduler(ops *fakeFrameOps, nframes int) *FrameScheduler {
	fs := &FrameScheduler{Dev: &Device{}, ops: ops}
	fs.Slots = make([]FrameSlot, nframes)
	for i := range fs.Slots {
		fs.Slots[i].Index = i
	}
	return fs
}

func TestFrameSchedulerRing(t *testing.T) {
	ops := &fakeFrameOps{statusRet: vk.NotReady}
	fs := testScheduler(ops, 2)

	sl, err := fs.BeginFrame()
	assert.NoError(t, err)
	assert.Equal(t, 0, sl.Index)
	assert.Equal(t, FrameRecording, sl.State)
	assert.Equal(t, 0, ops.waits)

	err = fs.EndFrame(sl)
	assert.NoError(t, err)
	assert.Equal(t, FrameSubmitted, sl.State)
	assert.Equal(t, uint64(1), fs.FrameCount)
	assert.Equal(t, uint64(1), sl.Frame)
	assert.Equal(t, 1, ops.resets)
	assert.Equal(t, 1, ops.submits)

	sl, err = fs.BeginFrame()
	assert.NoError(t, err)
	assert.Equal(t, 1, sl.Index)
	assert.Equal(t, 0, ops.waits)
	assert.NoError(t, fs.EndFrame(sl))

	// ring wraps to slot 0, whose fence must be waited out
	sl, err = fs.BeginFrame()
	assert.NoError(t, err)
	assert.Equal(t, 0, sl.Index)
	assert.Equal(t, 1, ops.waits)
	assert.Equal(t, uint64(1), fs.Completed())
}

func TestFrameSchedulerStates(t *testing.T) {
	ops := &fakeFrameOps{statusRet: vk.NotReady}
	fs := testScheduler(ops, 2)

	idle := &fs.Slots[0]
	err := fs.EndFrame(idle)
	assert.Error(t, err)

	sl, err := fs.BeginFrame()
	assert.NoError(t, err)

	// the slot is handed out once until ended or aborted
	_, err = fs.BeginFrame()
	assert.Error(t, err)

	assert.NoError(t, fs.EndFrame(sl))
}

func TestFrameSchedulerTimeout(t *testing.T) {
	ops := &fakeFrameOps{statusRet: vk.NotReady}
	fs := testScheduler(ops, 2)

	for i := 0; i < 2; i++ {
		sl, err := fs.BeginFrame()
		assert.NoError(t, err)
		assert.NoError(t, fs.EndFrame(sl))
	}

	ops.waitRet = vk.Timeout
	_, err := fs.BeginFrame()
	assert.ErrorIs(t, err, ErrFrameTimeout)

	ops.waitRet = vk.ErrorDeviceLost
	_, err = fs.BeginFrame()
	assert.ErrorIs(t, err, ErrFrameTimeout)
}

func TestFrameSchedulerCompleted(t *testing.T) {
	ops := &fakeFrameOps{statusRet: vk.NotReady}
	fs := testScheduler(ops, 3)

	for i := 0; i < 3; i++ {
		sl, err := fs.BeginFrame()
		assert.NoError(t, err)
		assert.NoError(t, fs.EndFrame(sl))
	}
	assert.Equal(t, uint64(0), fs.Completed())

	// fences signaling is only observed by polling
	ops.statusRet = vk.Success
	assert.Equal(t, uint64(3), fs.Completed())
	for i := range fs.Slots {
		assert.Equal(t, FrameIdle, fs.Slots[i].State)
	}
}

func TestFrameSchedulerAbort(t *testing.T) {
	ops := &fakeFrameOps{statusRet: vk.NotReady}
	fs := testScheduler(ops, 2)

	sl, err := fs.BeginFrame()
	assert.NoError(t, err)
	fs.Abort(sl)
	assert.Equal(t, FrameIdle, sl.State)
	assert.Equal(t, uint64(0), fs.FrameCount)
	assert.Equal(t, 0, ops.resets)

	// the same slot comes back without blocking
	sl2, err := fs.BeginFrame()
	assert.NoError(t, err)
	assert.Equal(t, sl.Index, sl2.Index)
	assert.Equal(t, 0, ops.waits)
}

func TestFrameSchedulerSubmitFailure(t *testing.T) {
	ops := &fakeFrameOps{statusRet: vk.NotReady, submitRet: vk.ErrorDeviceLost}
	fs := testScheduler(ops, 2)

	sl, err := fs.BeginFrame()
	assert.NoError(t, err)
	err = fs.EndFrame(sl)
	assert.ErrorIs(t, err, ErrFrameTimeout)
	assert.Equal(t, uint64(0), fs.FrameCount)
}

func TestFrameSchedulerWaitAll(t *testing.T) {
	ops := &fakeFrameOps{statusRet: vk.NotReady}
	fs := testScheduler(ops, 2)

	for i := 0; i < 2; i++ {
		sl, err := fs.BeginFrame()
		assert.NoError(t, err)
		assert.NoError(t, fs.EndFrame(sl))
	}

	assert.NoError(t, fs.WaitAll())
	assert.Equal(t, uint64(2), fs.Completed())
	assert.Equal(t, 2, ops.waits)
}
