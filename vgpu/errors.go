// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This is initially adapted from https://github.com/vulkan-go/asche
// Copyright © 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vgpu

import (
	"errors"
	"fmt"
	"runtime"

	vk "github.com/goki/vulkan"
)

// Error conditions reported by the core. Callers discriminate with
// [errors.Is]; anything else coming out of a vulkan call is wrapped by
// [NewError] with caller information.
var (
	// ErrDeviceUnavailable means no Vulkan device suitable for graphics
	// rendering could be found or initialized.
	ErrDeviceUnavailable = errors.New("vgpu: no suitable graphics device available")

	// ErrOutOfDeviceMemory means a buffer or image allocation failed
	// because device (or host staging) memory is exhausted. Fatal to the
	// load that triggered it, not to the session.
	ErrOutOfDeviceMemory = errors.New("vgpu: out of device memory")

	// ErrShaderLink means shader bytecode could not be loaded or linked
	// into a pipeline. The pipeline cache substitutes the default
	// pipeline for keys that fail with this error.
	ErrShaderLink = errors.New("vgpu: shader load or link failed")

	// ErrSwapchainOutOfDate means the swapchain no longer matches the
	// surface and must be recreated before rendering can continue.
	// The frame that observes it is skipped, not failed.
	ErrSwapchainOutOfDate = errors.New("vgpu: swapchain out of date")

	// ErrFrameTimeout means a frame fence did not signal within the
	// scheduler's timeout, indicating a hung or lost device.
	ErrFrameTimeout = errors.New("vgpu: frame fence wait timed out")

	// ErrStaleHandle means a buffer or image handle refers to a resource
	// that has been destroyed (its slot generation has moved on).
	ErrStaleHandle = errors.New("vgpu: stale resource handle")
)

// IsError returns whether given vulkan result is an error, without
// further processing.
func IsError(ret vk.Result) bool {
	return ret != vk.Success
}

// NewError returns an error for given vulkan result, with information
// about the calling function, or nil if the result is Success.
func NewError(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	pc, _, line, ok := runtime.Caller(1)
	if !ok {
		return fmt.Errorf("vulkan error: %s (%d)", vk.Error(ret).Error(), ret)
	}
	frame := runtime.FuncForPC(pc)
	return fmt.Errorf("vulkan error: %s (%d) on %s line %d",
		vk.Error(ret).Error(), ret, frame.Name(), line)
}

// allocError maps vulkan allocation failures onto [ErrOutOfDeviceMemory],
// wrapping anything else through [NewError].
func allocError(ret vk.Result) error {
	switch ret {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDeviceMemory, vk.ErrorOutOfHostMemory:
		return fmt.Errorf("%w: %s", ErrOutOfDeviceMemory, vk.Error(ret).Error())
	}
	return NewError(ret)
}

// IfPanic raises a panic when the error is not nil,
// calling the finalizers first.
func IfPanic(err error, finalizers ...func()) {
	if err == nil {
		return
	}
	for _, fn := range finalizers {
		fn()
	}
	panic(err)
}

// CheckErr recovers a panic into the given error, for deferred use.
func CheckErr(err *error) {
	if v := recover(); v != nil {
		*err = fmt.Errorf("%+v", v)
	}
}
