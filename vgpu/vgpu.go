// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vgpu is the Vulkan core for the vgltf viewer: explicit device,
// memory, pipeline, descriptor, and frame management, with nothing hidden
// behind a driver abstraction. It provides:
//
//   - GPU, Device: instance and logical device selection and lifetime.
//   - ResourceManager: staged buffer / image uploads into device-local
//     memory, handle-based access, and destruction deferred until no
//     in-flight frame can still reference the resource.
//   - PipelineCache: graphics pipelines keyed by vertex layout, pipeline
//     flags, and render pass, compiled at most once per key, with a
//     default fallback pipeline for shaders that fail to load.
//   - DescriptorAllocator: one descriptor pool per frame slot, reset
//     wholesale when the slot is reused.
//   - FrameScheduler: a small fixed ring of frame slots, each owning the
//     fence and semaphores that order CPU recording, GPU execution, and
//     presentation.
//   - Surface, RenderPass, Framebuffer: swapchain and render target
//     management, including out-of-date detection and recreation.
//
// All vulkan calls go through github.com/goki/vulkan. Rendering is
// single-threaded: one goroutine records and submits; the only cross-frame
// coordination is through fences (CPU visible) and semaphores (GPU only).
package vgpu

import (
	"time"

	"cogentcore.org/core/base/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
)

// Debug enables the vulkan validation layers and the debug callback on
// the instance. Set before calling [GPU.Config].
var Debug = false

// FenceTimeout is how long the frame scheduler waits on a frame fence
// before declaring the device hung ([ErrFrameTimeout]).
var FenceTimeout = 5 * time.Second

// Init initializes vulkan for display use via glfw: calls glfw.Init,
// routes vulkan proc addresses through glfw, and loads the vulkan lib.
// Must be called first, on the main thread.
func Init() error {
	if err := glfw.Init(); err != nil {
		return errors.Log(err)
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	return errors.Log(vk.Init())
}

// Terminate shuts glfw down -- call last, on the main thread, after all
// vulkan objects have been destroyed.
func Terminate() {
	glfw.Terminate()
}
