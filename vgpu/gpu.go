// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This is initially adapted from https://github.com/vulkan-go/asche
// Copyright © 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vgpu

import (
	"fmt"
	"log/slog"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// GPU represents the vulkan instance and the selected physical device,
// shared by all Systems and Surfaces. Call [GPU.Config] once after [Init],
// and [GPU.Destroy] last, after everything using it has been destroyed.
type GPU struct {

	// vulkan instance
	Instance vk.Instance

	// the selected physical device
	GPU vk.PhysicalDevice

	// name of the physical device
	DeviceName string

	// properties of the physical device, including limits
	GPUProperties vk.PhysicalDeviceProperties

	// memory heaps and types of the physical device
	MemoryProperties vk.PhysicalDeviceMemoryProperties

	// features enabled on logical devices made from this GPU
	GPUFeatures vk.PhysicalDeviceFeatures

	// instance extensions to enable, beyond the required surface ones
	InstanceExts []string

	// device extensions to enable; swapchain is always added
	DeviceExts []string

	// validation layers enabled when [Debug] is set
	ValidationLayers []string

	debugCallback vk.DebugReportCallback
}

// NewGPU returns a new GPU with default extension lists.
func NewGPU() *GPU {
	gp := &GPU{}
	gp.Defaults()
	return gp
}

// Defaults sets the default extension and layer lists.
func (gp *GPU) Defaults() {
	gp.DeviceExts = []string{vk.KhrSwapchainExtensionName}
	gp.GPUFeatures = vk.PhysicalDeviceFeatures{
		SamplerAnisotropy: vk.True,
		FillModeNonSolid:  vk.True, // wireframe
	}
	PlatformDefaults(gp)
}

// Config creates the vulkan instance under the given application name,
// with any extra instance extensions required by the window system
// (e.g., from glfw Window.GetRequiredInstanceExtensions), and selects
// a physical device. Returns [ErrDeviceUnavailable] if no graphics
// capable device exists.
func (gp *GPU) Config(name string, instanceExts ...string) error {
	if gp.DeviceExts == nil {
		gp.Defaults()
	}
	gp.InstanceExts = append(gp.InstanceExts, instanceExts...)

	// Debug is read here, not in Defaults, so it can be set any time
	// between NewGPU and Config
	if Debug {
		gp.InstanceExts = append(gp.InstanceExts, vk.ExtDebugReportExtensionName)
		gp.ValidationLayers = checkLayers([]string{"VK_LAYER_KHRONOS_validation"})
	}

	var inst vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   SafeString(name),
			ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
			PEngineName:        SafeString("vgltf"),
			ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		},
		EnabledExtensionCount:   uint32(len(gp.InstanceExts)),
		PpEnabledExtensionNames: SafeStrings(gp.InstanceExts),
		EnabledLayerCount:       uint32(len(gp.ValidationLayers)),
		PpEnabledLayerNames:     SafeStrings(gp.ValidationLayers),
	}, nil, &inst)
	if err := NewError(ret); err != nil {
		return fmt.Errorf("%w: instance: %w", ErrDeviceUnavailable, err)
	}
	gp.Instance = inst
	if err := vk.InitInstance(inst); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	if Debug {
		gp.configDebugCallback()
	}
	return gp.SelectGPU()
}

// SelectGPU enumerates physical devices and picks one, preferring a
// discrete GPU, filling in the device properties.
func (gp *GPU) SelectGPU() error {
	var count uint32
	ret := vk.EnumeratePhysicalDevices(gp.Instance, &count, nil)
	if err := NewError(ret); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: no vulkan devices found", ErrDeviceUnavailable)
	}
	gpus := make([]vk.PhysicalDevice, count)
	vk.EnumeratePhysicalDevices(gp.Instance, &count, gpus)

	sel := 0
	for i, pd := range gpus {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(pd, &props)
		props.Deref()
		if props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			sel = i
			break
		}
	}
	gp.GPU = gpus[sel]
	vk.GetPhysicalDeviceProperties(gp.GPU, &gp.GPUProperties)
	gp.GPUProperties.Deref()
	gp.GPUProperties.Limits.Deref()
	vk.GetPhysicalDeviceMemoryProperties(gp.GPU, &gp.MemoryProperties)
	gp.MemoryProperties.Deref()
	gp.DeviceName = CleanString(gp.GPUProperties.DeviceName[:])
	slog.Debug("vgpu: selected device", "name", gp.DeviceName, "index", sel, "of", count)
	return nil
}

// MaxImageSize returns the maximum 2D image dimension for the device.
func (gp *GPU) MaxImageSize() int {
	return int(gp.GPUProperties.Limits.MaxImageDimension2D)
}

// MaxAnisotropy returns the maximum sampler anisotropy for the device.
func (gp *GPU) MaxAnisotropy() float32 {
	return gp.GPUProperties.Limits.MaxSamplerAnisotropy
}

// Destroy destroys the instance. All devices, surfaces and resources
// created from it must already be gone.
func (gp *GPU) Destroy() {
	if gp.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(gp.Instance, gp.debugCallback, nil)
		gp.debugCallback = vk.NullDebugReportCallback
	}
	if gp.Instance != nil {
		vk.DestroyInstance(gp.Instance, nil)
		gp.Instance = nil
	}
}

func (gp *GPU) configDebugCallback() {
	var cb vk.DebugReportCallback
	ret := vk.CreateDebugReportCallback(gp.Instance, &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
		PfnCallback: debugReport,
	}, nil, &cb)
	if IsError(ret) {
		slog.Error("vgpu: debug callback failed", "err", NewError(ret))
		return
	}
	gp.debugCallback = cb
}

func debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, layerPrefix string, message string, userData unsafe.Pointer) vk.Bool32 {
	if flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0 {
		slog.Error("vulkan", "layer", layerPrefix, "code", messageCode, "msg", message)
	} else {
		slog.Warn("vulkan", "layer", layerPrefix, "code", messageCode, "msg", message)
	}
	return vk.Bool32(vk.False)
}

// checkLayers filters the requested layers down to those available.
func checkLayers(want []string) []string {
	var count uint32
	vk.EnumerateInstanceLayerProperties(&count, nil)
	if count == 0 {
		return nil
	}
	avail := make([]vk.LayerProperties, count)
	vk.EnumerateInstanceLayerProperties(&count, avail)
	var got []string
	for _, w := range want {
		for i := range avail {
			avail[i].Deref()
			if w == CleanString(avail[i].LayerName[:]) {
				got = append(got, w)
				break
			}
		}
	}
	if len(got) < len(want) {
		slog.Warn("vgpu: some validation layers unavailable", "want", want, "got", got)
	}
	return got
}

// SafeString returns a string safe to pass to vulkan, ending in \x00.
func SafeString(s string) string {
	if len(s) == 0 {
		return "\x00"
	}
	if s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

// SafeStrings null-terminates each of the strings.
func SafeStrings(ss []string) []string {
	sf := make([]string, len(ss))
	for i, s := range ss {
		sf[i] = SafeString(s)
	}
	return sf
}

// CleanString returns the string in a null-terminated byte array.
func CleanString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
