// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This is initially adapted from https://github.com/vulkan-go/asche
// Copyright © 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vgpu

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// Device is a logical device and its queue. One graphics Device drives
// rendering, uploads, and presentation.
type Device struct {

	// logical device
	Device vk.Device

	// queue family index
	QueueIndex uint32

	// the queue for this device
	Queue vk.Queue
}

// Init finds a queue family with given flags and makes the logical
// device on it, enabling the features and extensions set on the GPU.
func (dv *Device) Init(gp *GPU, flags vk.QueueFlagBits) error {
	err := dv.FindQueue(gp, flags)
	if err != nil {
		return err
	}
	return dv.MakeDevice(gp)
}

// FindQueue finds a queue family with given flag bits, setting QueueIndex.
func (dv *Device) FindQueue(gp *GPU, flags vk.QueueFlagBits) error {
	var queueCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gp.GPU, &queueCount, nil)
	if queueCount == 0 {
		return fmt.Errorf("%w: no queue families on device", ErrDeviceUnavailable)
	}
	queueProperties := make([]vk.QueueFamilyProperties, queueCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(gp.GPU, &queueCount, queueProperties)

	required := vk.QueueFlags(flags)
	for i := uint32(0); i < queueCount; i++ {
		queueProperties[i].Deref()
		if queueProperties[i].QueueFlags&required == required {
			dv.QueueIndex = i
			return nil
		}
	}
	return fmt.Errorf("%w: no queue with flags %d", ErrDeviceUnavailable, flags)
}

// MakeDevice makes the logical device and queue from QueueIndex.
func (dv *Device) MakeDevice(gp *GPU) error {
	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: dv.QueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	var device vk.Device
	ret := vk.CreateDevice(gp.GPU, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(gp.DeviceExts)),
		PpEnabledExtensionNames: SafeStrings(gp.DeviceExts),
		EnabledLayerCount:       uint32(len(gp.ValidationLayers)),
		PpEnabledLayerNames:     SafeStrings(gp.ValidationLayers),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{gp.GPUFeatures},
	}, nil, &device)
	if err := NewError(ret); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	dv.Device = device

	var queue vk.Queue
	vk.GetDeviceQueue(dv.Device, dv.QueueIndex, 0, &queue)
	dv.Queue = queue
	return nil
}

// WaitIdle blocks until the device has finished all submitted work.
// Called only at shutdown and before swapchain recreation.
func (dv *Device) WaitIdle() {
	if dv.Device != nil {
		vk.DeviceWaitIdle(dv.Device)
	}
}

// Destroy waits for the device to go idle and destroys it.
func (dv *Device) Destroy() {
	if dv.Device == nil {
		return
	}
	vk.DeviceWaitIdle(dv.Device)
	vk.DestroyDevice(dv.Device, nil)
	dv.Device = nil
}
