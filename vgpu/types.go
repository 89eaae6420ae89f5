// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// Types is the set of image and depth formats exposed in configuration,
// mapped onto concrete vulkan formats through [VulkanTypes]. Surface
// color formats are still negotiated with the windowing system; a Types
// value there expresses a preference, not a demand.
type Types int32

const (
	UndefinedType Types = iota

	// 8 bit per channel color formats
	RGBA8Srgb
	RGBA8Unorm
	BGRA8Srgb
	BGRA8Unorm

	// depth / depth-stencil formats
	Depth32
	Depth24Stencil8

	TypesN
)

// VulkanTypes maps configuration types onto vulkan formats.
var VulkanTypes = map[Types]vk.Format{
	UndefinedType:   vk.FormatUndefined,
	RGBA8Srgb:       vk.FormatR8g8b8a8Srgb,
	RGBA8Unorm:      vk.FormatR8g8b8a8Unorm,
	BGRA8Srgb:       vk.FormatB8g8r8a8Srgb,
	BGRA8Unorm:      vk.FormatB8g8r8a8Unorm,
	Depth32:         vk.FormatD32Sfloat,
	Depth24Stencil8: vk.FormatD24UnormS8Uint,
}

// TypeNames are the external (config file, flag) names for Types.
var TypeNames = map[Types]string{
	UndefinedType:   "none",
	RGBA8Srgb:       "rgba8-srgb",
	RGBA8Unorm:      "rgba8-unorm",
	BGRA8Srgb:       "bgra8-srgb",
	BGRA8Unorm:      "bgra8-unorm",
	Depth32:         "depth32",
	Depth24Stencil8: "depth24-stencil8",
}

func (tp Types) String() string {
	if nm, ok := TypeNames[tp]; ok {
		return nm
	}
	return fmt.Sprintf("Types(%d)", int32(tp))
}

// SetString sets the type from its external name.
func (tp *Types) SetString(s string) error {
	for t, nm := range TypeNames {
		if nm == s {
			*tp = t
			return nil
		}
	}
	return fmt.Errorf("vgpu.Types: unknown format name %q", s)
}

// VkFormat returns the vulkan format for the type.
func (tp Types) VkFormat() vk.Format {
	return VulkanTypes[tp]
}

// IsDepth returns whether the type is a depth or depth-stencil format.
func (tp Types) IsDepth() bool {
	return tp == Depth32 || tp == Depth24Stencil8
}

// HasStencil returns whether the vulkan format carries a stencil aspect.
func HasStencil(format vk.Format) bool {
	switch format {
	case vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint, vk.FormatD16UnormS8Uint:
		return true
	}
	return false
}
