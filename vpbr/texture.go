// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vpbr

import (
	"fmt"
	"image"

	"cogentcore.org/vgltf/vgpu"
	vk "github.com/goki/vulkan"
)

// configDefaultTextures uploads the 1x1 textures bound for material
// slots with no texture: white for base color, metal-rough, occlusion,
// and emissive, and a flat +Z tangent-space normal.
func (pb *PBR) configDefaultTextures() error {
	var smp vgpu.Sampler
	smp.Defaults()
	white, err := pb.Sys.Res.UploadImage([]byte{255, 255, 255, 255},
		image.Point{1, 1}, vk.FormatR8g8b8a8Unorm, smp)
	if err != nil {
		return err
	}
	smp.Defaults()
	normal, err := pb.Sys.Res.UploadImage([]byte{128, 128, 255, 255},
		image.Point{1, 1}, vk.FormatR8g8b8a8Unorm, smp)
	if err != nil {
		return err
	}
	pb.WhiteTex = white
	pb.NormalTex = normal
	return nil
}

// resolveTex returns the view and sampler for a material texture
// handle, substituting the given default for the zero handle. A
// non-zero handle that no longer resolves is an error, and the draw
// item using the material is skipped.
func (pb *PBR) resolveTex(h, def vgpu.ImageHandle) (vk.ImageView, vk.Sampler, error) {
	if !h.IsValid() {
		h = def
	}
	img, smp, err := pb.Sys.Res.Image(h)
	if err != nil {
		return vk.NullImageView, vk.NullSampler, fmt.Errorf("vpbr: material texture: %w", err)
	}
	return img.View, smp.VkSampler, nil
}
