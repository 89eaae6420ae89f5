// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This is initially adapted from https://github.com/vulkan-go/asche
// Copyright © 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vgpu

import (
	"fmt"
	"image"

	vk "github.com/goki/vulkan"
)

// GPUImage is a 2D vulkan image with memory and a view. Layout tracks
// the image's current layout so transitions can be recorded from the
// actual state. Texture images carry a full mip chain when Mips > 1.
type GPUImage struct {

	// the image
	Image vk.Image

	// bound memory for the image
	Memory vk.DeviceMemory

	// view onto the full image
	View vk.ImageView

	// format of the image
	Format vk.Format

	// size in pixels
	Size image.Point

	// number of mip levels
	Mips int

	// current layout, updated by the transition methods
	Layout vk.ImageLayout
}

// MipLevels returns the number of mip levels for a full chain over the
// given dimensions.
func MipLevels(size image.Point) int {
	n := 1
	d := max(size.X, size.Y)
	for d > 1 {
		d >>= 1
		n++
	}
	return n
}

// Config creates the image, allocates and binds device-local memory,
// and makes the view. If mips is true a full mip chain is allocated and
// usage gains TransferSrc for the blit downsampling.
func (im *GPUImage) Config(gp *GPU, dev vk.Device, size image.Point, format vk.Format, usage vk.ImageUsageFlagBits, mips bool) error {
	im.Format = format
	im.Size = size
	im.Mips = 1
	im.Layout = vk.ImageLayoutUndefined
	if mips {
		im.Mips = MipLevels(size)
		usage |= vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit
	}

	var img vk.Image
	ret := vk.CreateImage(dev, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  uint32(size.X),
			Height: uint32(size.Y),
			Depth:  1,
		},
		MipLevels:     uint32(im.Mips),
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &img)
	if err := allocError(ret); err != nil {
		return err
	}
	im.Image = img

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, im.Image, &memReqs)
	memReqs.Deref()
	memType, ok := FindMemoryType(gp, memReqs.MemoryTypeBits, vk.MemoryPropertyDeviceLocalBit)
	if !ok {
		im.Free(dev)
		return fmt.Errorf("%w: no device-local memory type for image", ErrOutOfDeviceMemory)
	}
	var memory vk.DeviceMemory
	ret = vk.AllocateMemory(dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &memory)
	if err := allocError(ret); err != nil {
		im.Free(dev)
		return err
	}
	im.Memory = memory
	vk.BindImageMemory(dev, im.Image, im.Memory, 0)

	return im.ConfigView(dev)
}

// ConfigView makes the view over all mip levels, with the aspect
// implied by the format.
func (im *GPUImage) ConfigView(dev vk.Device) error {
	var view vk.ImageView
	ret := vk.CreateImageView(dev, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    im.Image,
		ViewType: vk.ImageViewType2d,
		Format:   im.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(im.Aspect()),
			LevelCount: uint32(im.Mips),
			LayerCount: 1,
		},
	}, nil, &view)
	if err := NewError(ret); err != nil {
		return err
	}
	im.View = view
	return nil
}

// Aspect returns the aspect flag for the image format.
func (im *GPUImage) Aspect() vk.ImageAspectFlagBits {
	switch im.Format {
	case vk.FormatD32Sfloat, vk.FormatD16Unorm:
		return vk.ImageAspectDepthBit
	case vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint, vk.FormatD16UnormS8Uint:
		return vk.ImageAspectDepthBit | vk.ImageAspectStencilBit
	}
	return vk.ImageAspectColorBit
}

// TransitionForDst records a barrier taking the image from its current
// layout to TransferDstOptimal, before buffer-to-image copies.
func (im *GPUImage) TransitionForDst(cmd vk.CommandBuffer) {
	im.Transition(cmd, vk.ImageLayoutTransferDstOptimal,
		vk.AccessFlags(0), vk.AccessFlags(vk.AccessTransferWriteBit),
		vk.PipelineStageTopOfPipeBit, vk.PipelineStageTransferBit)
}

// TransitionToShaderRead records a barrier taking the image from its
// current layout to ShaderReadOnlyOptimal for sampling.
func (im *GPUImage) TransitionToShaderRead(cmd vk.CommandBuffer) {
	im.Transition(cmd, vk.ImageLayoutShaderReadOnlyOptimal,
		vk.AccessFlags(vk.AccessTransferWriteBit), vk.AccessFlags(vk.AccessShaderReadBit),
		vk.PipelineStageTransferBit, vk.PipelineStageFragmentShaderBit)
}

// Transition records a layout transition barrier over all mip levels,
// updating Layout.
func (im *GPUImage) Transition(cmd vk.CommandBuffer, to vk.ImageLayout, srcAccess, dstAccess vk.AccessFlags, srcStage, dstStage vk.PipelineStageFlagBits) {
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(srcStage), vk.PipelineStageFlags(dstStage),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       srcAccess,
			DstAccessMask:       dstAccess,
			OldLayout:           im.Layout,
			NewLayout:           to,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               im.Image,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(im.Aspect()),
				LevelCount: uint32(im.Mips),
				LayerCount: 1,
			},
		}})
	im.Layout = to
}

// CopyFromBuffer records a copy of the full mip 0 extent from given
// buffer into the image, which must be in TransferDstOptimal.
func (im *GPUImage) CopyFromBuffer(cmd vk.CommandBuffer, buff vk.Buffer) {
	vk.CmdCopyBufferToImage(cmd, buff, im.Image, vk.ImageLayoutTransferDstOptimal, 1,
		[]vk.BufferImageCopy{{
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LayerCount: 1,
			},
			ImageExtent: vk.Extent3D{
				Width:  uint32(im.Size.X),
				Height: uint32(im.Size.Y),
				Depth:  1,
			},
		}})
}

// GenMipmaps records the blit chain filling mip levels 1..Mips-1 from
// level 0, leaving all levels in ShaderReadOnlyOptimal. The image must
// be in TransferDstOptimal with level 0 already filled.
func (im *GPUImage) GenMipmaps(cmd vk.CommandBuffer) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		Image:               im.Image,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	mw, mh := int32(im.Size.X), int32(im.Size.Y)
	for i := 1; i < im.Mips; i++ {
		// source level: TransferDst -> TransferSrc
		barrier.SubresourceRange.BaseMipLevel = uint32(i - 1)
		barrier.OldLayout = vk.ImageLayoutTransferDstOptimal
		barrier.NewLayout = vk.ImageLayoutTransferSrcOptimal
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		vk.CmdPipelineBarrier(cmd,
			vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

		nw, nh := max(mw/2, 1), max(mh/2, 1)
		vk.CmdBlitImage(cmd,
			im.Image, vk.ImageLayoutTransferSrcOptimal,
			im.Image, vk.ImageLayoutTransferDstOptimal,
			1, []vk.ImageBlit{{
				SrcSubresource: vk.ImageSubresourceLayers{
					AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
					MipLevel:   uint32(i - 1),
					LayerCount: 1,
				},
				SrcOffsets: [2]vk.Offset3D{{}, {X: mw, Y: mh, Z: 1}},
				DstSubresource: vk.ImageSubresourceLayers{
					AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
					MipLevel:   uint32(i),
					LayerCount: 1,
				},
				DstOffsets: [2]vk.Offset3D{{}, {X: nw, Y: nh, Z: 1}},
			}}, vk.FilterLinear)

		// source level done: TransferSrc -> ShaderReadOnly
		barrier.OldLayout = vk.ImageLayoutTransferSrcOptimal
		barrier.NewLayout = vk.ImageLayoutShaderReadOnlyOptimal
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		vk.CmdPipelineBarrier(cmd,
			vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

		mw, mh = nw, nh
	}

	// last level was only written
	barrier.SubresourceRange.BaseMipLevel = uint32(im.Mips - 1)
	barrier.OldLayout = vk.ImageLayoutTransferDstOptimal
	barrier.NewLayout = vk.ImageLayoutShaderReadOnlyOptimal
	barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
	barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})

	im.Layout = vk.ImageLayoutShaderReadOnlyOptimal
}

// Free destroys the view, image, and memory. Safe on zero values.
func (im *GPUImage) Free(dev vk.Device) {
	if im.View != vk.NullImageView {
		vk.DestroyImageView(dev, im.View, nil)
		im.View = vk.NullImageView
	}
	if im.Image != vk.NullImage {
		vk.DestroyImage(dev, im.Image, nil)
		im.Image = vk.NullImage
	}
	FreeBufferMemory(dev, &im.Memory, false)
	im.Layout = vk.ImageLayoutUndefined
	im.Mips = 0
}

// Sampler is a texture sampler with repeat and filter settings,
// defaulting to repeat wrapping and linear filtering.
type Sampler struct {
	VkSampler vk.Sampler

	// wrap modes per axis
	WrapS, WrapT vk.SamplerAddressMode

	// linear vs. nearest filtering
	MagLinear, MinLinear bool
}

// Defaults sets repeat wrapping and linear filtering.
func (sm *Sampler) Defaults() {
	sm.WrapS = vk.SamplerAddressModeRepeat
	sm.WrapT = vk.SamplerAddressModeRepeat
	sm.MagLinear = true
	sm.MinLinear = true
}

func filterMode(linear bool) vk.Filter {
	if linear {
		return vk.FilterLinear
	}
	return vk.FilterNearest
}

// Config creates the sampler covering the given number of mip levels,
// with anisotropy at the device maximum.
func (sm *Sampler) Config(gp *GPU, dev vk.Device, mips int) error {
	sm.Free(dev)
	var smp vk.Sampler
	ret := vk.CreateSampler(dev, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               filterMode(sm.MagLinear),
		MinFilter:               filterMode(sm.MinLinear),
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            sm.WrapS,
		AddressModeV:            sm.WrapT,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           gp.MaxAnisotropy(),
		MaxLod:                  float32(mips),
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
	}, nil, &smp)
	if err := NewError(ret); err != nil {
		return err
	}
	sm.VkSampler = smp
	return nil
}

// Free destroys the sampler.
func (sm *Sampler) Free(dev vk.Device) {
	if sm.VkSampler != vk.NullSampler {
		vk.DestroySampler(dev, sm.VkSampler, nil)
		sm.VkSampler = vk.NullSampler
	}
}
