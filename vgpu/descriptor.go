// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	vk "github.com/goki/vulkan"
)

// DescriptorAllocator hands out descriptor sets from one pool per frame
// slot. Sets are never freed individually: when a frame slot comes back
// around, [DescriptorAllocator.ResetSlot] recycles its whole pool and
// the frame's sets are allocated fresh. Persistent sets do not belong
// here.
type DescriptorAllocator struct {
	Dev *Device

	// one pool per frame slot
	Pools []vk.DescriptorPool
}

// Config makes nframes pools, each holding maxSets sets drawn from the
// given pool sizes.
func (da *DescriptorAllocator) Config(dv *Device, nframes, maxSets int, sizes ...vk.DescriptorPoolSize) error {
	da.Dev = dv
	da.Pools = make([]vk.DescriptorPool, nframes)
	for i := range da.Pools {
		var pool vk.DescriptorPool
		ret := vk.CreateDescriptorPool(dv.Device, &vk.DescriptorPoolCreateInfo{
			SType:         vk.StructureTypeDescriptorPoolCreateInfo,
			MaxSets:       uint32(maxSets),
			PoolSizeCount: uint32(len(sizes)),
			PPoolSizes:    sizes,
		}, nil, &pool)
		if err := NewError(ret); err != nil {
			return err
		}
		da.Pools[i] = pool
	}
	return nil
}

// ResetSlot recycles the pool for given frame slot, invalidating every
// set allocated from it. Called when the slot's fence confirms its
// prior frame has fully completed.
func (da *DescriptorAllocator) ResetSlot(slot int) {
	vk.ResetDescriptorPool(da.Dev.Device, da.Pools[slot], 0)
}

// Alloc allocates one set with the given layout from the slot's pool.
func (da *DescriptorAllocator) Alloc(slot int, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	sets := make([]vk.DescriptorSet, 1)
	ret := vk.AllocateDescriptorSets(da.Dev.Device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     da.Pools[slot],
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}, &sets[0])
	if err := NewError(ret); err != nil {
		return vk.NullDescriptorSet, err
	}
	return sets[0], nil
}

// Destroy destroys the pools. The device must be idle.
func (da *DescriptorAllocator) Destroy() {
	for i, pool := range da.Pools {
		if pool != vk.NullDescriptorPool {
			vk.DestroyDescriptorPool(da.Dev.Device, pool, nil)
			da.Pools[i] = vk.NullDescriptorPool
		}
	}
	da.Pools = nil
}

// NewDescriptorSetLayout makes a set layout from the bindings.
func NewDescriptorSetLayout(dev vk.Device, bindings ...vk.DescriptorSetLayoutBinding) (vk.DescriptorSetLayout, error) {
	var layout vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(dev, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}, nil, &layout)
	if err := NewError(ret); err != nil {
		return vk.NullDescriptorSetLayout, err
	}
	return layout, nil
}

// UniformLayoutBinding describes one uniform buffer at given binding.
func UniformLayoutBinding(binding int, stages vk.ShaderStageFlagBits) vk.DescriptorSetLayoutBinding {
	return vk.DescriptorSetLayoutBinding{
		Binding:         uint32(binding),
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(stages),
	}
}

// SamplerLayoutBinding describes combined image samplers at given binding.
func SamplerLayoutBinding(binding, count int, stages vk.ShaderStageFlagBits) vk.DescriptorSetLayoutBinding {
	return vk.DescriptorSetLayoutBinding{
		Binding:         uint32(binding),
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: uint32(count),
		StageFlags:      vk.ShaderStageFlags(stages),
	}
}

// WriteUniform points a uniform binding in the set at a buffer range.
func WriteUniform(dev vk.Device, set vk.DescriptorSet, binding int, buff vk.Buffer, offset, size int) {
	vk.UpdateDescriptorSets(dev, 1, []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      uint32(binding),
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buff,
			Offset: vk.DeviceSize(offset),
			Range:  vk.DeviceSize(size),
		}},
	}}, 0, nil)
}

// WriteImage points a combined image sampler binding in the set at a
// view and sampler, in ShaderReadOnly layout.
func WriteImage(dev vk.Device, set vk.DescriptorSet, binding int, view vk.ImageView, sampler vk.Sampler) {
	vk.UpdateDescriptorSets(dev, 1, []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      uint32(binding),
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     sampler,
			ImageView:   view,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	}}, 0, nil)
}
