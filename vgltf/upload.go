// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgltf

import (
	"fmt"
	"unsafe"

	"cogentcore.org/vgltf/vgpu"
	"cogentcore.org/vgltf/vpbr"
	"cogentcore.org/vgltf/vscene"
	vk "github.com/goki/vulkan"
)

// Upload creates the GPU resources for the asset and returns the
// scene ready for rendering, with world matrices and bounds updated.
// Textures larger than the device limit are downscaled. On any
// upload error the resources created so far are released and the
// error is returned; the device and any previously loaded scenes are
// unaffected.
func (as *Asset) Upload(sy *vgpu.System) (*vscene.Scene, error) {
	sc := vscene.NewScene(as.Name)
	fail := func(err error) (*vscene.Scene, error) {
		sc.Free(&sy.Res)
		return nil, err
	}

	maxSz := sy.GPU.MaxImageSize()
	texs := make([]vgpu.ImageHandle, len(as.Textures))
	for i, td := range as.Textures {
		if td.Image == nil {
			continue
		}
		img := clampImage(td.Image, maxSz)
		format := vk.FormatR8g8b8a8Unorm
		if td.SRGB {
			format = vk.FormatR8g8b8a8Srgb
		}
		h, err := sy.Res.UploadImage(img.Pix, img.Bounds().Size(), format, td.Sampler)
		if err != nil {
			return fail(fmt.Errorf("vgltf: upload texture %d: %w", i, err))
		}
		texs[i] = h
		sc.Textures = append(sc.Textures, h)
	}

	texAt := func(idx int) vgpu.ImageHandle {
		if idx < 0 || idx >= len(texs) {
			return vgpu.ImageHandle{}
		}
		return texs[idx]
	}
	sc.Materials = make([]*vpbr.Material, len(as.Materials))
	for i, md := range as.Materials {
		mt := vpbr.NewMaterial(md.Name)
		mt.BaseColorFactor = md.BaseColorFactor
		mt.EmissiveFactor = md.EmissiveFactor
		mt.MetallicFactor = md.MetallicFactor
		mt.RoughnessFactor = md.RoughnessFactor
		mt.AlphaCutoff = md.AlphaCutoff
		mt.AlphaMode = md.AlphaMode
		mt.DoubleSided = md.DoubleSided
		mt.BaseColorTex = texAt(md.BaseColorTex)
		mt.MetalRoughTex = texAt(md.MetalRoughTex)
		mt.NormalTex = texAt(md.NormalTex)
		mt.OcclusionTex = texAt(md.OcclusionTex)
		mt.EmissiveTex = texAt(md.EmissiveTex)
		sc.Materials[i] = mt
	}

	for _, md := range as.Meshes {
		ms := &vscene.Mesh{Name: md.Name}
		sc.Meshes = append(sc.Meshes, ms)
		for pi, pd := range md.Primitives {
			pr, err := uploadPrimitive(sy, pd, sc.Materials)
			if err != nil {
				return fail(fmt.Errorf("vgltf: upload mesh %q primitive %d: %w", md.Name, pi, err))
			}
			ms.Primitives = append(ms.Primitives, pr)
		}
	}

	for _, nd := range as.Roots {
		sc.Root.Children = append(sc.Root.Children, buildNode(nd, sc.Meshes))
	}
	sc.UpdateWorldMatrices()
	return sc, nil
}

func uploadPrimitive(sy *vgpu.System, pd *PrimData, mats []*vpbr.Material) (*vscene.Primitive, error) {
	vb := unsafe.Slice((*byte)(unsafe.Pointer(&pd.Verts[0])), len(pd.Verts)*4)
	vh, err := sy.Res.UploadBuffer(vb, vk.BufferUsageVertexBufferBit)
	if err != nil {
		return nil, err
	}
	ib := unsafe.Slice((*byte)(unsafe.Pointer(&pd.Indices[0])), len(pd.Indices)*4)
	ih, err := sy.Res.UploadBuffer(ib, vk.BufferUsageIndexBufferBit)
	if err != nil {
		sy.Res.DestroyBuffer(vh)
		return nil, err
	}
	pr := &vscene.Primitive{
		Attrs:     pd.Attrs,
		VtxBuff:   vh,
		IndexBuff: ih,
		NIndex:    len(pd.Indices),
		BBox:      pd.BBox,
	}
	if pd.Material >= 0 && pd.Material < len(mats) {
		pr.Material = mats[pd.Material]
	}
	return pr, nil
}

func buildNode(nd *NodeData, meshes []*vscene.Mesh) *vscene.Node {
	n := vscene.NewNode(nd.Name)
	n.Local = nd.Local
	if nd.Mesh >= 0 && nd.Mesh < len(meshes) {
		n.Mesh = meshes[nd.Mesh]
	}
	for _, cd := range nd.Children {
		n.Children = append(n.Children, buildNode(cd, meshes))
	}
	return n
}
