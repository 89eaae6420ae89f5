// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgltf

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"cogentcore.org/core/math32"
	"cogentcore.org/vgltf/vgpu"
	"cogentcore.org/vgltf/vpbr"
	vk "github.com/goki/vulkan"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"golang.org/x/image/draw"
)

// MaterialData is a decoded metallic-roughness material with texture
// indices instead of GPU handles.
type MaterialData struct {
	Name string

	BaseColorFactor math32.Vector4
	EmissiveFactor  math32.Vector3
	MetallicFactor  float32
	RoughnessFactor float32
	AlphaCutoff     float32
	AlphaMode       vpbr.AlphaModes
	DoubleSided     bool

	// indices into [Asset.Textures], or -1
	BaseColorTex  int
	MetalRoughTex int
	NormalTex     int
	OcclusionTex  int
	EmissiveTex   int
}

// TextureData is a decoded texture: the image pixels plus the sampler
// configuration. A nil Image means the texture could not be decoded
// and the 1x1 default is bound in its place.
type TextureData struct {
	Name string

	Image *image.RGBA

	// sampled as sRGB; set for base color and emissive uses
	SRGB bool

	// wrap and filter configuration, no device sampler yet
	Sampler vgpu.Sampler
}

func (as *Asset) decodeMaterials(doc *gltf.Document) {
	if len(doc.Materials) == 0 {
		return
	}
	as.Materials = make([]*MaterialData, len(doc.Materials))
	for i, gm := range doc.Materials {
		md := &MaterialData{
			Name:            gm.Name,
			BaseColorFactor: math32.Vec4(1, 1, 1, 1),
			MetallicFactor:  1,
			RoughnessFactor: 1,
			AlphaCutoff:     0.5,
			BaseColorTex:    -1,
			MetalRoughTex:   -1,
			NormalTex:       -1,
			OcclusionTex:    -1,
			EmissiveTex:     -1,
		}
		if pmr := gm.PBRMetallicRoughness; pmr != nil {
			if f := pmr.BaseColorFactor; f != nil {
				md.BaseColorFactor = math32.Vec4(float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3]))
			}
			if f := pmr.MetallicFactor; f != nil {
				md.MetallicFactor = float32(*f)
			}
			if f := pmr.RoughnessFactor; f != nil {
				md.RoughnessFactor = float32(*f)
			}
			if ti := pmr.BaseColorTexture; ti != nil {
				md.BaseColorTex = texRef(int(ti.Index), int(ti.TexCoord))
				as.markSRGB(md.BaseColorTex)
			}
			if ti := pmr.MetallicRoughnessTexture; ti != nil {
				md.MetalRoughTex = texRef(int(ti.Index), int(ti.TexCoord))
			}
		}
		md.EmissiveFactor = math32.Vec3(float32(gm.EmissiveFactor[0]), float32(gm.EmissiveFactor[1]), float32(gm.EmissiveFactor[2]))
		switch gm.AlphaMode {
		case gltf.AlphaMask:
			md.AlphaMode = vpbr.AlphaMask
		case gltf.AlphaBlend:
			md.AlphaMode = vpbr.AlphaBlend
		}
		if f := gm.AlphaCutoff; f != nil {
			md.AlphaCutoff = float32(*f)
		}
		md.DoubleSided = gm.DoubleSided
		if nt := gm.NormalTexture; nt != nil && nt.Index != nil {
			md.NormalTex = texRef(int(*nt.Index), int(nt.TexCoord))
		}
		if ot := gm.OcclusionTexture; ot != nil && ot.Index != nil {
			md.OcclusionTex = texRef(int(*ot.Index), int(ot.TexCoord))
		}
		if ti := gm.EmissiveTexture; ti != nil {
			md.EmissiveTex = texRef(int(ti.Index), int(ti.TexCoord))
			as.markSRGB(md.EmissiveTex)
		}
		as.Materials[i] = md
	}
}

// texRef returns the texture index for a texture reference. Only the
// first UV channel is imported; references to other channels sample
// with it instead.
func texRef(idx, texCoord int) int {
	if texCoord != 0 {
		slog.Warn("vgltf: only TEXCOORD_0 is supported", "texture", idx, "texCoord", texCoord)
	}
	return idx
}

func (as *Asset) markSRGB(idx int) {
	if idx >= 0 && idx < len(as.Textures) {
		as.Textures[idx].SRGB = true
	}
}

// decodeTextures decodes every texture's image and sampler. Images
// shared by multiple textures are decoded once. A texture whose
// image cannot be decoded keeps a nil Image and is logged.
func (as *Asset) decodeTextures(doc *gltf.Document) {
	if len(doc.Textures) == 0 {
		return
	}
	as.Textures = make([]*TextureData, len(doc.Textures))
	cache := make(map[int]*image.RGBA, len(doc.Images))
	for i, gt := range doc.Textures {
		td := &TextureData{Name: gt.Name}
		td.Sampler.Defaults()
		if gt.Sampler != nil && int(*gt.Sampler) < len(doc.Samplers) {
			td.Sampler = convertSampler(doc.Samplers[int(*gt.Sampler)])
		}
		as.Textures[i] = td
		if gt.Source == nil || int(*gt.Source) >= len(doc.Images) {
			slog.Warn("vgltf: texture has no image source", "texture", i)
			continue
		}
		src := int(*gt.Source)
		if img, ok := cache[src]; ok {
			td.Image = img
			continue
		}
		img, err := decodeImage(doc, doc.Images[src], as.Dir)
		if err != nil {
			slog.Warn("vgltf: cannot decode image, using default texture", "image", src, "err", err)
			continue
		}
		cache[src] = img
		td.Image = img
	}
}

// convertSampler maps a glTF sampler to wrap and filter settings.
// Unspecified filters are linear, the common case for PBR assets.
func convertSampler(gs *gltf.Sampler) vgpu.Sampler {
	var smp vgpu.Sampler
	smp.Defaults()
	if gs == nil {
		return smp
	}
	smp.WrapS = wrapMode(gs.WrapS)
	smp.WrapT = wrapMode(gs.WrapT)
	smp.MagLinear = gs.MagFilter != gltf.MagNearest
	switch gs.MinFilter {
	case gltf.MinNearest, gltf.MinNearestMipMapNearest, gltf.MinNearestMipMapLinear:
		smp.MinLinear = false
	}
	return smp
}

func wrapMode(wm gltf.WrappingMode) vk.SamplerAddressMode {
	switch wm {
	case gltf.WrapClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case gltf.WrapMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	}
	return vk.SamplerAddressModeRepeat
}

func decodeImage(doc *gltf.Document, gi *gltf.Image, dir string) (*image.RGBA, error) {
	data, err := imageBytes(doc, gi, dir)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return toRGBA(img), nil
}

// imageBytes returns an image's encoded bytes from its buffer view,
// an embedded data URI, or a file relative to the asset.
func imageBytes(doc *gltf.Document, gi *gltf.Image, dir string) ([]byte, error) {
	switch {
	case gi.BufferView != nil:
		bv := int(*gi.BufferView)
		if bv < 0 || bv >= len(doc.BufferViews) {
			return nil, fmt.Errorf("buffer view %d out of range", bv)
		}
		return modeler.ReadBufferView(doc, doc.BufferViews[bv])
	case strings.HasPrefix(gi.URI, "data:"):
		_, b64, ok := strings.Cut(gi.URI, ",")
		if !ok {
			return nil, errors.New("malformed data URI")
		}
		return base64.StdEncoding.DecodeString(b64)
	case gi.URI != "":
		uri, err := url.PathUnescape(gi.URI)
		if err != nil {
			uri = gi.URI
		}
		return os.ReadFile(filepath.Join(dir, filepath.FromSlash(uri)))
	}
	return nil, errors.New("image has no data source")
}

// toRGBA converts a decoded image to tightly packed RGBA8 pixels.
func toRGBA(src image.Image) *image.RGBA {
	if r, ok := src.(*image.RGBA); ok && r.Bounds().Min == (image.Point{}) && r.Stride == 4*r.Bounds().Dx() {
		return r
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// clampImage downscales an image so neither dimension exceeds maxSz,
// preserving aspect ratio.
func clampImage(img *image.RGBA, maxSz int) *image.RGBA {
	sz := img.Bounds().Size()
	if maxSz <= 0 || (sz.X <= maxSz && sz.Y <= maxSz) {
		return img
	}
	nx, ny := sz.X, sz.Y
	if nx >= ny {
		ny = max(ny*maxSz/nx, 1)
		nx = maxSz
	} else {
		nx = max(nx*maxSz/ny, 1)
		ny = maxSz
	}
	dst := image.NewRGBA(image.Rect(0, 0, nx, ny))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	slog.Debug("vgltf: downscaled texture", "from", sz, "to", dst.Bounds().Size())
	return dst
}
