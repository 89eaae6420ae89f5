// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vgltf imports glTF 2.0 assets into renderable scenes.
// [Open] decodes a .gltf or .glb file into CPU-side [Asset] data,
// with every mesh normalized to the standard interleaved vertex
// layout, and [Asset.Upload] then creates the GPU buffers, textures,
// and materials, producing a [vscene.Scene].
//
// The importer covers the core metallic-roughness feature set:
// node hierarchies, indexed and non-indexed triangle meshes, the
// five standard material textures with samplers, and the three
// alpha modes. Meshes with missing normals get computed smooth
// normals, and missing texture coordinates are zero-filled, so the
// renderer always sees complete vertices. Animations, skins, and
// morph targets are not imported.
package vgltf

import (
	"fmt"
	"path/filepath"
	"strings"

	"cogentcore.org/core/math32"
	"cogentcore.org/vgltf/vgpu"
	"github.com/qmuntal/gltf"
)

// Asset is the decoded CPU-side content of a glTF file, independent
// of any GPU device. Meshes, materials, and textures are indexed
// slices mirroring the file's own index spaces, and Roots holds the
// default scene's node hierarchy.
type Asset struct {
	// base file name without extension
	Name string

	// directory of the source file, for relative texture URIs
	Dir string

	Meshes    []*MeshData
	Materials []*MaterialData
	Textures  []*TextureData

	// root nodes of the default scene
	Roots []*NodeData
}

// NodeData is one node of the decoded hierarchy.
type NodeData struct {
	Name string

	// local transform, composed from the node's matrix or TRS
	Local math32.Matrix4

	// index into [Asset.Meshes], or -1
	Mesh int

	Children []*NodeData
}

// MeshData is a decoded mesh: a named group of primitives.
type MeshData struct {
	Name string

	Primitives []*PrimData
}

// PrimData is one decoded triangle-list primitive, interleaved into
// the standard vertex layout.
type PrimData struct {
	// always the full standard layout after decoding
	Attrs vgpu.VertexAttrs

	// interleaved position, normal, texcoord per vertex
	Verts []float32

	Indices []uint32

	// index into [Asset.Materials], or -1
	Material int

	// local-space bounds over the positions
	BBox math32.Box3
}

// Open reads and decodes a .gltf or .glb file. Malformed files fail
// here; recoverable problems in individual primitives or images are
// logged and the affected piece falls back to defaults.
func Open(path string) (*Asset, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vgltf: open %s: %w", path, err)
	}
	as := &Asset{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Dir:  filepath.Dir(path),
	}
	as.decode(doc)
	return as, nil
}

func (as *Asset) decode(doc *gltf.Document) {
	as.decodeTextures(doc)
	as.decodeMaterials(doc)
	as.decodeMeshes(doc)
	as.decodeNodes(doc)
}

// decodeNodes builds the node hierarchy for the document's default
// scene, or for all parentless nodes when no scene is given. Each node
// keeps only its first parent and roots must be parentless, so a
// malformed file with reference cycles cannot make the hierarchy
// non-finite.
func (as *Asset) decodeNodes(doc *gltf.Document) {
	if len(doc.Nodes) == 0 {
		return
	}
	nodes := make([]*NodeData, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		nd := &NodeData{Name: gn.Name, Mesh: -1, Local: nodeLocal(gn)}
		if gn.Mesh != nil && int(*gn.Mesh) < len(as.Meshes) {
			nd.Mesh = int(*gn.Mesh)
		}
		nodes[i] = nd
	}
	isChild := make([]bool, len(nodes))
	for i, gn := range doc.Nodes {
		for _, ci := range gn.Children {
			c := int(ci)
			if c < 0 || c >= len(nodes) || c == i || isChild[c] {
				continue
			}
			nodes[i].Children = append(nodes[i].Children, nodes[c])
			isChild[c] = true
		}
	}
	if sc := docScene(doc); sc != nil {
		for _, ni := range sc.Nodes {
			if n := int(ni); n >= 0 && n < len(nodes) && !isChild[n] {
				as.Roots = append(as.Roots, nodes[n])
			}
		}
		return
	}
	for i, nd := range nodes {
		if !isChild[i] {
			as.Roots = append(as.Roots, nd)
		}
	}
}

// docScene returns the document's default scene, the first scene
// when no default is set, or nil.
func docScene(doc *gltf.Document) *gltf.Scene {
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		return doc.Scenes[int(*doc.Scene)]
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0]
	}
	return nil
}

// nodeLocal composes a node's local matrix. A non-identity matrix
// wins; otherwise translation, rotation, and scale are composed,
// with all-zero values treated as their identity defaults.
func nodeLocal(gn *gltf.Node) math32.Matrix4 {
	var m math32.Matrix4
	isIdent, nonZero := true, false
	for i, v := range gn.Matrix {
		if v != 0 {
			nonZero = true
		}
		if i%5 == 0 {
			if v != 1 {
				isIdent = false
			}
		} else if v != 0 {
			isIdent = false
		}
	}
	if nonZero && !isIdent {
		for i, v := range gn.Matrix {
			m[i] = float32(v)
		}
		return m
	}
	rot := gn.Rotation
	if rot[0] == 0 && rot[1] == 0 && rot[2] == 0 && rot[3] == 0 {
		rot[3] = 1
	}
	scl := gn.Scale
	if scl[0] == 0 && scl[1] == 0 && scl[2] == 0 {
		scl[0], scl[1], scl[2] = 1, 1, 1
	}
	pos := math32.Vec3(float32(gn.Translation[0]), float32(gn.Translation[1]), float32(gn.Translation[2]))
	quat := math32.Quat{X: float32(rot[0]), Y: float32(rot[1]), Z: float32(rot[2]), W: float32(rot[3])}
	m.SetTransform(pos, quat, math32.Vec3(float32(scl[0]), float32(scl[1]), float32(scl[2])))
	return m
}
