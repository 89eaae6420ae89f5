// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgltf

import (
	"errors"
	"fmt"
	"log/slog"

	"cogentcore.org/core/math32"
	"cogentcore.org/vgltf/vgpu"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// decodeMeshes decodes every mesh. A primitive that cannot be
// decoded is logged and dropped; the rest of its mesh still loads.
func (as *Asset) decodeMeshes(doc *gltf.Document) {
	if len(doc.Meshes) == 0 {
		return
	}
	as.Meshes = make([]*MeshData, len(doc.Meshes))
	for i, gm := range doc.Meshes {
		md := &MeshData{Name: gm.Name}
		for pi, gp := range gm.Primitives {
			pd, err := decodePrimitive(doc, gp)
			if err != nil {
				slog.Warn("vgltf: skipping primitive", "mesh", gm.Name, "primitive", pi, "err", err)
				continue
			}
			md.Primitives = append(md.Primitives, pd)
		}
		as.Meshes[i] = md
	}
}

// decodePrimitive reads one primitive's attributes and indices and
// interleaves them into the standard vertex layout, filling in
// computed normals and zero texture coordinates where the file has
// none.
func decodePrimitive(doc *gltf.Document, gp *gltf.Primitive) (*PrimData, error) {
	if gp.Mode != gltf.PrimitiveTriangles {
		return nil, fmt.Errorf("mode %v not supported", gp.Mode)
	}
	pi, ok := gp.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("no POSITION attribute")
	}
	acc, err := accessor(doc, int(pi))
	if err != nil {
		return nil, err
	}
	pos, err := modeler.ReadPosition(doc, acc, nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	if len(pos) == 0 {
		return nil, errors.New("empty POSITION accessor")
	}

	var norms [][3]float32
	if ni, ok := gp.Attributes[gltf.NORMAL]; ok {
		acc, err := accessor(doc, int(ni))
		if err != nil {
			return nil, err
		}
		norms, err = modeler.ReadNormal(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}
	var uvs [][2]float32
	if ti, ok := gp.Attributes[gltf.TEXCOORD_0]; ok {
		acc, err := accessor(doc, int(ti))
		if err != nil {
			return nil, err
		}
		uvs, err = modeler.ReadTextureCoord(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
	}

	var idx []uint32
	if gp.Indices != nil {
		acc, err := accessor(doc, int(*gp.Indices))
		if err != nil {
			return nil, err
		}
		idx, err = modeler.ReadIndices(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		idx = make([]uint32, len(pos))
		for i := range idx {
			idx[i] = uint32(i)
		}
	}
	if len(idx) < 3 {
		return nil, errors.New("no triangles")
	}
	for _, ix := range idx {
		if int(ix) >= len(pos) {
			return nil, fmt.Errorf("index %d out of range for %d vertices", ix, len(pos))
		}
	}

	if len(norms) < len(pos) {
		norms = computeNormals(pos, idx)
	}
	if len(uvs) < len(pos) {
		uvs = make([][2]float32, len(pos))
	}

	pd := &PrimData{Attrs: vgpu.StdVertexAttrs, Indices: idx, Material: -1}
	if gp.Material != nil {
		pd.Material = int(*gp.Material)
	}
	bb := math32.B3Empty()
	verts := make([]float32, 0, len(pos)*8)
	for i, p := range pos {
		bb.ExpandByPoint(math32.Vec3(p[0], p[1], p[2]))
		n := norms[i]
		uv := uvs[i]
		verts = append(verts, p[0], p[1], p[2], n[0], n[1], n[2], uv[0], uv[1])
	}
	pd.Verts = verts
	pd.BBox = bb
	return pd, nil
}

func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}

// computeNormals returns smooth vertex normals for an indexed
// triangle list with no NORMAL attribute, averaging the normals of
// the faces sharing each vertex.
func computeNormals(pos [][3]float32, idx []uint32) [][3]float32 {
	acc := make([]math32.Vector3, len(pos))
	for i := 0; i+2 < len(idx); i += 3 {
		a, b, c := idx[i], idx[i+1], idx[i+2]
		fn := math32.Normal(vec3of(pos[a]), vec3of(pos[b]), vec3of(pos[c]))
		acc[a] = acc[a].Add(fn)
		acc[b] = acc[b].Add(fn)
		acc[c] = acc[c].Add(fn)
	}
	norms := make([][3]float32, len(pos))
	for i, v := range acc {
		if v.Length() == 0 {
			norms[i] = [3]float32{0, 0, 1}
			continue
		}
		n := v.Normal()
		norms[i] = [3]float32{n.X, n.Y, n.Z}
	}
	return norms
}

func vec3of(v [3]float32) math32.Vector3 {
	return math32.Vec3(v[0], v[1], v[2])
}
