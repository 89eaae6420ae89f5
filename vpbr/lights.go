// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vpbr

import "cogentcore.org/core/math32"

// MaxLights is the upper limit on the number of each type of light.
// Must match the array sizes in the shaders.
const MaxLights = 8

// NLights is the number of each type of light active.
type NLights struct {
	Ambient int32
	Dir     int32
	Point   int32
	pad0    int32
}

func (nl *NLights) Reset() {
	nl.Ambient = 0
	nl.Dir = 0
	nl.Point = 0
}

// AmbientLight provides a uniform additive light term,
// multiplying the material base color. Typically only one.
type AmbientLight struct {

	// color of light at full intensity
	Color math32.Vector3
	pad0  float32
}

// DirLight is a directional light like the Sun: it shines from its
// position toward the origin with no attenuation, so only the
// direction of the position vector matters.
type DirLight struct {

	// color of light at full intensity
	Color math32.Vector3
	pad0  float32

	// position the light shines from, toward the origin
	Pos  math32.Vector3
	pad1 float32
}

// PointLight is an omnidirectional light with a world position and
// decay factors that divide the intensity by linear and quadratic
// distance. The quadratic factor dominates at longer distances.
type PointLight struct {

	// color of light at full intensity
	Color math32.Vector3
	pad0  float32

	// position of light in world coordinates
	Pos  math32.Vector3
	pad1 float32

	// X = linear decay (default .1), Y = quadratic decay (default .01)
	Decay math32.Vector3
	pad2  float32
}

// ResetLights resets the light counts to 0 for reconfiguring.
func (pb *PBR) ResetLights() {
	pb.Globals.NLights.Reset()
}

// AddAmbientLight adds an ambient light with given color.
func (pb *PBR) AddAmbientLight(color math32.Vector3) {
	pb.SetAmbientLight(int(pb.Globals.NLights.Ambient), color)
	pb.Globals.NLights.Ambient++
}

// SetAmbientLight sets the ambient light at index.
func (pb *PBR) SetAmbientLight(idx int, color math32.Vector3) {
	pb.Globals.Ambient[idx].Color = color
}

// AddDirLight adds a directional light.
func (pb *PBR) AddDirLight(color, pos math32.Vector3) {
	pb.SetDirLight(int(pb.Globals.NLights.Dir), color, pos)
	pb.Globals.NLights.Dir++
}

// SetDirLight sets the directional light at index.
func (pb *PBR) SetDirLight(idx int, color, pos math32.Vector3) {
	pb.Globals.Dir[idx].Color = color
	pb.Globals.Dir[idx].Pos = pos
}

// AddPointLight adds a point light.
// Defaults: linDecay=.1, quadDecay=.01
func (pb *PBR) AddPointLight(color, pos math32.Vector3, linDecay, quadDecay float32) {
	pb.SetPointLight(int(pb.Globals.NLights.Point), color, pos, linDecay, quadDecay)
	pb.Globals.NLights.Point++
}

// SetPointLight sets the point light at index.
func (pb *PBR) SetPointLight(idx int, color, pos math32.Vector3, linDecay, quadDecay float32) {
	pb.Globals.Point[idx].Color = color
	pb.Globals.Point[idx].Pos = pos
	pb.Globals.Point[idx].Decay = math32.Vector3{X: linDecay, Y: quadDecay}
}

// DefaultLights configures a standard three-light studio setup:
// a low ambient term, a warm key light from the upper right front,
// and a cool fill from the left.
func (pb *PBR) DefaultLights() {
	pb.ResetLights()
	pb.AddAmbientLight(math32.Vec3(0.08, 0.08, 0.08))
	pb.AddDirLight(math32.Vec3(1, 0.98, 0.95), math32.Vec3(3, 5, 4))
	pb.AddDirLight(math32.Vec3(0.25, 0.28, 0.35), math32.Vec3(-4, 2, 1))
}
