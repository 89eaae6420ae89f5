// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vscene

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
)

func TestCameraDefaults(t *testing.T) {
	cm := &Camera{}
	cm.Defaults()
	assert.Equal(t, float32(45), cm.FOV)
	assert.Equal(t, float32(0.01), cm.Near)
	assert.Equal(t, float32(1000), cm.Far)
}

func TestCameraProjection(t *testing.T) {
	cm := &Camera{}
	cm.Defaults()
	cm.UpdateProjection(1.5)
	assert.Greater(t, cm.Projection[0], float32(0))
	assert.Less(t, cm.Projection[5], float32(0)) // Y down in clip space
}

func TestCameraSetView(t *testing.T) {
	cm := &Camera{}
	cm.Defaults()
	cm.SetView(math32.Vec3(0, 0, 10), math32.Vector3{}, math32.Vec3(0, 1, 0))
	assert.Equal(t, math32.Vec3(0, 0, 10), cm.Pos)

	// world origin is 10 units in front of the camera, along -Z in view space
	vp := math32.Vector3{}.MulMatrix4(&cm.View)
	assert.InDelta(t, 0, vp.X, 1e-5)
	assert.InDelta(t, 0, vp.Y, 1e-5)
	assert.InDelta(t, -10, vp.Z, 1e-5)
}

func TestOrbitCameraPosition(t *testing.T) {
	oc := &OrbitCamera{}
	oc.Defaults()
	oc.Pitch = 0

	pos := oc.Position()
	assert.InDelta(t, 0, pos.X, 1e-5)
	assert.InDelta(t, 0, pos.Y, 1e-5)
	assert.InDelta(t, 10, pos.Z, 1e-5)

	oc.Yaw = 90
	pos = oc.Position()
	assert.InDelta(t, 10, pos.X, 1e-5)
	assert.InDelta(t, 0, pos.Z, 1e-5)

	oc.Yaw = 0
	oc.Pitch = 90 // clamped only via Orbit, direct set allowed
	pos = oc.Position()
	assert.InDelta(t, 10, pos.Y, 1e-5)
}

func TestOrbitCameraClamp(t *testing.T) {
	oc := &OrbitCamera{}
	oc.Defaults()
	oc.Orbit(0, 500)
	assert.Equal(t, float32(pitchLimit), oc.Pitch)
	oc.Orbit(0, -500)
	assert.Equal(t, float32(-pitchLimit), oc.Pitch)
}

func TestOrbitCameraZoom(t *testing.T) {
	oc := &OrbitCamera{}
	oc.Defaults()
	oc.Zoom(0.1)
	assert.InDelta(t, 11, oc.Distance, 1e-5)
	oc.Zoom(-0.5)
	assert.InDelta(t, 5.5, oc.Distance, 1e-5)
	oc.Zoom(-1)
	assert.Equal(t, float32(0.01), oc.Distance)
}

func TestOrbitCameraFrame(t *testing.T) {
	oc := &OrbitCamera{}
	oc.Defaults()

	bb := math32.B3(-1, -1, -1, 1, 1, 1)
	oc.Frame(bb, 45)
	assert.Equal(t, math32.Vector3{}, oc.Target)
	radius := bb.Size().Length() * 0.5
	want := radius / math32.Tan(math32.DegToRad(22.5)) * 1.25
	assert.InDelta(t, want, oc.Distance, 1e-4)

	oc.Frame(math32.B3Empty(), 45)
	assert.Equal(t, float32(10), oc.Distance)
}

func TestFlyCameraDefaults(t *testing.T) {
	fc := &FlyCamera{}
	fc.Defaults()
	assert.Equal(t, math32.Vec3(0, 0, 10), fc.Pos)
	assert.Equal(t, float32(20), fc.Speed)

	// yaw -90 looks down -Z
	assert.InDelta(t, 0, fc.front.X, 1e-5)
	assert.InDelta(t, 0, fc.front.Y, 1e-5)
	assert.InDelta(t, -1, fc.front.Z, 1e-5)
	assert.InDelta(t, 1, fc.right.X, 1e-5)
	assert.InDelta(t, 1, fc.up.Y, 1e-5)
}

func TestFlyCameraMove(t *testing.T) {
	fc := &FlyCamera{}
	fc.Defaults()
	fc.Move(CamForward, 0.5)
	assert.InDelta(t, 0, fc.Pos.Z, 1e-4) // 10 - 20*0.5
	fc.Move(CamRight, 0.1)
	assert.InDelta(t, 2, fc.Pos.X, 1e-4)
	fc.Move(CamUp, 0.1)
	assert.InDelta(t, 2, fc.Pos.Y, 1e-4)
}

func TestFlyCameraLook(t *testing.T) {
	fc := &FlyCamera{}
	fc.Defaults()
	fc.Look(0, 10000)
	assert.Equal(t, float32(-pitchLimit), fc.Pitch)
	fc.Look(0, -20000)
	assert.Equal(t, float32(pitchLimit), fc.Pitch)

	fc2 := &FlyCamera{}
	fc2.Defaults()
	fc2.Look(100, 0) // yaw -90 -> -85
	assert.InDelta(t, -85, fc2.Yaw, 1e-5)
}

func TestFlyCameraLookAt(t *testing.T) {
	fc := &FlyCamera{}
	fc.Defaults()
	fc.LookAt(math32.Vector3{}) // from (0,0,10): straight down -Z
	assert.InDelta(t, -90, fc.Yaw, 1e-4)
	assert.InDelta(t, 0, fc.Pitch, 1e-4)

	fc.Pos = math32.Vec3(-5, 0, 0)
	fc.LookAt(math32.Vector3{})
	assert.InDelta(t, 0, fc.Yaw, 1e-4) // +X
	assert.InDelta(t, 1, fc.front.X, 1e-5)

	fc.Pos = math32.Vec3(3, 3, 0.001)
	fc.LookAt(math32.Vec3(3, 0, 0.001))
	assert.InDelta(t, -90, fc.Pitch, 0.01)

	// zero direction is a no-op
	yaw := fc.Yaw
	fc.LookAt(fc.Pos)
	assert.Equal(t, yaw, fc.Yaw)
}

func TestFlyCameraUpdateCamera(t *testing.T) {
	fc := &FlyCamera{}
	fc.Defaults()
	cm := &Camera{}
	cm.Defaults()
	fc.UpdateCamera(cm)
	assert.Equal(t, fc.Pos, cm.Pos)

	// looking down -Z from z=10: origin lands 10 in front
	vp := math32.Vector3{}.MulMatrix4(&cm.View)
	assert.InDelta(t, -10, vp.Z, 1e-4)
}
