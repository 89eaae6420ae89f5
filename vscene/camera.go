// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vscene

import (
	"cogentcore.org/core/math32"
)

// Camera holds the view and projection matrices uploaded to the frame
// globals, with the perspective parameters used to rebuild them.
type Camera struct {

	// field of view in degrees
	FOV float32

	// near plane z coordinate
	Near float32

	// far plane z coordinate
	Far float32

	// world position, updated with View
	Pos math32.Vector3

	// view matrix, transforming world into camera coordinates
	View math32.Matrix4

	// projection matrix in Vulkan clip space
	Projection math32.Matrix4
}

func (cm *Camera) Defaults() {
	cm.FOV = 45
	cm.Near = 0.01
	cm.Far = 1000
	cm.View.SetIdentity()
	cm.Projection.SetIdentity()
}

// UpdateProjection rebuilds the projection matrix for the given
// aspect ratio (width / height).
func (cm *Camera) UpdateProjection(aspect float32) {
	cm.Projection.SetPerspective(cm.FOV, aspect, cm.Near, cm.Far)
	cm.Projection[5] *= -1 // Vulkan clip space is Y down
}

// SetView sets the view matrix and position from a camera placed at
// pos looking at target with the given up direction.
func (cm *Camera) SetView(pos, target, up math32.Vector3) {
	var lookq math32.Quat
	lookq.SetFromRotationMatrix(math32.NewLookAt(pos, target, up))
	var pose math32.Matrix4
	pose.SetTransform(pos, lookq, math32.Vec3(1, 1, 1))
	view, _ := pose.Inverse()
	cm.View = *view
	cm.Pos = pos
}

// pitchLimit keeps orbit and fly pitch away from the poles, where the
// up vector and view direction become colinear.
const pitchLimit = 89

// OrbitCamera orbits a target point at a fixed distance, with yaw and
// pitch angles in degrees. Yaw 0 pitch 0 places the camera on the
// target's +Z axis looking back at it.
type OrbitCamera struct {
	Target math32.Vector3

	// distance from target
	Distance float32

	// azimuth in degrees, counterclockwise around +Y
	Yaw float32

	// elevation in degrees, positive above the horizon
	Pitch float32
}

func (oc *OrbitCamera) Defaults() {
	oc.Target = math32.Vector3{}
	oc.Distance = 10
	oc.Yaw = 0
	oc.Pitch = 20
}

// Orbit rotates by the given yaw and pitch increments in degrees,
// clamping pitch short of the poles.
func (oc *OrbitCamera) Orbit(delYaw, delPitch float32) {
	oc.Yaw += delYaw
	oc.Pitch = math32.Clamp(oc.Pitch+delPitch, -pitchLimit, pitchLimit)
}

// Zoom moves the given percent closer (negative) or further
// (positive) from the target.
func (oc *OrbitCamera) Zoom(zoomPct float32) {
	oc.Distance *= 1 + zoomPct
	oc.Distance = max(oc.Distance, 0.01)
}

// Frame places the target at the center of the given world bounds and
// backs off far enough that a sphere around them fits in the field of
// view. Empty bounds reset to the defaults.
func (oc *OrbitCamera) Frame(bbox math32.Box3, fov float32) {
	if bbox.IsEmpty() {
		oc.Defaults()
		return
	}
	oc.Target = bbox.Center()
	radius := bbox.Size().Length() * 0.5
	if radius == 0 {
		radius = 1
	}
	oc.Distance = radius / math32.Tan(math32.DegToRad(fov*0.5)) * 1.25
}

// Position returns the camera world position for the current angles.
func (oc *OrbitCamera) Position() math32.Vector3 {
	yaw := math32.DegToRad(oc.Yaw)
	pitch := math32.DegToRad(oc.Pitch)
	dir := math32.Vec3(
		math32.Cos(pitch)*math32.Sin(yaw),
		math32.Sin(pitch),
		math32.Cos(pitch)*math32.Cos(yaw),
	)
	return oc.Target.Add(dir.MulScalar(oc.Distance))
}

// UpdateCamera sets the camera view from the current orbit pose.
func (oc *OrbitCamera) UpdateCamera(cm *Camera) {
	cm.SetView(oc.Position(), oc.Target, math32.Vec3(0, 1, 0))
}

// CameraDirections are the directions a [FlyCamera] can move.
type CameraDirections int32

const (
	CamForward CameraDirections = iota
	CamBackward
	CamLeft
	CamRight
	CamUp
	CamDown
)

// FlyCamera is a free-flying first person camera controlled with
// yaw and pitch angles and directional movement at a fixed speed.
type FlyCamera struct {

	// world position
	Pos math32.Vector3

	// heading in degrees, -90 looks down -Z
	Yaw float32

	// elevation in degrees
	Pitch float32

	// movement speed in world units per second
	Speed float32

	// degrees of rotation per unit of Look input
	Sensitivity float32

	front math32.Vector3
	right math32.Vector3
	up    math32.Vector3
}

func (fc *FlyCamera) Defaults() {
	fc.Pos = math32.Vec3(0, 0, 10)
	fc.Yaw = -90
	fc.Pitch = 0
	fc.Speed = 20
	fc.Sensitivity = 0.05
	fc.updateVectors()
}

// updateVectors recomputes the basis from yaw and pitch.
func (fc *FlyCamera) updateVectors() {
	yaw := math32.DegToRad(fc.Yaw)
	pitch := math32.DegToRad(fc.Pitch)
	fc.front = math32.Vec3(
		math32.Cos(pitch)*math32.Cos(yaw),
		math32.Sin(pitch),
		math32.Cos(pitch)*math32.Sin(yaw),
	).Normal()
	fc.right = fc.front.Cross(math32.Vec3(0, 1, 0)).Normal()
	fc.up = fc.right.Cross(fc.front).Normal()
}

// LookAt points the camera from its current position toward target.
func (fc *FlyCamera) LookAt(target math32.Vector3) {
	dir := target.Sub(fc.Pos)
	if dir.Length() == 0 {
		return
	}
	dir = dir.Normal()
	fc.Pitch = math32.RadToDeg(math32.Asin(math32.Clamp(dir.Y, -1, 1)))
	fc.Yaw = math32.RadToDeg(math32.Atan2(dir.Z, dir.X))
	fc.updateVectors()
}

// Look turns by the given input deltas scaled by Sensitivity,
// clamping pitch short of the poles.
func (fc *FlyCamera) Look(delX, delY float32) {
	fc.Yaw += delX * fc.Sensitivity
	fc.Pitch = math32.Clamp(fc.Pitch-delY*fc.Sensitivity, -pitchLimit, pitchLimit)
	fc.updateVectors()
}

// Move translates in the given direction for dt seconds at Speed.
func (fc *FlyCamera) Move(dir CameraDirections, dt float32) {
	vel := fc.Speed * dt
	switch dir {
	case CamForward:
		fc.Pos = fc.Pos.Add(fc.front.MulScalar(vel))
	case CamBackward:
		fc.Pos = fc.Pos.Sub(fc.front.MulScalar(vel))
	case CamLeft:
		fc.Pos = fc.Pos.Sub(fc.right.MulScalar(vel))
	case CamRight:
		fc.Pos = fc.Pos.Add(fc.right.MulScalar(vel))
	case CamUp:
		fc.Pos = fc.Pos.Add(fc.up.MulScalar(vel))
	case CamDown:
		fc.Pos = fc.Pos.Sub(fc.up.MulScalar(vel))
	}
}

// UpdateCamera sets the camera view from the current fly pose.
func (fc *FlyCamera) UpdateCamera(cm *Camera) {
	cm.SetView(fc.Pos, fc.Pos.Add(fc.front), fc.up)
}
