// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// testArena returns a manager with no gpu behind it. Slots hold zero
// vulkan handles, which Free treats as already released, so the
// bookkeeping can be exercised without a device.
func testArena() *ResourceManager {
	return &ResourceManager{Dev: &Device{}}
}

func (rm *ResourceManager) testBuffer() BufferHandle {
	idx := rm.allocBufferSlot()
	rm.buffers[idx].live = true
	return BufferHandle{Index: idx, Generation: rm.buffers[idx].gen}
}

func (rm *ResourceManager) testImage() ImageHandle {
	idx := rm.allocImageSlot()
	rm.images[idx].live = true
	return ImageHandle{Index: idx, Generation: rm.images[idx].gen}
}

func TestResourceHandleLifecycle(t *testing.T) {
	rm := testArena()

	var zero BufferHandle
	assert.False(t, zero.IsValid())
	_, err := rm.Buffer(zero)
	assert.ErrorIs(t, err, ErrStaleHandle)

	h := rm.testBuffer()
	assert.True(t, h.IsValid())
	buf, err := rm.Buffer(h)
	assert.NoError(t, err)
	assert.NotNil(t, buf)

	nbufs, _ := rm.NAlive()
	assert.Equal(t, 1, nbufs)

	rm.DestroyBuffer(h)
	_, err = rm.Buffer(h)
	assert.ErrorIs(t, err, ErrStaleHandle)
	nbufs, _ = rm.NAlive()
	assert.Equal(t, 0, nbufs)
}

func TestResourceImageLifecycle(t *testing.T) {
	rm := testArena()

	h := rm.testImage()
	img, smp, err := rm.Image(h)
	assert.NoError(t, err)
	assert.NotNil(t, img)
	assert.NotNil(t, smp)

	rm.DestroyImage(h)
	_, _, err = rm.Image(h)
	assert.ErrorIs(t, err, ErrStaleHandle)

	stale := ImageHandle{Index: h.Index, Generation: h.Generation + 5}
	_, _, err = rm.Image(stale)
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestResourceDeferredReap(t *testing.T) {
	rm := testArena()
	h := rm.testBuffer()

	rm.SetFrame(5)
	rm.DestroyBuffer(h)
	assert.Equal(t, 1, len(rm.pending))

	// frames up to 4 completing does not release the slot
	rm.Reap(4)
	assert.Equal(t, 1, len(rm.pending))
	assert.Equal(t, 0, len(rm.freeBuffers))

	rm.Reap(5)
	assert.Equal(t, 0, len(rm.pending))
	assert.Equal(t, []uint32{h.Index}, rm.freeBuffers)
}

func TestResourceSlotReuse(t *testing.T) {
	rm := testArena()
	h1 := rm.testBuffer()

	rm.SetFrame(1)
	rm.DestroyBuffer(h1)
	rm.Reap(1)

	h2 := rm.testBuffer()
	assert.Equal(t, h1.Index, h2.Index)
	assert.Equal(t, h1.Generation+1, h2.Generation)

	// the recycled slot resolves only through the new handle
	_, err := rm.Buffer(h1)
	assert.ErrorIs(t, err, ErrStaleHandle)
	_, err = rm.Buffer(h2)
	assert.NoError(t, err)
}

func TestResourceDoubleDestroy(t *testing.T) {
	rm := testArena()
	h := rm.testBuffer()

	rm.DestroyBuffer(h)
	rm.DestroyBuffer(h)
	assert.Equal(t, 1, len(rm.pending))

	rm.DestroyImage(ImageHandle{Index: 99, Generation: 3})
	assert.Equal(t, 1, len(rm.pending))
}

func TestResourceReapOrder(t *testing.T) {
	rm := testArena()
	h1 := rm.testBuffer()
	h2 := rm.testBuffer()
	h3 := rm.testImage()

	rm.SetFrame(1)
	rm.DestroyBuffer(h1)
	rm.SetFrame(3)
	rm.DestroyBuffer(h2)
	rm.DestroyImage(h3)

	rm.Reap(2)
	assert.Equal(t, []uint32{h1.Index}, rm.freeBuffers)
	assert.Equal(t, 2, len(rm.pending))

	rm.Reap(3)
	assert.Equal(t, []uint32{h1.Index, h2.Index}, rm.freeBuffers)
	assert.Equal(t, []uint32{h3.Index}, rm.freeImages)
	assert.Equal(t, 0, len(rm.pending))
}

func TestResourceFree(t *testing.T) {
	rm := testArena()
	rm.testBuffer()
	rm.testImage()
	rm.testImage()

	rm.Free()
	nbufs, nimgs := rm.NAlive()
	assert.Equal(t, 0, nbufs)
	assert.Equal(t, 0, nimgs)
	assert.Nil(t, rm.buffers)
	assert.Nil(t, rm.images)
}
