// First-fit memory allocator over donated regions
// https://github.com/usbarmory/heapmem
//
// Copyright (c) The HeapMem Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package heapmem

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRegions slices a single buffer into disjoint regions of the given
// sizes, spaced apart and in increasing address order.
func testRegions(t *testing.T, sizes ...uint) []Region {
	t.Helper()

	var total uint

	for _, size := range sizes {
		total += size + 64
	}

	buf := make([]byte, total)

	t.Cleanup(func() {
		runtime.KeepAlive(buf)
	})

	var regions []Region
	var off uint

	for _, size := range sizes {
		regions = append(regions, NewRegion(buf[off:off+size]))
		off += size + 64
	}

	return regions
}

func TestAssignValidation(t *testing.T) {
	h := &Heap{}

	// empty sequence
	assert.Zero(t, h.Assign())

	// zero address or size
	assert.Zero(t, h.Assign(Region{Start: 0, Size: 128}))
	assert.Zero(t, h.Assign(Region{Start: 0x1000, Size: 0}))

	regions := testRegions(t, 128, 128)

	// descending order
	assert.Zero(t, h.Assign(regions[1], regions[0]))

	// overlap
	assert.Zero(t, h.Assign(
		Region{Start: regions[0].Start, Size: 128},
		Region{Start: regions[0].Start + 64, Size: 128},
	))

	require.Equal(t, 2, h.Assign(regions...))

	// assign may only run once per instance
	assert.Zero(t, h.Assign(regions...))
}

func TestAssignAlignment(t *testing.T) {
	h := &Heap{
		Align: 3,
	}

	regions := testRegions(t, 128)

	// alignment must be a power of two
	assert.Zero(t, h.Assign(regions...))

	h = &Heap{
		Align: 16,
	}

	require.Equal(t, 1, h.Assign(regions...))

	ptr := h.Alloc(4)
	require.NotZero(t, ptr)
	assert.Zero(t, ptr%16, "allocations must honor the configured alignment")
	assert.Equal(t, h.alignUp(4), h.Size(ptr))
}

func TestAssignMisalignedRegion(t *testing.T) {
	h := &Heap{}

	buf := make([]byte, 256)

	t.Cleanup(func() {
		runtime.KeepAlive(buf)
	})

	// force a start address off the alignment unit
	r := NewRegion(buf)
	r.Start++
	r.Size--

	require.Equal(t, 1, h.Assign(r))

	// the region was advanced to the next boundary and trimmed
	installed := h.regions[0]
	assert.Zero(t, installed.Start&(h.align-1))
	assert.Zero(t, installed.Size&(h.align-1))
	assert.Less(t, installed.Size, r.Size)

	ptr := h.Alloc(8)
	require.NotZero(t, ptr)
	assert.Zero(t, ptr&(h.align-1))
}

func TestAssignSmallRegions(t *testing.T) {
	h := &Heap{}

	regions := testRegions(t, 8, 256)

	// a region too small for a block and its sentinel is skipped
	require.Equal(t, 1, h.Assign(regions...))
	assert.Equal(t, regions[1].Start, h.regions[0].Start)

	// all regions too small
	h = &Heap{}
	small := testRegions(t, 8, 8)
	assert.Zero(t, h.Assign(small...))
}

func TestMultiRegionStitching(t *testing.T) {
	h := &Heap{}

	regions := testRegions(t, 128, 256)

	require.Equal(t, 2, h.Assign(regions...))

	m := h.metaSize
	assert.Equal(t, (128-2*m)+(256-2*m)+2*m, h.available)

	// the first region end sentinel points to the next region
	first := h.regions[0]
	sentinel := blockAt(first.Start + first.Size - m)
	assert.Zero(t, sentinel.size)
	assert.Equal(t, h.regions[1].Start, sentinel.next)

	// exhaust the first region, the next allocation crosses into the
	// second one
	a := h.Alloc(128 - 2*m)
	require.NotZero(t, a)
	require.Less(t, a, first.Start+first.Size)

	b := h.Alloc(64)
	require.NotZero(t, b)
	assert.GreaterOrEqual(t, b, h.regions[1].Start)

	h.Free(a)
	h.Free(b)

	checkInvariants(t, h)
}

func TestAllocFromRegion(t *testing.T) {
	h := &Heap{}

	regions := testRegions(t, 128, 256, 1024)

	require.Equal(t, 3, h.Assign(regions...))

	// a region constrained allocation skips lower regions
	ptr := h.AllocFrom(regions[1], 16)
	require.NotZero(t, ptr)
	assert.GreaterOrEqual(t, ptr, regions[1].Start)
	assert.Less(t, ptr, regions[1].Start+regions[1].Size)

	// an unconstrained allocation is first-fit from the lowest region
	first := h.Alloc(16)
	require.NotZero(t, first)
	assert.GreaterOrEqual(t, first, regions[0].Start)
	assert.Less(t, first, regions[0].Start+regions[0].Size)

	h.Free(ptr)
	h.Free(first)

	checkInvariants(t, h)
}

func TestAllocFromExhaustedRegion(t *testing.T) {
	h := &Heap{}

	regions := testRegions(t, 128, 1024)

	require.Equal(t, 2, h.Assign(regions...))

	// larger than the first region can ever provide
	assert.Zero(t, h.AllocFrom(regions[0], 256))

	// the same request is satisfied by the second region
	ptr := h.Alloc(256)
	require.NotZero(t, ptr)
	assert.GreaterOrEqual(t, ptr, regions[1].Start)

	// an invalid region descriptor never allocates
	assert.Zero(t, h.AllocFrom(Region{Start: regions[0].Start, Size: 8}, 16))

	h.Free(ptr)
}

func TestCallocFromRegion(t *testing.T) {
	h := &Heap{}

	regions := testRegions(t, 128, 256)

	require.Equal(t, 2, h.Assign(regions...))

	ptr := h.CallocFrom(regions[1], 8, 4)
	require.NotZero(t, ptr)
	assert.GreaterOrEqual(t, ptr, regions[1].Start)
	verify(t, ptr, 32, 0x00)

	h.Free(ptr)
}

func TestReallocFromRegion(t *testing.T) {
	h := &Heap{}

	regions := testRegions(t, 128, 1024)

	require.Equal(t, 2, h.Assign(regions...))

	// a block in the first region, too small a region for the resize below,
	// forces the copy fallback into the second one
	a := h.AllocFrom(regions[0], 16)
	require.NotZero(t, a)

	fill(a, 16, 0x42)

	ptr := h.ReallocFrom(regions[1], a, 512)
	require.NotZero(t, ptr)
	assert.GreaterOrEqual(t, ptr, regions[1].Start)
	verify(t, ptr, 16, 0x42)

	h.Free(ptr)

	checkInvariants(t, h)
}
