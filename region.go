// First-fit memory allocator over donated regions
// https://github.com/usbarmory/heapmem
//
// Copyright (c) The HeapMem Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package heapmem

import (
	"unsafe"
)

// Region describes a contiguous memory area donated to an allocator
// instance as a start address and a length in bytes.
type Region struct {
	Start uint
	Size  uint
}

// NewRegion returns a Region descriptor covering the entire buffer. The
// application must keep the buffer alive for the lifetime of the instance
// and must not access it other than through addresses returned by the
// allocator.
func NewRegion(buf []byte) Region {
	return Region{
		Start: uint(uintptr(unsafe.Pointer(&buf[0]))),
		Size:  uint(len(buf)),
	}
}

// regionAddrSize returns the aligned start address and aligned usable size
// of a donated region, ok reports whether the region can hold at least one
// block and its end sentinel.
func (h *Heap) regionAddrSize(r Region) (addr uint, size uint, ok bool) {
	addr = r.Start
	size = r.Size

	// start address must be aligned to configuration, increase start
	// address and decrease effective region size
	if pad := addr & (h.align - 1); pad != 0 {
		pad = h.align - pad

		if pad >= size {
			return 0, 0, false
		}

		addr += pad
		size -= pad
	}

	// align the size to lower bits
	size &^= h.align - 1

	if size < 2*h.metaSize {
		return 0, 0, false
	}

	return addr, size, true
}

// Assign validates and installs the donated regions, transitioning the
// instance to its serving state. Regions must be passed in increasing
// address order and must not overlap. Regions too small to hold a block and
// an end sentinel are silently skipped.
//
// It returns the number of regions actually installed, zero indicates an
// invalid region sequence, a lock creation failure or an instance that was
// assigned already.
//
// Assign does not take the instance lock, it must complete before the
// instance is shared.
func (h *Heap) Assign(regions ...Region) int {
	if h.endBlock != 0 || len(regions) == 0 {
		return 0
	}

	align := h.Align

	if align == 0 {
		align = DefaultAlign
	}

	if align&(align-1) != 0 {
		return 0
	}

	h.align = align
	h.metaSize = h.alignUp(uint(unsafe.Sizeof(block{})))

	// regions must grow in address space and must not overlap
	var end uint

	for _, r := range regions {
		if r.Start == 0 || r.Size == 0 || end > r.Start {
			return 0
		}

		end = r.Start + r.Size
	}

	if h.NewMutex != nil {
		if h.mutex != nil {
			return 0
		}

		if h.mutex = h.NewMutex(); h.mutex == nil {
			return 0
		}
	}

	for _, r := range regions {
		addr, size, ok := h.regionAddrSize(r)

		if !ok {
			continue
		}

		if h.endBlock == 0 {
			h.start.next = addr
			h.start.size = 0
		}

		prevEnd := h.endBlock

		// place the end sentinel at the tail of the region
		h.endBlock = addr + size - h.metaSize

		endBlock := blockAt(h.endBlock)
		endBlock.next = 0
		endBlock.size = 0

		// the remainder of the region is a single free block
		first := blockAt(addr)
		first.next = h.endBlock
		first.size = size - h.metaSize

		// stitch the previous region to this one
		if prevEnd != 0 {
			blockAt(prevEnd).next = addr
		}

		h.available += first.size
		h.regions = append(h.regions, Region{Start: addr, Size: size})
	}

	h.stats.Total = h.available
	h.stats.MinAvailable = h.available

	return len(h.regions)
}
