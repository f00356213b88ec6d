// First-fit memory allocator over donated regions
// https://github.com/usbarmory/heapmem
//
// Copyright (c) The HeapMem Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package heapmem

import (
	"math/bits"
)

// alloc implements the first-fit search and carve, the caller must hold the
// instance lock. A nil region accepts the first fitting block across all
// regions.
func (h *Heap) alloc(region *Region, size uint) uint {
	if h.endBlock == 0 {
		return 0
	}

	final := h.alignUp(size) + h.metaSize

	if final == h.metaSize || final&allocBit != 0 {
		return 0
	}

	prev := h.startAddr()
	curr := blockAt(prev).next

	if region != nil {
		start, rsize, ok := h.regionAddrSize(*region)

		if !ok {
			return 0
		}

		for ; curr != 0; prev, curr = curr, blockAt(curr).next {
			if blockAt(curr).next == 0 || curr == h.endBlock {
				return 0
			}

			if curr < start {
				continue
			}

			if curr >= start+rsize {
				return 0
			}

			if blockAt(curr).size >= final {
				break
			}
		}
	} else {
		for ; curr != 0 && blockAt(curr).size < final; prev, curr = curr, blockAt(curr).next {
			if blockAt(curr).next == 0 || curr == h.endBlock {
				return 0
			}
		}
	}

	if curr == 0 {
		return 0
	}

	// remove the block from the free list
	blockAt(prev).next = blockAt(curr).next

	h.available -= blockAt(curr).size
	h.split(curr, final)
	setAlloc(curr)

	h.updateMinFree()
	h.stats.Allocs++

	return curr + h.metaSize
}

// free validates the allocation mark and returns the block to the free
// list, the caller must hold the instance lock.
func (h *Heap) free(ptr uint) {
	if ptr == 0 {
		return
	}

	addr := ptr - h.metaSize

	if !isAlloc(addr) {
		return
	}

	clearAlloc(addr)

	h.available += blockAt(addr).size
	h.insertFree(addr)

	h.stats.Frees++
}

// Alloc allocates size bytes of memory and returns its address, zero is
// returned when the instance is uninitialized, the size is invalid or no
// free block satisfies the request.
func (h *Heap) Alloc(size uint) uint {
	h.lock()
	defer h.unlock()

	return h.alloc(nil, size)
}

// AllocFrom is the equivalent of Alloc constrained to a specific donated
// region.
func (h *Heap) AllocFrom(region Region, size uint) uint {
	h.lock()
	defer h.unlock()

	return h.alloc(&region, size)
}

// Calloc allocates zero initialized memory for nitems elements of size
// bytes each.
func (h *Heap) Calloc(nitems uint, size uint) uint {
	return h.calloc(nil, nitems, size)
}

// CallocFrom is the equivalent of Calloc constrained to a specific donated
// region.
func (h *Heap) CallocFrom(region Region, nitems uint, size uint) uint {
	return h.calloc(&region, nitems, size)
}

func (h *Heap) calloc(region *Region, nitems uint, size uint) uint {
	hi, total := bits.Mul(nitems, size)

	if hi != 0 {
		return 0
	}

	h.lock()
	ptr := h.alloc(region, total)
	h.unlock()

	if ptr != 0 {
		clear(mem(ptr, total))
	}

	return ptr
}
