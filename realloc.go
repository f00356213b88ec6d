// First-fit memory allocator over donated regions
// https://github.com/usbarmory/heapmem
//
// Copyright (c) The HeapMem Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package heapmem

// realloc implements the in-place resize engine, the caller must hold the
// instance lock.
//
// A growing block is resized, in order of preference, by extending it into
// a contiguous trailing free block, by sliding it backward into a
// contiguous leading free block, by merging it with both neighbors at once,
// or by allocating a new block and copying the user data over.
func (h *Heap) realloc(region *Region, ptr uint, size uint) uint {
	if size == 0 {
		if ptr != 0 {
			h.free(ptr)
		}

		return 0
	}

	if ptr == 0 {
		return h.alloc(region, size)
	}

	final := h.alignUp(size) + h.metaSize

	if size&allocBit != 0 || final&allocBit != 0 {
		return 0
	}

	addr := ptr - h.metaSize

	if !isAlloc(addr) {
		return 0
	}

	b := blockAt(addr)
	blockSize := b.size &^ allocBit

	if blockSize == final {
		return ptr
	}

	if final < blockSize {
		// Shrink in place. When the difference can host a block of its
		// own a free tail is carved, otherwise a contiguous trailing
		// free block, when present, is shifted downward to absorb the
		// difference. With neither option the block stays oversized.
		if blockSize-final >= h.metaSize {
			h.split(addr, final)
		} else {
			_, prev := h.prevOf(addr)
			next := blockAt(prev).next

			if next != 0 && blockAt(next).size > 0 && addr+blockSize == next {
				diff := blockSize - final

				nextSize := blockAt(next).size
				nextNext := blockAt(next).next

				moved := next - diff

				movedBlock := blockAt(moved)
				movedBlock.size = nextSize + diff
				movedBlock.next = nextNext

				blockAt(prev).next = moved

				h.available += diff
				b.size = final
			}
		}

		setAlloc(addr)

		return ptr
	}

	// the block grows, locate the free blocks enclosing it
	prevprev, prev := h.prevOf(addr)
	next := blockAt(prev).next

	// extend into the contiguous trailing free block
	if next != 0 && blockAt(next).size > 0 && addr+blockSize == next &&
		blockSize+blockAt(next).size >= final {
		h.available -= blockAt(next).size

		b.size = blockSize + blockAt(next).size
		blockAt(prev).next = blockAt(next).next

		h.split(addr, final)
		setAlloc(addr)
		h.updateMinFree()

		return ptr
	}

	// slide backward into the contiguous leading free block, user data
	// moves down by the size of the leading block
	if prev+blockAt(prev).size == addr && blockAt(prev).size+blockSize >= final {
		copy(mem(prev+h.metaSize, blockSize-h.metaSize), mem(ptr, blockSize-h.metaSize))

		h.available -= blockAt(prev).size

		blockAt(prev).size += blockSize
		blockAt(prevprev).next = blockAt(prev).next

		h.split(prev, final)
		setAlloc(prev)
		h.updateMinFree()

		return prev + h.metaSize
	}

	// merge with both contiguous neighbors at once
	if next != 0 && blockAt(next).size > 0 &&
		prev+blockAt(prev).size == addr && addr+blockSize == next &&
		blockAt(prev).size+blockSize+blockAt(next).size >= final {
		copy(mem(prev+h.metaSize, blockSize-h.metaSize), mem(ptr, blockSize-h.metaSize))

		h.available -= blockAt(prev).size + blockAt(next).size

		blockAt(prev).size += blockSize + blockAt(next).size
		blockAt(prevprev).next = blockAt(next).next

		h.split(prev, final)
		setAlloc(prev)
		h.updateMinFree()

		return prev + h.metaSize
	}

	// no neighbor arrangement fits, allocate a new block and copy the
	// user data over, the original allocation is left untouched on
	// failure
	dst := h.alloc(region, size)

	if dst != 0 {
		userSize := (b.size &^ allocBit) - h.metaSize

		if size < userSize {
			userSize = size
		}

		copy(mem(dst, userSize), mem(ptr, userSize))
		h.free(ptr)
	}

	return dst
}

// Realloc resizes the allocation at ptr to size bytes and returns the
// address of the resized allocation, which changes only when the block had
// to move.
//
// A zero ptr is equivalent to Alloc, a zero size frees ptr and returns
// zero. On failure zero is returned and the original allocation is left
// untouched.
func (h *Heap) Realloc(ptr uint, size uint) uint {
	h.lock()
	defer h.unlock()

	return h.realloc(nil, ptr, size)
}

// ReallocFrom is the equivalent of Realloc with the copy fallback
// constrained to a specific donated region.
func (h *Heap) ReallocFrom(region Region, ptr uint, size uint) uint {
	h.lock()
	defer h.unlock()

	return h.realloc(&region, ptr, size)
}

// ReallocSafe reallocates through a pointer to the allocation address,
// updating it on success so that a dangling address is never left behind.
//
// A zero size frees the allocation and clears the address, reporting
// success. On failure the address is left untouched and the allocation
// remains valid.
func (h *Heap) ReallocSafe(ptr *uint, size uint) bool {
	return h.reallocSafe(nil, ptr, size)
}

// ReallocSafeFrom is the equivalent of ReallocSafe with the copy fallback
// constrained to a specific donated region.
func (h *Heap) ReallocSafeFrom(region Region, ptr *uint, size uint) bool {
	return h.reallocSafe(&region, ptr, size)
}

func (h *Heap) reallocSafe(region *Region, ptr *uint, size uint) bool {
	if ptr == nil {
		return false
	}

	h.lock()
	p := h.realloc(region, *ptr, size)
	h.unlock()

	if p != 0 {
		*ptr = p
		return true
	}

	if size == 0 {
		*ptr = 0
		return true
	}

	return false
}
