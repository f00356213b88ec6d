// First-fit memory allocator over donated regions
// https://github.com/usbarmory/heapmem
//
// Copyright (c) The HeapMem Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package heapmem

// insertFree places the block at addr on the free list, keeping the list
// sorted by address and merging contiguous neighbors. Region end sentinels
// have size zero and are never absorbed.
func (h *Heap) insertFree(addr uint) {
	if addr == 0 {
		return
	}

	// find the last free block with address lower than the new block
	prev := h.startAddr()

	for prev != 0 && blockAt(prev).next < addr {
		prev = blockAt(prev).next
	}

	if prev == 0 {
		return
	}

	if h.CleanMemory {
		clear(mem(addr+h.metaSize, blockAt(addr).size-h.metaSize))
	}

	pb := blockAt(prev)
	nb := blockAt(addr)

	// the previous block and the new one form one contiguous block, the
	// list head never merges as its size is zero
	if prev+pb.size == addr {
		pb.size += nb.size
		addr = prev
		nb = pb
	}

	// merge with the next free block when contiguous
	next := pb.next

	if next != 0 && blockAt(next).size > 0 && addr+nb.size == next {
		if next == h.endBlock {
			// never consume the final end sentinel
			nb.next = h.endBlock
		} else {
			nb.size += blockAt(next).size
			nb.next = blockAt(next).next
		}
	} else {
		nb.next = pb.next
	}

	if prev != addr {
		pb.next = addr
	}
}

// split carves a free tail off the block at addr when the difference to
// size can host a block of its own, the allocated flag is preserved. Blocks
// with a smaller difference are left oversized.
func (h *Heap) split(addr uint, size uint) bool {
	b := blockAt(addr)

	alloc := b.size&allocBit != 0
	blockSize := b.size &^ allocBit

	ok := false

	if blockSize-size >= h.metaSize {
		next := addr + size

		blockAt(next).size = blockSize - size
		b.size = size

		h.available += blockSize - size
		h.insertFree(next)

		ok = true
	}

	if alloc {
		setAlloc(addr)
	}

	return ok
}

// prevOf returns the last free block with address lower than addr along
// with its own predecessor on the free list.
func (h *Heap) prevOf(addr uint) (prevprev uint, prev uint) {
	prev = h.startAddr()

	for prev != 0 && blockAt(prev).next < addr {
		prevprev = prev
		prev = blockAt(prev).next
	}

	return
}
