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

	"github.com/usbarmory/heapmem/bits"
)

// block is the in-band header laid down at the start of every block. For a
// free block next holds the address of the following free block in address
// order (or zero past the last region), for an allocated block it holds
// allocMark. The most significant bit of size flags the block as allocated,
// the remaining bits hold the block size including the header itself.
type block struct {
	next uint
	size uint
}

const (
	// allocBitPos is the most significant bit of the size word
	allocBitPos = bits.UintSize - 1

	// allocMark is stamped in the next field of allocated blocks as a
	// weak validity check
	allocMark = 0xDEADBEEF
)

const allocBit = uint(1) << allocBitPos

// pointer converts a block address to a pointer suitable for header and
// data access.
func pointer(addr uint) unsafe.Pointer {
	var p unsafe.Pointer
	return unsafe.Add(p, addr)
}

// blockAt returns the header stored at addr.
func blockAt(addr uint) *block {
	return (*block)(pointer(addr))
}

// mem returns size bytes of memory starting at addr.
func mem(addr uint, size uint) []byte {
	return unsafe.Slice((*byte)(pointer(addr)), size)
}

// setAlloc marks the block at addr as allocated and in use.
func setAlloc(addr uint) {
	if addr == 0 {
		return
	}

	b := blockAt(addr)

	bits.Set(&b.size, allocBitPos)
	b.next = allocMark
}

// clearAlloc removes the allocated flag from the block at addr.
func clearAlloc(addr uint) {
	bits.Clear(&blockAt(addr).size, allocBitPos)
}

// isAlloc reports whether the block at addr carries a valid allocation mark.
func isAlloc(addr uint) bool {
	if addr == 0 {
		return false
	}

	b := blockAt(addr)

	return bits.Get(&b.size, allocBitPos) && b.next == allocMark
}

// rawSize returns the size of the block at addr with the allocated flag
// masked off.
func rawSize(addr uint) uint {
	return blockAt(addr).size &^ allocBit
}
