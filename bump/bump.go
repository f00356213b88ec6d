// Forward-only memory allocator
// https://github.com/usbarmory/heapmem
//
// Copyright (c) The HeapMem Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package bump implements a trivial forward-only allocator over a single
// donated memory region, for hosts that allocate but never free. Memory
// grows upward gradually until the end of the region is reached, blocks
// carry no header and cannot be returned.
package bump

import (
	"math/bits"
	"unsafe"

	"github.com/usbarmory/heapmem"
)

// Heap is a bump allocator instance. The zero value is an uninitialized
// instance ready for Assign.
type Heap struct {
	// Align overrides heapmem.DefaultAlign, it must be a power of two.
	Align uint

	next      uint
	available uint
	align     uint
	assigned  bool
}

// Assign validates and installs the donated region. It returns 1 on
// success, zero when the region is invalid or the instance was assigned
// already.
func (h *Heap) Assign(r heapmem.Region) int {
	if h.assigned || r.Start == 0 || r.Size == 0 {
		return 0
	}

	align := h.Align

	if align == 0 {
		align = heapmem.DefaultAlign
	}

	if align&(align-1) != 0 {
		return 0
	}

	h.align = align

	addr := r.Start
	size := r.Size

	if pad := addr & (align - 1); pad != 0 {
		pad = align - pad

		if pad >= size {
			return 0
		}

		addr += pad
		size -= pad
	}

	size &^= align - 1

	if size == 0 {
		return 0
	}

	h.next = addr
	h.available = size
	h.assigned = true

	return 1
}

// Alloc allocates size bytes of memory and returns its address, zero is
// returned when the remaining region space cannot satisfy the request.
// Allocated memory can never be returned.
func (h *Heap) Alloc(size uint) uint {
	if !h.assigned || size == 0 {
		return 0
	}

	n := (size + h.align - 1) &^ (h.align - 1)

	if n < size || n > h.available {
		return 0
	}

	ptr := h.next

	h.next += n
	h.available -= n

	return ptr
}

// Calloc allocates zero initialized memory for nitems elements of size
// bytes each.
func (h *Heap) Calloc(nitems uint, size uint) uint {
	hi, total := bits.Mul(nitems, size)

	if hi != 0 {
		return 0
	}

	ptr := h.Alloc(total)

	if ptr != 0 {
		var p unsafe.Pointer
		clear(unsafe.Slice((*byte)(unsafe.Add(p, ptr)), total))
	}

	return ptr
}

// Available returns the remaining allocatable bytes.
func (h *Heap) Available() uint {
	return h.available
}
