// First-fit memory allocator over donated regions
// https://github.com/usbarmory/heapmem
//
// Copyright (c) The HeapMem Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package heapmem implements a lightweight dynamic memory allocator for
// environments where the platform does not provide a heap, such as bare metal
// targets or hosts simulating them.
//
// The application donates one or more contiguous memory regions at
// initialization (see Heap.Assign), the allocator then services variable
// sized allocation, reallocation and deallocation requests against those
// regions using a first-fit free list with boundary coalescing and in-place
// reallocation.
//
// Allocations are raw byte addresses (see Region), the application must
// guarantee that donated memory is never moved, reused or otherwise accessed
// by the runtime for the lifetime of the instance.
package heapmem

import (
	"unsafe"
)

// DefaultAlign is the alignment unit, in bytes, applied to addresses and
// block sizes when an instance does not set its own.
const DefaultAlign = 4

// Heap represents a single allocator instance, with its own donated regions,
// free list, optional lock and statistics.
//
// The zero value is an uninitialized instance ready for Assign. A Heap must
// not be copied after Assign.
type Heap struct {
	// NewMutex, when set before Assign, is invoked once to create the
	// instance lock. Assign fails when creation fails or when the
	// instance already holds a lock.
	NewMutex func() Mutex

	// CleanMemory zeroes user data whenever a block is placed on the
	// free list.
	CleanMemory bool

	// Align overrides DefaultAlign, it must be a power of two.
	Align uint

	mutex Mutex

	// permanent free list head, size zero, never allocated or merged
	start block

	// end sentinel of the last donated region
	endBlock uint

	align    uint
	metaSize uint

	available uint
	regions   []Region

	stats Stats
}

// default instance used by package level functions
var def Heap

// Default returns the global default allocator instance.
func Default() *Heap {
	return &def
}

// startAddr returns the address of the embedded free list head.
func (h *Heap) startAddr() uint {
	return uint(uintptr(unsafe.Pointer(&h.start)))
}

func (h *Heap) lock() {
	if h.mutex != nil {
		h.mutex.Acquire()
	}
}

func (h *Heap) unlock() {
	if h.mutex != nil {
		h.mutex.Release()
	}
}

// alignUp rounds n up to the instance alignment unit.
func (h *Heap) alignUp(n uint) uint {
	return (n + h.align - 1) &^ (h.align - 1)
}

// Free releases memory previously returned by one of the allocation
// functions, a zero address is a valid input. Addresses lacking a valid
// allocation mark are ignored.
func (h *Heap) Free(ptr uint) {
	h.lock()
	defer h.unlock()

	h.free(ptr)
}

// FreeSafe releases the memory pointed by the allocation address and clears
// it, preventing further use of the dangling address.
func (h *Heap) FreeSafe(ptr *uint) {
	if ptr == nil || *ptr == 0 {
		return
	}

	h.lock()
	h.free(*ptr)
	h.unlock()

	*ptr = 0
}

// Size returns the user visible size, in bytes, of the allocation at ptr,
// zero when ptr is not a valid allocation.
func (h *Heap) Size(ptr uint) uint {
	if ptr == 0 {
		return 0
	}

	h.lock()
	defer h.unlock()

	addr := ptr - h.metaSize

	if !isAlloc(addr) {
		return 0
	}

	return rawSize(addr) - h.metaSize
}

// Slice returns the allocation at ptr as a byte slice of its user visible
// size, nil when ptr is not a valid allocation.
func (h *Heap) Slice(ptr uint) []byte {
	size := h.Size(ptr)

	if size == 0 {
		return nil
	}

	return mem(ptr, size)
}

// Assign is the equivalent of Heap.Assign on the default instance.
func Assign(regions ...Region) int {
	return def.Assign(regions...)
}

// Alloc is the equivalent of Heap.Alloc on the default instance.
func Alloc(size uint) uint {
	return def.Alloc(size)
}

// Calloc is the equivalent of Heap.Calloc on the default instance.
func Calloc(nitems uint, size uint) uint {
	return def.Calloc(nitems, size)
}

// Realloc is the equivalent of Heap.Realloc on the default instance.
func Realloc(ptr uint, size uint) uint {
	return def.Realloc(ptr, size)
}

// ReallocSafe is the equivalent of Heap.ReallocSafe on the default instance.
func ReallocSafe(ptr *uint, size uint) bool {
	return def.ReallocSafe(ptr, size)
}

// Free is the equivalent of Heap.Free on the default instance.
func Free(ptr uint) {
	def.Free(ptr)
}

// FreeSafe is the equivalent of Heap.FreeSafe on the default instance.
func FreeSafe(ptr *uint) {
	def.FreeSafe(ptr)
}

// Size is the equivalent of Heap.Size on the default instance.
func Size(ptr uint) uint {
	return def.Size(ptr)
}

// GetStats is the equivalent of Heap.Stats on the default instance.
func GetStats() Stats {
	return def.Stats()
}
