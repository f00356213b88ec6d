// First-fit memory allocator over donated regions
// https://github.com/usbarmory/heapmem
//
// Copyright (c) The HeapMem Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package heapmem

// Stats holds the allocation statistics of an instance.
type Stats struct {
	// Total is the combined usable size, in bytes, of all donated
	// regions.
	Total uint

	// Available is the memory currently available for allocation,
	// including the header of each free block.
	Available uint

	// MinAvailable is the lowest value Available has ever reached.
	MinAvailable uint

	// Allocs counts successful allocations.
	Allocs uint

	// Frees counts successful frees.
	Frees uint
}

// Stats returns a snapshot of the instance statistics.
func (h *Heap) Stats() Stats {
	h.lock()
	defer h.unlock()

	s := h.stats
	s.Available = h.available

	return s
}

// updateMinFree records a new floor after an operation with a net decrease
// of available memory.
func (h *Heap) updateMinFree() {
	if h.available < h.stats.MinAvailable {
		h.stats.MinAvailable = h.available
	}
}
