// First-fit memory allocator over donated regions
// https://github.com/usbarmory/heapmem
//
// Copyright (c) The HeapMem Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package heapmem

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// DumpBlocks writes a table of all blocks within the donated regions,
// walking each region header by header regardless of free list membership.
// It is meant for development and tests.
func (h *Heap) DumpBlocks(w io.Writer) {
	h.lock()
	defer h.unlock()

	t := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintln(t, "Region\tAddress\tState\tSize\tUser size")

	for i, r := range h.regions {
		addr := r.Start

		for {
			size := rawSize(addr)

			state := "free"
			user := uint(0)

			switch {
			case size == 0:
				state = "end"
			case isAlloc(addr):
				state = "allocated"
				user = size - h.metaSize
			default:
				user = size - h.metaSize
			}

			fmt.Fprintf(t, "%d\t%#08x\t%s\t%d\t%d\n", i, addr, state, size, user)

			if size == 0 {
				break
			}

			addr += size
		}
	}

	t.Flush()
}
