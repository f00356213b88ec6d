// heapdump - allocator workload and block structure inspector
// https://github.com/usbarmory/heapmem
//
// Copyright (c) The HeapMem Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// heapdump donates host memory regions to an allocator instance, runs a
// random allocation workload against it and prints the resulting block
// structure and statistics.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sort"

	"github.com/usbarmory/heapmem"
)

var (
	regionCount = flag.Int("regions", 2, "number of donated regions")
	regionSize  = flag.Int("size", 4096, "size of each region in bytes")
	ops         = flag.Int("ops", 64, "number of random allocator operations")
	seed        = flag.Int64("seed", 1, "workload seed")
	clean       = flag.Bool("clean", false, "zero user memory on free")
)

func main() {
	flag.Parse()

	heap := &heapmem.Heap{
		NewMutex:    heapmem.NewSystemMutex,
		CleanMemory: *clean,
	}

	var bufs [][]byte
	var regions []heapmem.Region

	for i := 0; i < *regionCount; i++ {
		buf, err := donate(*regionSize)

		if err != nil {
			fmt.Fprintf(os.Stderr, "heapdump: could not donate region, %v\n", err)
			os.Exit(1)
		}

		bufs = append(bufs, buf)
		regions = append(regions, heapmem.NewRegion(buf))
	}

	// the allocator requires regions in increasing address order
	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Start < regions[j].Start
	})

	if n := heap.Assign(regions...); n == 0 {
		fmt.Fprintln(os.Stderr, "heapdump: could not assign regions")
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))

	var ptrs []uint

	for i := 0; i < *ops; i++ {
		switch rng.Intn(3) {
		case 0:
			if ptr := heap.Alloc(uint(8 + rng.Intn(128))); ptr != 0 {
				ptrs = append(ptrs, ptr)
			}
		case 1:
			if len(ptrs) > 0 {
				heap.ReallocSafe(&ptrs[rng.Intn(len(ptrs))], uint(8+rng.Intn(256)))
			}
		case 2:
			if len(ptrs) > 0 {
				n := rng.Intn(len(ptrs))

				heap.FreeSafe(&ptrs[n])
				ptrs = append(ptrs[:n], ptrs[n+1:]...)
			}
		}
	}

	heap.DumpBlocks(os.Stdout)

	s := heap.Stats()

	fmt.Printf("\ntotal:%d available:%d min:%d allocs:%d frees:%d outstanding:%d\n",
		s.Total, s.Available, s.MinAvailable, s.Allocs, s.Frees, len(ptrs))

	runtime.KeepAlive(bufs)
}
