// heapdump - allocator workload and block structure inspector
// https://github.com/usbarmory/heapmem
//
// Copyright (c) The HeapMem Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build linux || darwin

package main

import (
	"golang.org/x/sys/unix"
)

// donate obtains a memory region outside the Go heap, mirroring targets
// where the application hands over memory the language runtime does not
// manage.
func donate(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
}
