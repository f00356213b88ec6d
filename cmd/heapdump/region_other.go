// heapdump - allocator workload and block structure inspector
// https://github.com/usbarmory/heapmem
//
// Copyright (c) The HeapMem Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !linux && !darwin

package main

// donate falls back to runtime managed memory on hosts without anonymous
// mappings, the caller keeps the buffer alive for the process lifetime.
func donate(size int) ([]byte, error) {
	return make([]byte, size), nil
}
