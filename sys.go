// First-fit memory allocator over donated regions
// https://github.com/usbarmory/heapmem
//
// Copyright (c) The HeapMem Authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package heapmem

import (
	"sync"
)

// Mutex is the mutual exclusion capability an instance requires from the
// host when shared across threads of execution. Acquire blocks, without
// bound, until the lock is held. Both operations report success.
//
// Allocator operations must not be invoked from interrupt context, the
// capability assumes full thread level scheduling.
type Mutex interface {
	Acquire() bool
	Release() bool
}

// SystemMutex adapts sync.Mutex to the Mutex capability, it is the lock
// implementation for hosts running a full Go scheduler.
type SystemMutex struct {
	sync.Mutex
}

// NewSystemMutex creates a SystemMutex, it is meant to be used as a
// Heap.NewMutex factory.
func NewSystemMutex() Mutex {
	return &SystemMutex{}
}

// Acquire implements the Mutex interface.
func (m *SystemMutex) Acquire() bool {
	m.Lock()
	return true
}

// Release implements the Mutex interface.
func (m *SystemMutex) Release() bool {
	m.Unlock()
	return true
}
