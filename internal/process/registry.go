// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// FFBridge - FFmpeg 进程编排与输出转发

package process

import (
	"sort"
	"sync"
)

// Handle names a tracked process. Handles are minted by the Registry and
// never reused, unlike OS process ids.
type Handle int64

// Registry maps handles to live processes. One Registry is created at
// startup and shared by everything that spawns or stops processes.
//
// The lock is only held for map access, never across a spawn, a read
// or a wait.
type Registry struct {
	mu    sync.Mutex
	next  Handle
	procs map[Handle]*ManagedProcess
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{procs: make(map[Handle]*ManagedProcess)}
}

// Register mints a new handle for p and stores it.
func (r *Registry) Register(p *ManagedProcess) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := r.next
	p.handle = h
	r.procs[h] = p
	return h
}

func (r *Registry) Get(h Handle) (*ManagedProcess, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.procs[h]
	return p, ok
}

func (r *Registry) Contains(h Handle) bool {
	_, ok := r.Get(h)
	return ok
}

// Remove deletes and returns the entry for h. Of several concurrent
// callers for the same handle exactly one gets the process.
func (r *Registry) Remove(h Handle) (*ManagedProcess, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.procs[h]
	if ok {
		delete(r.procs, h)
	}
	return p, ok
}

// removeIf deletes h only while it still maps to p.
func (r *Registry) removeIf(h Handle, p *ManagedProcess) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.procs[h]; ok && cur == p {
		delete(r.procs, h)
		return true
	}
	return false
}

// restore puts p back under h after a failed stop. It reports false when
// h is already taken again.
func (r *Registry) restore(h Handle, p *ManagedProcess) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.procs[h]; ok {
		return false
	}
	r.procs[h] = p
	return true
}

// List returns the tracked processes ordered by handle.
func (r *Registry) List() []*ManagedProcess {
	r.mu.Lock()
	out := make([]*ManagedProcess, 0, len(r.procs))
	for _, p := range r.procs {
		out = append(out, p)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].handle < out[j].handle })
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}
