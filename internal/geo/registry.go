package geo

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Registry lazily builds an Index from a Source exactly once, then serves it
// read-only. Reload swaps in a fresh Index atomically; readers holding the
// old Index keep a consistent view.
type Registry struct {
	source Source
	k      int

	once    sync.Once
	mu      sync.Mutex // serializes builds
	current atomic.Pointer[Index]
	initErr error
}

// NewRegistry creates a Registry. k is the default neighbor count for the Index.
func NewRegistry(source Source, k int) *Registry {
	return &Registry{source: source, k: k}
}

// Index returns the current Index, loading it on first use. Concurrent first
// callers block on the same load.
func (r *Registry) Index() (*Index, error) {
	r.once.Do(func() {
		r.initErr = r.Reload()
	})
	if ix := r.current.Load(); ix != nil {
		return ix, nil
	}
	return nil, r.initErr
}

// Reload rebuilds the Index from the source. On failure the previous Index
// stays in place and the error is returned.
func (r *Registry) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	locs, err := r.source.Load()
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	ix, err := NewIndex(locs, r.k)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	r.current.Store(ix)
	return nil
}
