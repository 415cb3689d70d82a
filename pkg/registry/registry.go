// Package registry provides the flat key-indexed store behind the sample
// tree and helpers for dotted hierarchical keys.
package registry

import "sync"

// Separator joins the segments of a hierarchical key.
const Separator = "."

// Registry is an insertion-ordered map of values by full key.
// Entries are never removed one by one; Reset wipes the whole store.
type Registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

// NewRegistry creates a new empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		items: make(map[string]T),
	}
}

// Register stores v under key unless the key is taken.
// It returns the stored value and whether it was already present.
func (r *Registry[T]) Register(key string, v T) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.items[key]; ok {
		return existing, true
	}
	r.items[key] = v
	r.order = append(r.order, key)
	return v, false
}

// Find looks up a value by full key.
func (r *Registry[T]) Find(key string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[key]
	return v, ok
}

// Has reports whether key is registered.
func (r *Registry[T]) Has(key string) bool {
	_, ok := r.Find(key)
	return ok
}

// Len returns the number of registered keys.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Keys returns all keys in insertion order.
func (r *Registry[T]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Values returns all values in insertion order.
func (r *Registry[T]) Values() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.items[k])
	}
	return out
}

// All returns a copy of the key to value mapping.
func (r *Registry[T]) All() map[string]T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]T, len(r.items))
	for k, v := range r.items {
		out[k] = v
	}
	return out
}

// Reset removes every entry.
func (r *Registry[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]T)
	r.order = nil
}

// Join builds the full key of child under parent.
func Join(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + Separator + child
}
