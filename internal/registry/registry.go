// Package registry keeps one opened value per identity for the lifetime of
// the process.
package registry

import (
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Opener produces the value for an identity on first use.
type Opener[T any] func() (T, error)

// Registry maps identities to opened values. The zero value is ready to use.
//
// Concurrent opens of the same identity run the opener once and share its
// result. Opens of different identities proceed independently. A failed
// open is not remembered, so a later call retries.
type Registry[T any] struct {
	entries sync.Map // identity -> T
	sflight singleflight.Group
}

// Open returns the value registered for identity, opening it if needed.
func (r *Registry[T]) Open(identity string, open Opener[T]) (T, error) {
	if v, ok := r.entries.Load(identity); ok {
		return v.(T), nil
	}

	v, err, _ := r.sflight.Do(identity, func() (interface{}, error) {
		// another caller may have finished between Load and Do
		if v, ok := r.entries.Load(identity); ok {
			return v, nil
		}
		v, err := open()
		if err != nil {
			return nil, err
		}
		r.entries.Store(identity, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Lookup returns the value for identity without opening it.
func (r *Registry[T]) Lookup(identity string) (T, bool) {
	if v, ok := r.entries.Load(identity); ok {
		return v.(T), true
	}
	var zero T
	return zero, false
}

// Len returns the number of opened identities.
func (r *Registry[T]) Len() int {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Identities returns the opened identities in sorted order.
func (r *Registry[T]) Identities() []string {
	var ids []string
	r.entries.Range(func(k, _ any) bool {
		ids = append(ids, k.(string))
		return true
	})
	sort.Strings(ids)
	return ids
}
