// Package stream provides a single-value publish/subscribe cell: one current
// value, replaced wholesale on every publish, with any number of subscribers
// notified of each replacement.
package stream

import "sync"

// Value holds one current value of type T. Writers must treat T as
// immutable and publish a fresh value on every change; readers then never
// observe a partially-updated collection.
type Value[T any] struct {
	mu   sync.RWMutex
	cur  T
	subs map[int]chan T
	next int
}

// NewValue creates a cell seeded with initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[int]chan T),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cur
}

// Set replaces the current value and notifies every subscriber. A slow
// subscriber has its pending notification replaced rather than blocking the
// publisher.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cur = val
	for _, ch := range v.subs {
		select {
		case ch <- val:
		default:
			// drop the stale pending value, deliver the latest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- val:
			default:
			}
		}
	}
}

// Update applies fn to the current value under the write lock and publishes
// the result. fn must return a new value, not mutate its argument.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	val := fn(v.cur)
	v.cur = val
	subs := make([]chan T, 0, len(v.subs))
	for _, ch := range v.subs {
		subs = append(subs, ch)
	}
	v.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- val:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- val:
			default:
			}
		}
	}
	return val
}

// Subscribe registers a listener. The returned channel receives every
// published value starting with the current one; the cancel func must be
// called when the subscriber goes away.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	id := v.next
	v.next++
	ch := make(chan T, 1)
	ch <- v.cur
	v.subs[id] = ch
	v.mu.Unlock()

	cancel := func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
	return ch, cancel
}
