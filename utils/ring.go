package utils

import (
	"iter"
)

// Ring is a fixed capacity queue that overwrites its oldest element once full.
type Ring[T any] struct {
	items []T
	head  int
	size  int
}

// NewRing returns a ring that holds at most capacity items. A capacity below one is raised to one.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Push appends an item, dropping the oldest one if the ring is full.
func (r *Ring[T]) Push(item T) {
	tail := (r.head + r.size) % len(r.items)
	r.items[tail] = item
	if r.size == len(r.items) {
		r.head = (r.head + 1) % len(r.items)
		return
	}
	r.size++
}

// Len returns the amount of items currently held.
func (r *Ring[T]) Len() int {
	return r.size
}

// Cap ...
func (r *Ring[T]) Cap() int {
	return len(r.items)
}

// Full returns true once the ring has wrapped around.
func (r *Ring[T]) Full() bool {
	return r.size == len(r.items)
}

// Last returns the most recently pushed item. ok is false if the ring is empty.
func (r *Ring[T]) Last() (item T, ok bool) {
	if r.size == 0 {
		return item, false
	}
	return r.items[(r.head+r.size-1)%len(r.items)], true
}

// Values iterates the items from oldest to newest.
func (r *Ring[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for index := range r.size {
			if !yield(r.items[(r.head+index)%len(r.items)]) {
				return
			}
		}
	}
}

// Reset empties the ring without releasing its storage.
func (r *Ring[T]) Reset() {
	clear(r.items)
	r.head, r.size = 0, 0
}
