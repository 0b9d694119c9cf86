// Package view keeps list loads for the same view in order: a newer load
// supersedes an older one, whose result is then dropped.
package view

import (
	"context"
	"errors"
	"sync"
)

var ErrSuperseded = errors.New("superseded by a newer load")

type slot struct {
	gen    uint64
	cancel context.CancelFunc
}

type Loader[T any] struct {
	mu    sync.Mutex
	slots map[string]*slot
}

func NewLoader[T any]() *Loader[T] {
	return &Loader[T]{slots: map[string]*slot{}}
}

// Load runs fetch for key. Starting another load for the same key cancels
// this one, and if this one still returns afterwards its result is discarded
// with ErrSuperseded. Only the newest load for a key ever yields a value.
func (l *Loader[T]) Load(ctx context.Context, key string, fetch func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{}
		l.slots[key] = s
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	l.mu.Unlock()

	v, err := fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if s.gen != gen {
		var zero T
		return zero, ErrSuperseded
	}
	if l.slots[key] == s {
		delete(l.slots, key)
	}
	return v, err
}

// Pending reports how many keys have a load in flight.
func (l *Loader[T]) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
