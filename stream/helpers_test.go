package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"
)

// mockObserver records every notification through testify's mock so the call
// order can be checked afterwards.
type mockObserver[T any] struct {
	mock.Mock
}

func (m *mockObserver[T]) OnNext(value T) {
	m.MethodCalled("OnNext", value)
}

func (m *mockObserver[T]) OnCompleted() {
	m.MethodCalled("OnCompleted")
}

func (m *mockObserver[T]) OnError(err error) {
	m.MethodCalled("OnError", err)
}

// recorder is a goroutine safe observer used where delivery is asynchronous.
type recorder[T any] struct {
	mu        sync.Mutex
	values    []T
	completed int
	errs      []error
	done      chan struct{}
	once      sync.Once
}

func newRecorder[T any]() *recorder[T] {
	return &recorder[T]{done: make(chan struct{})}
}

func (r *recorder[T]) OnNext(value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, value)
}

func (r *recorder[T]) OnCompleted() {
	r.mu.Lock()
	r.completed++
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

func (r *recorder[T]) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.once.Do(func() { close(r.done) })
}

func (r *recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

func (r *recorder[T]) Completed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

func (r *recorder[T]) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// sliceSource emits a fixed list of events and closes its channel.
type sliceSource struct {
	events []Event
	closed atomic.Bool
}

func (s *sliceSource) Open(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event)
	go func() {
		defer close(out)
		for _, e := range s.events {
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *sliceSource) Close() error {
	s.closed.Store(true)
	return nil
}

// blockingSource opens a channel that never yields anything.
type blockingSource struct {
	closed atomic.Bool
}

func (s *blockingSource) Open(ctx context.Context) (<-chan Event, error) {
	return make(chan Event), nil
}

func (s *blockingSource) Close() error {
	s.closed.Store(true)
	return nil
}

// failingSource cannot be opened.
type failingSource struct {
	err error
}

func (s *failingSource) Open(ctx context.Context) (<-chan Event, error) {
	return nil, s.err
}

func (s *failingSource) Close() error {
	return nil
}
