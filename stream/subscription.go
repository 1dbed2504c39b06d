package stream

import (
	"sync"
	"sync/atomic"
)

// Subscription is the live binding between a stream and an observer.
type Subscription interface {
	// Unsubscribe stops the flow of notifications. Safe to call multiple times.
	Unsubscribe()
	// IsUnsubscribed reports whether Unsubscribe has been called.
	IsUnsubscribed() bool
}

// BooleanSubscription runs an optional action the first time it is unsubscribed.
type BooleanSubscription struct {
	unsubscribed atomic.Bool
	once         sync.Once
	action       func()
}

var _ Subscription = (*BooleanSubscription)(nil)

// NewSubscription creates a subscription that calls action exactly once, on the
// first Unsubscribe. action may be nil.
func NewSubscription(action func()) *BooleanSubscription {
	return &BooleanSubscription{action: action}
}

// Unsubscribe marks the subscription and runs the action.
func (s *BooleanSubscription) Unsubscribe() {
	s.unsubscribed.Store(true)
	s.once.Do(func() {
		if s.action != nil {
			s.action()
		}
	})
}

// IsUnsubscribed reports whether Unsubscribe has been called.
func (s *BooleanSubscription) IsUnsubscribed() bool {
	return s.unsubscribed.Load()
}

// EmptySubscription returns a subscription with nothing to release.
func EmptySubscription() Subscription {
	return NewSubscription(nil)
}
