package stream

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PublishSubject is a hot stream: values pushed into it are delivered to the
// observers subscribed at that moment. Observers that subscribe after the
// subject terminated receive the terminal notification straight away.
//
// Calls to OnNext, OnCompleted and OnError must be serialized by the caller.
type PublishSubject[T any] struct {
	mu         sync.RWMutex
	observers  []subjectObserver[T]
	terminated bool
	err        error
}

type subjectObserver[T any] struct {
	id       uuid.UUID
	observer Observer[T]
}

var _ Observer[int] = (*PublishSubject[int])(nil)

// NewPublishSubject creates an empty subject.
func NewPublishSubject[T any]() *PublishSubject[T] {
	return &PublishSubject[T]{}
}

// Observable exposes the subscribe side of the subject.
func (s *PublishSubject[T]) Observable() *Observable[T] {
	return Create(s.subscribe)
}

func (s *PublishSubject[T]) subscribe(observer Observer[T]) Subscription {
	s.mu.Lock()
	if s.terminated {
		err := s.err
		s.mu.Unlock()
		if err != nil {
			observer.OnError(err)
		} else {
			observer.OnCompleted()
		}
		return EmptySubscription()
	}
	id := uuid.New()
	s.observers = append(s.observers, subjectObserver[T]{id: id, observer: observer})
	s.mu.Unlock()

	log.Trace().Str("subscription", id.String()).Msg("subject: observer subscribed")
	return NewSubscription(func() { s.remove(id) })
}

func (s *PublishSubject[T]) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o.id == id {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			log.Trace().Str("subscription", id.String()).Msg("subject: observer unsubscribed")
			return
		}
	}
}

// snapshot copies the current observers so delivery can happen without the
// lock held; observers may unsubscribe from inside a handler.
func (s *PublishSubject[T]) snapshot() []subjectObserver[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.terminated {
		return nil
	}
	out := make([]subjectObserver[T], len(s.observers))
	copy(out, s.observers)
	return out
}

// terminate marks the subject done and hands back the observers to notify.
func (s *PublishSubject[T]) terminate(err error) []subjectObserver[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return nil
	}
	s.terminated = true
	s.err = err
	out := s.observers
	s.observers = nil
	return out
}

// OnNext pushes value to every current observer.
func (s *PublishSubject[T]) OnNext(value T) {
	for _, o := range s.snapshot() {
		o.observer.OnNext(value)
	}
}

// OnCompleted completes every current observer and terminates the subject.
func (s *PublishSubject[T]) OnCompleted() {
	for _, o := range s.terminate(nil) {
		o.observer.OnCompleted()
	}
}

// OnError fails every current observer and terminates the subject.
func (s *PublishSubject[T]) OnError(err error) {
	for _, o := range s.terminate(err) {
		o.observer.OnError(err)
	}
}

// HasObservers reports whether any observer is currently subscribed.
func (s *PublishSubject[T]) HasObservers() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers) > 0
}

// ObserverCount returns the number of subscribed observers.
func (s *PublishSubject[T]) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}
