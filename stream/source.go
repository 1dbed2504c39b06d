package stream

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Source is an interface for data sources.
type Source interface {
	// Open opens the source. The returned channel is closed by the source once
	// it has nothing more to emit.
	Open(ctx context.Context) (<-chan Event, error)
	// Close closes the source.
	Close() error
}

// FromSource returns an Observable over the events of src. Each subscription
// opens the source and delivers its events from a single goroutine, one at a
// time and in order.
//
// A failure to open the source is reported with OnError, the source closing its
// channel with OnCompleted and cancellation of ctx with OnError(ctx.Err()).
// Nothing is delivered after Unsubscribe.
func FromSource(ctx context.Context, src Source) *Observable[Event] {
	return Create(func(observer Observer[Event]) Subscription {
		ctx, cancel := context.WithCancel(ctx)
		events, err := src.Open(ctx)
		if err != nil {
			cancel()
			log.Err(err).Msg("failed to open source")
			observer.OnError(err)
			return EmptySubscription()
		}

		sub := NewSubscription(cancel)
		go func() {
			defer func() {
				cancel()
				if err := src.Close(); err != nil {
					log.Err(err).Msg("failed to close source")
				}
			}()
			for {
				select {
				case <-ctx.Done():
					if !sub.IsUnsubscribed() {
						log.Debug().Err(ctx.Err()).Msg("source context done")
						observer.OnError(ctx.Err())
					}
					return
				case event, ok := <-events:
					if !ok {
						if !sub.IsUnsubscribed() {
							observer.OnCompleted()
						}
						return
					}
					if sub.IsUnsubscribed() {
						return
					}
					observer.OnNext(event)
				}
			}
		}()
		return sub
	})
}

// NumberSource is a simple source that generates a stream of numbers.
type NumberSource struct {
	count int
	every time.Duration
}

var _ Source = (*NumberSource)(nil)

// NewNumberSource creates a NumberSource emitting 0 through count-1 with every
// between consecutive numbers. A zero every emits as fast as the consumer reads.
func NewNumberSource(count int, every time.Duration) *NumberSource {
	return &NumberSource{
		count: count,
		every: every,
	}
}

// Open opens the source.
func (s *NumberSource) Open(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event)
	go func() {
		defer close(out)
		for i := 0; i < s.count; i++ {
			if i > 0 && s.every > 0 {
				t := time.NewTimer(s.every)
				select {
				case <-t.C:
				case <-ctx.Done():
					t.Stop()
					return
				}
			}
			select {
			case out <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close closes the source.
func (s *NumberSource) Close() error {
	return nil
}
