package stream

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// TimedValue pairs a value with the milliseconds elapsed since the previous
// value on the same subscription, or since the subscription started for the
// first value.
type TimedValue[T any] struct {
	Interval int64 `json:"interval" msgpack:"interval"`
	Value    T     `json:"value" msgpack:"value"`
}

// Duration returns the interval as a time.Duration.
func (tv TimedValue[T]) Duration() time.Duration {
	return time.Duration(tv.Interval) * time.Millisecond
}

func (tv TimedValue[T]) String() string {
	return fmt.Sprintf("TimedValue[interval=%d, value=%v]", tv.Interval, tv.Value)
}

// TimeIntervalStage decorates every value it receives with the time elapsed
// since the previous one and forwards it downstream.
//
// The stage does no locking. Notifications for one subscription must be
// delivered serially, each handler returning before the next call starts.
type TimeIntervalStage[T any] struct {
	downstream    Observer[TimedValue[T]]
	scheduler     Scheduler
	lastTimestamp int64
}

var _ Observer[int] = (*TimeIntervalStage[int])(nil)

// NewTimeIntervalStage binds a stage to downstream. The start of the first
// interval is read from scheduler here, so the stage must be created at the
// moment the subscription begins.
func NewTimeIntervalStage[T any](downstream Observer[TimedValue[T]], scheduler Scheduler) *TimeIntervalStage[T] {
	if downstream == nil {
		panic("stream: nil observer")
	}
	if scheduler == nil {
		panic("stream: nil scheduler")
	}
	return &TimeIntervalStage[T]{
		downstream:    downstream,
		scheduler:     scheduler,
		lastTimestamp: scheduler.Now(),
	}
}

// OnNext forwards value together with its interval.
func (s *TimeIntervalStage[T]) OnNext(value T) {
	now := s.scheduler.Now()
	s.downstream.OnNext(TimedValue[T]{Interval: now - s.lastTimestamp, Value: value})
	s.lastTimestamp = now
}

// OnCompleted forwards the completion.
func (s *TimeIntervalStage[T]) OnCompleted() {
	s.downstream.OnCompleted()
}

// OnError completes the downstream observer instead of failing it. Once values
// carry a derived interval an upstream failure is treated as the end of the
// stream.
func (s *TimeIntervalStage[T]) OnError(err error) {
	log.Trace().Err(err).Msg("time interval: upstream error completes the stream")
	s.downstream.OnCompleted()
}

// TimeInterval records the time between consecutive values of source using the
// system clock.
func TimeInterval[T any](source *Observable[T]) *Observable[TimedValue[T]] {
	return TimeIntervalOn(source, NewRealScheduler())
}

// TimeIntervalOn records the time between consecutive values of source using
// scheduler. Each subscription gets its own stage, so intervals never depend on
// another subscriber's history.
func TimeIntervalOn[T any](source *Observable[T], scheduler Scheduler) *Observable[TimedValue[T]] {
	if scheduler == nil {
		panic("stream: nil scheduler")
	}
	return Create(func(observer Observer[TimedValue[T]]) Subscription {
		return source.Subscribe(NewTimeIntervalStage[T](observer, scheduler))
	})
}
