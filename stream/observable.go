package stream

// OnSubscribeFunc is invoked once per Subscribe call. It wires the observer to
// the underlying producer and returns the handle used to cancel it.
type OnSubscribeFunc[T any] func(observer Observer[T]) Subscription

// Observable is a push-based stream of values of type T. Every subscription is
// independent: the OnSubscribeFunc runs again for each observer.
type Observable[T any] struct {
	onSubscribe OnSubscribeFunc[T]
}

// Create returns an Observable backed by fn.
func Create[T any](fn OnSubscribeFunc[T]) *Observable[T] {
	if fn == nil {
		panic("stream: nil OnSubscribeFunc")
	}
	return &Observable[T]{onSubscribe: fn}
}

// Subscribe attaches observer to the stream. The returned subscription is never
// nil.
func (o *Observable[T]) Subscribe(observer Observer[T]) Subscription {
	if observer == nil {
		panic("stream: nil observer")
	}
	if sub := o.onSubscribe(observer); sub != nil {
		return sub
	}
	return EmptySubscription()
}

// FromSlice returns a cold Observable that emits values synchronously on the
// subscribing goroutine and then completes.
func FromSlice[T any](values ...T) *Observable[T] {
	return Create(func(observer Observer[T]) Subscription {
		for _, v := range values {
			observer.OnNext(v)
		}
		observer.OnCompleted()
		return EmptySubscription()
	})
}
