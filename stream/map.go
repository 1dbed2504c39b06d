package stream

// MapFunction is a function that maps an event to another event.
type MapFunction func(event Event) Event

// Map returns an Observable that applies fn to every value of source. Terminal
// notifications pass through unchanged.
func Map[T, R any](source *Observable[T], fn func(T) R) *Observable[R] {
	if fn == nil {
		panic("stream: nil map function")
	}
	return Create(func(observer Observer[R]) Subscription {
		return source.Subscribe(&mapObserver[T, R]{downstream: observer, fn: fn})
	})
}

type mapObserver[T, R any] struct {
	downstream Observer[R]
	fn         func(T) R
}

func (m *mapObserver[T, R]) OnNext(value T) {
	m.downstream.OnNext(m.fn(value))
}

func (m *mapObserver[T, R]) OnCompleted() {
	m.downstream.OnCompleted()
}

func (m *mapObserver[T, R]) OnError(err error) {
	m.downstream.OnError(err)
}
