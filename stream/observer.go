package stream

// Observer receives the notifications of a stream. A stream delivers any number
// of OnNext calls followed by at most one of OnCompleted or OnError; no
// notification follows a terminal one.
type Observer[T any] interface {
	// OnNext receives the next value of the stream.
	OnNext(value T)
	// OnCompleted signals that the stream ended normally.
	OnCompleted()
	// OnError signals that the stream ended with a failure.
	OnError(err error)
}

// ObserverFuncs adapts plain functions into an Observer. Nil funcs are no-ops.
type ObserverFuncs[T any] struct {
	Next      func(value T)
	Completed func()
	Error     func(err error)
}

var _ Observer[int] = ObserverFuncs[int]{}

// OnNext calls Next.
func (o ObserverFuncs[T]) OnNext(value T) {
	if o.Next != nil {
		o.Next(value)
	}
}

// OnCompleted calls Completed.
func (o ObserverFuncs[T]) OnCompleted() {
	if o.Completed != nil {
		o.Completed()
	}
}

// OnError calls Error.
func (o ObserverFuncs[T]) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}
