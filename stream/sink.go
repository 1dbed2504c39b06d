package stream

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
)

// Sink is an interface for data sinks.
type Sink interface {
	// Open opens the sink. The caller owns the returned channel and closes it
	// once it has nothing more to write.
	Open(ctx context.Context) (chan<- Event, error)
	// Close waits for the events already handed to the sink to be written and
	// releases its resources.
	Close() error
}

// WriterSink writes every event as one JSON line to an io.Writer.
type WriterSink struct {
	w    io.Writer
	done chan struct{}
	mu   sync.Mutex
	err  error
}

var _ Sink = (*WriterSink)(nil)

// NewWriterSink creates a WriterSink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Open opens the sink.
func (s *WriterSink) Open(ctx context.Context) (chan<- Event, error) {
	in := make(chan Event)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		enc := json.NewEncoder(s.w)
		for event := range in {
			if err := enc.Encode(event); err != nil {
				log.Err(err).Msg("failed to write event")
				s.setErr(err)
			}
		}
	}()
	return in, nil
}

func (s *WriterSink) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Close waits for pending events and returns the first write error, if any.
func (s *WriterSink) Close() error {
	if s.done != nil {
		<-s.done
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
