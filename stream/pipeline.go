package stream

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// ErrPipelineRunning is returned by Run when the pipeline is already running.
var ErrPipelineRunning = errors.New("pipeline is already running")

// PipelineStats is a point in time view of a pipeline.
type PipelineStats struct {
	Name         string `json:"name"`
	Emitted      uint64 `json:"emitted"`
	LastInterval int64  `json:"last_interval_ms"`
	Running      bool   `json:"running"`
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithName names the pipeline in logs and stats.
func WithName(name string) PipelineOption {
	return func(p *Pipeline) {
		p.name = name
	}
}

// WithScheduler sets the clock used to measure intervals.
func WithScheduler(s Scheduler) PipelineOption {
	return func(p *Pipeline) {
		p.scheduler = s
	}
}

// WithTransform replaces the function applied to events before they are timed.
// The default is Normalize.
func WithTransform(fn MapFunction) PipelineOption {
	return func(p *Pipeline) {
		p.transform = fn
	}
}

// Pipeline moves the events of a source through the time interval stage into a
// sink, so the sink receives TimedValue[Event] values.
type Pipeline struct {
	name      string
	source    Source
	sink      Sink
	scheduler Scheduler
	transform MapFunction

	running      atomic.Bool
	emitted      atomic.Uint64
	lastInterval atomic.Int64
}

// NewPipeline creates a new Pipeline.
func NewPipeline(source Source, sink Sink, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		name:      "pipeline",
		source:    source,
		sink:      sink,
		transform: Normalize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.scheduler == nil {
		p.scheduler = NewRealScheduler()
	}
	return p
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// Run opens the sink, subscribes to the source and blocks until the timed
// stream terminates, either because the source is exhausted or failed or
// because ctx was cancelled. The sink is drained and closed before Run returns.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrPipelineRunning
	}
	defer p.running.Store(false)

	logger := log.With().Str("pipeline", p.name).Logger()

	in, err := p.sink.Open(ctx)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}

	done := make(chan struct{})
	values := Map[Event, Event](FromSource(ctx, p.source), p.transform)
	sub := TimeIntervalOn(values, p.scheduler).Subscribe(ObserverFuncs[TimedValue[Event]]{
		Next: func(tv TimedValue[Event]) {
			select {
			case in <- tv:
				p.emitted.Add(1)
				p.lastInterval.Store(tv.Interval)
			case <-ctx.Done():
			}
		},
		Completed: func() { close(done) },
		Error:     func(error) { close(done) },
	})
	logger.Info().Msg("pipeline running")

	<-done
	sub.Unsubscribe()
	close(in)

	if err := p.sink.Close(); err != nil {
		return fmt.Errorf("close sink: %w", err)
	}
	logger.Info().Uint64("emitted", p.emitted.Load()).Msg("pipeline finished")
	return nil
}

// Stats returns the current counters of the pipeline.
func (p *Pipeline) Stats() PipelineStats {
	return PipelineStats{
		Name:         p.name,
		Emitted:      p.emitted.Load(),
		LastInterval: p.lastInterval.Load(),
		Running:      p.running.Load(),
	}
}
