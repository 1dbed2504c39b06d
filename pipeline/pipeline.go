package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tarungka/wirerx/sinks"
	"github.com/tarungka/wirerx/sources"
	"github.com/tarungka/wirerx/stream"
)

// ErrIncomplete is returned when a pipeline is run without a source or a sink.
var ErrIncomplete = errors.New("pipeline needs a source and a sink")

// DataPipeline is the source and sink sharing one key. Running it times every
// value of the source and writes the timed values to the sink.
type DataPipeline struct {
	Source sources.DataSource
	Sink   sinks.DataSink
	key    string

	opts []stream.PipelineOption

	mu      sync.Mutex
	runtime *stream.Pipeline
	cancel  context.CancelFunc
}

// Set the source of the data pipeline
func (d *DataPipeline) SetSource(source sources.DataSource) {
	log.Trace().Msgf("Setting source %s", source.Info())
	d.Source = source
}

// Set the sink of the data pipeline
func (d *DataPipeline) SetSink(sink sinks.DataSink) {
	log.Trace().Msgf("Setting sink %s", sink.Info())
	d.Sink = sink
}

// Key is the key shared by the source and the sink.
func (d *DataPipeline) Key() string { return d.key }

// Ready reports whether both ends are set.
func (d *DataPipeline) Ready() bool {
	return d.Source != nil && d.Sink != nil
}

// Shows the `source name` -> `sink name`
func (d *DataPipeline) Show() (string, error) {
	if !d.Ready() {
		return "", ErrIncomplete
	}
	return d.Source.Name() + " -> " + d.Sink.Name(), nil
}

// Run blocks until the source completes, fails or ctx is done.
func (d *DataPipeline) Run(ctx context.Context) error {
	name, err := d.Show()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := append([]stream.PipelineOption{stream.WithName(name)}, d.opts...)
	p := stream.NewPipeline(d.Source, d.Sink, opts...)

	d.mu.Lock()
	d.runtime = p
	d.cancel = cancel
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.cancel = nil
		d.mu.Unlock()
	}()

	log.Debug().Str("key", d.key).Msgf("Creating and running pipeline: %s", name)
	return p.Run(ctx)
}

// Stats returns the counters of the latest run.
func (d *DataPipeline) Stats() stream.PipelineStats {
	d.mu.Lock()
	p := d.runtime
	d.mu.Unlock()

	if p == nil {
		name, _ := d.Show()
		return stream.PipelineStats{Name: name}
	}
	return p.Stats()
}

// Close stops a running pipeline. It reports whether a run was stopped.
func (d *DataPipeline) Close() bool {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()

	if cancel == nil {
		return false
	}
	dpInfo, _ := d.Show()
	log.Info().Msgf("Closing data pipeline: %s", dpInfo)
	cancel()
	return true
}
