package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
	"github.com/tarungka/wirerx/sinks"
	"github.com/tarungka/wirerx/sources"
	"github.com/tarungka/wirerx/stream"
)

// ErrUnknownKey is returned for a key no source or sink was added under.
var ErrUnknownKey = errors.New("key does not exist")

// DataPipelineConfig pairs the configured sources and sinks by key.
type DataPipelineConfig struct {
	mu sync.RWMutex

	allSourceInterfaces []sources.DataSource
	allSinkInterfaces   []sinks.DataSink
	mappedDataPipelines map[string]*DataPipeline // Mapping of {key: DataPipeline}

	opts []stream.PipelineOption
}

var (
	pipelineInstance *DataPipelineConfig
	once             sync.Once
)

// GetPipelineInstance returns the process wide registry.
func GetPipelineInstance() *DataPipelineConfig {
	once.Do(func() {
		pipelineInstance = &DataPipelineConfig{}
	})
	return pipelineInstance
}

// SetOptions sets the options every pipeline started afterwards is built with.
func (p *DataPipelineConfig) SetOptions(opts ...stream.PipelineOption) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts = opts
}

// ParseConfig reads the "sources" and "sinks" lists.
func (p *DataPipelineConfig) ParseConfig(ko *koanf.Koanf) ([]sources.SourceConfig, []sinks.SinkConfig, error) {
	var allSourcesConfig []sources.SourceConfig
	var allSinksConfig []sinks.SinkConfig

	if err := ko.Unmarshal("sources", &allSourcesConfig); err != nil {
		log.Err(err).Msg("Error when un-marshaling sources")
		return nil, nil, fmt.Errorf("parse sources: %w", err)
	}
	if err := ko.Unmarshal("sinks", &allSinksConfig); err != nil {
		log.Err(err).Msg("Error when un-marshaling sinks")
		return nil, nil, fmt.Errorf("parse sinks: %w", err)
	}

	return allSourcesConfig, allSinksConfig, nil
}

// Load parses ko and adds every source and sink it names. It stops at the
// first one that cannot be created.
func (p *DataPipelineConfig) Load(ko *koanf.Koanf) error {
	allSourcesConfig, allSinksConfig, err := p.ParseConfig(ko)
	if err != nil {
		return err
	}
	for _, sourceConfig := range allSourcesConfig {
		if err := p.AddSource(sourceConfig); err != nil {
			return err
		}
	}
	for _, sinkConfig := range allSinksConfig {
		if err := p.AddSink(sinkConfig); err != nil {
			return err
		}
	}
	return nil
}

// pipelineFor returns the pipeline for key, creating it. Callers hold mu.
func (p *DataPipelineConfig) pipelineFor(key string) *DataPipeline {
	if p.mappedDataPipelines == nil {
		p.mappedDataPipelines = make(map[string]*DataPipeline)
	}
	dp, exists := p.mappedDataPipelines[key]
	if !exists {
		log.Debug().Msgf("Mapped key(%s) does NOT exists, creating it", key)
		dp = &DataPipeline{key: key}
		p.mappedDataPipelines[key] = dp
	}
	return dp
}

// AddSource creates the source described by src and maps it to its key. A
// later source with the same key replaces the earlier one.
func (p *DataPipelineConfig) AddSource(src sources.SourceConfig) error {
	log.Trace().Msg("Creating a source")

	source, err := sources.New(src)
	if err != nil {
		log.Err(err).Msg("Error when creation Data Source Object")
		return err
	}
	key, err := source.Key()
	if err != nil {
		return fmt.Errorf("source %q: %w", src.Name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.allSourceInterfaces = append(p.allSourceInterfaces, source)
	dp := p.pipelineFor(key)
	if dp.Source != nil {
		log.Warn().Str("key", key).Msgf("Replacing source %s", dp.Source.Name())
	}
	dp.SetSource(source)
	return nil
}

// AddSink creates the sink described by snk and maps it to its key. A later
// sink with the same key replaces the earlier one.
func (p *DataPipelineConfig) AddSink(snk sinks.SinkConfig) error {
	log.Trace().Msg("Creating a sink")

	sink, err := sinks.New(snk)
	if err != nil {
		log.Err(err).Msg("Error when creation Data Sink Object")
		return err
	}
	key, err := sink.Key()
	if err != nil {
		return fmt.Errorf("sink %q: %w", snk.Name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.allSinkInterfaces = append(p.allSinkInterfaces, sink)
	dp := p.pipelineFor(key)
	if dp.Sink != nil {
		log.Warn().Str("key", key).Msgf("Replacing sink %s", dp.Sink.Name())
	}
	dp.SetSink(sink)
	return nil
}

// GetMappedPipelines returns the pipelines by key and whether any exist.
func (p *DataPipelineConfig) GetMappedPipelines() (map[string]*DataPipeline, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	mapped := make(map[string]*DataPipeline, len(p.mappedDataPipelines))
	for k, v := range p.mappedDataPipelines {
		mapped[k] = v
	}
	return mapped, len(mapped) > 0
}

// Keys returns the known keys in order.
func (p *DataPipelineConfig) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.mappedDataPipelines))
	for k := range p.mappedDataPipelines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Run runs every pipeline that has both a source and a sink and waits for
// all of them. Incomplete pipelines are skipped with a warning.
func (p *DataPipelineConfig) Run(ctx context.Context) error {
	mapped, exists := p.GetMappedPipelines()
	if !exists {
		log.Debug().Msg("No data pipelines exist")
		return nil
	}

	p.mu.RLock()
	opts := p.opts
	p.mu.RUnlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for key, dp := range mapped {
		if !dp.Ready() {
			log.Warn().Str("key", key).Msg("Skipping pipeline without a source or a sink")
			continue
		}
		dp.opts = opts

		wg.Add(1)
		go func(key string, dp *DataPipeline) {
			defer wg.Done()
			if err := dp.Run(ctx); err != nil {
				log.Err(err).Str("key", key).Msg("Pipeline failed")
				mu.Lock()
				errs = append(errs, fmt.Errorf("pipeline %s: %w", key, err))
				mu.Unlock()
			}
		}(key, dp)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Stats returns the stats of every pipeline by key.
func (p *DataPipelineConfig) Stats() map[string]stream.PipelineStats {
	mapped, _ := p.GetMappedPipelines()
	stats := make(map[string]stream.PipelineStats, len(mapped))
	for key, dp := range mapped {
		stats[key] = dp.Stats()
	}
	return stats
}

// Close stops the pipeline running under key.
func (p *DataPipelineConfig) Close(key string) (bool, error) {
	p.mu.RLock()
	dp, exists := p.mappedDataPipelines[key]
	p.mu.RUnlock()

	if !exists {
		return false, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return dp.Close(), nil
}

// Info describes the registered sources, sinks and their pairing.
func (p *DataPipelineConfig) Info() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Sources\n")
	for _, src := range p.allSourceInterfaces {
		b.WriteString(src.Info() + "\n")
	}
	b.WriteString("Sinks\n")
	for _, snk := range p.allSinkInterfaces {
		b.WriteString(snk.Info() + "\n")
	}
	b.WriteString("Pipelines\n")
	keys := make([]string, 0, len(p.mappedDataPipelines))
	for k := range p.mappedDataPipelines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		show, err := p.mappedDataPipelines[k].Show()
		if err != nil {
			show = err.Error()
		}
		fmt.Fprintf(&b, "%s| %s\n", k, show)
	}
	return b.String()
}
