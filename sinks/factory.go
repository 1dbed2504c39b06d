package sinks

import (
	"fmt"
	"sort"
	"sync"
)

// SinkFactory creates sinks based on configuration
type SinkFactory struct {
	mu       sync.RWMutex
	creators map[string]SinkCreator
}

// SinkCreator returns an uninitialized sink of one type.
type SinkCreator func() DataSink

var defaultFactory = &SinkFactory{
	creators: make(map[string]SinkCreator),
}

func init() {
	RegisterSink("console", func() DataSink { return &ConsoleSink{} })
	RegisterSink("file", func() DataSink { return &FileSink{} })
	RegisterSink("kafka", func() DataSink { return &KafkaSink{} })
	RegisterSink("elasticsearch", func() DataSink { return &ElasticSink{} })
	RegisterSink("websocket", func() DataSink { return &WebSocketSink{} })
}

// RegisterSink registers a new sink type with the default factory.
func RegisterSink(name string, creator SinkCreator) {
	defaultFactory.mu.Lock()
	defer defaultFactory.mu.Unlock()
	defaultFactory.creators[name] = creator
}

// Types lists the registered sink types.
func Types() []string {
	defaultFactory.mu.RLock()
	defer defaultFactory.mu.RUnlock()
	types := make([]string, 0, len(defaultFactory.creators))
	for name := range defaultFactory.creators {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// New creates and initializes the sink described by args.
func New(args SinkConfig) (DataSink, error) {
	defaultFactory.mu.RLock()
	creator, exists := defaultFactory.creators[args.ConnectionType]
	defaultFactory.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, args.ConnectionType)
	}

	sink := creator()
	if err := sink.Init(args); err != nil {
		return nil, fmt.Errorf("init %s sink %q: %w", args.ConnectionType, args.Name, err)
	}
	return sink, nil
}
