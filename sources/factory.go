package sources

import (
	"fmt"
	"sort"
	"sync"
)

// SourceFactory creates sources based on configuration
type SourceFactory struct {
	mu       sync.RWMutex
	creators map[string]SourceCreator
}

// SourceCreator returns an uninitialized source of one type.
type SourceCreator func() DataSource

var defaultFactory = &SourceFactory{
	creators: make(map[string]SourceCreator),
}

func init() {
	RegisterSource("kafka", func() DataSource { return &KafkaSource{} })
	RegisterSource("http", func() DataSource { return &HTTPSource{} })
	RegisterSource("numbers", func() DataSource { return &NumbersSource{} })
}

// RegisterSource registers a new source type with the default factory. A later
// registration under the same name replaces the earlier one.
func RegisterSource(name string, creator SourceCreator) {
	defaultFactory.mu.Lock()
	defer defaultFactory.mu.Unlock()
	defaultFactory.creators[name] = creator
}

// Types lists the registered source types.
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

// New creates and initializes the source described by args.
func New(args SourceConfig) (DataSource, error) {
	defaultFactory.mu.RLock()
	creator, exists := defaultFactory.creators[args.ConnectionType]
	defaultFactory.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, args.ConnectionType)
	}

	source := creator()
	if err := source.Init(args); err != nil {
		return nil, fmt.Errorf("init %s source %q: %w", args.ConnectionType, args.Name, err)
	}
	return source, nil
}
