package sources

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tarungka/wirerx/stream"
)

const defaultNumbersCount = 10

// NumbersSource emits the numbers 0..count-1, spaced by every.
type NumbersSource struct {
	base
	*stream.NumberSource
}

var _ DataSource = (*NumbersSource)(nil)

func (n *NumbersSource) Init(args SourceConfig) error {
	n.init(args)

	count := defaultNumbersCount
	if v := args.Config["count"]; v != "" {
		c, err := strconv.Atoi(v)
		if err != nil || c < 0 {
			return fmt.Errorf("invalid count %q", v)
		}
		count = c
	}

	var every time.Duration
	if v := args.Config["every"]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid every %q: %w", v, err)
		}
		every = d
	}

	n.NumberSource = stream.NewNumberSource(count, every)
	return nil
}

func (n *NumbersSource) Open(ctx context.Context) (<-chan stream.Event, error) {
	if n.NumberSource == nil {
		return nil, fmt.Errorf("numbers source %q is not initialized", n.pipelineName)
	}
	return n.NumberSource.Open(ctx)
}
