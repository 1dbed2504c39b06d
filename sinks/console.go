package sinks

import (
	"fmt"
	"io"
	"os"

	"github.com/tarungka/wirerx/stream"
)

// ConsoleSink prints one JSON line per value to stdout or stderr.
type ConsoleSink struct {
	base
	*stream.WriterSink

	out io.Writer
}

var _ DataSink = (*ConsoleSink)(nil)

func (c *ConsoleSink) Init(args SinkConfig) error {
	c.init(args)

	switch args.Config["stream"] {
	case "", "stdout":
		c.out = os.Stdout
	case "stderr":
		c.out = os.Stderr
	default:
		return fmt.Errorf("invalid stream %q", args.Config["stream"])
	}
	c.WriterSink = stream.NewWriterSink(c.out)
	return nil
}
