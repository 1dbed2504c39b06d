package sources

import (
	"errors"

	"github.com/tarungka/wirerx/stream"
)

var (
	// ErrMissingConfig is returned by Init when a required config value is absent.
	ErrMissingConfig = errors.New("missing config values")
	// ErrUnknownType is returned by New for a type no creator is registered for.
	ErrUnknownType = errors.New("unknown source type")
)

// SourceConfig describes one configured source. Sources and sinks sharing a
// Key form one pipeline.
type SourceConfig struct {
	Name           string            `koanf:"name" json:"name"`
	ConnectionType string            `koanf:"type" json:"type"`
	Config         map[string]string `koanf:"config" json:"config"`
	Key            string            `koanf:"key" json:"key"`
}

// DataSource is a stream.Source that is built from a SourceConfig.
type DataSource interface {
	stream.Source

	// Parse and configure the Source
	Init(args SourceConfig) error

	// Get the key
	Key() (string, error)

	// Name of the Source
	Name() string

	// Info about the Source
	Info() string
}

// base carries the fields every source reads from its SourceConfig.
type base struct {
	pipelineKey            string
	pipelineName           string
	pipelineConnectionType string
}

func (b *base) init(args SourceConfig) {
	b.pipelineKey = args.Key
	b.pipelineName = args.Name
	b.pipelineConnectionType = args.ConnectionType
}

func (b *base) Key() (string, error) {
	if b.pipelineKey == "" {
		return "", errors.New("error no pipeline key is set")
	}
	return b.pipelineKey, nil
}

func (b *base) Name() string {
	return b.pipelineName
}

func (b *base) Info() string {
	return "Key:" + b.pipelineKey + "|Name:" + b.pipelineName + "|Type:" + b.pipelineConnectionType
}
