package sinks

import (
	"errors"

	"github.com/tarungka/wirerx/stream"
)

var (
	// ErrMissingConfig is returned by Init when a required config value is absent.
	ErrMissingConfig = errors.New("missing config values")
	// ErrUnknownType is returned by New for a type no creator is registered for.
	ErrUnknownType = errors.New("unknown sink type")
)

// SinkConfig describes one configured sink. Sources and sinks sharing a Key
// form one pipeline.
type SinkConfig struct {
	Name           string            `koanf:"name" json:"name"`
	ConnectionType string            `koanf:"type" json:"type"`
	Config         map[string]string `koanf:"config" json:"config"`
	Key            string            `koanf:"key" json:"key"`
}

// DataSink is a stream.Sink that is built from a SinkConfig.
type DataSink interface {
	stream.Sink

	// Parse and configure the Sink
	Init(args SinkConfig) error

	// Get the key
	Key() (string, error)

	// Name of the Sink
	Name() string

	// Info about the Sink
	Info() string
}

type base struct {
	pipelineKey            string
	pipelineName           string
	pipelineConnectionType string
}

func (b *base) init(args SinkConfig) {
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

func (b *base) Name() string { return b.pipelineName }

func (b *base) Info() string {
	return "Key:" + b.pipelineKey + "|Name:" + b.pipelineName + "|Type:" + b.pipelineConnectionType
}
