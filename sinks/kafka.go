package sinks

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tarungka/wirerx/stream"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink produces every value as a record to one topic, keyed by the
// pipeline key. Values are JSON unless format is "msgpack".
type KafkaSink struct {
	base
	drain

	bootstrapServers []string
	topic            string

	kafkaProducerClient *kgo.Client
}

var _ DataSink = (*KafkaSink)(nil)

func (k *KafkaSink) Init(args SinkConfig) error {
	k.init(args)

	if args.Config["bootstrap_servers"] == "" || args.Config["topic"] == "" {
		log.Error().Str("name", args.Name).Msg("Error missing config values")
		return fmt.Errorf("kafka sink needs bootstrap_servers and topic: %w", ErrMissingConfig)
	}
	log.Debug().Str("bootstrap_servers", args.Config["bootstrap_servers"]).Str("topic", args.Config["topic"]).Send()

	for _, s := range strings.Split(args.Config["bootstrap_servers"], ",") {
		if s = strings.TrimSpace(s); s != "" {
			k.bootstrapServers = append(k.bootstrapServers, s)
		}
	}
	k.topic = args.Config["topic"]

	encode, err := encoderFor(args.Config["format"])
	if err != nil {
		return err
	}
	k.encode = encode
	return nil
}

func (k *KafkaSink) opts() []kgo.Opt {
	return []kgo.Opt{
		kgo.SeedBrokers(k.bootstrapServers...),
		kgo.DefaultProduceTopic(k.topic),
		kgo.AllowAutoTopicCreation(),
	}
}

func (k *KafkaSink) Open(ctx context.Context) (chan<- stream.Event, error) {
	log.Trace().Msg("Connecting to kafka cluster as a sink...")
	client, err := kgo.NewClient(k.opts()...)
	if err != nil {
		log.Err(err).Msg("Error when creating a kafka producer!")
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	k.kafkaProducerClient = client
	return k.start(ctx, k.produce), nil
}

// record builds the record for one encoded value.
func (k *KafkaSink) record(data []byte) *kgo.Record {
	r := &kgo.Record{Value: data}
	if k.pipelineKey != "" {
		r.Key = []byte(k.pipelineKey)
	}
	return r
}

// produce waits for the broker to acknowledge the record so that values are
// written in order.
func (k *KafkaSink) produce(ctx context.Context, data []byte) error {
	if err := k.kafkaProducerClient.ProduceSync(ctx, k.record(data)).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", k.topic, err)
	}
	log.Trace().Str("topic", k.topic).Msg("Successfully produced message")
	return nil
}

func (k *KafkaSink) Close() error {
	log.Info().Msg("Disconnecting kafka sink")
	err := k.wait()
	if k.kafkaProducerClient != nil {
		k.kafkaProducerClient.Close()
	}
	return err
}
