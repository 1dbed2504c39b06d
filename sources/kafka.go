package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tarungka/wirerx/stream"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSource consumes the record values of one topic as raw events.
type KafkaSource struct {
	base

	bootstrapServers []string
	consumerGroup    string
	topic            string

	kafkaConsumerClient *kgo.Client
}

var _ DataSource = (*KafkaSource)(nil)

func (k *KafkaSource) Init(args SourceConfig) error {
	k.init(args)

	if args.Config["bootstrap_servers"] == "" || args.Config["group"] == "" || args.Config["topic"] == "" {
		log.Error().Str("name", args.Name).Msg("Error missing config values")
		return fmt.Errorf("kafka source needs bootstrap_servers, group and topic: %w", ErrMissingConfig)
	}
	log.Debug().Str("bootstrap_servers", args.Config["bootstrap_servers"]).Str("topic", args.Config["topic"]).Str("group", args.Config["group"]).Send()

	k.bootstrapServers = splitList(args.Config["bootstrap_servers"])
	k.consumerGroup = args.Config["group"]
	k.topic = args.Config["topic"]
	return nil
}

func (k *KafkaSource) opts() []kgo.Opt {
	return []kgo.Opt{
		kgo.SeedBrokers(k.bootstrapServers...),
		kgo.ConsumerGroup(k.consumerGroup),
		kgo.ConsumeTopics(k.topic),
		kgo.AllowAutoTopicCreation(),
	}
}

func (k *KafkaSource) Open(ctx context.Context) (<-chan stream.Event, error) {
	log.Trace().Msg("Connecting to kafka cluster as a source...")
	client, err := kgo.NewClient(k.opts()...)
	if err != nil {
		log.Err(err).Msg("Error when creating a kafka consumer!")
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	k.kafkaConsumerClient = client

	out := make(chan stream.Event)
	go k.read(ctx, out)
	return out, nil
}

// read forwards record values in poll order until the context ends or the
// client is closed.
func (k *KafkaSource) read(ctx context.Context, out chan<- stream.Event) {
	defer func() {
		log.Trace().Msg("Done Reading from the kafka source")
		close(out)
	}()

	var seen int
	for {
		fetches := k.kafkaConsumerClient.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		fetches.EachError(func(t string, p int32, err error) {
			log.Err(err).Str("topic", t).Int32("partition", p).Msg("fetch error")
		})

		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			seen++
			log.Trace().Int("seen", seen).Int64("offset", record.Offset).Msg("kafka record")
			select {
			case out <- record.Value:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (k *KafkaSource) Close() error {
	log.Trace().Msg("Disconnecting kafka source")
	if k.kafkaConsumerClient != nil {
		k.kafkaConsumerClient.Close()
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
