package sinks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/rs/zerolog/log"
	"github.com/tarungka/wirerx/stream"
)

// ElasticSink indexes every value as one document.
type ElasticSink struct {
	base
	drain

	elasticCloudId  string
	elasticUrls     []string
	elasticApiKey   string
	elasticUsername string
	elasticPassword string
	elasticIndex    string

	client *elasticsearch.Client
}

var _ DataSink = (*ElasticSink)(nil)

func (e *ElasticSink) Init(args SinkConfig) error {
	e.init(args)

	e.elasticCloudId = args.Config["cloud_id"]
	e.elasticApiKey = args.Config["api_key"]
	e.elasticUsername = args.Config["username"]
	e.elasticPassword = args.Config["password"]
	e.elasticIndex = args.Config["index_name"]
	for _, u := range strings.Split(args.Config["url"], ",") {
		if u = strings.TrimSpace(u); u != "" {
			e.elasticUrls = append(e.elasticUrls, u)
		}
	}

	if e.elasticIndex == "" || (e.elasticCloudId == "" && len(e.elasticUrls) == 0) {
		log.Error().Str("name", args.Name).Msg("Error missing config values")
		return fmt.Errorf("elasticsearch sink needs index_name and url or cloud_id: %w", ErrMissingConfig)
	}
	return nil
}

func (e *ElasticSink) Open(ctx context.Context) (chan<- stream.Event, error) {
	log.Trace().Msg("Connecting to elasticsearch...")
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: e.elasticUrls,
		CloudID:   e.elasticCloudId,
		APIKey:    e.elasticApiKey,
		Username:  e.elasticUsername,
		Password:  e.elasticPassword,
	})
	if err != nil {
		log.Err(err).Msg("Error when creating an elasticsearch client!")
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	e.client = client
	return e.start(ctx, e.index), nil
}

func (e *ElasticSink) index(ctx context.Context, data []byte) error {
	req := esapi.IndexRequest{
		Index: e.elasticIndex,
		Body:  bytes.NewReader(data),
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index document: %s: %s", res.Status(), body)
	}
	_, _ = io.Copy(io.Discard, res.Body)
	log.Trace().Str("index", e.elasticIndex).Msg("Indexed document")
	return nil
}

func (e *ElasticSink) Close() error {
	log.Info().Msg("Closing Elasticsearch sink")
	return e.wait()
}
