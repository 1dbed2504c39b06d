package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tarungka/wirerx/stream"
)

// Prints ten numbers, one every 250ms, each with the time since the previous
// one.
func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pipeline := stream.NewPipeline(
		stream.NewNumberSource(10, 250*time.Millisecond),
		stream.NewWriterSink(os.Stdout),
		stream.WithName("simple"),
	)
	if err := pipeline.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("pipeline failed")
	}

	stats := pipeline.Stats()
	log.Info().Uint64("emitted", stats.Emitted).Int64("last_interval_ms", stats.LastInterval).Msg("done")
}
