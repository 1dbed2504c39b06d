package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
	"github.com/tarungka/wirerx/internal/logger"
	"github.com/tarungka/wirerx/pipeline"
	"github.com/tarungka/wirerx/server"
	"gopkg.in/natefinch/lumberjack.v2"
)

var buildString = "unknown"

func main() {
	ko := koanf.New(".")
	if err := initFlags(ko, os.Args[1:]); err != nil {
		logger.AdHocLogger.Fatal().Err(err).Msg("Error when initializing the config!")
	}

	if ko.Bool("version") {
		fmt.Println(buildString)
		return
	}

	closeLog, err := setupLogging(ko)
	if err != nil {
		logger.AdHocLogger.Fatal().Err(err).Msg("Error when setting up logging")
	}
	defer closeLog()

	log.Info().Str("build", buildString).Msg("Starting the application")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := pipeline.GetPipelineInstance()
	if err := registry.Load(ko); err != nil {
		log.Fatal().Err(err).Msg("Error when reading config")
	}
	log.Debug().Msg(registry.Info())

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		if err := server.Run(ctx, ko, registry); err != nil {
			log.Err(err).Msg("Web server failed")
			stop()
		}
	}()

	if err := registry.Run(ctx); err != nil {
		log.Err(err).Msg("Pipelines finished with errors")
	} else {
		log.Info().Msg("All pipelines finished")
	}

	<-ctx.Done()
	log.Info().Msg("received interrupt signal; shutting down")
	<-serverDone
}

// setupLogging replaces the global logger with the service logger and
// applies the configured level. log_file is rotated at 100MB.
func setupLogging(ko *koanf.Koanf) (func(), error) {
	closeLog := func() {}
	logger.SetDevelopment(ko.Bool("development"))
	if path := ko.String("log_file"); path != "" {
		f := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		logger.SetLogFile(f)
		closeLog = func() { f.Close() }
	}
	log.Logger = logger.GetLogger("wire")
	if err := logger.SetLevel(ko.String("log_level")); err != nil {
		closeLog()
		return nil, err
	}
	return closeLog, nil
}
