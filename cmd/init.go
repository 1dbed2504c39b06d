package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
)

const envPrefix = "WIRE_"

func newFlagSet() *flag.FlagSet {
	f := flag.NewFlagSet("config", flag.ContinueOnError)
	f.StringSlice("config", nil, "path to one or more config files (will be merged in order)")
	f.String("port", "8080", "port to host the web server on")
	f.String("log_level", "info", "trace, debug, info, warn or error")
	f.Bool("development", false, "human readable logs")
	f.String("log_file", "", "also write development logs to this file")
	f.Bool("version", false, "show current version of the build")
	return f
}

// initFlags loads, lowest precedence first, the flag defaults, the config
// files, WIRE_* environment variables and the flags given in args.
func initFlags(ko *koanf.Koanf, args []string) error {
	f := newFlagSet()
	if err := f.Parse(args); err != nil {
		return fmt.Errorf("error loading flags: %w", err)
	}
	log.Trace().Msg("No errors when parsing the flags")

	configs, _ := f.GetStringSlice("config")
	for _, path := range configs {
		log.Debug().Msgf("Reading config from %s", path)
		parser, err := parserFor(path)
		if err != nil {
			return err
		}
		if err := ko.Load(file.Provider(path), parser); err != nil {
			return fmt.Errorf("error reading config %s: %w", path, err)
		}
		log.Trace().Msg("Successfully read the contents of the config file")
	}

	if err := ko.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return fmt.Errorf("error reading environment: %w", err)
	}

	if err := ko.Load(posflag.Provider(f, ".", ko), nil); err != nil {
		return fmt.Errorf("error reading flag config: %w", err)
	}
	return nil
}

// envKey maps WIRE_LOG_LEVEL to log_level.
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, envPrefix))
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", path)
	}
}
