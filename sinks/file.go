package sinks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/tarungka/wirerx/stream"
)

// FileSink appends every value to a file, as JSON lines by default or as
// msgpack when format is "msgpack".
type FileSink struct {
	base
	drain

	filePath string
	format   string
	file     *os.File
}

var _ DataSink = (*FileSink)(nil)

func (f *FileSink) Init(args SinkConfig) error {
	f.init(args)

	if args.Config["file_path"] == "" {
		log.Error().Msg("Missing file_path in config")
		return fmt.Errorf("file sink needs file_path: %w", ErrMissingConfig)
	}
	f.filePath = args.Config["file_path"]

	encode, err := encoderFor(args.Config["format"])
	if err != nil {
		return err
	}
	f.encode = encode
	f.format = args.Config["format"]
	return nil
}

func (f *FileSink) Open(ctx context.Context) (chan<- stream.Event, error) {
	log.Trace().Str("file_path", f.filePath).Msg("Preparing to open file for writing")

	dir := filepath.Dir(f.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Err(err).Str("directory", dir).Msg("Failed to create parent directories")
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}

	if _, err := os.Stat(f.filePath); err == nil {
		log.Warn().Str("file_path", f.filePath).Msg("File already exists; appending to it")
	}

	file, err := os.OpenFile(f.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Err(err).Str("file_path", f.filePath).Msg("Failed to open file")
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	f.file = file

	return f.start(ctx, f.write), nil
}

// write appends data, one line per value for JSON. Msgpack values are
// self-delimiting and written back to back.
func (f *FileSink) write(_ context.Context, data []byte) error {
	if f.format != formatMsgpack {
		data = append(data, '\n')
	}
	_, err := f.file.Write(data)
	return err
}

func (f *FileSink) Close() error {
	log.Info().Str("file_path", f.filePath).Msg("Closing file sink")
	err := f.wait()
	if f.file != nil {
		if cerr := f.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
