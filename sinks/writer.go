package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tarungka/wirerx/stream"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	formatJSON    = "json"
	formatMsgpack = "msgpack"
)

// writeFunc delivers one encoded event.
type writeFunc func(ctx context.Context, data []byte) error

type encodeFunc func(v any) ([]byte, error)

// encoderFor returns the encoder for the "format" config value.
func encoderFor(format string) (encodeFunc, error) {
	switch format {
	case "", formatJSON:
		return json.Marshal, nil
	case formatMsgpack:
		return marshalMsgpack, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// marshalMsgpack encodes v with raw JSON payloads decoded first, so they are
// written as msgpack maps and arrays rather than bin strings.
func marshalMsgpack(v any) ([]byte, error) {
	switch val := v.(type) {
	case stream.TimedValue[stream.Event]:
		decoded, err := decodeRawJSON(val.Value)
		if err != nil {
			return nil, err
		}
		val.Value = decoded
		v = val
	default:
		decoded, err := decodeRawJSON(v)
		if err != nil {
			return nil, err
		}
		v = decoded
	}
	return msgpack.Marshal(v)
}

func decodeRawJSON(v any) (any, error) {
	raw, ok := v.(json.RawMessage)
	if !ok {
		return v, nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode json payload: %w", err)
	}
	return decoded, nil
}

// drain runs write for every event sent on the channel it hands out, one at a
// time, until that channel is closed. Failures are logged and the first one
// is kept for wait.
type drain struct {
	encode encodeFunc

	done chan struct{}
	mu   sync.Mutex
	err  error
}

func (d *drain) start(ctx context.Context, write writeFunc) chan<- stream.Event {
	encode := d.encode
	if encode == nil {
		encode = json.Marshal
	}
	in := make(chan stream.Event)
	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		for event := range in {
			data, err := encode(event)
			if err != nil {
				log.Err(err).Msg("failed to encode event")
				d.setErr(err)
				continue
			}
			if err := write(ctx, data); err != nil {
				log.Err(err).Msg("failed to write event")
				d.setErr(err)
			}
		}
	}()
	return in
}

func (d *drain) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err == nil {
		d.err = err
	}
}

// wait blocks until the channel has been drained and returns the first error.
func (d *drain) wait() error {
	if d.done == nil {
		return nil
	}
	<-d.done
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}
