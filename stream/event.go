package stream

import (
	"encoding/json"
)

// Event represents a data record flowing through a pipeline.
type Event interface{}

// Normalize turns raw payloads into values that encode cleanly: bytes holding
// valid JSON become a json.RawMessage, any other bytes become a string. Other
// events are returned unchanged.
func Normalize(event Event) Event {
	raw, ok := event.([]byte)
	if !ok {
		return event
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	return string(raw)
}
