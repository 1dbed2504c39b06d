package stream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  Event
	}{
		{name: "json_object", event: []byte(`{"a":1}`), want: json.RawMessage(`{"a":1}`)},
		{name: "json_number", event: []byte(`42`), want: json.RawMessage(`42`)},
		{name: "plain_bytes", event: []byte("hello"), want: "hello"},
		{name: "int", event: 7, want: 7},
		{name: "string", event: "x", want: "x"},
		{name: "nil", event: nil, want: nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, Normalize(test.event))
		})
	}
}
