package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarungka/wirerx/stream"
)

func TestWebSocketSinkBroadcast(t *testing.T) {
	sink, err := New(SinkConfig{Name: "live", ConnectionType: "websocket", Key: "k", Config: map[string]string{"addr": "127.0.0.1:0"}})
	require.NoError(t, err)
	ws := sink.(*WebSocketSink)

	in, err := ws.Open(context.Background())
	require.NoError(t, err)

	var conns []*websocket.Conn
	for i := 0; i < 2; i++ {
		conn, _, err := websocket.DefaultDialer.Dial("ws://"+ws.Addr()+"/stream", nil)
		require.NoError(t, err)
		defer conn.Close()
		conns = append(conns, conn)
	}
	require.Eventually(t, func() bool { return ws.Clients() == 2 }, 5*time.Second, 10*time.Millisecond)

	in <- stream.TimedValue[stream.Event]{Interval: 1000, Value: 1}
	in <- stream.TimedValue[stream.Event]{Interval: 2000, Value: "two"}
	close(in)
	require.NoError(t, ws.Close())

	for _, conn := range conns {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var got []map[string]interface{}
		for {
			var m map[string]interface{}
			if err := conn.ReadJSON(&m); err != nil {
				assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err)
				break
			}
			got = append(got, m)
		}
		assert.Equal(t, []map[string]interface{}{
			{"interval": float64(1000), "value": float64(1)},
			{"interval": float64(2000), "value": "two"},
		}, got)
	}
}

func TestWebSocketSinkConfig(t *testing.T) {
	_, err := New(SinkConfig{ConnectionType: "websocket"})
	assert.ErrorIs(t, err, ErrMissingConfig)

	ws := &WebSocketSink{}
	require.NoError(t, ws.Init(SinkConfig{Config: map[string]string{"addr": ":0", "path": "/live"}}))
	assert.Equal(t, "/live", ws.path)
	assert.Equal(t, ":0", ws.Addr())
	assert.Zero(t, ws.Clients())
	assert.NoError(t, ws.Close())
}
