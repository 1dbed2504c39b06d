package sinks

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/tarungka/wirerx/stream"
)

const (
	defaultStreamPath = "/stream"
	clientBuffer      = 256
	writeWait         = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketSink broadcasts every value as a JSON message to the clients
// connected to GET {path}. Clients only see values sent while connected and
// get a normal close frame when the pipeline ends. A client that falls more
// than clientBuffer values behind loses the values that do not fit.
type WebSocketSink struct {
	base

	addr string
	path string

	subject  *stream.PublishSubject[stream.Event]
	done     chan struct{}
	listener net.Listener
	server   *http.Server
}

var _ DataSink = (*WebSocketSink)(nil)

func (s *WebSocketSink) Init(args SinkConfig) error {
	s.init(args)

	if args.Config["addr"] == "" {
		log.Error().Str("name", args.Name).Msg("Missing addr in config")
		return fmt.Errorf("websocket sink needs addr: %w", ErrMissingConfig)
	}
	s.addr = args.Config["addr"]
	s.path = args.Config["path"]
	if s.path == "" {
		s.path = defaultStreamPath
	}
	s.subject = stream.NewPublishSubject[stream.Event]()
	return nil
}

// Addr is the address the sink listens on once opened.
func (s *WebSocketSink) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Clients returns the number of connected clients.
func (s *WebSocketSink) Clients() int {
	return s.subject.ObserverCount()
}

// Handler returns the routes of the sink.
func (s *WebSocketSink) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get(s.path, s.handleStream)
	return r
}

func (s *WebSocketSink) Open(ctx context.Context) (chan<- stream.Event, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.server = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: shutdownTimeout}
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Str("addr", s.Addr()).Msg("websocket sink stopped")
		}
	}()

	in := make(chan stream.Event)
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		for event := range in {
			s.subject.OnNext(event)
		}
		s.subject.OnCompleted()
	}()

	log.Info().Str("addr", s.Addr()).Str("path", s.path).Msg("websocket sink listening")
	return in, nil
}

func (s *WebSocketSink) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}
	defer conn.Close()

	msgs := make(chan stream.Event, clientBuffer)
	completed := make(chan struct{})
	sub := s.subject.Observable().Subscribe(stream.ObserverFuncs[stream.Event]{
		Next: func(event stream.Event) {
			select {
			case msgs <- event:
			default:
				log.Warn().Msg("WebSocket client too slow, dropping value")
			}
		},
		Completed: func() { close(completed) },
		Error:     func(error) { close(completed) },
	})
	defer sub.Unsubscribe()

	// The read loop notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event := <-msgs:
			if err := s.send(conn, event); err != nil {
				log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		case <-completed:
			for len(msgs) > 0 {
				if err := s.send(conn, <-msgs); err != nil {
					return
				}
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream completed"))
			return
		case <-gone:
			return
		}
	}
}

func (s *WebSocketSink) send(conn *websocket.Conn, event stream.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}

// Close waits for the values already handed over to be broadcast and stops
// the listener.
func (s *WebSocketSink) Close() error {
	log.Info().Msg("Closing websocket sink")
	if s.done != nil {
		<-s.done
	}
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown websocket sink: %w", err)
	}
	return nil
}
