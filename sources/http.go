package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/tarungka/wirerx/stream"
)

const (
	defaultEventsPath = "/events"
	maxEventBytes     = 1 << 20
	shutdownTimeout   = 5 * time.Second
)

// HTTPSource turns request bodies into events. POST {path} pushes one event,
// POST {path}/complete ends the stream.
type HTTPSource struct {
	base

	addr string
	path string

	// mu is held for reading while a handler sends, and for writing while
	// events is closed.
	mu       sync.RWMutex
	events   chan stream.Event
	done     chan struct{}
	finished sync.Once

	listener net.Listener
	server   *http.Server
}

var _ DataSource = (*HTTPSource)(nil)

func (h *HTTPSource) Init(args SourceConfig) error {
	h.init(args)

	if args.Config["addr"] == "" {
		log.Error().Str("name", args.Name).Msg("Missing addr in config")
		return fmt.Errorf("http source needs addr: %w", ErrMissingConfig)
	}
	h.addr = args.Config["addr"]
	h.path = args.Config["path"]
	if h.path == "" {
		h.path = defaultEventsPath
	}
	return nil
}

// Handler returns the routes of the source. It is only usable after Open.
func (h *HTTPSource) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post(h.path, h.handleEvent)
	r.Post(h.path+"/complete", h.handleComplete)
	return r
}

// Addr is the address the source listens on once opened.
func (h *HTTPSource) Addr() string {
	if h.listener == nil {
		return h.addr
	}
	return h.listener.Addr().String()
}

func (h *HTTPSource) Open(ctx context.Context) (<-chan stream.Event, error) {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", h.addr, err)
	}
	h.listener = ln
	h.events = make(chan stream.Event)
	h.done = make(chan struct{})
	h.server = &http.Server{Handler: h.Handler(), ReadHeaderTimeout: shutdownTimeout}

	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Str("addr", h.Addr()).Msg("http source stopped")
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
			h.finish()
		case <-h.done:
		}
	}()

	log.Info().Str("addr", h.Addr()).Str("path", h.path).Msg("http source listening")
	return h.events, nil
}

func (h *HTTPSource) handleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	// events is only closed after done, so checking done first keeps the send
	// below off a closed channel.
	select {
	case <-h.done:
		http.Error(w, "stream completed", http.StatusGone)
		return
	default:
	}
	select {
	case <-h.done:
		http.Error(w, "stream completed", http.StatusGone)
	case <-r.Context().Done():
	case h.events <- body:
		w.WriteHeader(http.StatusAccepted)
	}
}

func (h *HTTPSource) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.finish()
	w.WriteHeader(http.StatusAccepted)
}

// finish stops accepting events and closes the event channel once every
// in-flight send has returned.
func (h *HTTPSource) finish() {
	h.finished.Do(func() {
		close(h.done)
		h.mu.Lock()
		close(h.events)
		h.mu.Unlock()
	})
}

func (h *HTTPSource) Close() error {
	if h.server == nil {
		return nil
	}
	h.finish()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http source: %w", err)
	}
	return nil
}
