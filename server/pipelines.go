package server

import (
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/tarungka/wirerx/pipeline"
	"github.com/tarungka/wirerx/stream"
)

// Registry is the view of the running pipelines the server exposes.
type Registry interface {
	Stats() map[string]stream.PipelineStats
	Close(key string) (bool, error)
}

// PipelinesRouter serves the stats of the pipelines in registry and lets
// them be stopped.
func PipelinesRouter(registry Registry) chi.Router {
	router := chi.NewRouter()

	router.Get("/", listPipelines(registry))
	router.Get("/{key}", getPipeline(registry))
	router.Post("/{key}/stop", stopPipeline(registry))

	return router
}

func listPipelines(registry Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := registry.Stats()
		keys := make([]string, 0, len(stats))
		for k := range stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make([]PipelineModel, 0, len(keys))
		for _, k := range keys {
			out = append(out, PipelineModel{Key: k, Stats: stats[k]})
		}
		SendResponse(w, true, out, "")
	}
}

func getPipeline(registry Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		stats, exists := registry.Stats()[key]
		if !exists {
			SendResponseWithHeader(w, false, nil, "pipeline not found", http.StatusNotFound, nil)
			return
		}
		SendResponse(w, true, PipelineModel{Key: key, Stats: stats}, "")
	}
}

func stopPipeline(registry Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "key")
		stopped, err := registry.Close(key)
		if errors.Is(err, pipeline.ErrUnknownKey) {
			SendResponseWithHeader(w, false, nil, err.Error(), http.StatusNotFound, nil)
			return
		}
		if err != nil {
			log.Err(err).Str("key", key).Msg("Error when stopping pipeline")
			SendResponseWithHeader(w, false, nil, err.Error(), http.StatusInternalServerError, nil)
			return
		}
		SendResponse(w, true, StopPipelineModel{Key: key, Stopped: stopped}, "")
	}
}
