package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tarungka/wirerx/pipeline"
	"github.com/tarungka/wirerx/stream"
)

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) Stats() map[string]stream.PipelineStats {
	args := m.Called()
	return args.Get(0).(map[string]stream.PipelineStats)
}

func (m *mockRegistry) Close(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func do(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, ResponseModel) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var resp ResponseModel
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	rec, _ := do(t, Router(&mockRegistry{}), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListPipelines(t *testing.T) {
	registry := &mockRegistry{}
	registry.On("Stats").Return(map[string]stream.PipelineStats{
		"b": {Name: "two -> fb", Emitted: 2},
		"a": {Name: "three -> fa", Emitted: 3, LastInterval: 1000, Running: true},
	})

	rec, _ := do(t, Router(registry), http.MethodGet, "/pipelines")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[
		{"key":"a","stats":{"name":"three -> fa","emitted":3,"last_interval_ms":1000,"running":true}},
		{"key":"b","stats":{"name":"two -> fb","emitted":2,"last_interval_ms":0,"running":false}}
	]}`, rec.Body.String())
	registry.AssertExpectations(t)
}

func TestGetPipeline(t *testing.T) {
	registry := &mockRegistry{}
	registry.On("Stats").Return(map[string]stream.PipelineStats{"a": {Name: "n -> f", Emitted: 1}})
	h := Router(registry)

	rec, resp := do(t, h, http.MethodGet, "/pipelines/a")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	rec, resp = do(t, h, http.MethodGet, "/pipelines/zzz")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "pipeline not found", resp.Error)
}

func TestStopPipeline(t *testing.T) {
	registry := &mockRegistry{}
	registry.On("Close", "a").Return(true, nil)
	registry.On("Close", "zzz").Return(false, fmt.Errorf("%w: zzz", pipeline.ErrUnknownKey))
	registry.On("Close", "bad").Return(false, fmt.Errorf("boom"))
	h := Router(registry)

	rec, resp := do(t, h, http.MethodPost, "/pipelines/a/stop")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"key": "a", "stopped": true}, resp.Data)

	rec, _ = do(t, h, http.MethodPost, "/pipelines/zzz/stop")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp = do(t, h, http.MethodPost, "/pipelines/bad/stop")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "boom", resp.Error)
	registry.AssertExpectations(t)
}

func TestMetrics(t *testing.T) {
	registry := &mockRegistry{}
	registry.On("Stats").Return(map[string]stream.PipelineStats{
		"a": {Name: "three -> fa", Emitted: 3, LastInterval: 1000, Running: true},
	})

	rec := httptest.NewRecorder()
	Router(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `wire_pipeline_values_emitted_total{key="a",name="three -> fa"} 3`)
	assert.Contains(t, body, `wire_pipeline_last_interval_milliseconds{key="a",name="three -> fa"} 1000`)
	assert.Contains(t, body, `wire_pipeline_running{key="a",name="three -> fa"} 1`)
}

func TestSendResponseWithHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	SendResponseWithHeader(rec, false, nil, "nope", 0, map[string]string{"X-Pipeline": "a"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "a", rec.Header().Get("X-Pipeline"))
	assert.JSONEq(t, `{"success":false,"error":"nope"}`, rec.Body.String())
}

func TestRunStopsOnCancel(t *testing.T) {
	ko := koanf.New(".")
	require.NoError(t, ko.Set("port", "0"))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Run(ctx, ko, &mockRegistry{}) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
