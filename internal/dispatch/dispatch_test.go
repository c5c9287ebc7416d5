package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklemmingen/ComBadge-sub001/internal/catalog"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
)

func testTemplate() *catalog.Template {
	return &catalog.Template{
		Metadata: catalog.Metadata{
			Name:     "schedule_maintenance",
			Category: "maintenance",
			Version:  "1.0",
			Intents:  []string{"schedule_task"},
		},
	}
}

func createTestDispatcher(t *testing.T, baseURL string) *Dispatcher {
	cfg := config.Default().API
	cfg.BaseURL = baseURL
	cfg.RetryDelayMS = 1
	return New(cfg, logger.NewTestLogger(t))
}

func TestDispatch_Success(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "M-1001"})
	}))
	defer server.Close()

	d := createTestDispatcher(t, server.URL)
	resp, err := d.Dispatch(context.Background(), testTemplate(), map[string]interface{}{
		"vehicle_id": "FL-1234",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, resp.Attempts)
	assert.Equal(t, "/api/maintenance/schedule_maintenance", gotPath)
	assert.Equal(t, "FL-1234", gotBody["vehicle_id"])
}

func TestDispatch_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := createTestDispatcher(t, server.URL)
	resp, err := d.Dispatch(context.Background(), testTemplate(), map[string]interface{}{})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Attempts)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestDispatch_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	d := createTestDispatcher(t, server.URL)
	resp, err := d.Dispatch(context.Background(), testTemplate(), map[string]interface{}{})
	require.Error(t, err)

	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDispatch_ExhaustedRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := createTestDispatcher(t, server.URL)
	_, err := d.Dispatch(context.Background(), testTemplate(), map[string]interface{}{})
	assert.Error(t, err)
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	b := newCircuitBreaker(2, time.Minute)
	b.now = func() time.Time { return now }

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.True(t, b.Allow())
	b.RecordFailure()

	assert.False(t, b.Allow())

	now = now.Add(2 * time.Minute)
	assert.True(t, b.Allow())
	b.RecordSuccess()
	assert.True(t, b.Allow())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	b := newCircuitBreaker(1, time.Minute)
	b.now = func() time.Time { return now }

	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(2 * time.Minute)
	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow())
}
