package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveRequest("videos")
	m.ObserveRequest("videos")
	m.ObserveChannel(OutcomeNotFound)
	m.ObserveRows("video_data", 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("videos")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.channels.WithLabelValues(OutcomeNotFound)))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.rowsWritten.WithLabelValues("video_data")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("channels")
	m.ObserveChannel(OutcomeExtracted)
	m.ObserveRows("x", 1)
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.Push(context.Background(), "http://unused", "job"))
}

func TestPush(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New()
	m.ObserveRequest("channels")
	require.NoError(t, m.Push(context.Background(), srv.URL, "channelmetrics"))
	assert.Equal(t, "/metrics/job/channelmetrics", gotPath)
}
