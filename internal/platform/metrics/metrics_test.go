package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/skillswap-api/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordMatchQuery(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMatchQuery(3, 20*time.Millisecond)
	c.RecordMatchQuery(0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.matchQueries))
	assert.Equal(t, 1, testutil.CollectAndCount(c.matchCandidates))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "skillswap_match_latency_seconds"))
}

func TestCollector_HandleEvent(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	event, err := events.NewEvent(events.TypeRequestAccepted, events.RequestPayload{})
	require.NoError(t, err)

	require.NoError(t, c.HandleEvent(context.Background(), event))
	require.NoError(t, c.HandleEvent(context.Background(), event))
	c.RecordEvent(events.TypeSessionScheduled)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.eventsTotal.WithLabelValues(events.TypeRequestAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.eventsTotal.WithLabelValues(events.TypeSessionScheduled)))
}

func TestCollector_RecordHTTPStatus(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordHTTPStatus(http.StatusOK)
	c.RecordHTTPStatus(http.StatusOK)
	c.RecordHTTPStatus(http.StatusConflict)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpStatus.WithLabelValues("409")))
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordEvent(events.TypeSessionCompleted)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `skillswap_events_total{type="session.completed"} 1`))
}
