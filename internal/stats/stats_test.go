package stats

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	assert.NotNil(t, su, "expected StatsUpdater to be non-nil")
	assert.NotNil(t, su.registry, "expected registry to be initialized")
	handler, pattern := mux.Handler(&http.Request{URL: &url.URL{Path: "/metrics"}, Method: http.MethodGet})
	assert.NotNil(t, handler, "expected handler for /metrics to be set")
	assert.Equal(t, "GET /metrics", pattern, "expected handler to be registered for GET method on /metrics")
}

func TestStatsUpdater_IncrDecrSet(t *testing.T) {
	su := NewStatsUpdater(http.NewServeMux())
	su.RegisterMetric(NumActiveClients)
	su.RegisterMetric(NumActiveClients) // idempotent

	su.Incr(NumActiveClients)
	su.Incr(NumActiveClients)
	su.Decr(NumActiveClients)
	assert.Equal(t, float64(1), testutil.ToFloat64(su.gauge(NumActiveClients)))

	su.Set(NumActiveClients, 7)
	assert.Equal(t, float64(7), testutil.ToFloat64(su.gauge(NumActiveClients)))

	// unknown metrics are ignored
	assert.NotPanics(t, func() {
		su.Incr("Unknown")
		su.Decr("Unknown")
		su.Set("Unknown", 1)
	})
}

func TestStatsUpdater_MetricsEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	su.RegisterMetric(NumOnlineUsers)
	su.Set(NumOnlineUsers, 3)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "campus_num_online_users 3")
	assert.Contains(t, string(body), "campus_uptime_milliseconds")
}

func Test_metricName(t *testing.T) {
	assert.Equal(t, "num_active_clients", metricName("NumActiveClients"))
	assert.Equal(t, "num_dropped_messages", metricName("NumDroppedMessages"))
	assert.Equal(t, "plain", metricName("plain"))
}
