package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_ObserveDiscovery(t *testing.T) {
	m := New()
	m.ObserveDiscovery(false, 20*time.Millisecond, nil)
	m.ObserveDiscovery(true, 0, nil)
	m.ObserveDiscovery(true, 0, nil)
	m.ObserveDiscovery(false, time.Millisecond, errors.New("boom"))

	body := scrape(t, m)
	assert.Contains(t, body, `ytresolve_program_lookups_total{outcome="hit"} 2`)
	assert.Contains(t, body, `ytresolve_program_lookups_total{outcome="miss"} 1`)
	assert.Contains(t, body, `ytresolve_program_lookups_total{outcome="error"} 1`)
	assert.Contains(t, body, `ytresolve_program_discovery_seconds_count 2`)
}

func TestMetrics_ResolveAndFailures(t *testing.T) {
	m := New()
	m.ObserveResolve(5, time.Second)
	m.ObserveRecordFailure("replay_index")
	m.ObserveProbe(nil)
	m.ObserveProbe(errors.New("x"))

	body := scrape(t, m)
	assert.Contains(t, body, "ytresolve_resolutions_total 1")
	assert.Contains(t, body, "ytresolve_streams_resolved_total 5")
	assert.Contains(t, body, `ytresolve_record_failures_total{category="replay_index"} 1`)
	assert.Contains(t, body, `ytresolve_filesize_probes_total{outcome="ok"} 1`)
	assert.Contains(t, body, `ytresolve_filesize_probes_total{outcome="error"} 1`)
}

func TestRequestMiddleware(t *testing.T) {
	m := New()
	ok := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	bad := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	bad.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	body := scrape(t, m)
	assert.Contains(t, body, "ytresolve_http_requests_total 2")
	assert.Contains(t, body, "ytresolve_http_errors_total 1")
}
