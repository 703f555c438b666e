package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/siamkarim/2mro-admin/internal/errors"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRefresh("success")
	m.ObserveRefresh("success")
	m.ObserveRefresh("failure")
	m.ObserveGuard(DecisionRedirect)
	m.ObserveRoleDenial("administration")
	m.ObserveLogin("rejected")
	m.ObserveIdentityCache("hit")
	m.ObserveUpstreamError(apperrors.Upstream("boom"))

	assert.InDelta(t, 2, testutil.ToFloat64(m.tokenRefresh.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.tokenRefresh.WithLabelValues("failure")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.guardDecisions.WithLabelValues(DecisionRedirect)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.roleDenials.WithLabelValues("administration")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.loginAttempts.WithLabelValues("rejected")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.identityCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.upstreamErrors.WithLabelValues("upstream")), 0)
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRequest(http.MethodGet, "GET /dashboard", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "GET /dashboard", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRefresh("success")
		m.ObserveGuard(DecisionAllow)
		m.ObserveRoleDenial("users")
		m.ObserveLogin("success")
		m.ObserveIdentityCache("miss")
		m.ObserveUpstreamError(errors.New("x"))
		m.ObserveRequest("GET", "/", 200, time.Second)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New(nil)
	m.ObserveLogin("success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `admin_console_login_attempts_total{result="success"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
