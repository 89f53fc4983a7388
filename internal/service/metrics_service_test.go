package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/devscout-auth/internal/models"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordLogin(OutcomeSuccess)
	m.RecordLogin(OutcomeRejected)
	m.RecordLogin(OutcomeRejected)
	m.RecordGateDecision(models.SessionByRefresh)
	m.RecordRotation()
	m.RecordDelivery(OutcomeError)
	m.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.logins.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.gateDecisions.WithLabelValues(string(models.SessionByRefresh))))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rotations))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.deliveries.WithLabelValues(OutcomeError)))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "auth_logins_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordLogin(OutcomeSuccess)
	m.RecordRotation()
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Second)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
