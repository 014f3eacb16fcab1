package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountersAndHandler(t *testing.T) {
	m := New()

	m.Checkouts.WithLabelValues("start", "ok").Inc()
	m.Checkouts.WithLabelValues("start", "ok").Inc()
	m.Reconciled.WithLabelValues("paid").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("start", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reconciled.WithLabelValues("paid")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `coffeeshop_checkouts_total{outcome="ok",phase="start"} 2`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewWithRegistry_Isolated(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewWithRegistry(reg, reg)
	a.Outbox.WithLabelValues("order.paid", "sent").Inc()

	// a second set on its own registry does not collide
	b := New()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Outbox.WithLabelValues("order.paid", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Outbox.WithLabelValues("order.paid", "sent")))
}
