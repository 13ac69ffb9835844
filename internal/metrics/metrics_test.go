package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.Counter.GetValue()
	}
	return out.Gauge.GetValue()
}

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	ObserveFetch("studio", "ok", 20*time.Millisecond)
	ObserveFetch("studio", "stale", time.Millisecond)
	IncRangeSelected("suite")
	IncHandoff("suite")
	IncInquiry("accepted")
	IncEvent("range_selected")
	IncHTTPRequest("/api/rooms", "200")
	SetActiveSessions(3)

	assert.Equal(t, 1.0, value(t, fetchTotal.WithLabelValues("studio", "ok")))
	assert.Equal(t, 1.0, value(t, fetchTotal.WithLabelValues("studio", "stale")))
	assert.Equal(t, 1.0, value(t, rangeSelected.WithLabelValues("suite")))
	assert.Equal(t, 1.0, value(t, handoffs.WithLabelValues("suite")))
	assert.Equal(t, 1.0, value(t, inquiries.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, value(t, events.WithLabelValues("range_selected")))
	assert.Equal(t, 1.0, value(t, httpRequests.WithLabelValues("/api/rooms", "200")))
	assert.Equal(t, 3.0, value(t, activeSessions))
}
