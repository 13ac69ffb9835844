package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petalz",
			Name:      "availability_fetch_total",
			Help:      "Count of availability fetches by room and outcome (ok, error, stale).",
		},
		[]string{"room", "outcome"},
	)

	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "petalz",
			Name:      "availability_fetch_duration_seconds",
			Help:      "Duration of availability fetches.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"room"},
	)

	rangeSelected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petalz",
			Name:      "range_selected_total",
			Help:      "Count of completed date ranges by room.",
		},
		[]string{"room"},
	)

	handoffs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petalz",
			Name:      "handoff_total",
			Help:      "Count of booking handoffs to WhatsApp by room.",
		},
		[]string{"room"},
	)

	inquiries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petalz",
			Name:      "inquiry_total",
			Help:      "Count of contact form submissions by result.",
		},
		[]string{"result"},
	)

	events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petalz",
			Name:      "analytics_event_total",
			Help:      "Count of analytics events by type.",
		},
		[]string{"type"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "petalz",
			Name:      "http_requests_total",
			Help:      "Count of API requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "petalz",
			Name:      "active_sessions",
			Help:      "Number of live calendar sessions.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(fetchTotal, fetchDuration, rangeSelected, handoffs,
			inquiries, events, httpRequests, activeSessions)
	})
}

func ObserveFetch(room, outcome string, elapsed time.Duration) {
	fetchTotal.WithLabelValues(room, outcome).Inc()
	fetchDuration.WithLabelValues(room).Observe(elapsed.Seconds())
}

func IncRangeSelected(room string) {
	rangeSelected.WithLabelValues(room).Inc()
}

func IncHandoff(room string) {
	handoffs.WithLabelValues(room).Inc()
}

func IncInquiry(result string) {
	inquiries.WithLabelValues(result).Inc()
}

func IncEvent(eventType string) {
	events.WithLabelValues(eventType).Inc()
}

func IncHTTPRequest(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}
