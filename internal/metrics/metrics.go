package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "assessments_total", Help: "Assessments computed, by outcome"},
		[]string{"stock", "violation"},
	)
	PenaltiesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "penalties_issued_total", Help: "Penalties issued"},
		[]string{"stock"},
	)
	SessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sessions_created_total", Help: "Calculator sessions created"},
	)
)

func init() {
	prometheus.MustRegister(AssessmentsTotal, PenaltiesIssued, SessionsCreated)
}

// Handler returns the Prometheus scrape handler, mounted by the HTTP server
// at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
