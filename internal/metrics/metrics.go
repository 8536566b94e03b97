package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	prefix = "market_pulse_"

	metricFetchTotal      = prefix + "fetch_total"
	metricFetchDuration   = prefix + "fetch_duration_seconds"
	metricRefreshTotal    = prefix + "refresh_total"
	metricRefreshInFlight = prefix + "refresh_in_flight"

	labelSource  = "source"
	labelSuccess = "success"
)

// Recorder records fetcher and refresh-cycle outcomes. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	refreshTotal  *prometheus.CounterVec
	inFlight      prometheus.Gauge
}

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricFetchTotal,
			Help: "Upstream fetches by source and outcome.",
		}, []string{labelSource, labelSuccess}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricFetchDuration,
			Help:    "Upstream fetch latency by source.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{labelSource}),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricRefreshTotal,
			Help: "Completed refresh cycles by outcome.",
		}, []string{labelSuccess}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricRefreshInFlight,
			Help: "Refresh cycles currently running.",
		}),
	}
	if reg != nil {
		reg.MustRegister(r.fetchTotal, r.fetchDuration, r.refreshTotal, r.inFlight)
	}
	return r
}

// ObserveFetch records one fetcher call.
func (r *Recorder) ObserveFetch(source string, success bool, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.fetchTotal.WithLabelValues(source, strconv.FormatBool(success)).Inc()
	r.fetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// RefreshStarted marks a refresh cycle as in flight.
func (r *Recorder) RefreshStarted() {
	if r == nil {
		return
	}
	r.inFlight.Inc()
}

// RefreshFinished records the outcome of a refresh cycle.
func (r *Recorder) RefreshFinished(success bool) {
	if r == nil {
		return
	}
	r.inFlight.Dec()
	r.refreshTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}
