package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	matchRequestsTotal  *prometheus.CounterVec
	matchDegradedTotal  *prometheus.CounterVec
	matchNoResultsTotal *prometheus.CounterVec
	matchCandidates     *prometheus.HistogramVec
	matchDuration       *prometheus.HistogramVec
	providerDuration    *prometheus.HistogramVec
	providerErrorsTotal *prometheus.CounterVec
	sessionSweepsTotal  *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tme",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tme",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tme",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	matchRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tme",
			Subsystem: "match",
			Name:      "requests_total",
			Help:      "Total successful match requests by retrieval mode.",
		},
		[]string{"service", "mode"},
	)
	matchDegradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tme",
			Subsystem: "match",
			Name:      "degraded_total",
			Help:      "Total match requests served with a degraded signal set.",
		},
		[]string{"service", "mode"},
	)
	matchNoResultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tme",
			Subsystem: "match",
			Name:      "no_results_total",
			Help:      "Total match requests that returned zero candidates.",
		},
		[]string{"service", "mode"},
	)
	matchCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tme",
			Subsystem: "match",
			Name:      "candidates",
			Help:      "Distribution of ranked candidates per successful match request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "mode"},
	)
	matchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tme",
			Subsystem: "match",
			Name:      "duration_seconds",
			Help:      "Match pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "mode"},
	)
	providerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tme",
			Subsystem: "provider",
			Name:      "duration_seconds",
			Help:      "Signal provider call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "provider"},
	)
	providerErrorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tme",
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Total signal provider call failures.",
		},
		[]string{"service", "provider"},
	)
	sessionSweepsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tme",
			Subsystem: "session",
			Name:      "swept_total",
			Help:      "Total idle sessions removed by the sweeper.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		matchRequestsTotal,
		matchDegradedTotal,
		matchNoResultsTotal,
		matchCandidates,
		matchDuration,
		providerDuration,
		providerErrorsTotal,
		sessionSweepsTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		matchRequestsTotal:  matchRequestsTotal,
		matchDegradedTotal:  matchDegradedTotal,
		matchNoResultsTotal: matchNoResultsTotal,
		matchCandidates:     matchCandidates,
		matchDuration:       matchDuration,
		providerDuration:    providerDuration,
		providerErrorsTotal: providerErrorsTotal,
		sessionSweepsTotal:  sessionSweepsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordMatchObservation(service, mode string, candidates int, degraded bool, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.matchRequestsTotal.WithLabelValues(service, mode).Inc()
	m.matchCandidates.WithLabelValues(service, mode).Observe(float64(candidates))
	m.matchDuration.WithLabelValues(service, mode).Observe(duration.Seconds())

	if degraded {
		m.matchDegradedTotal.WithLabelValues(service, mode).Inc()
	}
	if candidates == 0 {
		m.matchNoResultsTotal.WithLabelValues(service, mode).Inc()
	}
}

func (m *HTTPServerMetrics) RecordProviderCall(service, provider string, duration time.Duration, err error) {
	if provider == "" {
		provider = "unknown"
	}
	m.providerDuration.WithLabelValues(service, provider).Observe(duration.Seconds())
	if err != nil {
		m.providerErrorsTotal.WithLabelValues(service, provider).Inc()
	}
}

func (m *HTTPServerMetrics) RecordSessionSweep(service string, removed int64) {
	if removed <= 0 {
		return
	}
	m.sessionSweepsTotal.WithLabelValues(service).Add(float64(removed))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
