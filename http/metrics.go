package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/cardgap"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	reports        prometheus.Counter
	corpusRecords  prometheus.Gauge
	missingHeaders prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cardgap",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cardgap",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path", "method", "status"},
		),
		reports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cardgap",
			Name:      "reports_total",
			Help:      "Total number of coverage reports built",
		}),
		corpusRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cardgap",
			Name:      "corpus_records",
			Help:      "Number of model records in the most recently loaded corpus",
		}),
		missingHeaders: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cardgap",
			Name:      "missing_headers",
			Help:      "Number of common headers missing from the selected model card",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.reports, m.corpusRecords, m.missingHeaders)
	return m
}

func (m *metrics) observeReport(r *cardgap.Report) {
	m.reports.Inc()
	m.corpusRecords.Set(float64(r.TotalRecords))
	m.missingHeaders.Observe(float64(len(r.Missing)))
}

func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		begin := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []string{routePattern(r), r.Method, strconv.Itoa(status)}
		m.requests.WithLabelValues(labels...).Inc()
		m.duration.WithLabelValues(labels...).Observe(time.Since(begin).Seconds())
	})
}

// routePattern returns the chi route pattern to keep label cardinality low.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
