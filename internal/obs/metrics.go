package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	linksIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "links_issued_total",
		Help: "Download links minted across all issuance paths.",
	})

	linkDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_downloads_total",
			Help: "Download attempts by outcome (served, rejected).",
		},
		[]string{"outcome"},
	)

	ready = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "service_ready",
		Help: "1 when the readiness probe last succeeded.",
	})
)

// Init registers all portal metrics in the default registry.
func Init() {
	prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration,
		linksIssuedTotal, linkDownloadsTotal, ready)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetReady records the latest readiness probe verdict.
func SetReady(ok bool) {
	if ok {
		ready.Set(1)
	} else {
		ready.Set(0)
	}
}

// CountLinksIssued adds freshly minted links to the issuance counter.
func CountLinksIssued(n int) {
	linksIssuedTotal.Add(float64(n))
}

// CountDownload records one resolution attempt on the public download URL.
func CountDownload(outcome string) {
	linkDownloadsTotal.WithLabelValues(outcome).Inc()
}

// CanonicalPath collapses high-cardinality path segments so tokens and ids
// never reach metric labels.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if strings.HasPrefix(path, "/api/links/download/") {
		return "/api/links/download/:token"
	}
	for _, prefix := range []string{"/api/dealers/", "/api/vendors/", "/api/files/", "/api/links/"} {
		rest := strings.TrimPrefix(path, prefix)
		if rest == path || rest == "" {
			continue
		}
		if head, tail, _ := strings.Cut(rest, "/"); isDigits(head) {
			if tail == "" {
				return prefix + ":id"
			}
			return prefix + ":id/" + tail
		}
	}
	return path
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Instrument wraps an http.Handler with RPS, latency and in-flight metrics.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code for metric labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
