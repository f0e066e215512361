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

	authStateChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_state_changes_total",
			Help: "Auth state transitions observed by the session store.",
		},
		[]string{"kind"},
	)

	guardDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_decisions_total",
			Help: "Route guard decisions by outcome.",
		},
		[]string{"outcome"},
	)

	invitationsIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invitations_issued_total",
		Help: "Employee invitations created.",
	})

	invitationsRedeemed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invitations_redeemed_total",
		Help: "Employee invitations redeemed exactly once.",
	})
)

// Init registers all service metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		authStateChanges, guardDecisions, invitationsIssued, invitationsRedeemed,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// AuthStateChange records a session transition: "signed_in", "signed_out".
func AuthStateChange(kind string) {
	authStateChanges.WithLabelValues(kind).Inc()
}

// GuardDecision records a guard outcome: "allow", "deny", "timeout".
func GuardDecision(outcome string) {
	guardDecisions.WithLabelValues(outcome).Inc()
}

// InvitationIssued increments the issued-invitations counter.
func InvitationIssued() { invitationsIssued.Inc() }

// InvitationRedeemed increments the redeemed-invitations counter.
func InvitationRedeemed() { invitationsRedeemed.Inc() }

// CanonicalPath collapses resource identifiers so metric labels stay bounded.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	for _, prefix := range []string{"/v1/employers/", "/v1/invitations/"} {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok {
			continue
		}
		if rest != "" && rest != "validate" && !strings.Contains(rest, "/") {
			return prefix + ":id"
		}
	}
	return path
}

// Instrument wraps an HTTP handler with RPS/latency/in-flight measurement.
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

// statusWriter captures the response code for instrumentation.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
