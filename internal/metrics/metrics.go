package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "familyspace",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "familyspace",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	activities = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "familyspace",
			Subsystem: "activity",
			Name:      "total",
			Help:      "Activities attempted, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	pointsGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "familyspace",
			Subsystem: "activity",
			Name:      "points_granted_total",
			Help:      "Points actually granted after the daily cap.",
		},
		[]string{"kind"},
	)

	familiesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "familyspace",
			Subsystem: "family",
			Name:      "created_total",
			Help:      "Families created.",
		},
	)

	familyJoins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "familyspace",
			Subsystem: "family",
			Name:      "joins_total",
			Help:      "Invitation code redemptions, by outcome.",
		},
		[]string{"outcome"},
	)

	codeCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "familyspace",
			Subsystem: "invitation",
			Name:      "code_collisions_total",
			Help:      "Generated invitation codes that were already taken.",
		},
	)

	notifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "familyspace",
			Subsystem: "notify",
			Name:      "failures_total",
			Help:      "Notifications that could not be delivered.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		activities,
		pointsGranted,
		familiesCreated,
		familyJoins,
		codeCollisions,
		notifyFailures,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Requests are labelled by chi route pattern to keep cardinality bounded.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordActivity counts an activity attempt and the points it realized
func RecordActivity(kind, outcome string, granted int) {
	activities.WithLabelValues(kind, outcome).Inc()
	if granted > 0 {
		pointsGranted.WithLabelValues(kind).Add(float64(granted))
	}
}

// RecordFamilyCreated counts a formed family
func RecordFamilyCreated() {
	familiesCreated.Inc()
}

// RecordJoin counts a redemption attempt
func RecordJoin(outcome string) {
	familyJoins.WithLabelValues(outcome).Inc()
}

// RecordCodeCollision counts a drawn code that was already taken
func RecordCodeCollision() {
	codeCollisions.Inc()
}

// RecordNotifyFailure counts a failed notification fan-out
func RecordNotifyFailure() {
	notifyFailures.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
