// Package metrics exposes Prometheus collectors for the scheduler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Dosada05/club-scheduler/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "club_scheduler"

var (
	sessionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Count of session events published, by event type.",
		},
		[]string{"event"},
	)
	duplicateResults = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_results_total",
			Help:      "Count of scored court results already present in session history.",
		},
	)
	roundSitOuts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_sit_outs",
			Help:      "Players left without a court per improvised round.",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12},
		},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

var registerMetrics sync.Once

// Register adds all collectors to the default registry. liveClients, when not
// nil, backs a gauge of connected websocket clients.
func Register(liveClients func() int) {
	registerMetrics.Do(func() {
		prometheus.MustRegister(sessionEvents, duplicateResults, roundSitOuts, requestDuration)
		if liveClients != nil {
			prometheus.MustRegister(prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Namespace: namespace,
					Name:      "live_clients",
					Help:      "Websocket clients currently watching a session.",
				},
				func() float64 { return float64(liveClients()) },
			))
		}
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSessionEvent counts one published event and inspects its payload.
func RecordSessionEvent(eventType string, payload interface{}) {
	sessionEvents.WithLabelValues(eventType).Inc()
	switch p := payload.(type) {
	case *services.RoundResult:
		roundSitOuts.Observe(float64(len(p.SittingOut)))
	case *services.ScoreResult:
		if !p.Recorded {
			duplicateResults.Inc()
		}
	}
}

// publisher counts events before handing them on.
type publisher struct {
	next services.EventPublisher
}

// InstrumentPublisher wraps next so every published event is counted.
func InstrumentPublisher(next services.EventPublisher) services.EventPublisher {
	return &publisher{next: next}
}

func (p *publisher) Publish(sessionID int, eventType string, payload interface{}) {
	RecordSessionEvent(eventType, payload)
	if p.next != nil {
		p.next.Publish(sessionID, eventType, payload)
	}
}

// Middleware observes request latency labelled by chi route pattern, so
// /sessions/1 and /sessions/2 share a series.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
