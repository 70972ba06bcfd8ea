package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/club-scheduler/services"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type recordingPublisher struct {
	events []string
}

func (r *recordingPublisher) Publish(_ int, eventType string, _ interface{}) {
	r.events = append(r.events, eventType)
}

func TestInstrumentPublisher(t *testing.T) {
	next := &recordingPublisher{}
	pub := InstrumentPublisher(next)

	before := testutil.ToFloat64(sessionEvents.WithLabelValues(services.EventRoundActivated))
	dupBefore := testutil.ToFloat64(duplicateResults)

	pub.Publish(1, services.EventRoundActivated, nil)
	pub.Publish(1, services.EventMatchScored, &services.ScoreResult{Recorded: false})
	pub.Publish(1, services.EventMatchScored, &services.ScoreResult{Recorded: true})

	if got := testutil.ToFloat64(sessionEvents.WithLabelValues(services.EventRoundActivated)) - before; got != 1 {
		t.Errorf("round activated events = %v, want 1", got)
	}
	if got := testutil.ToFloat64(duplicateResults) - dupBefore; got != 1 {
		t.Errorf("duplicate results = %v, want 1", got)
	}
	if len(next.events) != 3 {
		t.Errorf("forwarded %v, want 3 events", next.events)
	}

	// nil next only counts
	InstrumentPublisher(nil).Publish(1, services.EventPoolCreated, nil)
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/sessions/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/sessions/1", "/sessions/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusTeapot {
			t.Fatalf("GET %s = %d", path, rec.Code)
		}
	}

	if n := testutil.CollectAndCount(requestDuration, "club_scheduler_http_request_duration_seconds"); n != 1 {
		t.Errorf("series = %d, want 1 shared by both requests", n)
	}
}

func TestRegisterAndHandler(t *testing.T) {
	Register(func() int { return 3 })
	Register(func() int { return 99 }) // second call is a no-op

	want := `
# HELP club_scheduler_live_clients Websocket clients currently watching a session.
# TYPE club_scheduler_live_clients gauge
club_scheduler_live_clients 3
`
	if err := testutil.GatherAndCompare(prometheus.DefaultGatherer, strings.NewReader(want), "club_scheduler_live_clients"); err != nil {
		t.Error(err)
	}

	RecordSessionEvent(services.EventRoundCreated, &services.RoundResult{SittingOut: []int{4, 5}})

	srv := httptest.NewServer(Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"club_scheduler_session_events_total", "club_scheduler_round_sit_outs_bucket"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("scrape is missing %s", name)
		}
	}
}
