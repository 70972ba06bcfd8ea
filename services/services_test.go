package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/club-scheduler/config"
	"github.com/Dosada05/club-scheduler/db"
	"github.com/Dosada05/club-scheduler/models"
	"github.com/Dosada05/club-scheduler/repositories"
)

type recordedEvent struct {
	sessionID int
	eventType string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(sessionID int, eventType string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{sessionID, eventType})
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.eventType
	}
	return out
}

type testEnv struct {
	db         *sql.DB
	events     *fakePublisher
	players    PlayerService
	sessions   SessionService
	attendance AttendanceService
	rounds     RoundService
	matches    MatchService
	fairness   FairnessService
	board      BoardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.Connect("sqlite", ":memory:", time.Second)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(context.Background(), conn, db.SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	catalog, err := config.NewSportCatalog([]models.Sport{
		{Name: "badminton", TeamSize: 2, AllowSinglesSlot: true},
		{Name: "squash", TeamSize: 1},
	}, 2, true)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	playerRepo := repositories.NewPlayerRepository(conn, db.SQLite)
	sessionRepo := repositories.NewSessionRepository(conn, db.SQLite)
	attendanceRepo := repositories.NewAttendanceRepository(conn, db.SQLite)
	roundRepo := repositories.NewRoundRepository(conn, db.SQLite)
	roundMatchRepo := repositories.NewRoundMatchRepository(conn, db.SQLite)
	historyRepo := repositories.NewMatchHistoryRepository(conn, db.SQLite)

	events := &fakePublisher{}
	sports := NewSportService(catalog)
	fairness := NewFairnessService(sessionRepo, attendanceRepo, roundMatchRepo, historyRepo)
	return &testEnv{
		db:         conn,
		events:     events,
		players:    NewPlayerService(playerRepo, logger),
		sessions:   NewSessionService(sessionRepo, sports, logger),
		attendance: NewAttendanceService(conn, sessionRepo, roundRepo, attendanceRepo, logger),
		rounds:     NewRoundService(conn, sessionRepo, attendanceRepo, roundRepo, roundMatchRepo, historyRepo, sports, events, logger),
		matches:    NewMatchService(conn, sessionRepo, playerRepo, roundRepo, roundMatchRepo, historyRepo, events, logger),
		fairness:   fairness,
		board:      NewBoardService(sessionRepo, attendanceRepo, roundRepo, roundMatchRepo, historyRepo, sports, fairness),
	}
}

// openSession registers n players named p1..pn, opens a session for sport and
// marks everyone present.
func (e *testEnv) openSession(t *testing.T, sport string, n int) (*models.Session, []int) {
	t.Helper()
	ctx := context.Background()
	session, _, err := e.sessions.Open(ctx, "2024-05-01", sport)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	ids := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		p, _, err := e.players.Create(ctx, fmt.Sprintf("p%d", i))
		if err != nil {
			t.Fatalf("create player: %v", err)
		}
		ids = append(ids, p.ID)
	}
	if _, err := e.attendance.Set(ctx, session.ID, ids); err != nil {
		t.Fatalf("set attendance: %v", err)
	}
	return session, ids
}
