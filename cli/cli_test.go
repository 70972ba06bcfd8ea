package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/club-scheduler/config"
	"github.com/Dosada05/club-scheduler/db"
	"github.com/Dosada05/club-scheduler/handlers"
	"github.com/Dosada05/club-scheduler/live"
	"github.com/Dosada05/club-scheduler/models"
	"github.com/Dosada05/club-scheduler/repositories"
	"github.com/Dosada05/club-scheduler/routes"
	"github.com/Dosada05/club-scheduler/services"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "shuttlecock"

// startTestServer starts the API on an in-memory SQLite database and returns its URL.
func startTestServer(t *testing.T) string {
	t.Helper()
	conn, err := db.Connect("sqlite", ":memory:", time.Second)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(context.Background(), conn, db.SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	catalog, err := config.NewSportCatalog(config.DefaultSports(), 2, true)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := live.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	playerRepo := repositories.NewPlayerRepository(conn, db.SQLite)
	sessionRepo := repositories.NewSessionRepository(conn, db.SQLite)
	attendanceRepo := repositories.NewAttendanceRepository(conn, db.SQLite)
	roundRepo := repositories.NewRoundRepository(conn, db.SQLite)
	roundMatchRepo := repositories.NewRoundMatchRepository(conn, db.SQLite)
	historyRepo := repositories.NewMatchHistoryRepository(conn, db.SQLite)

	sportService := services.NewSportService(catalog)
	sessionService := services.NewSessionService(sessionRepo, sportService, logger)
	fairnessService := services.NewFairnessService(sessionRepo, attendanceRepo, roundMatchRepo, historyRepo)

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Auth:    handlers.NewAuthHandler(services.NewAuthService(string(hash)), "test-secret", time.Hour),
		Sport:   handlers.NewSportHandler(sportService),
		Player:  handlers.NewPlayerHandler(services.NewPlayerService(playerRepo, logger)),
		Session: handlers.NewSessionHandler(sessionService, services.NewAttendanceService(conn, sessionRepo, roundRepo, attendanceRepo, logger)),
		Round: handlers.NewRoundHandler(services.NewRoundService(conn, sessionRepo, attendanceRepo, roundRepo, roundMatchRepo, historyRepo,
			sportService, hub, logger)),
		Match: handlers.NewMatchHandler(services.NewMatchService(conn, sessionRepo, playerRepo, roundRepo, roundMatchRepo, historyRepo,
			hub, logger)),
		Board: handlers.NewBoardHandler(services.NewBoardService(sessionRepo, attendanceRepo, roundRepo, roundMatchRepo, historyRepo,
			sportService, fairnessService), fairnessService),
		WebSocket: handlers.NewWebSocketHandler(hub, sessionService, nil),
		Health:    handlers.NewHealthHandler(conn),
	}, routes.Options{
		JWTSecret: []byte("test-secret"),
		Logger:    logger,
	})

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts.URL
}

// isolate points HOME at a temp dir so stored credentials never leak between tests.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CLUBCTL_TOKEN", "")
	t.Setenv("CLUBCTL_SERVER", "")
	return home
}

// run executes clubctl with args against serverURL and returns stdout.
func run(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--server", serverURL}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, serverURL string, args ...string) string {
	t.Helper()
	out, err := run(t, serverURL, args...)
	if err != nil {
		t.Fatalf("clubctl %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestLoginStoresCredentials(t *testing.T) {
	home := isolate(t)
	url := startTestServer(t)

	if _, err := run(t, url, "login", "--password", "wrong-password"); err == nil {
		t.Fatal("login with a wrong password succeeded")
	}

	out := mustRun(t, url, "login", "--password", testPassword)
	if !strings.Contains(out, "Token saved") {
		t.Errorf("login output = %q", out)
	}

	path := filepath.Join(home, ".clubctl", credentialsFileName)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("credentials file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("credentials mode = %o, want 600", perm)
	}
	if LoadToken() == "" {
		t.Error("LoadToken returned nothing after login")
	}
}

func TestLoginPromptsForPassword(t *testing.T) {
	isolate(t)
	url := startTestServer(t)

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(testPassword + "\n"))
	root.SetArgs([]string{"--server", url, "login"})
	if err := root.Execute(); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out.String(), "Organizer password:") {
		t.Errorf("no prompt in %q", out.String())
	}
}

func TestMutationsNeedToken(t *testing.T) {
	isolate(t)
	url := startTestServer(t)

	_, err := run(t, url, "players", "add", "alice")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 APIError", err)
	}

	// reads stay public
	out := mustRun(t, url, "players", "list")
	if !strings.Contains(out, "No players registered.") {
		t.Errorf("players list = %q", out)
	}
}

func TestSessionWorkflow(t *testing.T) {
	isolate(t)
	url := startTestServer(t)
	mustRun(t, url, "login", "--password", testPassword)

	out := mustRun(t, url, "players", "add", "alice", "bob", "carol", "dave", "erin")
	if strings.Count(out, "Added") != 5 {
		t.Fatalf("players add = %q", out)
	}
	out = mustRun(t, url, "players", "add", "alice")
	if !strings.Contains(out, "already registered") {
		t.Errorf("re-adding = %q", out)
	}

	out = mustRun(t, url, "session", "open", "--sport", "badminton", "--date", "2024-05-01")
	if !strings.Contains(out, "Opened session #1: badminton 2024-05-01") {
		t.Fatalf("session open = %q", out)
	}

	out = mustRun(t, url, "attendance", "set", "1", "alice", "bob", "carol", "dave", "erin")
	if !strings.HasPrefix(out, "5 present") {
		t.Fatalf("attendance set = %q", out)
	}
	if _, err := run(t, url, "attendance", "set", "1", "zoe"); err == nil {
		t.Error("unknown player name accepted")
	}

	out = mustRun(t, url, "round", "next", "1", "--courts", "2")
	for _, want := range []string{"Round 1 (#1, active)", "Court 1:", "Sitting out: alice"} {
		if !strings.Contains(out, want) {
			t.Errorf("round next output missing %q:\n%s", want, out)
		}
	}

	_, err := run(t, url, "round", "next", "1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Errorf("second round err = %v, want 409", err)
	}

	out = mustRun(t, url, "round", "show", "1")
	if !strings.Contains(out, "not played") {
		t.Errorf("round show = %q", out)
	}

	out = mustRun(t, url, "score", "1", "21", "15")
	if !strings.Contains(out, "21 - 15") || !strings.Contains(out, "round completed") {
		t.Errorf("score = %q", out)
	}

	out = mustRun(t, url, "record", "1", "--a", "alice", "--b", "bob", "--score", "21-15")
	if !strings.Contains(out, "Match recorded") {
		t.Errorf("record = %q", out)
	}
	out = mustRun(t, url, "record", "1", "--a", "bob", "--b", "alice", "--score", "15-21")
	if !strings.Contains(out, "skipped") {
		t.Errorf("reversed duplicate = %q", out)
	}

	out = mustRun(t, url, "fairness", "1")
	if strings.Count(out, "played") != 5 {
		t.Errorf("fairness = %q", out)
	}

	out = mustRun(t, url, "pool", "generate", "1", "--courts", "1")
	if !strings.Contains(out, "2 teams, 1 rounds") || !strings.Contains(out, "Sitting out the whole pool") {
		t.Fatalf("pool generate = %q", out)
	}
	poolID := strings.Fields(strings.TrimPrefix(out, "Pool "))[0]
	poolID = strings.TrimSuffix(poolID, ":")

	out = mustRun(t, url, "pool", "discard", "1", poolID)
	if !strings.Contains(out, "Discarded 1 round(s)") {
		t.Errorf("pool discard = %q", out)
	}

	_, err = run(t, url, "advance", "1")
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Errorf("advance with nothing pending err = %v, want 409", err)
	}
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in      string
		a, b    int
		wantErr bool
	}{
		{in: "21-15", a: 21, b: 15},
		{in: " 11 - 9 ", a: 11, b: 9},
		{in: "21:15", wantErr: true},
		{in: "x-3", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, b, err := parseScore(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseScore(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && (a != tt.a || b != tt.b) {
				t.Errorf("parseScore(%q) = %d-%d, want %d-%d", tt.in, a, b, tt.a, tt.b)
			}
		})
	}
}

func TestPrintRound(t *testing.T) {
	n := names{1: "alice", 2: "bob", 3: "carol"}
	a, b := 21, 19
	r := &models.Round{ID: 7, Index: 2, State: models.RoundCompleted, Matches: []models.RoundMatch{
		{ID: 11, Court: 1, SideA: models.Doubles(1, 2), SideB: models.Doubles(3, 4), Completed: true, ScoreA: &a, ScoreB: &b},
	}}

	var out bytes.Buffer
	printRound(&out, n, r)
	want := "Round 2 (#7, completed)\n  Court 1: alice & bob  vs  carol & #4  [21-19]  match #11\n"
	if out.String() != want {
		t.Errorf("printRound =\n%q\nwant\n%q", out.String(), want)
	}
}
