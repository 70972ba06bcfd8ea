package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("JWT_SECRET_KEY", "secret")
	for _, k := range []string{"DATABASE_DRIVER", "SERVER_PORT", "TOKEN_TTL", "DEFAULT_COURTS", "ALLOW_SINGLES_SLOT", "CORS_ALLOWED_ORIGINS", "SPORTS_FILE", "LOG_LEVEL", "LOG_FORMAT", "METRICS_ENABLED"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseDriver != DriverPostgres || cfg.ServerPort != 8080 {
		t.Errorf("driver = %q, port = %d", cfg.DatabaseDriver, cfg.ServerPort)
	}
	if cfg.TokenTTL != 12*time.Hour || cfg.DefaultCourts != 2 || !cfg.AllowSinglesSlot {
		t.Errorf("ttl = %s, courts = %d, singles = %v", cfg.TokenTTL, cfg.DefaultCourts, cfg.AllowSinglesSlot)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.MetricsEnabled {
		t.Error("metrics disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DEFAULT_COURTS", "4")
	t.Setenv("ALLOW_SINGLES_SLOT", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseDriver != DriverSQLite || cfg.ServerPort != 9090 || cfg.DefaultCourts != 4 || cfg.AllowSinglesSlot {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"missing url", "DATABASE_URL", ""},
		{"missing jwt", "JWT_SECRET_KEY", ""},
		{"driver", "DATABASE_DRIVER", "mysql"},
		{"port", "SERVER_PORT", "70000"},
		{"port text", "SERVER_PORT", "http"},
		{"ttl", "TOKEN_TTL", "soon"},
		{"courts", "DEFAULT_COURTS", "0"},
		{"singles", "ALLOW_SINGLES_SLOT", "maybe"},
		{"metrics", "METRICS_ENABLED", "sometimes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%q accepted", tt.key, tt.value)
			}
		})
	}
}

func TestLoadSports_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sports.yaml")
	data := `sports:
  - name: Badminton
    team_size: 2
    allow_singles_slot: true
    default_courts: 5
  - name: squash
    team_size: 1
  - name: futsal
    team_size: 5
    allow_singles_slot: true
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cat, err := LoadSports(path, 2, true)
	if err != nil {
		t.Fatalf("LoadSports: %v", err)
	}
	b, ok := cat.Get("badminton")
	if !ok || b.DefaultCourts != 5 || !b.SinglesSlotCapable() {
		t.Errorf("badminton = %+v, %v", b, ok)
	}
	s, _ := cat.Get(" SQUASH ")
	if s.DefaultCourts != 2 {
		t.Errorf("squash courts = %d, want global default 2", s.DefaultCourts)
	}
	if f, _ := cat.Get("futsal"); f.AllowSinglesSlot {
		t.Error("singles slot kept for a non-doubles sport")
	}
	all := cat.All()
	if len(all) != 3 || all[0].Name != "Badminton" {
		t.Errorf("All = %+v", all)
	}
}

func TestLoadSports_DefaultCatalog(t *testing.T) {
	cat, err := LoadSports("", 2, false)
	if err != nil {
		t.Fatalf("LoadSports: %v", err)
	}
	b, ok := cat.Get("badminton")
	if !ok || b.AllowSinglesSlot {
		t.Errorf("badminton = %+v; singles slot should be disabled globally", b)
	}
	if _, ok := cat.Get("curling"); ok {
		t.Error("unknown sport found")
	}
}

func TestNewSportCatalog_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":     "sports: []",
		"no name":   "sports:\n  - team_size: 2",
		"too big":   "sports:\n  - name: rugby\n    team_size: 15",
		"duplicate": "sports:\n  - name: a\n    team_size: 1\n  - name: A\n    team_size: 2",
		"courts":    "sports:\n  - name: a\n    team_size: 1\n    default_courts: -1",
		"yaml":      "sports: [",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sports.yaml")
			if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadSports(path, 2, true); !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("error = %v, want ErrInvalidCatalog", err)
			}
		})
	}
}

func TestNewLoggerWithWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("output = %q", out)
	}

	buf.Reset()
	NewLoggerWithWriter("debug", "TEXT", &buf).Debug("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{"DEBUG": slog.LevelDebug, "warning": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo, "loud": slog.LevelInfo} {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
