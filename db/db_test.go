package db

import (
	"context"
	"testing"
	"time"
)

func TestRebind(t *testing.T) {
	q := `SELECT id FROM rounds WHERE session_id = ? AND state = 'a?b' AND round_index > ?`
	if got := SQLite.Rebind(q); got != q {
		t.Errorf("sqlite rebind changed the query: %s", got)
	}
	want := `SELECT id FROM rounds WHERE session_id = $1 AND state = 'a?b' AND round_index > $2`
	if got := Postgres.Rebind(q); got != want {
		t.Errorf("postgres rebind = %s", got)
	}
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{"": Postgres, "Postgres": Postgres, "sqlite": SQLite, "sqlite3": SQLite} {
		got, err := ParseDialect(in)
		if err != nil || got != want {
			t.Errorf("ParseDialect(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDialect("oracle"); err == nil {
		t.Error("oracle accepted")
	}
}

func TestConnectAndMigrate_SQLite(t *testing.T) {
	conn, err := Connect("sqlite", ":memory:", time.Second)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	if err := Migrate(ctx, conn, SQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// idempotent
	if err := Migrate(ctx, conn, SQLite); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var n int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('players','sessions','attendance','rounds','round_matches','match_history')`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Errorf("found %d tables, want 6", n)
	}

	if _, err := conn.ExecContext(ctx, `INSERT INTO sessions (session_date, sport, created_at) VALUES ('2024-05-01', 'badminton', 'now')`); err != nil {
		t.Fatal(err)
	}
	if _, err := conn.ExecContext(ctx, `INSERT INTO match_history (session_id, team_size, side1, side2, score1, score2, winning_side, recorded_at) VALUES (1, 1, '1', '2', 5, 5, 1, 'now')`); err == nil {
		t.Error("tied score accepted by the schema")
	}
}
