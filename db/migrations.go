package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// schema is written once for both dialects; {{id}} is replaced with the
// dialect's key column. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		id         {{id}},
		name       TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id           {{id}},
		session_date TEXT NOT NULL,
		sport        TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		UNIQUE (session_date, sport)
	)`,

	`CREATE TABLE IF NOT EXISTS attendance (
		session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		player_id  INTEGER NOT NULL REFERENCES players(id) ON DELETE CASCADE,
		PRIMARY KEY (session_id, player_id)
	)`,

	`CREATE TABLE IF NOT EXISTS rounds (
		id          {{id}},
		session_id  INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		round_index INTEGER NOT NULL,
		courts      INTEGER NOT NULL,
		team_size   INTEGER NOT NULL,
		state       TEXT NOT NULL DEFAULT 'pending',
		pool_id     TEXT,
		forced      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TEXT NOT NULL,
		activated_at TEXT,
		UNIQUE (session_id, round_index)
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS rounds_one_active_per_session ON rounds(session_id) WHERE state = 'active'`,
	`CREATE INDEX IF NOT EXISTS idx_rounds_pool_id ON rounds(pool_id)`,

	`CREATE TABLE IF NOT EXISTS round_matches (
		id        {{id}},
		round_id  INTEGER NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
		court     INTEGER NOT NULL,
		singles   BOOLEAN NOT NULL DEFAULT FALSE,
		side_a    TEXT NOT NULL,
		side_b    TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		score_a   INTEGER,
		score_b   INTEGER,
		UNIQUE (round_id, court)
	)`,

	`CREATE TABLE IF NOT EXISTS match_history (
		id             {{id}},
		session_id     INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		team_size      INTEGER NOT NULL,
		side1          TEXT NOT NULL,
		side2          TEXT NOT NULL,
		score1         INTEGER NOT NULL,
		score2         INTEGER NOT NULL,
		winning_side   INTEGER NOT NULL,
		round_match_id INTEGER REFERENCES round_matches(id) ON DELETE SET NULL,
		recorded_at    TEXT NOT NULL,
		CHECK (score1 <> score2)
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS match_history_canonical_key ON match_history(session_id, team_size, side1, side2, score1, score2)`,
}

// Migrate creates all required tables and indexes.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	idType := "BIGSERIAL PRIMARY KEY"
	if dialect == SQLite {
		idType = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	r := strings.NewReplacer("{{id}}", idType)
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
