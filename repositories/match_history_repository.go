package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/club-scheduler/db"
	"github.com/Dosada05/club-scheduler/models"
)

// ErrDuplicateMatch is returned when a record with the same canonical key
// (session, team size, sides, scores) already exists.
var ErrDuplicateMatch = errors.New("match already recorded")

type MatchHistoryRepository interface {
	Insert(ctx context.Context, exec SQLExecutor, rec *models.MatchRecord) error
	Exists(ctx context.Context, exec SQLExecutor, rec *models.MatchRecord) (bool, error)
	ListBySession(ctx context.Context, exec SQLExecutor, sessionID int) ([]models.MatchRecord, error)
	// ListUnlinked returns records not tied to a round match, i.e. results
	// entered by hand, in recording order.
	ListUnlinked(ctx context.Context, exec SQLExecutor, sessionID int) ([]models.MatchRecord, error)
}

type sqlMatchHistoryRepository struct {
	base
}

func NewMatchHistoryRepository(conn *sql.DB, dialect db.Dialect) MatchHistoryRepository {
	return &sqlMatchHistoryRepository{base{db: conn, dialect: dialect}}
}

const matchRecordColumns = `id, session_id, team_size, side1, side2, score1, score2, winning_side, round_match_id, recorded_at`

// Insert expects rec to be in canonical form already.
func (r *sqlMatchHistoryRepository) Insert(ctx context.Context, exec SQLExecutor, rec *models.MatchRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}
	query := r.q(`
		INSERT INTO match_history (session_id, team_size, side1, side2, score1, score2, winning_side, round_match_id, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		rec.SessionID,
		rec.TeamSize,
		rec.Side1.Key(),
		rec.Side2.Key(),
		rec.Score1,
		rec.Score2,
		rec.WinningSide,
		rec.RoundMatchID,
		formatTime(rec.RecordedAt),
	).Scan(&rec.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateMatch
		}
		return fmt.Errorf("failed to insert match record: %w", err)
	}
	return nil
}

func (r *sqlMatchHistoryRepository) Exists(ctx context.Context, exec SQLExecutor, rec *models.MatchRecord) (bool, error) {
	query := r.q(`
		SELECT EXISTS (
			SELECT 1 FROM match_history
			WHERE session_id = ? AND team_size = ? AND side1 = ? AND side2 = ? AND score1 = ? AND score2 = ?
		)`)
	var exists bool
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		rec.SessionID, rec.TeamSize, rec.Side1.Key(), rec.Side2.Key(), rec.Score1, rec.Score2,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check match history: %w", err)
	}
	return exists, nil
}

func (r *sqlMatchHistoryRepository) ListBySession(ctx context.Context, exec SQLExecutor, sessionID int) ([]models.MatchRecord, error) {
	query := r.q(`SELECT ` + matchRecordColumns + ` FROM match_history WHERE session_id = ? ORDER BY id ASC`)
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match history for session %d: %w", sessionID, err)
	}
	return scanMatchRecords(rows)
}

func (r *sqlMatchHistoryRepository) ListUnlinked(ctx context.Context, exec SQLExecutor, sessionID int) ([]models.MatchRecord, error) {
	query := r.q(`SELECT ` + matchRecordColumns + ` FROM match_history WHERE session_id = ? AND round_match_id IS NULL ORDER BY id ASC`)
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list manual match history for session %d: %w", sessionID, err)
	}
	return scanMatchRecords(rows)
}

func scanMatchRecords(rows *sql.Rows) ([]models.MatchRecord, error) {
	defer rows.Close()

	records := make([]models.MatchRecord, 0)
	for rows.Next() {
		var rec models.MatchRecord
		var side1, side2, recordedAt string
		var roundMatchID sql.NullInt64
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.TeamSize,
			&side1,
			&side2,
			&rec.Score1,
			&rec.Score2,
			&rec.WinningSide,
			&roundMatchID,
			&recordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match record row: %w", err)
		}
		var err error
		if rec.Side1, err = models.ParseTeam(side1); err != nil {
			return nil, fmt.Errorf("match record %d side1: %w", rec.ID, err)
		}
		if rec.Side2, err = models.ParseTeam(side2); err != nil {
			return nil, fmt.Errorf("match record %d side2: %w", rec.ID, err)
		}
		if roundMatchID.Valid {
			id := int(roundMatchID.Int64)
			rec.RoundMatchID = &id
		}
		rec.RecordedAt = parseTime(recordedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match record rows: %w", err)
	}
	return records, nil
}
