package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/club-scheduler/db"
	"github.com/Dosada05/club-scheduler/models"
)

var ErrAttendanceReferenceInvalid = errors.New("attendance refers to an unknown session or player")

type AttendanceRepository interface {
	Add(ctx context.Context, exec SQLExecutor, sessionID, playerID int) error
	Remove(ctx context.Context, exec SQLExecutor, sessionID, playerID int) (bool, error)
	Replace(ctx context.Context, exec SQLExecutor, sessionID int, playerIDs []int) error
	ListPlayers(ctx context.Context, exec SQLExecutor, sessionID int) ([]models.Player, error)
}

type sqlAttendanceRepository struct {
	base
}

func NewAttendanceRepository(conn *sql.DB, dialect db.Dialect) AttendanceRepository {
	return &sqlAttendanceRepository{base{db: conn, dialect: dialect}}
}

// Add marks a player present. Adding someone already present is a no-op.
func (r *sqlAttendanceRepository) Add(ctx context.Context, exec SQLExecutor, sessionID, playerID int) error {
	query := r.q(`INSERT INTO attendance (session_id, player_id) VALUES (?, ?) ON CONFLICT DO NOTHING`)
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, sessionID, playerID); err != nil {
		if isForeignKeyViolation(err) {
			return ErrAttendanceReferenceInvalid
		}
		return fmt.Errorf("failed to add attendance for player %d: %w", playerID, err)
	}
	return nil
}

func (r *sqlAttendanceRepository) Remove(ctx context.Context, exec SQLExecutor, sessionID, playerID int) (bool, error) {
	query := r.q(`DELETE FROM attendance WHERE session_id = ? AND player_id = ?`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query, sessionID, playerID)
	if err != nil {
		return false, fmt.Errorf("failed to remove attendance for player %d: %w", playerID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n > 0, nil
}

// Replace sets the present roster to exactly playerIDs. Callers should pass a
// transaction so the roster never appears half-written.
func (r *sqlAttendanceRepository) Replace(ctx context.Context, exec SQLExecutor, sessionID int, playerIDs []int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, r.q(`DELETE FROM attendance WHERE session_id = ?`), sessionID); err != nil {
		return fmt.Errorf("failed to clear attendance for session %d: %w", sessionID, err)
	}
	for _, id := range playerIDs {
		if err := r.Add(ctx, executor, sessionID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *sqlAttendanceRepository) ListPlayers(ctx context.Context, exec SQLExecutor, sessionID int) ([]models.Player, error) {
	query := r.q(`
		SELECT p.id, p.name, p.created_at
		FROM attendance a
		JOIN players p ON p.id = a.player_id
		WHERE a.session_id = ?
		ORDER BY LOWER(p.name) ASC, p.id ASC`)
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance for session %d: %w", sessionID, err)
	}
	return scanPlayers(rows)
}
