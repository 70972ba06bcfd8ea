package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/club-scheduler/db"
	"github.com/Dosada05/club-scheduler/models"
)

var (
	ErrRoundMatchNotFound         = errors.New("round match not found")
	ErrRoundMatchAlreadyCompleted = errors.New("round match already completed")
	ErrRoundMatchCourtTaken       = errors.New("court already assigned in this round")
)

type RoundMatchRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, roundID int, matches []models.RoundMatch) ([]models.RoundMatch, error)
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.RoundMatch, error)
	ListByRound(ctx context.Context, exec SQLExecutor, roundID int) ([]models.RoundMatch, error)
	// ListPlayed returns matches of active and completed rounds of a session,
	// oldest round first, with PlayedAt set to when their round went active.
	ListPlayed(ctx context.Context, exec SQLExecutor, sessionID int) ([]models.RoundMatch, error)
	Complete(ctx context.Context, exec SQLExecutor, id, scoreA, scoreB int) error
}

type sqlRoundMatchRepository struct {
	base
}

func NewRoundMatchRepository(conn *sql.DB, dialect db.Dialect) RoundMatchRepository {
	return &sqlRoundMatchRepository{base{db: conn, dialect: dialect}}
}

const roundMatchColumns = `m.id, m.round_id, m.court, m.singles, m.side_a, m.side_b, m.completed, m.score_a, m.score_b`

func (r *sqlRoundMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, roundID int, matches []models.RoundMatch) ([]models.RoundMatch, error) {
	executor := r.getExecutor(exec)
	query := r.q(`
		INSERT INTO round_matches (round_id, court, singles, side_a, side_b, completed)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	created := make([]models.RoundMatch, 0, len(matches))
	for _, m := range matches {
		m.RoundID = roundID
		err := executor.QueryRowContext(ctx, query, roundID, m.Court, m.Singles, m.SideA.Key(), m.SideB.Key(), m.Completed).Scan(&m.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: court %d", ErrRoundMatchCourtTaken, m.Court)
			}
			return nil, fmt.Errorf("failed to create round match on court %d: %w", m.Court, err)
		}
		created = append(created, m)
	}
	return created, nil
}

func (r *sqlRoundMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.RoundMatch, error) {
	query := r.q(`SELECT ` + roundMatchColumns + ` FROM round_matches m WHERE m.id = ?`)
	m, err := scanRoundMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan round match %d: %w", id, err)
	}
	return m, nil
}

func (r *sqlRoundMatchRepository) ListByRound(ctx context.Context, exec SQLExecutor, roundID int) ([]models.RoundMatch, error) {
	query := r.q(`SELECT ` + roundMatchColumns + ` FROM round_matches m WHERE m.round_id = ? ORDER BY m.court ASC`)
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for round %d: %w", roundID, err)
	}
	return scanRoundMatches(rows)
}

func (r *sqlRoundMatchRepository) ListPlayed(ctx context.Context, exec SQLExecutor, sessionID int) ([]models.RoundMatch, error) {
	query := r.q(`
		SELECT ` + roundMatchColumns + `, COALESCE(r.activated_at, r.created_at)
		FROM round_matches m
		JOIN rounds r ON r.id = m.round_id
		WHERE r.session_id = ? AND r.state IN (?, ?)
		ORDER BY r.round_index ASC, m.court ASC`)
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, sessionID, string(models.RoundActive), string(models.RoundCompleted))
	if err != nil {
		return nil, fmt.Errorf("failed to list played matches for session %d: %w", sessionID, err)
	}
	defer rows.Close()

	matches := make([]models.RoundMatch, 0)
	for rows.Next() {
		var playedAt string
		m, err := scanRoundMatch(playedRow{rows, &playedAt})
		if err != nil {
			return nil, fmt.Errorf("failed to scan played match row: %w", err)
		}
		m.PlayedAt = parseTime(playedAt)
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating played match rows: %w", err)
	}
	return matches, nil
}

// playedRow appends the round activation time to a round match scan.
type playedRow struct {
	rows     *sql.Rows
	playedAt *string
}

func (p playedRow) Scan(dest ...interface{}) error {
	return p.rows.Scan(append(dest, p.playedAt)...)
}

// Complete stores the score and marks the match completed. A match can only be
// completed once.
func (r *sqlRoundMatchRepository) Complete(ctx context.Context, exec SQLExecutor, id, scoreA, scoreB int) error {
	query := r.q(`UPDATE round_matches SET completed = ?, score_a = ?, score_b = ? WHERE id = ? AND completed = ?`)
	result, err := r.getExecutor(exec).ExecContext(ctx, query, true, scoreA, scoreB, id, false)
	if err != nil {
		return fmt.Errorf("failed to complete round match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundMatchAlreadyCompleted)
}

func scanRoundMatch(s rowScanner) (*models.RoundMatch, error) {
	var m models.RoundMatch
	var sideA, sideB string
	var scoreA, scoreB sql.NullInt64
	if err := s.Scan(&m.ID, &m.RoundID, &m.Court, &m.Singles, &sideA, &sideB, &m.Completed, &scoreA, &scoreB); err != nil {
		return nil, err
	}
	var err error
	if m.SideA, err = models.ParseTeam(sideA); err != nil {
		return nil, fmt.Errorf("round match %d side a: %w", m.ID, err)
	}
	if m.SideB, err = models.ParseTeam(sideB); err != nil {
		return nil, fmt.Errorf("round match %d side b: %w", m.ID, err)
	}
	if scoreA.Valid && scoreB.Valid {
		a, b := int(scoreA.Int64), int(scoreB.Int64)
		m.ScoreA, m.ScoreB = &a, &b
	}
	return &m, nil
}

func scanRoundMatches(rows *sql.Rows) ([]models.RoundMatch, error) {
	defer rows.Close()

	matches := make([]models.RoundMatch, 0)
	for rows.Next() {
		m, err := scanRoundMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round match row: %w", err)
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating round match rows: %w", err)
	}
	return matches, nil
}
