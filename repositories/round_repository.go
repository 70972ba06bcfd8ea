package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/club-scheduler/db"
	"github.com/Dosada05/club-scheduler/models"
)

var (
	ErrRoundNotFound = errors.New("round not found")
	// ErrRoundConflict covers both unique rules on rounds: one index per
	// session and at most one active round per session.
	ErrRoundConflict = errors.New("round conflicts with an existing round")
	// ErrRoundStateConflict means a conditional state change found the round
	// in a different state than expected.
	ErrRoundStateConflict = errors.New("round is not in the expected state")
)

type RoundRepository interface {
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error)
	GetActive(ctx context.Context, exec SQLExecutor, sessionID int) (*models.Round, error)
	NextPending(ctx context.Context, exec SQLExecutor, sessionID int) (*models.Round, error)
	ListBySession(ctx context.Context, exec SQLExecutor, sessionID int) ([]*models.Round, error)
	ListByPool(ctx context.Context, exec SQLExecutor, sessionID int, poolID string) ([]*models.Round, error)
	NextIndex(ctx context.Context, exec SQLExecutor, sessionID int) (int, error)
	CountByState(ctx context.Context, exec SQLExecutor, sessionID int, states ...models.RoundState) (int, error)
	TransitionState(ctx context.Context, exec SQLExecutor, id int, from, to models.RoundState) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type sqlRoundRepository struct {
	base
}

func NewRoundRepository(conn *sql.DB, dialect db.Dialect) RoundRepository {
	return &sqlRoundRepository{base{db: conn, dialect: dialect}}
}

const roundColumns = `id, session_id, round_index, courts, team_size, state, pool_id, forced, created_at, activated_at`

func (r *sqlRoundRepository) Create(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	if round.CreatedAt.IsZero() {
		round.CreatedAt = time.Now().UTC()
	}
	if round.State == "" {
		round.State = models.RoundPending
	}
	var activatedAt sql.NullString
	if round.State != models.RoundPending {
		if round.ActivatedAt == nil {
			at := round.CreatedAt
			round.ActivatedAt = &at
		}
		activatedAt = sql.NullString{String: formatTime(*round.ActivatedAt), Valid: true}
	}
	query := r.q(`
		INSERT INTO rounds (session_id, round_index, courts, team_size, state, pool_id, forced, created_at, activated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		round.SessionID,
		round.Index,
		round.Courts,
		round.TeamSize,
		string(round.State),
		round.PoolID,
		round.Forced,
		formatTime(round.CreatedAt),
		activatedAt,
	).Scan(&round.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRoundConflict
		}
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

func (r *sqlRoundRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error) {
	query := r.q(`SELECT ` + roundColumns + ` FROM rounds WHERE id = ?`)
	return scanRound(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *sqlRoundRepository) GetActive(ctx context.Context, exec SQLExecutor, sessionID int) (*models.Round, error) {
	query := r.q(`SELECT ` + roundColumns + ` FROM rounds WHERE session_id = ? AND state = ?`)
	return scanRound(r.getExecutor(exec).QueryRowContext(ctx, query, sessionID, string(models.RoundActive)))
}

// NextPending returns the pending round with the lowest index.
func (r *sqlRoundRepository) NextPending(ctx context.Context, exec SQLExecutor, sessionID int) (*models.Round, error) {
	query := r.q(`SELECT ` + roundColumns + ` FROM rounds WHERE session_id = ? AND state = ? ORDER BY round_index ASC LIMIT 1`)
	return scanRound(r.getExecutor(exec).QueryRowContext(ctx, query, sessionID, string(models.RoundPending)))
}

func (r *sqlRoundRepository) ListBySession(ctx context.Context, exec SQLExecutor, sessionID int) ([]*models.Round, error) {
	query := r.q(`SELECT ` + roundColumns + ` FROM rounds WHERE session_id = ? ORDER BY round_index ASC`)
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds for session %d: %w", sessionID, err)
	}
	return scanRounds(rows)
}

func (r *sqlRoundRepository) ListByPool(ctx context.Context, exec SQLExecutor, sessionID int, poolID string) ([]*models.Round, error) {
	query := r.q(`SELECT ` + roundColumns + ` FROM rounds WHERE session_id = ? AND pool_id = ? ORDER BY round_index ASC`)
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, sessionID, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds for pool %s: %w", poolID, err)
	}
	return scanRounds(rows)
}

func (r *sqlRoundRepository) NextIndex(ctx context.Context, exec SQLExecutor, sessionID int) (int, error) {
	query := r.q(`SELECT COALESCE(MAX(round_index), 0) + 1 FROM rounds WHERE session_id = ?`)
	var next int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, sessionID).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to compute next round index: %w", err)
	}
	return next, nil
}

func (r *sqlRoundRepository) CountByState(ctx context.Context, exec SQLExecutor, sessionID int, states ...models.RoundState) (int, error) {
	if len(states) == 0 {
		return 0, nil
	}
	args := []interface{}{sessionID}
	for _, s := range states {
		args = append(args, string(s))
	}
	query := r.q(`SELECT COUNT(*) FROM rounds WHERE session_id = ? AND state IN (` + placeholders(len(states)) + `)`)
	var n int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rounds: %w", err)
	}
	return n, nil
}

// TransitionState moves a round from one state to another only if it is still
// in the expected state. Moving to active stamps activated_at.
func (r *sqlRoundRepository) TransitionState(ctx context.Context, exec SQLExecutor, id int, from, to models.RoundState) error {
	query := r.q(`UPDATE rounds SET state = ? WHERE id = ? AND state = ?`)
	args := []interface{}{string(to), id, string(from)}
	if to == models.RoundActive {
		query = r.q(`UPDATE rounds SET state = ?, activated_at = ? WHERE id = ? AND state = ?`)
		args = []interface{}{string(to), formatTime(time.Now().UTC()), id, string(from)}
	}
	result, err := r.getExecutor(exec).ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRoundConflict
		}
		return fmt.Errorf("failed to move round %d from %s to %s: %w", id, from, to, err)
	}
	return checkAffectedRows(result, ErrRoundStateConflict)
}

// Delete removes an uncompleted round with its court assignments. History
// records pointing at its matches are kept and unlinked.
func (r *sqlRoundRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)

	var state string
	err := executor.QueryRowContext(ctx, r.q(`SELECT state FROM rounds WHERE id = ?`), id).Scan(&state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoundNotFound
		}
		return fmt.Errorf("failed to load round %d: %w", id, err)
	}
	if models.RoundState(state).IsTerminal() {
		return ErrRoundStateConflict
	}

	stmts := []string{
		`UPDATE match_history SET round_match_id = NULL WHERE round_match_id IN (SELECT id FROM round_matches WHERE round_id = ?)`,
		`DELETE FROM round_matches WHERE round_id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := executor.ExecContext(ctx, r.q(stmt), id); err != nil {
			return fmt.Errorf("failed to discard round %d: %w", id, err)
		}
	}
	result, err := executor.ExecContext(ctx, r.q(`DELETE FROM rounds WHERE id = ? AND state <> ?`), id, string(models.RoundCompleted))
	if err != nil {
		return fmt.Errorf("failed to discard round %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundStateConflict)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRoundFields(s rowScanner) (*models.Round, error) {
	var round models.Round
	var state, createdAt string
	var poolID, activatedAt sql.NullString
	if err := s.Scan(
		&round.ID,
		&round.SessionID,
		&round.Index,
		&round.Courts,
		&round.TeamSize,
		&state,
		&poolID,
		&round.Forced,
		&createdAt,
		&activatedAt,
	); err != nil {
		return nil, err
	}
	round.State = models.RoundState(strings.ToLower(state))
	if poolID.Valid {
		id := poolID.String
		round.PoolID = &id
	}
	round.CreatedAt = parseTime(createdAt)
	if activatedAt.Valid {
		at := parseTime(activatedAt.String)
		round.ActivatedAt = &at
	}
	return &round, nil
}

func scanRound(row *sql.Row) (*models.Round, error) {
	round, err := scanRoundFields(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round: %w", err)
	}
	return round, nil
}

func scanRounds(rows *sql.Rows) ([]*models.Round, error) {
	defer rows.Close()

	rounds := make([]*models.Round, 0)
	for rows.Next() {
		round, err := scanRoundFields(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", err)
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating round rows: %w", err)
	}
	return rounds, nil
}
