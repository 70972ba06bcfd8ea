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

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionConflict = errors.New("session already exists for this date and sport")
)

type SessionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, session *models.Session) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Session, error)
	GetByDateAndSport(ctx context.Context, exec SQLExecutor, date, sport string) (*models.Session, error)
	List(ctx context.Context, exec SQLExecutor, limit int) ([]models.Session, error)
}

type sqlSessionRepository struct {
	base
}

func NewSessionRepository(conn *sql.DB, dialect db.Dialect) SessionRepository {
	return &sqlSessionRepository{base{db: conn, dialect: dialect}}
}

func (r *sqlSessionRepository) Create(ctx context.Context, exec SQLExecutor, session *models.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	query := r.q(`INSERT INTO sessions (session_date, sport, created_at) VALUES (?, ?, ?) RETURNING id`)
	err := r.getExecutor(exec).QueryRowContext(ctx, query, session.Date, session.Sport, formatTime(session.CreatedAt)).Scan(&session.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSessionConflict
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sqlSessionRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Session, error) {
	query := r.q(`SELECT id, session_date, sport, created_at FROM sessions WHERE id = ?`)
	return scanSession(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *sqlSessionRepository) GetByDateAndSport(ctx context.Context, exec SQLExecutor, date, sport string) (*models.Session, error) {
	query := r.q(`SELECT id, session_date, sport, created_at FROM sessions WHERE session_date = ? AND sport = ?`)
	return scanSession(r.getExecutor(exec).QueryRowContext(ctx, query, date, sport))
}

func (r *sqlSessionRepository) List(ctx context.Context, exec SQLExecutor, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.q(`SELECT id, session_date, sport, created_at FROM sessions ORDER BY session_date DESC, id DESC LIMIT ?`)
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		var s models.Session
		var createdAt string
		if err := rows.Scan(&s.ID, &s.Date, &s.Sport, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		s.CreatedAt = parseTime(createdAt)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}

func scanSession(row *sql.Row) (*models.Session, error) {
	var s models.Session
	var createdAt string
	if err := row.Scan(&s.ID, &s.Date, &s.Sport, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	s.CreatedAt = parseTime(createdAt)
	return &s, nil
}
