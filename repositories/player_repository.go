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
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerNameConflict = errors.New("player name conflict")
)

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error)
	GetByName(ctx context.Context, exec SQLExecutor, name string) (*models.Player, error)
	List(ctx context.Context, exec SQLExecutor) ([]models.Player, error)
	ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]models.Player, error)
}

type sqlPlayerRepository struct {
	base
}

func NewPlayerRepository(conn *sql.DB, dialect db.Dialect) PlayerRepository {
	return &sqlPlayerRepository{base{db: conn, dialect: dialect}}
}

func (r *sqlPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	if player.CreatedAt.IsZero() {
		player.CreatedAt = time.Now().UTC()
	}
	query := r.q(`INSERT INTO players (name, created_at) VALUES (?, ?) RETURNING id`)
	err := r.getExecutor(exec).QueryRowContext(ctx, query, player.Name, formatTime(player.CreatedAt)).Scan(&player.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPlayerNameConflict
		}
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (r *sqlPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error) {
	query := r.q(`SELECT id, name, created_at FROM players WHERE id = ?`)
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *sqlPlayerRepository) GetByName(ctx context.Context, exec SQLExecutor, name string) (*models.Player, error) {
	query := r.q(`SELECT id, name, created_at FROM players WHERE name = ?`)
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, name))
}

func (r *sqlPlayerRepository) scanOne(row *sql.Row) (*models.Player, error) {
	var p models.Player
	var createdAt string
	if err := row.Scan(&p.ID, &p.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func (r *sqlPlayerRepository) List(ctx context.Context, exec SQLExecutor) ([]models.Player, error) {
	query := `SELECT id, name, created_at FROM players ORDER BY LOWER(name) ASC, id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return scanPlayers(rows)
}

func (r *sqlPlayerRepository) ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]models.Player, error) {
	if len(ids) == 0 {
		return []models.Player{}, nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := r.q(`SELECT id, name, created_at FROM players WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY LOWER(name) ASC, id ASC`)
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players by id: %w", err)
	}
	return scanPlayers(rows)
}

func scanPlayers(rows *sql.Rows) ([]models.Player, error) {
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		p.CreatedAt = parseTime(createdAt)
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player rows: %w", err)
	}
	return players, nil
}
