package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/club-scheduler/models"
	"github.com/Dosada05/club-scheduler/repositories"
)

const maxPlayerNameLength = 100

type PlayerService interface {
	// Create registers a player by name. An existing player with the same name
	// is returned as is, with created=false.
	Create(ctx context.Context, name string) (player *models.Player, created bool, err error)
	GetByID(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context) ([]models.Player, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	logger     *slog.Logger
}

func NewPlayerService(playerRepo repositories.PlayerRepository, logger *slog.Logger) PlayerService {
	return &playerService{playerRepo: playerRepo, logger: logger.With("component", "player_service")}
}

func (s *playerService) Create(ctx context.Context, name string) (*models.Player, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, ErrPlayerNameRequired
	}
	if len(name) > maxPlayerNameLength {
		return nil, false, fmt.Errorf("%w: name longer than %d characters", ErrValidationFailed, maxPlayerNameLength)
	}

	existing, err := s.playerRepo.GetByName(ctx, nil, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrPlayerNotFound) {
		return nil, false, fmt.Errorf("failed to look up player %q: %w", name, err)
	}

	player := &models.Player{Name: name}
	if err := s.playerRepo.Create(ctx, nil, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerNameConflict) {
			// someone else added the same name in between
			existing, getErr := s.playerRepo.GetByName(ctx, nil, name)
			if getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, mapRepoError(err)
	}
	s.logger.InfoContext(ctx, "player registered", slog.Int("player_id", player.ID), slog.String("name", player.Name))
	return player, true, nil
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return player, nil
}

func (s *playerService) List(ctx context.Context) ([]models.Player, error) {
	return s.playerRepo.List(ctx, nil)
}
