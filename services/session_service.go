package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/club-scheduler/models"
	"github.com/Dosada05/club-scheduler/repositories"
	"github.com/araddon/dateparse"
)

type SessionService interface {
	// Open returns the session for (date, sport), creating it on first use.
	// An empty date means today.
	Open(ctx context.Context, date, sport string) (session *models.Session, created bool, err error)
	GetByID(ctx context.Context, id int) (*models.Session, error)
	List(ctx context.Context, limit int) ([]models.Session, error)
}

type sessionService struct {
	sessionRepo repositories.SessionRepository
	sports      SportService
	logger      *slog.Logger
	now         func() time.Time
}

func NewSessionService(sessionRepo repositories.SessionRepository, sports SportService, logger *slog.Logger) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		sports:      sports,
		logger:      logger.With("component", "session_service"),
		now:         time.Now,
	}
}

// NormalizeSessionDate accepts any common date spelling and returns YYYY-MM-DD.
func NormalizeSessionDate(input string, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "today") {
		return now.Format(models.SessionDateLayout), nil
	}
	t, err := dateparse.ParseIn(input, now.Location())
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionDate, input)
	}
	return t.Format(models.SessionDateLayout), nil
}

func (s *sessionService) Open(ctx context.Context, date, sportName string) (*models.Session, bool, error) {
	sport, err := s.sports.Get(sportName)
	if err != nil {
		return nil, false, err
	}
	day, err := NormalizeSessionDate(date, s.now())
	if err != nil {
		return nil, false, err
	}

	existing, err := s.sessionRepo.GetByDateAndSport(ctx, nil, day, sport.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrSessionNotFound) {
		return nil, false, fmt.Errorf("failed to look up session: %w", err)
	}

	session := &models.Session{Date: day, Sport: sport.Name}
	if err := s.sessionRepo.Create(ctx, nil, session); err != nil {
		if errors.Is(err, repositories.ErrSessionConflict) {
			if existing, getErr := s.sessionRepo.GetByDateAndSport(ctx, nil, day, sport.Name); getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, mapRepoError(err)
	}
	s.logger.InfoContext(ctx, "session opened", slog.Int("session_id", session.ID), slog.String("date", day), slog.String("sport", sport.Name))
	return session, true, nil
}

func (s *sessionService) GetByID(ctx context.Context, id int) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return session, nil
}

func (s *sessionService) List(ctx context.Context, limit int) ([]models.Session, error) {
	return s.sessionRepo.List(ctx, nil, limit)
}
