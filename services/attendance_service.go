package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/club-scheduler/models"
	"github.com/Dosada05/club-scheduler/repositories"
)

// AttendanceService manages who is present at a session. The roster is frozen
// while the session has an active or pending round so a round never refers to
// someone who has left.
type AttendanceService interface {
	List(ctx context.Context, sessionID int) ([]models.Player, error)
	Set(ctx context.Context, sessionID int, playerIDs []int) ([]models.Player, error)
	Add(ctx context.Context, sessionID, playerID int) error
	Remove(ctx context.Context, sessionID, playerID int) error
}

type attendanceService struct {
	db             *sql.DB
	sessionRepo    repositories.SessionRepository
	roundRepo      repositories.RoundRepository
	attendanceRepo repositories.AttendanceRepository
	logger         *slog.Logger
}

func NewAttendanceService(
	db *sql.DB,
	sessionRepo repositories.SessionRepository,
	roundRepo repositories.RoundRepository,
	attendanceRepo repositories.AttendanceRepository,
	logger *slog.Logger,
) AttendanceService {
	return &attendanceService{
		db:             db,
		sessionRepo:    sessionRepo,
		roundRepo:      roundRepo,
		attendanceRepo: attendanceRepo,
		logger:         logger.With("component", "attendance_service"),
	}
}

func (s *attendanceService) List(ctx context.Context, sessionID int) ([]models.Player, error) {
	if _, err := s.sessionRepo.GetByID(ctx, nil, sessionID); err != nil {
		return nil, mapRepoError(err)
	}
	return s.attendanceRepo.ListPlayers(ctx, nil, sessionID)
}

func (s *attendanceService) Set(ctx context.Context, sessionID int, playerIDs []int) ([]models.Player, error) {
	var present []models.Player
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.ensureEditable(ctx, tx, sessionID); err != nil {
			return err
		}
		if err := s.attendanceRepo.Replace(ctx, tx, sessionID, playerIDs); err != nil {
			return mapRepoError(err)
		}
		var err error
		present, err = s.attendanceRepo.ListPlayers(ctx, tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "attendance set", slog.Int("session_id", sessionID), slog.Int("present", len(present)))
	return present, nil
}

func (s *attendanceService) Add(ctx context.Context, sessionID, playerID int) error {
	return withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.ensureEditable(ctx, tx, sessionID); err != nil {
			return err
		}
		return mapRepoError(s.attendanceRepo.Add(ctx, tx, sessionID, playerID))
	})
}

// Remove is idempotent: removing an absent player is not an error.
func (s *attendanceService) Remove(ctx context.Context, sessionID, playerID int) error {
	return withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.ensureEditable(ctx, tx, sessionID); err != nil {
			return err
		}
		_, err := s.attendanceRepo.Remove(ctx, tx, sessionID, playerID)
		return err
	})
}

func (s *attendanceService) ensureEditable(ctx context.Context, tx *sql.Tx, sessionID int) error {
	if _, err := s.sessionRepo.GetByID(ctx, tx, sessionID); err != nil {
		return mapRepoError(err)
	}
	open, err := s.roundRepo.CountByState(ctx, tx, sessionID, models.RoundActive, models.RoundPending)
	if err != nil {
		return err
	}
	if open > 0 {
		return fmt.Errorf("%w: session %d has %d open round(s)", ErrAttendanceLocked, sessionID, open)
	}
	return nil
}
