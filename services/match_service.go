package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/club-scheduler/models"
	"github.com/Dosada05/club-scheduler/repositories"
	"github.com/Dosada05/club-scheduler/scheduler"
)

type RecordInput struct {
	TeamSize int   `json:"team_size"` // 0 = size of side A
	SideA    []int `json:"side_a"`
	SideB    []int `json:"side_b"`
	ScoreA   int   `json:"score_a"`
	ScoreB   int   `json:"score_b"`
}

type RecordResult struct {
	Record   *models.MatchRecord `json:"record"`
	Recorded bool                `json:"recorded"`
}

type ScoreResult struct {
	Match          *models.RoundMatch  `json:"match"`
	Record         *models.MatchRecord `json:"record"`
	Recorded       bool                `json:"recorded"`
	RoundCompleted bool                `json:"round_completed"`
}

type MatchService interface {
	// ScoreRoundMatch stores the score of a match in the active round, logs it
	// to history through the duplicate guard and completes the round once
	// every match has a score.
	ScoreRoundMatch(ctx context.Context, matchID, scoreA, scoreB int) (*ScoreResult, error)
	// RecordIfNew appends a result to session history unless the same
	// canonical result is already there. Recorded is false for a duplicate.
	RecordIfNew(ctx context.Context, sessionID int, input RecordInput) (*RecordResult, error)
	History(ctx context.Context, sessionID int) ([]models.MatchRecord, error)
}

type matchService struct {
	db             *sql.DB
	sessionRepo    repositories.SessionRepository
	playerRepo     repositories.PlayerRepository
	roundRepo      repositories.RoundRepository
	roundMatchRepo repositories.RoundMatchRepository
	historyRepo    repositories.MatchHistoryRepository
	events         EventPublisher
	logger         *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	sessionRepo repositories.SessionRepository,
	playerRepo repositories.PlayerRepository,
	roundRepo repositories.RoundRepository,
	roundMatchRepo repositories.RoundMatchRepository,
	historyRepo repositories.MatchHistoryRepository,
	events EventPublisher,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:             db,
		sessionRepo:    sessionRepo,
		playerRepo:     playerRepo,
		roundRepo:      roundRepo,
		roundMatchRepo: roundMatchRepo,
		historyRepo:    historyRepo,
		events:         publisherOrNoop(events),
		logger:         logger.With("component", "match_service"),
	}
}

func validateScores(scoreA, scoreB int) error {
	if scoreA == scoreB {
		return fmt.Errorf("%w: %d-%d", ErrTiedScore, scoreA, scoreB)
	}
	if scoreA < 0 || scoreB < 0 {
		return fmt.Errorf("%w: scores must not be negative", ErrValidationFailed)
	}
	return nil
}

// recordTx is the duplicate guard. It checks before inserting so a duplicate
// never fails the surrounding transaction.
func (s *matchService) recordTx(ctx context.Context, tx *sql.Tx, rec *models.MatchRecord) (bool, error) {
	exists, err := s.historyRepo.Exists(ctx, tx, rec)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.historyRepo.Insert(ctx, tx, rec); err != nil {
		return false, err
	}
	return true, nil
}

func (s *matchService) ScoreRoundMatch(ctx context.Context, matchID, scoreA, scoreB int) (*ScoreResult, error) {
	if err := validateScores(scoreA, scoreB); err != nil {
		return nil, err
	}

	result := &ScoreResult{}
	var round *models.Round
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		match, err := s.roundMatchRepo.GetByID(ctx, tx, matchID)
		if err != nil {
			return mapRepoError(err)
		}
		if round, err = s.roundRepo.GetByID(ctx, tx, match.RoundID); err != nil {
			return mapRepoError(err)
		}
		if round.State != models.RoundActive {
			return fmt.Errorf("%w: round %d is %s", ErrInvalidRoundTransition, round.ID, round.State)
		}
		if match.Completed {
			return fmt.Errorf("%w: match %d already scored", ErrInvalidRoundTransition, match.ID)
		}

		canonical, err := scheduler.Canonicalize(match.SideA.Players, match.SideB.Players, scoreA, scoreB)
		if err != nil {
			return mapRepoError(err)
		}
		if err := s.roundMatchRepo.Complete(ctx, tx, match.ID, scoreA, scoreB); err != nil {
			return mapRepoError(err)
		}
		match.Completed = true
		match.ScoreA, match.ScoreB = &scoreA, &scoreB

		rec := canonical.Record(round.SessionID, match.TeamSize())
		rec.RoundMatchID = &match.ID
		recorded, err := s.recordTx(ctx, tx, &rec)
		if err != nil {
			return mapRepoError(err)
		}

		result.Match = match
		result.Record = &rec
		result.Recorded = recorded

		if round.Matches, err = s.roundMatchRepo.ListByRound(ctx, tx, round.ID); err != nil {
			return err
		}
		if round.AllScored() {
			if err := completeRoundTx(ctx, tx, s.roundRepo, round); err != nil {
				return err
			}
			result.RoundCompleted = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "round match scored",
		slog.Int("session_id", round.SessionID),
		slog.Int("round_id", round.ID),
		slog.Int("match_id", matchID),
		slog.Int("score_a", scoreA),
		slog.Int("score_b", scoreB),
		slog.Bool("recorded", result.Recorded),
	)
	s.events.Publish(round.SessionID, EventMatchScored, result)
	if result.Recorded {
		s.events.Publish(round.SessionID, EventMatchRecorded, result.Record)
	} else {
		s.logger.InfoContext(ctx, "duplicate result not recorded", slog.Int("session_id", round.SessionID), slog.Int("match_id", matchID))
	}
	if result.RoundCompleted {
		s.logger.InfoContext(ctx, "round completed", slog.Int("session_id", round.SessionID), slog.Int("round_id", round.ID))
		s.events.Publish(round.SessionID, EventRoundCompleted, round)
	}
	return result, nil
}

func (s *matchService) RecordIfNew(ctx context.Context, sessionID int, input RecordInput) (*RecordResult, error) {
	if err := validateScores(input.ScoreA, input.ScoreB); err != nil {
		return nil, err
	}
	teamSize := input.TeamSize
	if teamSize == 0 {
		teamSize = len(input.SideA)
	}
	if teamSize < 1 || teamSize > models.MaxTeamSize {
		return nil, fmt.Errorf("%w: team size %d", ErrValidationFailed, teamSize)
	}
	if len(input.SideA) != teamSize || len(input.SideB) != teamSize {
		return nil, fmt.Errorf("%w: both sides need %d player(s)", ErrValidationFailed, teamSize)
	}

	canonical, err := scheduler.Canonicalize(input.SideA, input.SideB, input.ScoreA, input.ScoreB)
	if err != nil {
		return nil, mapRepoError(err)
	}
	rec := canonical.Record(sessionID, teamSize)

	result := &RecordResult{Record: &rec}
	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if _, err := s.sessionRepo.GetByID(ctx, tx, sessionID); err != nil {
			return mapRepoError(err)
		}
		ids := append(append([]int{}, canonical.Side1...), canonical.Side2...)
		known, err := s.playerRepo.ListByIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(known) != len(ids) {
			return fmt.Errorf("%w: unknown player in result", ErrPlayerNotFound)
		}

		recorded, err := s.recordTx(ctx, tx, &rec)
		if err != nil {
			return err
		}
		result.Recorded = recorded
		return nil
	})
	if errors.Is(err, repositories.ErrDuplicateMatch) {
		// lost a race against an identical submission
		return &RecordResult{Record: &rec, Recorded: false}, nil
	}
	if err != nil {
		return nil, mapRepoError(err)
	}

	if result.Recorded {
		s.logger.InfoContext(ctx, "match recorded", slog.Int("session_id", sessionID), slog.Int("record_id", rec.ID))
		s.events.Publish(sessionID, EventMatchRecorded, result.Record)
	} else {
		s.logger.InfoContext(ctx, "duplicate result not recorded", slog.Int("session_id", sessionID))
	}
	return result, nil
}

func (s *matchService) History(ctx context.Context, sessionID int) ([]models.MatchRecord, error) {
	if _, err := s.sessionRepo.GetByID(ctx, nil, sessionID); err != nil {
		return nil, mapRepoError(err)
	}
	return s.historyRepo.ListBySession(ctx, nil, sessionID)
}
