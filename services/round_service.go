package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/club-scheduler/models"
	"github.com/Dosada05/club-scheduler/repositories"
	"github.com/Dosada05/club-scheduler/scheduler"
	"github.com/google/uuid"
)

type CreateRoundInput struct {
	Courts int                    `json:"courts"` // 0 = sport default
	SitOut scheduler.SitOutPolicy `json:"sit_out"`
}

type RoundResult struct {
	Round       *models.Round `json:"round"`
	SittingOut  []int         `json:"sitting_out"`
	SinglesSlot bool          `json:"singles_slot"`
}

type PoolInput struct {
	Courts   int                `json:"courts"` // 0 = sport default
	Ordering scheduler.Ordering `json:"ordering"`
	Seed     *int64             `json:"seed,omitempty"`
}

type PoolResult struct {
	PoolID   string          `json:"pool_id"`
	Teams    []models.Team   `json:"teams"`
	Rounds   []*models.Round `json:"rounds"`
	Deferred []models.Player `json:"deferred,omitempty"`
	// ShortRounds lists round indexes that use fewer courts than available.
	ShortRounds []int `json:"short_rounds"`
	Seed        int64 `json:"seed"`
}

type AdvanceResult struct {
	Completed *models.Round `json:"completed,omitempty"`
	Activated *models.Round `json:"activated,omitempty"`
	// Exhausted is set when no pending round was left to activate.
	Exhausted bool `json:"exhausted"`
}

type RoundService interface {
	// CreateRound assigns a single round from the present roster and stores it
	// as the session's active round.
	CreateRound(ctx context.Context, sessionID int, input CreateRoundInput) (*RoundResult, error)
	// GeneratePool stores a full round-robin fixture list; the first round is
	// activated, the rest stay pending.
	GeneratePool(ctx context.Context, sessionID int, input PoolInput) (*PoolResult, error)
	DiscardPool(ctx context.Context, sessionID int, poolID string) (int, error)

	GetRound(ctx context.Context, roundID int) (*models.Round, error)
	ActiveRound(ctx context.Context, sessionID int) (*models.Round, error)
	ListRounds(ctx context.Context, sessionID int) ([]*models.Round, error)

	Activate(ctx context.Context, roundID int) (*models.Round, error)
	Complete(ctx context.Context, roundID int) (*models.Round, error)
	Discard(ctx context.Context, roundID int) error
	Advance(ctx context.Context, sessionID int) (*AdvanceResult, error)
}

type roundService struct {
	db             *sql.DB
	sessionRepo    repositories.SessionRepository
	attendanceRepo repositories.AttendanceRepository
	roundRepo      repositories.RoundRepository
	roundMatchRepo repositories.RoundMatchRepository
	ledger         ledgerLoader
	sports         SportService
	events         EventPublisher
	logger         *slog.Logger
}

func NewRoundService(
	db *sql.DB,
	sessionRepo repositories.SessionRepository,
	attendanceRepo repositories.AttendanceRepository,
	roundRepo repositories.RoundRepository,
	roundMatchRepo repositories.RoundMatchRepository,
	historyRepo repositories.MatchHistoryRepository,
	sports SportService,
	events EventPublisher,
	logger *slog.Logger,
) RoundService {
	return &roundService{
		db:             db,
		sessionRepo:    sessionRepo,
		attendanceRepo: attendanceRepo,
		roundRepo:      roundRepo,
		roundMatchRepo: roundMatchRepo,
		ledger:         ledgerLoader{roundMatchRepo: roundMatchRepo, historyRepo: historyRepo},
		sports:         sports,
		events:         publisherOrNoop(events),
		logger:         logger.With("component", "round_service"),
	}
}

// sessionSport loads the session and the catalog entry for its sport.
func (s *roundService) sessionSport(ctx context.Context, exec repositories.SQLExecutor, sessionID int) (*models.Session, models.Sport, error) {
	session, err := s.sessionRepo.GetByID(ctx, exec, sessionID)
	if err != nil {
		return nil, models.Sport{}, mapRepoError(err)
	}
	sport, err := s.sports.Get(session.Sport)
	if err != nil {
		return nil, models.Sport{}, err
	}
	return session, sport, nil
}

// ensureNoOpenRounds rejects new scheduling while an active or pending round exists.
func (s *roundService) ensureNoOpenRounds(ctx context.Context, exec repositories.SQLExecutor, sessionID int) error {
	open, err := s.roundRepo.CountByState(ctx, exec, sessionID, models.RoundActive, models.RoundPending)
	if err != nil {
		return err
	}
	if open > 0 {
		return fmt.Errorf("%w: session %d still has %d open round(s)", ErrInvalidRoundTransition, sessionID, open)
	}
	return nil
}

func toRoundMatches(matches []scheduler.Match) []models.RoundMatch {
	out := make([]models.RoundMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, models.RoundMatch{
			Court:   m.Court,
			Singles: m.Singles(),
			SideA:   m.SideA,
			SideB:   m.SideB,
		})
	}
	return out
}

func (s *roundService) CreateRound(ctx context.Context, sessionID int, input CreateRoundInput) (*RoundResult, error) {
	if !input.SitOut.IsValid() {
		return nil, fmt.Errorf("%w: unknown sit-out policy %q", ErrValidationFailed, input.SitOut)
	}
	if input.Courts < 0 {
		return nil, fmt.Errorf("%w: courts must not be negative", ErrValidationFailed)
	}

	result := &RoundResult{}
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		_, sport, err := s.sessionSport(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := s.ensureNoOpenRounds(ctx, tx, sessionID); err != nil {
			return err
		}
		courts := input.Courts
		if courts == 0 {
			courts = sport.DefaultCourts
		}

		present, err := s.attendanceRepo.ListPlayers(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		ids := make([]int, len(present))
		for i, p := range present {
			ids[i] = p.ID
		}
		ledger, err := s.ledger.load(ctx, tx, sessionID)
		if err != nil {
			return err
		}

		assignment, err := scheduler.AssignRound(scheduler.AssignParams{
			Present:          ids,
			Courts:           courts,
			TeamSize:         sport.TeamSize,
			AllowSinglesSlot: sport.SinglesSlotCapable(),
			SitOut:           input.SitOut,
		}, ledger)
		if err != nil {
			return mapRepoError(err)
		}

		index, err := s.roundRepo.NextIndex(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		round := &models.Round{
			SessionID: sessionID,
			Index:     index,
			Courts:    courts,
			TeamSize:  sport.TeamSize,
			State:     models.RoundActive,
		}
		if err := s.roundRepo.Create(ctx, tx, round); err != nil {
			return mapRepoError(err)
		}
		round.Matches, err = s.roundMatchRepo.CreateBatch(ctx, tx, round.ID, toRoundMatches(assignment.Matches))
		if err != nil {
			return mapRepoError(err)
		}

		result.Round = round
		result.SittingOut = assignment.SittingOut
		result.SinglesSlot = assignment.SinglesSlot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "round created",
		slog.Int("session_id", sessionID),
		slog.Int("round_id", result.Round.ID),
		slog.Int("round_index", result.Round.Index),
		slog.Int("matches", len(result.Round.Matches)),
		slog.Int("sitting_out", len(result.SittingOut)),
	)
	s.events.Publish(sessionID, EventRoundCreated, result)
	return result, nil
}

func (s *roundService) GeneratePool(ctx context.Context, sessionID int, input PoolInput) (*PoolResult, error) {
	if !input.Ordering.IsValid() {
		return nil, fmt.Errorf("%w: unknown ordering %q", ErrValidationFailed, input.Ordering)
	}
	if input.Courts < 0 {
		return nil, fmt.Errorf("%w: courts must not be negative", ErrValidationFailed)
	}
	seed := time.Now().UnixNano()
	if input.Seed != nil {
		seed = *input.Seed
	}

	result := &PoolResult{PoolID: uuid.New().String(), Seed: seed}
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		_, sport, err := s.sessionSport(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := s.ensureNoOpenRounds(ctx, tx, sessionID); err != nil {
			return err
		}
		courts := input.Courts
		if courts == 0 {
			courts = sport.DefaultCourts
		}

		present, err := s.attendanceRepo.ListPlayers(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		pool, err := scheduler.GeneratePool(scheduler.PoolParams{
			Present:  present,
			Courts:   courts,
			TeamSize: sport.TeamSize,
			Ordering: input.Ordering,
			Seed:     seed,
		})
		if err != nil {
			return mapRepoError(err)
		}

		first, err := s.roundRepo.NextIndex(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		for i, pr := range pool.Rounds {
			state := models.RoundPending
			if i == 0 {
				state = models.RoundActive
			}
			round := &models.Round{
				SessionID: sessionID,
				Index:     first + i,
				Courts:    courts,
				TeamSize:  sport.TeamSize,
				State:     state,
				PoolID:    &result.PoolID,
				Forced:    pr.Forced,
			}
			if err := s.roundRepo.Create(ctx, tx, round); err != nil {
				return mapRepoError(err)
			}
			round.Matches, err = s.roundMatchRepo.CreateBatch(ctx, tx, round.ID, toRoundMatches(pr.Matches))
			if err != nil {
				return mapRepoError(err)
			}
			result.Rounds = append(result.Rounds, round)
		}
		result.Teams = pool.Teams
		result.Deferred = pool.Deferred
		result.ShortRounds = pool.ShortRounds(courts)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "pool created",
		slog.Int("session_id", sessionID),
		slog.String("pool_id", result.PoolID),
		slog.Int("teams", len(result.Teams)),
		slog.Int("rounds", len(result.Rounds)),
		slog.Int("deferred", len(result.Deferred)),
	)
	s.events.Publish(sessionID, EventPoolCreated, result)
	return result, nil
}

func (s *roundService) DiscardPool(ctx context.Context, sessionID int, poolID string) (int, error) {
	discarded := 0
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		rounds, err := s.roundRepo.ListByPool(ctx, tx, sessionID, poolID)
		if err != nil {
			return err
		}
		if len(rounds) == 0 {
			return fmt.Errorf("%w: pool %s", ErrNotFound, poolID)
		}
		for _, r := range rounds {
			if r.State.IsTerminal() {
				continue
			}
			if err := s.roundRepo.Delete(ctx, tx, r.ID); err != nil {
				return mapRepoError(err)
			}
			discarded++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "pool discarded", slog.Int("session_id", sessionID), slog.String("pool_id", poolID), slog.Int("rounds", discarded))
	s.events.Publish(sessionID, EventRoundDiscarded, map[string]interface{}{"pool_id": poolID, "rounds": discarded})
	return discarded, nil
}

func (s *roundService) withMatches(ctx context.Context, exec repositories.SQLExecutor, round *models.Round) (*models.Round, error) {
	matches, err := s.roundMatchRepo.ListByRound(ctx, exec, round.ID)
	if err != nil {
		return nil, err
	}
	round.Matches = matches
	return round, nil
}

func (s *roundService) GetRound(ctx context.Context, roundID int) (*models.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, nil, roundID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return s.withMatches(ctx, nil, round)
}

func (s *roundService) ActiveRound(ctx context.Context, sessionID int) (*models.Round, error) {
	if _, err := s.sessionRepo.GetByID(ctx, nil, sessionID); err != nil {
		return nil, mapRepoError(err)
	}
	round, err := s.roundRepo.GetActive(ctx, nil, sessionID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return s.withMatches(ctx, nil, round)
}

func (s *roundService) ListRounds(ctx context.Context, sessionID int) ([]*models.Round, error) {
	if _, err := s.sessionRepo.GetByID(ctx, nil, sessionID); err != nil {
		return nil, mapRepoError(err)
	}
	rounds, err := s.roundRepo.ListBySession(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	for _, r := range rounds {
		if _, err := s.withMatches(ctx, nil, r); err != nil {
			return nil, err
		}
	}
	return rounds, nil
}

// activateTx moves a pending round to active. Another active round in the
// session blocks the move.
func (s *roundService) activateTx(ctx context.Context, tx *sql.Tx, round *models.Round) error {
	if !round.State.CanTransitionTo(models.RoundActive) {
		return fmt.Errorf("%w: round %d is %s", ErrInvalidRoundTransition, round.ID, round.State)
	}
	active, err := s.roundRepo.GetActive(ctx, tx, round.SessionID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: round %d is already active", ErrInvalidRoundTransition, active.ID)
	case !errors.Is(err, repositories.ErrRoundNotFound):
		return err
	}
	if err := s.roundRepo.TransitionState(ctx, tx, round.ID, models.RoundPending, models.RoundActive); err != nil {
		return mapRepoError(err)
	}
	stored, err := s.roundRepo.GetByID(ctx, tx, round.ID)
	if err != nil {
		return mapRepoError(err)
	}
	round.State, round.ActivatedAt = stored.State, stored.ActivatedAt
	return nil
}

func (s *roundService) Activate(ctx context.Context, roundID int) (*models.Round, error) {
	var round *models.Round
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		if round, err = s.roundRepo.GetByID(ctx, tx, roundID); err != nil {
			return mapRepoError(err)
		}
		if err := s.activateTx(ctx, tx, round); err != nil {
			return err
		}
		_, err = s.withMatches(ctx, tx, round)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "round activated", slog.Int("session_id", round.SessionID), slog.Int("round_id", round.ID))
	s.events.Publish(round.SessionID, EventRoundActivated, round)
	return round, nil
}

func (s *roundService) Complete(ctx context.Context, roundID int) (*models.Round, error) {
	var round *models.Round
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		if round, err = s.roundRepo.GetByID(ctx, tx, roundID); err != nil {
			return mapRepoError(err)
		}
		if _, err = s.withMatches(ctx, tx, round); err != nil {
			return err
		}
		return completeRoundTx(ctx, tx, s.roundRepo, round)
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "round completed", slog.Int("session_id", round.SessionID), slog.Int("round_id", round.ID))
	s.events.Publish(round.SessionID, EventRoundCompleted, round)
	return round, nil
}

// completeRoundTx moves an active round whose matches are all scored to
// completed. round.Matches must be loaded.
func completeRoundTx(ctx context.Context, tx *sql.Tx, roundRepo repositories.RoundRepository, round *models.Round) error {
	if !round.State.CanTransitionTo(models.RoundCompleted) {
		return fmt.Errorf("%w: round %d is %s", ErrInvalidRoundTransition, round.ID, round.State)
	}
	if !round.AllScored() {
		return fmt.Errorf("%w: round %d has unplayed matches", ErrInvalidRoundTransition, round.ID)
	}
	if err := roundRepo.TransitionState(ctx, tx, round.ID, models.RoundActive, models.RoundCompleted); err != nil {
		return mapRepoError(err)
	}
	round.State = models.RoundCompleted
	return nil
}

func (s *roundService) Discard(ctx context.Context, roundID int) error {
	var round *models.Round
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		if round, err = s.roundRepo.GetByID(ctx, tx, roundID); err != nil {
			return mapRepoError(err)
		}
		if round.State.IsTerminal() {
			return fmt.Errorf("%w: round %d is already completed", ErrInvalidRoundTransition, round.ID)
		}
		return mapRepoError(s.roundRepo.Delete(ctx, tx, round.ID))
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "round discarded", slog.Int("session_id", round.SessionID), slog.Int("round_id", round.ID), slog.String("state", round.State.String()))
	s.events.Publish(round.SessionID, EventRoundDiscarded, map[string]interface{}{"round_id": round.ID})
	return nil
}

// Advance completes the active round (if any, and only when fully scored) and
// activates the pending round with the lowest index.
func (s *roundService) Advance(ctx context.Context, sessionID int) (*AdvanceResult, error) {
	result := &AdvanceResult{}
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if _, err := s.sessionRepo.GetByID(ctx, tx, sessionID); err != nil {
			return mapRepoError(err)
		}

		active, err := s.roundRepo.GetActive(ctx, tx, sessionID)
		switch {
		case err == nil:
			if _, err := s.withMatches(ctx, tx, active); err != nil {
				return err
			}
			if err := completeRoundTx(ctx, tx, s.roundRepo, active); err != nil {
				return err
			}
			result.Completed = active
		case !errors.Is(err, repositories.ErrRoundNotFound):
			return err
		}

		next, err := s.roundRepo.NextPending(ctx, tx, sessionID)
		if errors.Is(err, repositories.ErrRoundNotFound) {
			if result.Completed == nil {
				return ErrNoPendingRounds
			}
			result.Exhausted = true
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.activateTx(ctx, tx, next); err != nil {
			return err
		}
		if _, err := s.withMatches(ctx, tx, next); err != nil {
			return err
		}
		result.Activated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Completed != nil {
		s.logger.InfoContext(ctx, "round completed", slog.Int("session_id", sessionID), slog.Int("round_id", result.Completed.ID))
		s.events.Publish(sessionID, EventRoundCompleted, result.Completed)
	}
	if result.Activated != nil {
		s.logger.InfoContext(ctx, "round activated", slog.Int("session_id", sessionID), slog.Int("round_id", result.Activated.ID))
		s.events.Publish(sessionID, EventRoundActivated, result.Activated)
	} else {
		s.logger.InfoContext(ctx, "session schedule exhausted", slog.Int("session_id", sessionID))
	}
	return result, nil
}
