package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/club-scheduler/models"
	"github.com/Dosada05/club-scheduler/repositories"
	"github.com/Dosada05/club-scheduler/scheduler"
	"golang.org/x/sync/errgroup"
)

// Board is everything a court-side display needs for one session.
type Board struct {
	Session         *models.Session      `json:"session"`
	Sport           models.Sport         `json:"sport"`
	Present         []models.Player      `json:"present"`
	ActiveRound     *models.Round        `json:"active_round,omitempty"`
	SittingOut      []int                `json:"sitting_out"`
	PendingRounds   int                  `json:"pending_rounds"`
	CompletedRounds int                  `json:"completed_rounds"`
	History         []models.MatchRecord `json:"history"`
	Fairness        []scheduler.Entry    `json:"fairness"`
}

type BoardService interface {
	Board(ctx context.Context, sessionID int) (*Board, error)
}

type boardService struct {
	sessionRepo    repositories.SessionRepository
	attendanceRepo repositories.AttendanceRepository
	roundRepo      repositories.RoundRepository
	roundMatchRepo repositories.RoundMatchRepository
	historyRepo    repositories.MatchHistoryRepository
	sports         SportService
	fairness       FairnessService
}

func NewBoardService(
	sessionRepo repositories.SessionRepository,
	attendanceRepo repositories.AttendanceRepository,
	roundRepo repositories.RoundRepository,
	roundMatchRepo repositories.RoundMatchRepository,
	historyRepo repositories.MatchHistoryRepository,
	sports SportService,
	fairness FairnessService,
) BoardService {
	return &boardService{
		sessionRepo:    sessionRepo,
		attendanceRepo: attendanceRepo,
		roundRepo:      roundRepo,
		roundMatchRepo: roundMatchRepo,
		historyRepo:    historyRepo,
		sports:         sports,
		fairness:       fairness,
	}
}

func (s *boardService) Board(ctx context.Context, sessionID int) (*Board, error) {
	session, err := s.sessionRepo.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	board := &Board{Session: session}
	if board.Sport, err = s.sports.Get(session.Sport); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		present, err := s.attendanceRepo.ListPlayers(gctx, nil, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load roster: %w", err)
		}
		board.Present = present
		return nil
	})

	g.Go(func() error {
		round, err := s.roundRepo.GetActive(gctx, nil, sessionID)
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load active round: %w", err)
		}
		if round.Matches, err = s.roundMatchRepo.ListByRound(gctx, nil, round.ID); err != nil {
			return fmt.Errorf("failed to load active round matches: %w", err)
		}
		board.ActiveRound = round
		return nil
	})

	g.Go(func() error {
		pending, err := s.roundRepo.CountByState(gctx, nil, sessionID, models.RoundPending)
		if err != nil {
			return err
		}
		completed, err := s.roundRepo.CountByState(gctx, nil, sessionID, models.RoundCompleted)
		if err != nil {
			return err
		}
		board.PendingRounds, board.CompletedRounds = pending, completed
		return nil
	})

	g.Go(func() error {
		history, err := s.historyRepo.ListBySession(gctx, nil, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		board.History = history
		return nil
	})

	g.Go(func() error {
		entries, err := s.fairness.Ledger(gctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load fairness: %w", err)
		}
		board.Fairness = entries
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	board.SittingOut = sittingOut(board.Present, board.ActiveRound)
	return board, nil
}

// sittingOut lists present players with no court in the active round.
func sittingOut(present []models.Player, round *models.Round) []int {
	out := make([]int, 0)
	if round == nil {
		return out
	}
	onCourt := make(map[int]bool)
	for _, m := range round.Matches {
		for _, p := range m.Players() {
			onCourt[p] = true
		}
	}
	for _, p := range present {
		if !onCourt[p.ID] {
			out = append(out, p.ID)
		}
	}
	return out
}
