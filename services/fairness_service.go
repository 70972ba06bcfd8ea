package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/club-scheduler/models"
	"github.com/Dosada05/club-scheduler/repositories"
	"github.com/Dosada05/club-scheduler/scheduler"
)

// ledgerLoader rebuilds a session's fairness ledger from persisted rounds and
// history. Nothing is cached: every scheduling call loads it afresh.
type ledgerLoader struct {
	roundMatchRepo repositories.RoundMatchRepository
	historyRepo    repositories.MatchHistoryRepository
}

// load observes matches of active and completed rounds and results entered by
// hand in the order they happened: a round counts from the moment it went
// active, a manual result from when it was recorded. Pending rounds have not
// been played and are skipped.
func (l ledgerLoader) load(ctx context.Context, exec repositories.SQLExecutor, sessionID int) (*scheduler.Ledger, error) {
	played, err := l.roundMatchRepo.ListPlayed(ctx, exec, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load round matches for ledger: %w", err)
	}
	manual, err := l.historyRepo.ListUnlinked(ctx, exec, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history for ledger: %w", err)
	}

	events := make([]observation, 0, len(played)+len(manual))
	for _, m := range played {
		events = append(events, observation{at: m.PlayedAt, sideA: m.SideA, sideB: m.SideB})
	}
	for _, rec := range manual {
		events = append(events, observation{at: rec.RecordedAt, sideA: rec.Side1, sideB: rec.Side2})
	}
	// on equal times the round match goes first
	sort.SliceStable(events, func(i, j int) bool { return events[i].at.Before(events[j].at) })

	ledger := scheduler.NewLedger()
	for _, e := range events {
		ledger.Observe(e.sideA, e.sideB)
	}
	return ledger, nil
}

type observation struct {
	at           time.Time
	sideA, sideB models.Team
}

type FairnessService interface {
	// Ledger lists played counts and last partners for everyone present or
	// already observed in the session.
	Ledger(ctx context.Context, sessionID int) ([]scheduler.Entry, error)
}

type fairnessService struct {
	sessionRepo    repositories.SessionRepository
	attendanceRepo repositories.AttendanceRepository
	loader         ledgerLoader
}

func NewFairnessService(
	sessionRepo repositories.SessionRepository,
	attendanceRepo repositories.AttendanceRepository,
	roundMatchRepo repositories.RoundMatchRepository,
	historyRepo repositories.MatchHistoryRepository,
) FairnessService {
	return &fairnessService{
		sessionRepo:    sessionRepo,
		attendanceRepo: attendanceRepo,
		loader:         ledgerLoader{roundMatchRepo: roundMatchRepo, historyRepo: historyRepo},
	}
}

func (s *fairnessService) Ledger(ctx context.Context, sessionID int) ([]scheduler.Entry, error) {
	if _, err := s.sessionRepo.GetByID(ctx, nil, sessionID); err != nil {
		return nil, mapRepoError(err)
	}
	ledger, err := s.loader.load(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	present, err := s.attendanceRepo.ListPlayers(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var ids []int
	for _, e := range ledger.Entries() {
		seen[e.PlayerID] = true
		ids = append(ids, e.PlayerID)
	}
	for _, p := range present {
		if !seen[p.ID] {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return []scheduler.Entry{}, nil
	}
	return ledger.Entries(ids...), nil
}
