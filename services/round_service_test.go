package services

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/Dosada05/club-scheduler/models"
	"github.com/Dosada05/club-scheduler/scheduler"
)

func teamIDs(t models.Team) []int { return t.Players }

func TestRoundService_CreateRound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, ids := env.openSession(t, "badminton", 5)

	res, err := env.rounds.CreateRound(ctx, session.ID, CreateRoundInput{})
	if err != nil {
		t.Fatalf("CreateRound: %v", err)
	}
	if res.Round.State != models.RoundActive || res.Round.Index != 1 || res.Round.Courts != 2 {
		t.Errorf("round = %+v", res.Round)
	}
	if len(res.Round.Matches) != 1 {
		t.Fatalf("matches = %+v", res.Round.Matches)
	}
	m := res.Round.Matches[0]
	if m.ID == 0 || m.Court != 1 || m.Singles {
		t.Errorf("match = %+v", m)
	}
	if !slices.Equal(teamIDs(m.SideA), []int{ids[1], ids[2]}) || !slices.Equal(teamIDs(m.SideB), []int{ids[3], ids[4]}) {
		t.Errorf("sides = %v v %v", m.SideA, m.SideB)
	}
	if !slices.Equal(res.SittingOut, []int{ids[0]}) {
		t.Errorf("sitting out = %v", res.SittingOut)
	}

	active, err := env.rounds.ActiveRound(ctx, session.ID)
	if err != nil || active.ID != res.Round.ID || len(active.Matches) != 1 {
		t.Errorf("ActiveRound = %+v, %v", active, err)
	}

	if _, err := env.rounds.CreateRound(ctx, session.ID, CreateRoundInput{}); !errors.Is(err, ErrInvalidRoundTransition) {
		t.Errorf("second CreateRound error = %v", err)
	}
	if _, err := env.attendance.Set(ctx, session.ID, ids[:4]); !errors.Is(err, ErrAttendanceLocked) {
		t.Errorf("attendance change error = %v", err)
	}
	if got := env.events.types(); !slices.Equal(got, []string{EventRoundCreated}) {
		t.Errorf("events = %v", got)
	}
}

func TestRoundService_CreateRoundErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, _ := env.openSession(t, "badminton", 3)

	tests := []struct {
		name  string
		input CreateRoundInput
		want  error
	}{
		{"too few players", CreateRoundInput{}, ErrInsufficientPlayers},
		{"bad policy", CreateRoundInput{SitOut: "loudest"}, ErrValidationFailed},
		{"negative courts", CreateRoundInput{Courts: -1}, ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.rounds.CreateRound(ctx, session.ID, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := env.rounds.CreateRound(ctx, 999, CreateRoundInput{}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("missing session error = %v", err)
	}
	rounds, err := env.rounds.ListRounds(ctx, session.ID)
	if err != nil || len(rounds) != 0 {
		t.Errorf("rounds after failures = %v, %v", rounds, err)
	}
}

func TestRoundService_FairnessCarriesAcrossRounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, ids := env.openSession(t, "badminton", 5)

	first, err := env.rounds.CreateRound(ctx, session.ID, CreateRoundInput{})
	if err != nil {
		t.Fatalf("CreateRound: %v", err)
	}
	score, err := env.matches.ScoreRoundMatch(ctx, first.Round.Matches[0].ID, 21, 15)
	if err != nil {
		t.Fatalf("ScoreRoundMatch: %v", err)
	}
	if !score.Recorded || !score.RoundCompleted {
		t.Errorf("score result = %+v", score)
	}

	entries, err := env.fairness.Ledger(ctx, session.ID)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if len(entries) != 5 || entries[0].Played != 0 || entries[1].Played != 1 {
		t.Errorf("entries = %+v", entries)
	}
	if entries[1].LastPartner == nil || *entries[1].LastPartner != ids[2] {
		t.Errorf("last partner of %d = %v", ids[1], entries[1].LastPartner)
	}

	second, err := env.rounds.CreateRound(ctx, session.ID, CreateRoundInput{SitOut: scheduler.SitOutMostPlayed})
	if err != nil {
		t.Fatalf("second CreateRound: %v", err)
	}
	if second.Round.Index != 2 {
		t.Errorf("index = %d", second.Round.Index)
	}
	if !slices.Equal(second.SittingOut, []int{ids[1]}) {
		t.Errorf("sitting out = %v", second.SittingOut)
	}
	m := second.Round.Matches[0]
	if !slices.Equal(teamIDs(m.SideA), []int{ids[0], ids[2]}) || !slices.Equal(teamIDs(m.SideB), []int{ids[3], ids[4]}) {
		t.Errorf("sides = %v v %v", m.SideA, m.SideB)
	}
}

func TestRoundService_CompleteRequiresScores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, _ := env.openSession(t, "squash", 4)

	res, err := env.rounds.CreateRound(ctx, session.ID, CreateRoundInput{})
	if err != nil {
		t.Fatalf("CreateRound: %v", err)
	}
	if len(res.Round.Matches) != 2 {
		t.Fatalf("matches = %+v", res.Round.Matches)
	}
	if _, err := env.rounds.Complete(ctx, res.Round.ID); !errors.Is(err, ErrInvalidRoundTransition) {
		t.Errorf("Complete unplayed error = %v", err)
	}
	if _, err := env.matches.ScoreRoundMatch(ctx, res.Round.Matches[0].ID, 11, 9); err != nil {
		t.Fatalf("score: %v", err)
	}
	last, err := env.matches.ScoreRoundMatch(ctx, res.Round.Matches[1].ID, 4, 11)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !last.RoundCompleted {
		t.Errorf("round not completed after last score")
	}
	if _, err := env.rounds.Complete(ctx, res.Round.ID); !errors.Is(err, ErrInvalidRoundTransition) {
		t.Errorf("Complete twice error = %v", err)
	}
	if err := env.rounds.Discard(ctx, res.Round.ID); !errors.Is(err, ErrInvalidRoundTransition) {
		t.Errorf("Discard completed error = %v", err)
	}
	if _, err := env.matches.ScoreRoundMatch(ctx, res.Round.Matches[0].ID, 11, 2); !errors.Is(err, ErrInvalidRoundTransition) {
		t.Errorf("rescoring error = %v", err)
	}
}

func TestRoundService_Pool(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, ids := env.openSession(t, "badminton", 8)

	pool, err := env.rounds.GeneratePool(ctx, session.ID, PoolInput{})
	if err != nil {
		t.Fatalf("GeneratePool: %v", err)
	}
	if pool.PoolID == "" || len(pool.Teams) != 4 || len(pool.Rounds) != 3 || len(pool.Deferred) != 0 {
		t.Fatalf("pool = %+v", pool)
	}
	if !slices.Equal(pool.Teams[0].Players, []int{ids[0], ids[1]}) {
		t.Errorf("first team = %v", pool.Teams[0])
	}
	for i, r := range pool.Rounds {
		want := models.RoundPending
		if i == 0 {
			want = models.RoundActive
		}
		if r.State != want || r.Index != i+1 || len(r.Matches) != 2 || r.PoolID == nil || *r.PoolID != pool.PoolID {
			t.Errorf("round %d = %+v", i, r)
		}
	}
	if len(pool.ShortRounds) != 0 {
		t.Errorf("short rounds = %v", pool.ShortRounds)
	}

	if err := env.attendance.Add(ctx, session.ID, ids[0]); !errors.Is(err, ErrAttendanceLocked) {
		t.Errorf("attendance add error = %v", err)
	}
	if _, err := env.rounds.GeneratePool(ctx, session.ID, PoolInput{}); !errors.Is(err, ErrInvalidRoundTransition) {
		t.Errorf("second pool error = %v", err)
	}
	if _, err := env.rounds.Advance(ctx, session.ID); !errors.Is(err, ErrInvalidRoundTransition) {
		t.Errorf("Advance unplayed error = %v", err)
	}
	if _, err := env.rounds.Activate(ctx, pool.Rounds[2].ID); !errors.Is(err, ErrInvalidRoundTransition) {
		t.Errorf("Activate with active round error = %v", err)
	}

	for _, m := range pool.Rounds[0].Matches {
		if _, err := env.matches.ScoreRoundMatch(ctx, m.ID, 21, 19); err != nil {
			t.Fatalf("score: %v", err)
		}
	}
	adv, err := env.rounds.Advance(ctx, session.ID)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if adv.Completed != nil || adv.Activated == nil || adv.Activated.ID != pool.Rounds[1].ID || adv.Exhausted {
		t.Errorf("advance = %+v", adv)
	}

	discarded, err := env.rounds.DiscardPool(ctx, session.ID, pool.PoolID)
	if err != nil || discarded != 2 {
		t.Fatalf("DiscardPool = %d, %v", discarded, err)
	}
	rounds, err := env.rounds.ListRounds(ctx, session.ID)
	if err != nil || len(rounds) != 1 || rounds[0].State != models.RoundCompleted {
		t.Errorf("rounds after discard = %+v, %v", rounds, err)
	}
	history, err := env.matches.History(ctx, session.ID)
	if err != nil || len(history) != 2 {
		t.Errorf("history = %+v, %v", history, err)
	}
	if _, err := env.rounds.Advance(ctx, session.ID); !errors.Is(err, ErrNoPendingRounds) {
		t.Errorf("Advance with nothing left error = %v", err)
	}
	if err := env.attendance.Add(ctx, session.ID, ids[0]); err != nil {
		t.Errorf("attendance after pool: %v", err)
	}
	if _, err := env.rounds.DiscardPool(ctx, session.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown pool error = %v", err)
	}
}

func TestRoundService_AdvanceToExhaustion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, _ := env.openSession(t, "squash", 3)

	pool, err := env.rounds.GeneratePool(ctx, session.ID, PoolInput{Courts: 1})
	if err != nil {
		t.Fatalf("GeneratePool: %v", err)
	}
	if len(pool.Rounds) != 3 {
		t.Fatalf("rounds = %d", len(pool.Rounds))
	}

	for i := range pool.Rounds {
		active, err := env.rounds.ActiveRound(ctx, session.ID)
		if err != nil {
			t.Fatalf("round %d: ActiveRound: %v", i, err)
		}
		if active.ID != pool.Rounds[i].ID {
			t.Fatalf("round %d: active = %d, want %d", i, active.ID, pool.Rounds[i].ID)
		}
		if _, err := env.matches.ScoreRoundMatch(ctx, active.Matches[0].ID, 11, 6); err != nil {
			t.Fatalf("round %d: score: %v", i, err)
		}
		adv, err := env.rounds.Advance(ctx, session.ID)
		if i < len(pool.Rounds)-1 {
			if err != nil || adv.Activated == nil {
				t.Fatalf("round %d: Advance = %+v, %v", i, adv, err)
			}
			continue
		}
		if !errors.Is(err, ErrNoPendingRounds) {
			t.Errorf("final Advance error = %v", err)
		}
	}
}

func TestRoundService_AdvanceRejectsUnscoredActiveRound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, ids := env.openSession(t, "squash", 2)

	res, err := env.rounds.CreateRound(ctx, session.ID, CreateRoundInput{})
	if err != nil {
		t.Fatalf("CreateRound: %v", err)
	}
	// scoring through the history path leaves the round match itself open
	if _, err := env.matches.RecordIfNew(ctx, session.ID, RecordInput{SideA: ids[:1], SideB: ids[1:], ScoreA: 11, ScoreB: 3}); err != nil {
		t.Fatalf("RecordIfNew: %v", err)
	}
	if _, err := env.rounds.Advance(ctx, session.ID); !errors.Is(err, ErrInvalidRoundTransition) {
		t.Errorf("Advance error = %v", err)
	}
	if err := env.rounds.Discard(ctx, res.Round.ID); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := env.rounds.ActiveRound(ctx, session.ID); !errors.Is(err, ErrRoundNotFound) {
		t.Errorf("ActiveRound after discard error = %v", err)
	}
	entries, err := env.fairness.Ledger(ctx, session.ID)
	if err != nil || len(entries) != 2 || entries[0].Played != 1 || entries[1].Played != 1 {
		t.Errorf("ledger = %+v, %v", entries, err)
	}
}

func TestRoundService_DiscardKeepsHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, _ := env.openSession(t, "squash", 4)

	res, err := env.rounds.CreateRound(ctx, session.ID, CreateRoundInput{})
	if err != nil {
		t.Fatalf("CreateRound: %v", err)
	}
	if _, err := env.matches.ScoreRoundMatch(ctx, res.Round.Matches[0].ID, 11, 8); err != nil {
		t.Fatalf("score: %v", err)
	}
	if err := env.rounds.Discard(ctx, res.Round.ID); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := env.rounds.GetRound(ctx, res.Round.ID); !errors.Is(err, ErrRoundNotFound) {
		t.Errorf("GetRound after discard error = %v", err)
	}
	history, err := env.matches.History(ctx, session.ID)
	if err != nil || len(history) != 1 || history[0].RoundMatchID != nil {
		t.Fatalf("history = %+v, %v", history, err)
	}
	entries, err := env.fairness.Ledger(ctx, session.ID)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	played := 0
	for _, e := range entries {
		played += e.Played
	}
	if played != 2 {
		t.Errorf("total played = %d, want 2", played)
	}
}
