package models

import "testing"

func TestRoundState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from  RoundState
		to    RoundState
		valid bool
	}{
		{RoundPending, RoundActive, true},
		{RoundActive, RoundCompleted, true},

		{RoundPending, RoundCompleted, false},
		{RoundActive, RoundPending, false},
		{RoundCompleted, RoundActive, false},
		{RoundCompleted, RoundPending, false},
		{RoundActive, RoundActive, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.valid {
			t.Errorf("RoundState(%q).CanTransitionTo(%q) = %v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestRoundState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    RoundState
		terminal bool
	}{
		{RoundPending, false},
		{RoundActive, false},
		{RoundCompleted, true},
	}
	for _, tt := range tests {
		if got := tt.state.IsTerminal(); got != tt.terminal {
			t.Errorf("RoundState(%q).IsTerminal() = %v, want %v", tt.state, got, tt.terminal)
		}
	}
	if RoundState("paused").IsValid() {
		t.Error("unknown state reported as valid")
	}
}

func TestRound_AllScored(t *testing.T) {
	eleven, seven := 11, 7
	r := &Round{Courts: 2, Matches: []RoundMatch{
		{Court: 1, SideA: Doubles(1, 2), SideB: Doubles(3, 4), Completed: true, ScoreA: &eleven, ScoreB: &seven},
		{Court: 2, SideA: Doubles(5, 6), SideB: Doubles(7, 8)},
	}}
	if r.AllScored() {
		t.Fatal("round with an unplayed match reported as fully scored")
	}
	r.Matches[1].Completed = true
	r.Matches[1].ScoreA, r.Matches[1].ScoreB = &seven, &eleven
	if !r.AllScored() {
		t.Fatal("round with every match scored reported as incomplete")
	}
	if r.Short() {
		t.Error("round filling both courts reported as short")
	}
}
