package scheduler

import (
	"testing"

	"github.com/Dosada05/club-scheduler/models"
)

func TestLedger_Observe(t *testing.T) {
	l := NewLedger()
	l.Observe(models.Doubles(1, 2), models.Doubles(3, 4))
	l.Observe(models.Doubles(1, 3), models.Doubles(2, 4))
	l.Observe(models.Singles(1), models.Singles(5))

	for player, want := range map[int]int{1: 3, 2: 2, 3: 2, 4: 2, 5: 1, 6: 0} {
		if got := l.Played(player); got != want {
			t.Errorf("Played(%d) = %d, want %d", player, got, want)
		}
	}
	// singles never overwrite a doubles partner
	if p, ok := l.LastPartner(1); !ok || p != 3 {
		t.Errorf("LastPartner(1) = %d, %v; want 3", p, ok)
	}
	if _, ok := l.LastPartner(5); ok {
		t.Error("player 5 only played singles")
	}
}

func TestLedger_Squads(t *testing.T) {
	l := NewLedger()
	l.Observe(models.Squad(1, 2, 3), models.Squad(4, 5, 6))
	if l.Played(6) != 1 {
		t.Errorf("Played(6) = %d", l.Played(6))
	}
	if _, ok := l.LastPartner(1); ok {
		t.Error("squads should not set partners")
	}
}

func TestLedger_Entries(t *testing.T) {
	l := NewLedger()
	l.Observe(models.Doubles(4, 2), models.Singles(9))

	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].PlayerID != 2 || entries[0].LastPartner == nil || *entries[0].LastPartner != 4 {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[2].PlayerID != 9 || entries[2].LastPartner != nil {
		t.Errorf("entries[2] = %+v", entries[2])
	}

	some := l.Entries(7, 4)
	if len(some) != 2 || some[0].PlayerID != 4 || some[1].Played != 0 {
		t.Errorf("Entries(7, 4) = %+v", some)
	}
}

func TestLedger_NilIsEmpty(t *testing.T) {
	var l *Ledger
	if l.Played(1) != 0 {
		t.Error("nil ledger reports matches")
	}
	if _, ok := l.LastPartner(1); ok {
		t.Error("nil ledger reports a partner")
	}
}

func TestFairnessOrder(t *testing.T) {
	l := NewLedger()
	l.Observe(models.Singles(1), models.Singles(2))
	ids := []int{2, 5, 1, 3}
	fairnessOrder(ids, l)
	want := []int{3, 5, 1, 2}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}
