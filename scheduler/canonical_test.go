package scheduler

import (
	"errors"
	"slices"
	"testing"
)

func TestCanonicalize_ReversedSubmissionIsEqual(t *testing.T) {
	first, err := Canonicalize([]int{1, 2}, []int{3, 4}, 11, 7)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	second, err := Canonicalize([]int{4, 3}, []int{2, 1}, 7, 11)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if !first.Equal(second) {
		t.Fatalf("%+v and %+v should be the same match", first, second)
	}
	if !slices.Equal(second.Side1, []int{1, 2}) || second.Score1 != 11 || !second.Swapped {
		t.Errorf("second = %+v", second)
	}
	if first.WinningSide() != 1 {
		t.Errorf("WinningSide = %d, want 1", first.WinningSide())
	}
}

func TestCanonicalize_DifferentScoresDiffer(t *testing.T) {
	a, _ := Canonicalize([]int{1, 2}, []int{3, 4}, 11, 7)
	b, _ := Canonicalize([]int{1, 2}, []int{3, 4}, 11, 9)
	if a.Equal(b) {
		t.Error("different scores compared equal")
	}
}

func TestCanonicalize_Errors(t *testing.T) {
	tests := []struct {
		name         string
		sideA, sideB []int
		a, b         int
		want         error
	}{
		{"tie", []int{1}, []int{2}, 5, 5, ErrTiedScore},
		{"negative", []int{1}, []int{2}, -1, 5, ErrInvalidScore},
		{"empty side", nil, []int{2}, 1, 5, ErrInvalidSide},
		{"shared player", []int{1, 2}, []int{2, 3}, 1, 5, ErrInvalidSide},
		{"bad id", []int{0}, []int{2}, 1, 5, ErrInvalidSide},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Canonicalize(tt.sideA, tt.sideB, tt.a, tt.b); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCanonicalMatch_Record(t *testing.T) {
	sideA := []int{9, 8}
	c, err := Canonicalize(sideA, []int{2, 5}, 3, 11)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	rec := c.Record(7, 2)
	if rec.SessionID != 7 || rec.TeamSize != 2 {
		t.Errorf("record = %+v", rec)
	}
	if rec.Side1.Key() != "2,5" || rec.Side2.Key() != "8,9" {
		t.Errorf("sides = %s vs %s", rec.Side1.Key(), rec.Side2.Key())
	}
	if rec.Score1 != 11 || rec.Score2 != 3 || rec.WinningSide != 1 {
		t.Errorf("scores = %d-%d, winner %d", rec.Score1, rec.Score2, rec.WinningSide)
	}
	if !slices.Equal(sideA, []int{9, 8}) {
		t.Errorf("input side mutated to %v", sideA)
	}
}
