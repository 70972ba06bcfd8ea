package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Dosada05/club-scheduler/models"
)

// names maps player ids to display names; unknown ids print as #id.
type names map[int]string

func loadNames(ctx context.Context, c *Client) names {
	players, err := listPlayers(ctx, c)
	n := names{}
	if err != nil {
		c.Logger.Debug("player names unavailable", "error", err)
		return n
	}
	for _, p := range players {
		n[p.ID] = p.Name
	}
	return n
}

func (n names) player(id int) string {
	if name, ok := n[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

func (n names) team(t models.Team) string {
	parts := make([]string, len(t.Players))
	for i, p := range t.Players {
		parts[i] = n.player(p)
	}
	return strings.Join(parts, " & ")
}

func (n names) list(ids []int) string {
	parts := make([]string, len(ids))
	for i, p := range ids {
		parts[i] = n.player(p)
	}
	return strings.Join(parts, ", ")
}

func printRound(w io.Writer, n names, r *models.Round) {
	fmt.Fprintf(w, "Round %d (#%d, %s)", r.Index, r.ID, r.State)
	if r.PoolID != nil {
		fmt.Fprintf(w, " pool %s", *r.PoolID)
	}
	if r.Forced {
		fmt.Fprint(w, " forced")
	}
	fmt.Fprintln(w)
	for _, m := range r.Matches {
		score := "not played"
		if m.Completed && m.ScoreA != nil && m.ScoreB != nil {
			score = fmt.Sprintf("%d-%d", *m.ScoreA, *m.ScoreB)
		}
		kind := ""
		if m.Singles {
			kind = " (singles)"
		}
		fmt.Fprintf(w, "  Court %d%s: %s  vs  %s  [%s]  match #%d\n", m.Court, kind, n.team(m.SideA), n.team(m.SideB), score, m.ID)
	}
}
