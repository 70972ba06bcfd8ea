package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/club-scheduler/models"
	"github.com/Dosada05/club-scheduler/scheduler"
	"github.com/Dosada05/club-scheduler/services"
	"github.com/spf13/cobra"
)

func newScoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "score <match> <score-a> <score-b>",
		Short: "Enter the score of a court in the active round",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID, err := parseID(args[0], "match id")
			if err != nil {
				return err
			}
			scoreA, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid score %q", args[1])
			}
			scoreB, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid score %q", args[2])
			}

			body := map[string]int{"score_a": scoreA, "score_b": scoreB}
			resp, err := a.client.Post(cmd.Context(), fmt.Sprintf("/round-matches/%d/score", matchID), body)
			if err != nil {
				return fmt.Errorf("score match: %w", err)
			}
			var match models.RoundMatch
			var recorded, completed bool
			if err := resp.Decode("match", &match); err != nil {
				return err
			}
			_ = resp.Decode("recorded", &recorded)
			_ = resp.Decode("round_completed", &completed)

			out := cmd.OutOrStdout()
			n := loadNames(cmd.Context(), a.client)
			fmt.Fprintf(out, "Court %d: %s %d - %d %s\n", match.Court, n.team(match.SideA), scoreA, scoreB, n.team(match.SideB))
			if !recorded {
				fmt.Fprintln(out, "Already in history, not recorded again")
			}
			if completed {
				fmt.Fprintln(out, "All courts scored, round completed")
			}
			return nil
		},
	}
}

func newRecordCmd(a *app) *cobra.Command {
	var sideA, sideB []string
	var score string
	cmd := &cobra.Command{
		Use:   "record <session>",
		Short: "Log a match played outside the scheduled rounds",
		Example: `  clubctl record 3 --a alice,bob --b carol,dave --score 21-15
  clubctl record 3 --a 4 --b 7 --score 11-9`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0], "session id")
			if err != nil {
				return err
			}
			scoreA, scoreB, err := parseScore(score)
			if err != nil {
				return err
			}
			a1, err := resolvePlayers(cmd.Context(), a.client, sideA)
			if err != nil {
				return err
			}
			b1, err := resolvePlayers(cmd.Context(), a.client, sideB)
			if err != nil {
				return err
			}

			input := services.RecordInput{SideA: a1, SideB: b1, ScoreA: scoreA, ScoreB: scoreB}
			resp, err := a.client.Post(cmd.Context(), fmt.Sprintf("/sessions/%d/matches", sessionID), input)
			if err != nil {
				return fmt.Errorf("record match: %w", err)
			}
			var recorded bool
			if err := resp.Decode("recorded", &recorded); err != nil {
				return err
			}
			if recorded {
				fmt.Fprintln(cmd.OutOrStdout(), "Match recorded")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Same result already in history, skipped")
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&sideA, "a", nil, "side A players (ids or names)")
	cmd.Flags().StringSliceVar(&sideB, "b", nil, "side B players (ids or names)")
	cmd.Flags().StringVar(&score, "score", "", "final score as A-B, e.g. 21-15")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}

func parseScore(s string) (int, int, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid score %q, want A-B", s)
	}
	a, errA := strconv.Atoi(strings.TrimSpace(left))
	b, errB := strconv.Atoi(strings.TrimSpace(right))
	if errA != nil || errB != nil {
		return 0, 0, fmt.Errorf("invalid score %q, want A-B", s)
	}
	return a, b, nil
}

func newFairnessCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fairness <session>",
		Short: "Show matches played and last partner per player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0], "session id")
			if err != nil {
				return err
			}
			resp, err := a.client.Get(cmd.Context(), fmt.Sprintf("/sessions/%d/fairness", sessionID))
			if err != nil {
				return fmt.Errorf("get fairness: %w", err)
			}
			var entries []scheduler.Entry
			if err := resp.Decode("fairness", &entries); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			n := loadNames(cmd.Context(), a.client)
			for _, e := range entries {
				partner := "-"
				if e.LastPartner != nil {
					partner = n.player(*e.LastPartner)
				}
				fmt.Fprintf(out, "%-20s played %2d  last partner %s\n", n.player(e.PlayerID), e.Played, partner)
			}
			return nil
		},
	}
}
