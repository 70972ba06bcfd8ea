package cli

import (
	"fmt"
	"strings"

	"github.com/Dosada05/club-scheduler/models"
	"github.com/Dosada05/club-scheduler/scheduler"
	"github.com/Dosada05/club-scheduler/services"
	"github.com/spf13/cobra"
)

func newRoundCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "round",
		Short: "Schedule and manage rounds",
	}

	var courts int
	var sitOut string
	next := &cobra.Command{
		Use:   "next <session>",
		Short: "Assign the next improvised round from who is present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0], "session id")
			if err != nil {
				return err
			}
			input := services.CreateRoundInput{Courts: courts, SitOut: scheduler.SitOutPolicy(sitOut)}
			resp, err := a.client.Post(cmd.Context(), fmt.Sprintf("/sessions/%d/rounds", sessionID), input)
			if err != nil {
				return fmt.Errorf("create round: %w", err)
			}
			var round models.Round
			var sitting []int
			if err := resp.Decode("round", &round); err != nil {
				return err
			}
			_ = resp.Decode("sitting_out", &sitting)

			n := loadNames(cmd.Context(), a.client)
			printRound(cmd.OutOrStdout(), n, &round)
			if len(sitting) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  Sitting out: %s\n", n.list(sitting))
			}
			return nil
		},
	}
	next.Flags().IntVar(&courts, "courts", 0, "courts available (0 = sport default)")
	next.Flags().StringVar(&sitOut, "sit-out", "", "who rests on odd counts: fewest_played or most_played")

	show := &cobra.Command{
		Use:   "show <session>",
		Short: "Show the active round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0], "session id")
			if err != nil {
				return err
			}
			resp, err := a.client.Get(cmd.Context(), fmt.Sprintf("/sessions/%d/rounds/active", sessionID))
			if err != nil {
				return fmt.Errorf("get active round: %w", err)
			}
			var round models.Round
			if err := resp.Decode("round", &round); err != nil {
				return err
			}
			printRound(cmd.OutOrStdout(), loadNames(cmd.Context(), a.client), &round)
			return nil
		},
	}

	cmd.AddCommand(
		next,
		show,
		roundActionCmd(a, "activate", "Activate a pending round", "/rounds/%d/activate"),
		roundActionCmd(a, "complete", "Check that every match is scored and close the round", "/rounds/%d/complete"),
		&cobra.Command{
			Use:   "discard <round>",
			Short: "Throw away a round that has not completed",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				roundID, err := parseID(args[0], "round id")
				if err != nil {
					return err
				}
				if _, err := a.client.Delete(cmd.Context(), fmt.Sprintf("/rounds/%d", roundID)); err != nil {
					return fmt.Errorf("discard round: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Round #%d discarded\n", roundID)
				return nil
			},
		},
	)
	return cmd
}

func roundActionCmd(a *app, use, short, pathFormat string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <round>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roundID, err := parseID(args[0], "round id")
			if err != nil {
				return err
			}
			resp, err := a.client.Post(cmd.Context(), fmt.Sprintf(pathFormat, roundID), nil)
			if err != nil {
				return fmt.Errorf("%s round: %w", use, err)
			}
			var round models.Round
			if err := resp.Decode("round", &round); err != nil {
				return err
			}
			printRound(cmd.OutOrStdout(), loadNames(cmd.Context(), a.client), &round)
			return nil
		},
	}
}

func newPoolCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Generate or discard a round-robin pool",
	}

	var courts int
	var ordering string
	var seed int64
	generate := &cobra.Command{
		Use:   "generate <session>",
		Short: "Split the present players into fixed teams and schedule every matchup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0], "session id")
			if err != nil {
				return err
			}
			input := services.PoolInput{Courts: courts, Ordering: scheduler.Ordering(ordering)}
			if cmd.Flags().Changed("seed") {
				input.Seed = &seed
			}
			resp, err := a.client.Post(cmd.Context(), fmt.Sprintf("/sessions/%d/pool", sessionID), input)
			if err != nil {
				return fmt.Errorf("generate pool: %w", err)
			}
			var pool services.PoolResult
			if err := resp.Decode("pool", &pool); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			n := loadNames(cmd.Context(), a.client)
			fmt.Fprintf(out, "Pool %s: %d teams, %d rounds (seed %d)\n", pool.PoolID, len(pool.Teams), len(pool.Rounds), pool.Seed)
			for i, t := range pool.Teams {
				fmt.Fprintf(out, "  Team %d: %s\n", i+1, n.team(t))
			}
			if len(pool.Deferred) > 0 {
				deferred := make([]string, len(pool.Deferred))
				for i, p := range pool.Deferred {
					deferred[i] = p.Name
				}
				fmt.Fprintf(out, "  Sitting out the whole pool: %s\n", strings.Join(deferred, ", "))
			}
			for _, r := range pool.Rounds {
				printRound(out, n, r)
			}
			return nil
		},
	}
	generate.Flags().IntVar(&courts, "courts", 0, "courts available (0 = sport default)")
	generate.Flags().StringVar(&ordering, "ordering", "name", "team grouping: name, random or given")
	generate.Flags().Int64Var(&seed, "seed", 0, "seed for random ordering")

	discard := &cobra.Command{
		Use:   "discard <session> <pool-id>",
		Short: "Drop the pool's unfinished rounds",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0], "session id")
			if err != nil {
				return err
			}
			resp, err := a.client.Delete(cmd.Context(), fmt.Sprintf("/sessions/%d/pool/%s", sessionID, args[1]))
			if err != nil {
				return fmt.Errorf("discard pool: %w", err)
			}
			var discarded int
			if err := resp.Decode("discarded", &discarded); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Discarded %d round(s)\n", discarded)
			return nil
		},
	}

	cmd.AddCommand(generate, discard)
	return cmd
}

func newAdvanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <session>",
		Short: "Close the active round and start the next pending one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := parseID(args[0], "session id")
			if err != nil {
				return err
			}
			resp, err := a.client.Post(cmd.Context(), fmt.Sprintf("/sessions/%d/advance", sessionID), nil)
			if err != nil {
				return fmt.Errorf("advance: %w", err)
			}
			var result services.AdvanceResult
			if err := resp.Decode("advance", &result); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Completed != nil {
				fmt.Fprintf(out, "Round %d completed\n", result.Completed.Index)
			}
			if result.Activated != nil {
				printRound(out, loadNames(cmd.Context(), a.client), result.Activated)
			}
			if result.Exhausted {
				fmt.Fprintln(out, "No pending rounds left")
			}
			return nil
		},
	}
}
