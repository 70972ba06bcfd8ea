package cli

import (
	"fmt"

	"github.com/Dosada05/club-scheduler/models"
	"github.com/spf13/cobra"
)

func newSessionCmd(a *app) *cobra.Command {
	var date, sport string

	open := &cobra.Command{
		Use:   "open",
		Short: "Open (or look up) the session for a date and sport",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.Put(cmd.Context(), "/sessions", map[string]string{"date": date, "sport": sport})
			if err != nil {
				return fmt.Errorf("open session: %w", err)
			}
			var s models.Session
			var created bool
			if err := resp.Decode("session", &s); err != nil {
				return err
			}
			_ = resp.Decode("created", &created)

			verb := "Opened"
			if !created {
				verb = "Found"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s session #%d: %s %s\n", verb, s.ID, s.Sport, s.Date)
			return nil
		},
	}
	open.Flags().StringVar(&date, "date", "today", "session date, any common format")
	open.Flags().StringVar(&sport, "sport", "", "sport from the catalog")
	_ = open.MarkFlagRequired("sport")

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage play sessions",
	}
	cmd.AddCommand(open)
	return cmd
}

func newAttendanceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Show or set who is present",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <session>",
			Short: "List present players",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sessionID, err := parseID(args[0], "session id")
				if err != nil {
					return err
				}
				resp, err := a.client.Get(cmd.Context(), fmt.Sprintf("/sessions/%d/attendance", sessionID))
				if err != nil {
					return fmt.Errorf("get attendance: %w", err)
				}
				return printPresent(cmd, resp)
			},
		},
		&cobra.Command{
			Use:   "set <session> <player>...",
			Short: "Replace the present set (ids or names)",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sessionID, err := parseID(args[0], "session id")
				if err != nil {
					return err
				}
				ids, err := resolvePlayers(cmd.Context(), a.client, args[1:])
				if err != nil {
					return err
				}
				resp, err := a.client.Put(cmd.Context(), fmt.Sprintf("/sessions/%d/attendance", sessionID), map[string]any{"player_ids": ids})
				if err != nil {
					return fmt.Errorf("set attendance: %w", err)
				}
				return printPresent(cmd, resp)
			},
		},
	)
	return cmd
}

func printPresent(cmd *cobra.Command, resp envelope) error {
	var present []models.Player
	if err := resp.Decode("present", &present); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d present\n", len(present))
	for _, p := range present {
		fmt.Fprintf(out, "  #%-5d %s\n", p.ID, p.Name)
	}
	return nil
}
