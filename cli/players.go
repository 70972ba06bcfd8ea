package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/club-scheduler/models"
	"github.com/spf13/cobra"
)

func newPlayersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "List or register players",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List registered players",
			RunE: func(cmd *cobra.Command, args []string) error {
				players, err := listPlayers(cmd.Context(), a.client)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(players) == 0 {
					fmt.Fprintln(out, "No players registered.")
					return nil
				}
				fmt.Fprintf(out, "%-6s  %s\n", "ID", "NAME")
				for _, p := range players {
					fmt.Fprintf(out, "%-6d  %s\n", p.ID, p.Name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <name>...",
			Short: "Register players by name",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				for _, name := range args {
					resp, err := a.client.Post(cmd.Context(), "/players", map[string]string{"name": name})
					if err != nil {
						return fmt.Errorf("add %q: %w", name, err)
					}
					var p models.Player
					var created bool
					if err := resp.Decode("player", &p); err != nil {
						return err
					}
					_ = resp.Decode("created", &created)
					if created {
						fmt.Fprintf(cmd.OutOrStdout(), "Added %s (#%d)\n", p.Name, p.ID)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s already registered (#%d)\n", p.Name, p.ID)
					}
				}
				return nil
			},
		},
	)
	return cmd
}

func listPlayers(ctx context.Context, c *Client) ([]models.Player, error) {
	resp, err := c.Get(ctx, "/players")
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	var players []models.Player
	if err := resp.Decode("players", &players); err != nil {
		return nil, err
	}
	return players, nil
}

// resolvePlayers turns ids or names into player ids. Names are matched
// case-insensitively against the registry.
func resolvePlayers(ctx context.Context, c *Client, refs []string) ([]int, error) {
	ids := make([]int, 0, len(refs))
	var byName map[string]int
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if id, err := strconv.Atoi(ref); err == nil {
			ids = append(ids, id)
			continue
		}
		if byName == nil {
			players, err := listPlayers(ctx, c)
			if err != nil {
				return nil, err
			}
			byName = make(map[string]int, len(players))
			for _, p := range players {
				byName[strings.ToLower(p.Name)] = p.ID
			}
		}
		id, ok := byName[strings.ToLower(ref)]
		if !ok {
			return nil, fmt.Errorf("unknown player %q", ref)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseID(arg, what string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, arg)
	}
	return id, nil
}
