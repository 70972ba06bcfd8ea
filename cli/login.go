package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const credentialsFileName = "credentials.json"

type credentials struct {
	Server    string    `json:"server"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newLoginCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Get an organizer token",
		Long:  "Exchange the organizer password for a token and store it for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Organizer password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimSpace(line)
			}
			if password == "" {
				return fmt.Errorf("password cannot be empty")
			}

			resp, err := a.client.Post(cmd.Context(), "/auth/token", map[string]string{"password": password})
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			creds := credentials{Server: a.server}
			if err := resp.Decode("token", &creds.Token); err != nil {
				return err
			}
			if err := resp.Decode("expires_at", &creds.ExpiresAt); err != nil {
				return err
			}

			credPath, err := credentialsPath()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(credPath), 0700); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			data, err := json.MarshalIndent(creds, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal credentials: %w", err)
			}
			if err := os.WriteFile(credPath, data, 0600); err != nil {
				return fmt.Errorf("write credentials: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s (valid until %s)\n", credPath, creds.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "organizer password (prompted if omitted)")
	return cmd
}

// credentialsPath returns the path to the credentials file (~/.clubctl/credentials.json).
func credentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".clubctl", credentialsFileName), nil
}

// LoadToken reads the stored token, returning "" when none is saved or it has expired.
func LoadToken() string {
	p, err := credentialsPath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return ""
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return ""
	}
	if !creds.ExpiresAt.IsZero() && time.Now().After(creds.ExpiresAt) {
		return ""
	}
	return creds.Token
}
