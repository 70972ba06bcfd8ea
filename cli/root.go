package cli

import (
	"log/slog"
	"os"

	"github.com/Dosada05/club-scheduler/config"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	server    string
	token     string
	logLevel  string
	logFormat string

	logger *slog.Logger
	client *Client
}

// defaultServer returns the default server URL, checking CLUBCTL_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("CLUBCTL_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for clubctl.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "clubctl",
		Short: "clubctl runs club play sessions from the desk",
		Long:  "clubctl manages players, attendance, rounds and results on a club scheduler server.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = config.NewLoggerWithWriter(a.logLevel, a.logFormat, cmd.ErrOrStderr())
			token := a.token
			if token == "" {
				token = os.Getenv("CLUBCTL_TOKEN")
			}
			if token == "" {
				token = LoadToken()
			}
			a.client = NewClient(a.server, token, a.logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.server, "server", defaultServer(), "scheduler server URL (or CLUBCTL_SERVER env)")
	root.PersistentFlags().StringVar(&a.token, "token", "", "organizer token (or CLUBCTL_TOKEN env, or saved by login)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(a),
		newPlayersCmd(a),
		newSessionCmd(a),
		newAttendanceCmd(a),
		newRoundCmd(a),
		newPoolCmd(a),
		newAdvanceCmd(a),
		newScoreCmd(a),
		newRecordCmd(a),
		newFairnessCmd(a),
	)
	return root
}
