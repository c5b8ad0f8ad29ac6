package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	sessionsadapter "github.com/bnema/shopper-earnings-bot/internal/adapters/render/sessions"
)

func newSessionsCmd(app *app) *cobra.Command {
	var (
		asJSON     bool
		staleAfter time.Duration
	)

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored chat sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := app.sessions.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			rendered, err := app.sessionsRenderer(list, sessionsadapter.RenderOptions{
				Now:        app.now(),
				StaleAfter: staleAfter,
			})
			if err != nil {
				return fmt.Errorf("render sessions: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	sessionsCmd.Flags().BoolVar(&asJSON, "json", false, "emit sessions as JSON")
	sessionsCmd.Flags().DurationVar(&staleAfter, "stale-after", 24*time.Hour, "mark sessions whose last sync is older than this")

	return sessionsCmd
}
