package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetdesk/fleetdesk/internal/adapter/outbound/state"
	"github.com/fleetdesk/fleetdesk/internal/domain/session"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the persisted session state",
	Long: `Show who is signed in according to the stored session file.

The token is validated locally (expiry check); the backend is not
contacted.

Examples:
  fleetdesk whoami`,
	RunE: runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

func runWhoami(cmd *cobra.Command, args []string) error {
	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}
	logger := cliLogger()

	sessions := session.NewService(state.NewFileStore(cfg.Session.Path, logger), logger)
	sessions.Bootstrap(cmd.Context())
	snap := sessions.Snapshot()

	if !snap.Authenticated {
		fmt.Println("Not signed in.")
		return nil
	}

	fmt.Printf("Signed in as %s\n", snap.Username)
	if snap.Claims != nil {
		expires := time.Unix(snap.Claims.ExpiresAt, 0)
		fmt.Printf("  Subject:  %s\n", snap.Claims.Subject)
		fmt.Printf("  Expires:  %s (%s)\n", expires.Format(time.RFC3339), time.Until(expires).Round(time.Second))
	}
	fmt.Printf("  Session:  %s\n", cfg.Session.Path)
	return nil
}
