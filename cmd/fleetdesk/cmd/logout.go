package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetdesk/fleetdesk/internal/adapter/outbound/state"
	"github.com/fleetdesk/fleetdesk/internal/domain/session"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the persisted session",
	Long: `Clear the stored session token so the next console start requires a login.

Safe to run when no session is stored.

Examples:
  fleetdesk logout`,
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}
	logger := cliLogger()

	sessions := session.NewService(state.NewFileStore(cfg.Session.Path, logger), logger)
	sessions.Bootstrap(cmd.Context())
	if err := sessions.Logout(cmd.Context()); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	fmt.Println("Signed out.")
	return nil
}
