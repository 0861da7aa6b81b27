package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fleetdesk/fleetdesk/internal/adapter/outbound/fleetapi"
	"github.com/fleetdesk/fleetdesk/internal/adapter/outbound/state"
	"github.com/fleetdesk/fleetdesk/internal/config"
	"github.com/fleetdesk/fleetdesk/internal/domain/session"
)

var loginUsername string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in from the terminal and persist the session",
	Long: `Authenticate against the fleet backend and store the session token.

The password is read from the terminal without echo. A console started
afterwards picks the session up from disk.

Examples:
  # Sign in interactively
  fleetdesk login --username admin`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "backend username")
	rootCmd.AddCommand(loginCmd)
}

// loadCLIConfig loads and validates configuration for the offline
// session commands (login, logout, whoami, reset).
func loadCLIConfig() (*config.Config, error) {
	cfg, err := config.LoadRaw()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.SetDefaults()
	if sessionFilePath != "" {
		cfg.Session.Path = sessionFilePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// cliLogger is quiet by default; session commands talk via stdout.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadCLIConfig()
	if err != nil {
		return err
	}
	logger := cliLogger()

	username := strings.TrimSpace(loginUsername)
	if username == "" {
		fmt.Fprint(os.Stderr, "Username: ")
		if _, err := fmt.Fscanln(os.Stdin, &username); err != nil {
			return fmt.Errorf("read username: %w", err)
		}
	}

	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	sessions := session.NewService(state.NewFileStore(cfg.Session.Path, logger), logger)
	sessions.Bootstrap(cmd.Context())

	client := fleetapi.NewClient(
		cfg.Backend.URL,
		sessions.Token,
		sessions.HandleUnauthorized,
		fleetapi.WithTimeout(cfg.Backend.TimeoutDuration()),
		fleetapi.WithLogger(logger),
	)

	token, err := client.Login(cmd.Context(), username, string(passwordBytes))
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := sessions.Login(cmd.Context(), token, username); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	fmt.Printf("Signed in as %s. Session stored at %s\n", username, cfg.Session.Path)
	return nil
}
