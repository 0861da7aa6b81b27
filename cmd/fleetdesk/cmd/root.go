// Package cmd provides the CLI commands for the fleetdesk console.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fleetdesk/fleetdesk/internal/config"
)

var cfgFile string
var sessionFilePath string

var rootCmd = &cobra.Command{
	Use:   "fleetdesk",
	Short: "FleetDesk - local fleet administration console",
	Long: `FleetDesk is a local web console for a vehicle fleet backend.

It serves the dashboard, vehicle registry, and reports on a local
address and forwards all data operations to the remote fleet API,
holding a single operator session on disk between runs.

Quick start:
  1. Point the console at your backend: FLEETDESK_BACKEND_URL=http://host:8000
  2. Run: fleetdesk start
  3. Open http://127.0.0.1:7460 and sign in

Configuration:
  Config is loaded from fleetdesk.yaml in the current directory,
  $HOME/.fleetdesk/, or /etc/fleetdesk/.

  Environment variables can override config values with the FLEETDESK_ prefix.
  Example: FLEETDESK_CONSOLE_ADDR=127.0.0.1:8080

Commands:
  start       Start the console server
  stop        Stop the running console
  login       Sign in from the terminal and persist the session
  logout      Clear the persisted session
  whoami      Show the persisted session state
  reset       Remove the session file
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./fleetdesk.yaml)")
	rootCmd.PersistentFlags().StringVar(&sessionFilePath, "session", "", "path to session.json file (default: ~/.fleetdesk/session.json)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
