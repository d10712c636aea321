package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "shotclock",
	Short: "Game clock and shot clock for independent scoreboard panels",
	Long: `shotclock runs one or more independent scoreboard panels, each with a 10 minute
game clock and a shot clock that resets to 15s (10s in the final two minutes).

Commands:
  serve    Run the panels behind the websocket, HTTP and Connect gateway
  tui      Run the panels in the terminal with keyboard control
  buzzer   Follow buzzer events published on NATS

Examples:
  # Two panels on :8080
  shotclock serve

  # Three panels, publishing expiry events to NATS
  SHOTCLOCK_PANELS=home,away,practice NATS_URL=nats://localhost:4222 shotclock serve

  # Keyboard-driven panels in the terminal
  shotclock tui`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (YAML), defaults to $SHOTCLOCK_CONFIG")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(buzzerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
