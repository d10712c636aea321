package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mcdev12/shotclock/go/internal/notify"
	"github.com/mcdev12/shotclock/go/internal/panel"
	"github.com/mcdev12/shotclock/go/internal/tui"
)

var tuiLogFile string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the panels in the terminal",
	Long: `Run the configured panels side by side in the terminal.

Keys:
  left panel    space start/pause, r reset all, s reset shot, w/x shot ±5s
  right panel   enter start/pause, R reset all, S reset shot, up/down shot ±5s
  q             quit
`,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiLogFile, "log-file", "", "write logs to this file (logs are discarded otherwise)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The terminal belongs to the program.
	var logOut io.Writer = io.Discard
	if tuiLogFile != "" {
		f, err := os.OpenFile(tuiLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	cfg.Log.Console = false
	setupLogging(cfg.Log, logOut)

	// Assigned before any panel loop can emit an event.
	var program *tea.Program
	buzzer := notify.NewAsync(tui.NewProgramNotifier(func(msg tea.Msg) { program.Send(msg) }), notify.DefaultQueueSize)
	defer buzzer.Close()

	notifiers := notify.Multi{buzzer, notify.NewLogNotifier()}
	if cfg.NATS.Enabled {
		publisher, cleanup, err := setupNATS(cfg.NATS)
		if err != nil {
			return err
		}
		defer cleanup()
		notifiers = append(notifiers, publisher)
	}

	board, err := panel.NewBoard(cfg.Panels, panel.WithNotifier(notifiers))
	if err != nil {
		return fmt.Errorf("create panels: %w", err)
	}
	program = tea.NewProgram(tui.NewModel(board), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := board.Run(ctx); err != nil {
			log.Error().Err(err).Msg("panels stopped")
		}
	}()

	_, runErr := program.Run()
	cancel()
	wg.Wait()

	if runErr != nil {
		return fmt.Errorf("run terminal UI: %w", runErr)
	}
	return nil
}
