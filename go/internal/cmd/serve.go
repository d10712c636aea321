package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/shotclock/go/internal/gateway"
	"github.com/mcdev12/shotclock/go/internal/metrics"
	"github.com/mcdev12/shotclock/go/internal/notify"
	"github.com/mcdev12/shotclock/go/internal/panel"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the panels behind the display gateway",
	Long: `Run every configured panel and serve them to displays and remote controls.

Routes:
  GET  /api/panels                   snapshots of every panel
  GET  /api/panels/{id}/state        snapshot of one panel
  POST /api/panels/{id}/{action}     toggle | reset-all | reset-shot | nudge-up | nudge-down
  GET  /ws/panel?panel_id={id}       live snapshots and expiry events, accepts {"action": ...}
  GET  /ws/stats                     websocket connection counts
  GET  /debug/ticks                  committed tick interval histogram per panel
  GET  /health
  POST /shotclock.v1.PanelService/*  Connect RPC (Snapshot, ToggleRun, ResetAll, ResetShot, AdjustShot)
`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewTickCollector()
	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	broadcaster := gateway.NewBroadcaster(cm, nil)

	notifiers := notify.Multi{broadcaster, notify.NewLogNotifier()}
	if cfg.NATS.Enabled {
		publisher, cleanup, err := setupNATS(cfg.NATS)
		if err != nil {
			return err
		}
		defer cleanup()
		notifiers = append(notifiers, publisher)
	}

	board, err := panel.NewBoard(cfg.Panels,
		panel.WithDisplay(broadcaster),
		panel.WithNotifier(notifiers),
		panel.WithMetrics(collector),
	)
	if err != nil {
		return fmt.Errorf("create panels: %w", err)
	}

	svc := gateway.NewService(cm, broadcaster, board, collector)
	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	server := setupServer(cfg.Server.Port, mux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return board.Run(gctx)
	})
	g.Go(func() error {
		return svc.Start(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Strs("panels", board.IDs()).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown failed: %w", err)
		}
		return nil
	})

	err = g.Wait()
	log.Info().Msg("shotclock shutdown complete")
	return err
}
