package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mcdev12/shotclock/go/internal/notify"
)

var buzzerCmd = &cobra.Command{
	Use:   "buzzer",
	Short: "Follow buzzer events published on NATS",
	Long: `Subscribe to the expiry events the panels publish and log each one with its pulse length.
Use it to check the wiring of remote buzzers or as a reference consumer.`,
	RunE: runBuzzer,
}

func runBuzzer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log, os.Stderr)

	natsCfg := notify.DefaultNATSConfig()
	natsCfg.URL = cfg.NATS.URL
	nc, err := notify.Connect(natsCfg)
	if err != nil {
		return err
	}
	defer nc.Close()

	sub, err := notify.Subscribe(nc, cfg.NATS.SubjectPrefix, func(subject string, env notify.Envelope) {
		log.Info().
			Str("subject", subject).
			Str("panel_id", env.PanelID).
			Str("event", env.EventType).
			Int64("pulse_ms", env.PulseMS).
			Str("main", env.Payload.MainText).
			Str("shot", env.Payload.ShotText).
			Msg("buzz")
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Msg("failed to unsubscribe")
		}
	}()

	log.Info().Str("subject", sub.Subject).Msg("waiting for buzzer events")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	fmt.Fprintln(os.Stderr)
	return nil
}
