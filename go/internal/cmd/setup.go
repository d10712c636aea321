package main

import (
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/shotclock/go/internal/config"
	"github.com/mcdev12/shotclock/go/internal/notify"
)

func loadConfig() (config.Config, error) {
	config.LoadDotEnv()

	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func setupLogging(cfg config.LogConfig, out io.Writer) {
	if cfg.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
	} else {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}

	// Validate has already rejected unknown levels.
	level, _ := cfg.ZerologLevel()
	zerolog.SetGlobalLevel(level)
}

// setupNATS connects to NATS and returns a publisher that never blocks a panel
// loop. The returned cleanup drains pending events and closes the connection.
func setupNATS(cfg config.NATSConfig) (*notify.Async, func(), error) {
	natsCfg := notify.DefaultNATSConfig()
	natsCfg.URL = cfg.URL
	natsCfg.SubjectPrefix = cfg.SubjectPrefix

	nc, err := notify.Connect(natsCfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("url", nc.ConnectedUrl()).Str("subject", notify.SubjectFilter(cfg.SubjectPrefix)).Msg("publishing buzzer events to NATS")

	async := notify.NewAsync(notify.NewNATSPublisher(nc, cfg.SubjectPrefix), notify.DefaultQueueSize)
	cleanup := func() {
		async.Close()
		if err := nc.Drain(); err != nil && err != nats.ErrConnectionClosed {
			log.Warn().Err(err).Msg("failed to drain NATS connection")
		}
	}
	return async, cleanup, nil
}
