package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fgeck/dbavailwait/internal/models"
	"github.com/fgeck/dbavailwait/internal/services/probe"
	"github.com/fgeck/dbavailwait/internal/services/waiter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const notifyTimeout = 15 * time.Second

func runWait(cmd *cobra.Command, opts *rootOptions, deps dependencies) error {
	out := cmd.OutOrStdout()

	if opts.listDrivers {
		for _, name := range deps.registry.Names() {
			_, _ = fmt.Fprintln(out, name)
		}
		return nil
	}

	if !configured(cmd) {
		return cmd.Help()
	}

	// Errors below are reported through the logger.
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := setupLogging(out, opts, verbose)

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		logger.Error().Err(err).Str("config", opts.configFile).Msg("invalid configuration")
		return err
	}
	if cfg.Verbose && !opts.quiet {
		logger = logger.Level(zerolog.DebugLevel)
	}

	transport, err := deps.registry.Lookup(cfg.Driver)
	if err != nil {
		logger.Error().Err(err).Msg("driver is not available, check the driver name")
		return err
	}

	logger.Debug().
		Str("endpoint", models.RedactEndpoint(cfg.Endpoint)).
		Str("driver", transport.Name()).
		Dur("timeout", cfg.Timeout).
		Dur("attempt_timeout", cfg.AttemptTimeout).
		Bool("wol", cfg.WOL != nil).
		Bool("telegram", cfg.Telegram != nil).
		Msg("configuration loaded")

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Warn().Str("signal", sig.String()).Msg("received signal, stopping")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.WOL != nil {
		wake(ctx, logger, deps, *cfg.WOL)
	}

	startTime := time.Now()
	waiterSvc := waiter.NewWithClock(logger, probe.New(logger, transport), deps.clock)
	result := waiterSvc.Run(ctx, *cfg)

	if cfg.Telegram != nil {
		notify(ctx, logger, deps, *cfg, startTime, result)
	}

	if result.Outcome != models.OutcomeSuccess {
		return &OutcomeError{Result: result}
	}
	return nil
}

// wake sends the magic packet. A failed send is only a warning: the host may
// already be up.
func wake(ctx context.Context, logger zerolog.Logger, deps dependencies, cfg models.WOLConfig) {
	result, err := deps.newWOL(logger).Wake(ctx, cfg)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("Wake-on-LAN failed, polling anyway")
	case result.Error != nil:
		logger.Warn().Err(result.Error).Msg("Wake-on-LAN failed, polling anyway")
	}
}

// notify reports the outcome to Telegram. It runs even after an interrupt, so
// it gets its own deadline instead of the cancelled run context.
func notify(ctx context.Context, logger zerolog.Logger, deps dependencies, cfg models.WaitConfig, startTime time.Time, result *models.WaitResult) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	msg := models.TelegramMessage{
		Endpoint:  cfg.Endpoint,
		Driver:    cfg.Driver,
		Outcome:   result.Outcome,
		StartTime: startTime,
		Elapsed:   result.Elapsed,
		Attempts:  result.Attempts,
		Detail:    result.Detail,
	}

	tgResult, err := deps.newTelegram(logger).SendNotification(notifyCtx, *cfg.Telegram, msg)
	switch {
	case err != nil:
		logger.Warn().Err(err).Msg("failed to send Telegram notification")
	case tgResult.Error != nil:
		logger.Warn().Err(tgResult.Error).Msg("failed to send Telegram notification")
	}
}
