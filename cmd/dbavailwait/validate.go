package main

import (
	"fmt"

	"github.com/fgeck/dbavailwait/internal/models"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions, deps dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration without connecting",
		Long: `Resolve the configuration from flags, environment and config file, check
that the driver exists and accepts the endpoint, and print a summary.
No connection is attempted.`,
		Args: noPositionalArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cmd, opts, deps)
		},
	}
}

func validateConfig(cmd *cobra.Command, opts *rootOptions, deps dependencies) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := setupLogging(cmd.ErrOrStderr(), opts, verbose)

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		logger.Error().Err(err).Str("config", opts.configFile).Msg("configuration validation failed")
		return err
	}

	transport, err := deps.registry.Lookup(cfg.Driver)
	if err != nil {
		logger.Error().Err(err).Msg("driver is not available, check the driver name")
		return err
	}

	if !transport.Accepts(cfg.Endpoint) {
		result := &models.WaitResult{
			Outcome: models.OutcomeFatalDriverError,
			Detail:  fmt.Sprintf("driver %s does not accept %s", transport.Name(), models.RedactEndpoint(cfg.Endpoint)),
		}
		logger.Error().Str("detail", result.Detail).Msg("configuration validation failed")
		return &OutcomeError{Result: result}
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "Configuration is valid!")
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Summary:")
	_, _ = fmt.Fprintf(out, "  Endpoint: %s\n", models.RedactEndpoint(cfg.Endpoint))
	_, _ = fmt.Fprintf(out, "  Driver: %s\n", transport.Name())
	_, _ = fmt.Fprintf(out, "  Username: %s\n", cfg.Credentials.Username)
	_, _ = fmt.Fprintf(out, "  Password: %s\n", configuredString(cfg.Credentials.Password != ""))
	_, _ = fmt.Fprintf(out, "  Timeout: %s\n", cfg.Timeout)
	_, _ = fmt.Fprintf(out, "  Attempt timeout: %s\n", cfg.AttemptTimeout)
	_, _ = fmt.Fprintf(out, "  Poll interval: %s\n", cfg.PollInterval)
	_, _ = fmt.Fprintf(out, "  Progress messages: %v\n", cfg.ProgressMessages)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Optional Features:")
	_, _ = fmt.Fprintf(out, "  Wake-on-LAN: %v\n", cfg.WOL != nil)
	_, _ = fmt.Fprintf(out, "  Telegram: %v\n", cfg.Telegram != nil)

	if cfg.WOL != nil {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, "WOL Configuration:")
		_, _ = fmt.Fprintf(out, "  MAC Address: %s\n", cfg.WOL.MACAddress)
		_, _ = fmt.Fprintf(out, "  Broadcast IP: %s\n", cfg.WOL.BroadcastIP)
	}

	if cfg.Telegram != nil {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, "Telegram Configuration:")
		_, _ = fmt.Fprintf(out, "  Chat ID: %s\n", cfg.Telegram.ChatID)
		_, _ = fmt.Fprintln(out, "  Bot Token: (configured)")
	}

	return nil
}

func configuredString(set bool) string {
	if set {
		return "(configured)"
	}
	return "(not set)"
}
