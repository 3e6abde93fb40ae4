package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fgeck/dbavailwait/internal/config"
	"github.com/fgeck/dbavailwait/internal/models"
	"github.com/fgeck/dbavailwait/internal/services/probe"
	"github.com/fgeck/dbavailwait/internal/services/telegram"
	"github.com/fgeck/dbavailwait/internal/services/waiter"
	"github.com/fgeck/dbavailwait/internal/services/wol"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is set at build time.
var Version = "dev"

// rootOptions holds the flags that are not part of the wait configuration.
type rootOptions struct {
	configFile  string
	envFile     string
	quiet       bool
	jsonOutput  bool
	listDrivers bool
}

// dependencies are the collaborators of the commands, replaceable in tests.
type dependencies struct {
	registry    *probe.Registry
	clock       waiter.Clock
	newWOL      func(logger zerolog.Logger) wol.Service
	newTelegram func(logger zerolog.Logger) telegram.Service
}

func defaultDependencies() dependencies {
	return dependencies{
		registry:    probe.DefaultRegistry(),
		clock:       waiter.DefaultClock{},
		newWOL:      func(logger zerolog.Logger) wol.Service { return wol.New(logger) },
		newTelegram: func(logger zerolog.Logger) telegram.Service { return telegram.New(logger) },
	}
}

func newRootCmd(deps dependencies) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "dbavailwait",
		Short: "Wait until a database endpoint accepts connections",
		Long: `dbavailwait polls a database or service endpoint until a connection can be
established or the timeout passes. Use it in deployment scripts to block
until a dependency is up.

Exit codes:
  0  endpoint reachable
  1  timed out
  2  illegal or missing parameters
  3  interrupted or unexpected error
  4  no suitable driver for the endpoint

Every option can also be set through a DBWAIT_* environment variable
(e.g. DBWAIT_URL, DBWAIT_TIMEOUT_SEC) or a YAML config file.
Flags override environment variables, which override the config file.`,
		Example: `  dbavailwait -l postgres://db:5432/app -d pgx -u app -p secret -t 30 -m
  dbavailwait --url "app:secret@tcp(db:3306)/app" --driver mysql
  DBWAIT_URL=redis://cache:6379/0 DBWAIT_DRIVER=redis dbavailwait`,
		Args:    noPositionalArgs,
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWait(cmd, opts, deps)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("url", "l", "", "endpoint URL or DSN to wait for (required)")
	flags.StringP("user", "u", "", "username for the connection")
	flags.StringP("password", "p", "", "password for the connection")
	flags.StringP("timeout-sec", "t", strconv.Itoa(int(models.DefaultTimeout.Seconds())), "timeout in seconds")
	flags.StringP("driver", "d", "", "driver name, see --list-drivers (required)")
	flags.BoolP("msg", "m", false, "print a \"still waiting\" message every few seconds")
	flags.BoolP("verbose", "v", false, "log every failed connection attempt (debug output)")
	flags.Duration("attempt-timeout", models.DefaultAttemptTimeout, "upper bound for a single connection attempt (0 disables)")
	flags.StringVarP(&opts.configFile, "config", "c", "", "optional YAML config file")
	flags.StringVar(&opts.envFile, "env-file", "", "optional dotenv file loaded before reading DBWAIT_* variables")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "enable quiet mode (errors only)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "output logs in JSON format")
	rootCmd.Flags().BoolVar(&opts.listDrivers, "list-drivers", false, "print the available driver names and exit")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", config.ErrIllegalParameters, err)
	})

	rootCmd.AddCommand(newValidateCmd(opts, deps))

	return rootCmd
}

func noPositionalArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: unexpected arguments: %s", config.ErrIllegalParameters, strings.Join(args, " "))
	}
	return nil
}

// setupLogging builds the per-invocation logger. Every line carries a run_id so
// concurrent invocations in one log stream can be told apart.
func setupLogging(out io.Writer, opts *rootOptions, verbose bool) zerolog.Logger {
	var logger zerolog.Logger
	if opts.jsonOutput {
		logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05", NoColor: !isTerminal(out)}
		output.FormatLevel = func(i interface{}) string {
			if s, ok := i.(string); ok {
				return strings.ToUpper(s)
			}
			return ""
		}
		logger = zerolog.New(output).With().Timestamp().Logger()
	}

	level := zerolog.InfoLevel
	switch {
	case opts.quiet:
		level = zerolog.ErrorLevel
	case verbose:
		level = zerolog.DebugLevel
	}

	return logger.Level(level).With().Str("run_id", uuid.NewString()).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// loadConfig resolves the wait configuration from flags, environment and files.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*models.WaitConfig, error) {
	parser := config.NewParser()
	if err := parser.BindFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	if opts.envFile != "" {
		if err := parser.LoadEnvFile(opts.envFile); err != nil {
			return nil, err
		}
	}

	if opts.configFile != "" {
		return parser.LoadFile(opts.configFile)
	}
	return parser.Load()
}

// configured reports whether the invocation carries any configuration at all.
func configured(cmd *cobra.Command) bool {
	if cmd.Flags().NFlag() > 0 {
		return true
	}
	for _, key := range []string{"URL", "DRIVER"} {
		if os.Getenv(config.EnvPrefix+"_"+key) != "" {
			return true
		}
	}
	return false
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd(defaultDependencies()).Execute()
}
