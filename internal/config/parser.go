// Package config builds a validated WaitConfig from flags, environment and files.
package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fgeck/dbavailwait/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key looked up in the environment.
const EnvPrefix = "DBWAIT"

// ErrIllegalParameters marks configuration that is missing or malformed.
var ErrIllegalParameters = errors.New("illegal parameters")

// flagKeys maps configuration keys to the command-line flags that may set them.
var flagKeys = map[string]string{
	"url":             "url",
	"user":            "user",
	"password":        "password",
	"timeout_sec":     "timeout-sec",
	"driver":          "driver",
	"msg":             "msg",
	"verbose":         "verbose",
	"attempt_timeout": "attempt-timeout",
}

var braceVar = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Parser handles configuration parsing. Values are resolved in the order
// flag, DBWAIT_* environment variable, config file, default.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("timeout_sec", int(models.DefaultTimeout/time.Second))
	v.SetDefault("attempt_timeout", models.DefaultAttemptTimeout)
	v.SetDefault("poll_interval", models.DefaultPollInterval)
	v.SetDefault("report_interval", models.DefaultReportInterval)

	return &Parser{v: v}
}

// BindFlags makes explicitly set flags take precedence over every other source.
// Flags missing from the set are skipped.
func (p *Parser) BindFlags(flags *pflag.FlagSet) error {
	for key, name := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := p.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}
	return nil
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment. Variables that are already set are not overridden.
func (p *Parser) LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: loading env file %s: %v", ErrIllegalParameters, path, err)
	}
	return nil
}

// Load builds the configuration from flags and environment only.
func (p *Parser) Load() (*models.WaitConfig, error) {
	return p.parse()
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.WaitConfig, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading config file: %v", ErrIllegalParameters, err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.WaitConfig, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("%w: reading config: %v", ErrIllegalParameters, err)
	}

	return p.parse()
}

func (p *Parser) parse() (*models.WaitConfig, error) {
	cfg := &models.WaitConfig{
		Endpoint: strings.TrimSpace(p.v.GetString("url")),
		Driver:   strings.TrimSpace(p.v.GetString("driver")),
		Credentials: models.Credentials{
			Username: p.v.GetString("user"),
			Password: p.expandEnv(p.v.GetString("password")),
		},
		ProgressMessages: p.v.GetBool("msg"),
		Verbose:          p.v.GetBool("verbose"),
	}

	timeoutSec, err := p.seconds("timeout_sec")
	if err != nil {
		return nil, err
	}
	cfg.Timeout = time.Duration(timeoutSec) * time.Second

	if cfg.AttemptTimeout, err = p.duration("attempt_timeout"); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = p.duration("poll_interval"); err != nil {
		return nil, err
	}
	if cfg.ReportInterval, err = p.duration("report_interval"); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("%w: poll_interval must be positive", ErrIllegalParameters)
	}
	if cfg.ReportInterval <= 0 {
		return nil, fmt.Errorf("%w: report_interval must be positive", ErrIllegalParameters)
	}

	// Parse optional WOL config.
	if mac := p.v.GetString("wol.mac_address"); mac != "" {
		cfg.WOL = &models.WOLConfig{
			MACAddress:  mac,
			BroadcastIP: p.v.GetString("wol.broadcast_ip"),
		}

		if _, err := net.ParseMAC(cfg.WOL.MACAddress); err != nil {
			return nil, fmt.Errorf("%w: wol.mac_address: %v", ErrIllegalParameters, err)
		}
		if cfg.WOL.BroadcastIP == "" {
			cfg.WOL.BroadcastIP = "255.255.255.255"
		}
		if net.ParseIP(cfg.WOL.BroadcastIP) == nil {
			return nil, fmt.Errorf("%w: wol.broadcast_ip %q is not an IP address", ErrIllegalParameters, cfg.WOL.BroadcastIP)
		}
	}

	// Parse optional Telegram config.
	botToken := p.expandEnv(p.v.GetString("telegram.bot_token"))
	chatID := p.expandEnv(p.v.GetString("telegram.chat_id"))
	if botToken != "" || chatID != "" {
		cfg.Telegram = &models.TelegramConfig{
			BotToken: botToken,
			ChatID:   chatID,
		}

		if cfg.Telegram.BotToken == "" {
			return nil, fmt.Errorf("%w: telegram.bot_token is required when telegram is configured", ErrIllegalParameters)
		}
		if cfg.Telegram.ChatID == "" {
			return nil, fmt.Errorf("%w: telegram.chat_id is required when telegram is configured", ErrIllegalParameters)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// seconds reads a whole number of seconds. Strings are always decimal, so a
// leading zero does not switch to octal.
func (p *Parser) seconds(key string) (int, error) {
	var n int
	var err error
	switch val := p.v.Get(key).(type) {
	case string:
		n, err = strconv.Atoi(strings.TrimSpace(val))
	case float32, float64:
		f := cast.ToFloat64(val)
		if f != math.Trunc(f) {
			err = fmt.Errorf("%v is not a whole number", f)
		}
		n = int(f)
	default:
		n, err = cast.ToIntE(val)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a whole number of seconds: %v", ErrIllegalParameters, key, err)
	}
	return n, nil
}

// duration reads a duration key. Bare numbers are taken as seconds.
func (p *Parser) duration(key string) (time.Duration, error) {
	raw := p.v.Get(key)

	var d time.Duration
	var err error
	switch val := raw.(type) {
	case int, int32, int64, float32, float64:
		var secs float64
		secs, err = cast.ToFloat64E(val)
		d = time.Duration(secs * float64(time.Second))
	case string:
		if secs, convErr := strconv.Atoi(strings.TrimSpace(val)); convErr == nil {
			d = time.Duration(secs) * time.Second
		} else {
			d, err = cast.ToDurationE(val)
		}
	default:
		d, err = cast.ToDurationE(raw)
	}

	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrIllegalParameters, key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrIllegalParameters, key)
	}
	return d, nil
}

// expandEnv expands environment variables in the format ${VAR}. A bare $ is
// kept as is so passwords may contain it.
func (p *Parser) expandEnv(s string) string {
	return braceVar.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(m[2 : len(m)-1])
	})
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.WaitConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", ErrIllegalParameters)
	}

	var missing []string
	if cfg.Endpoint == "" {
		missing = append(missing, "url")
	}
	if cfg.Driver == "" {
		missing = append(missing, "driver")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required option(s): %s", ErrIllegalParameters, strings.Join(missing, ", "))
	}

	return nil
}
