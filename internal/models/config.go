// Package models contains the data structures used throughout dbavailwait.
package models

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

const redacted = "xxxxx"

var (
	kvPassword  = regexp.MustCompile(`(?i)\b(password\s*=\s*)('(?:[^'\\]|\\.)*'|[^\s&;]+)`)
	urlUserInfo = regexp.MustCompile(`(://[^:/@]*:)[^@/]*@`)
)

// Default values applied by the config layer.
const (
	DefaultTimeout        = 60 * time.Second
	DefaultAttemptTimeout = 10 * time.Second
	DefaultPollInterval   = 1 * time.Second
	DefaultReportInterval = 5 * time.Second
)

// WaitConfig holds the complete configuration for one wait run.
type WaitConfig struct {
	Endpoint         string
	Driver           string
	Credentials      Credentials
	Timeout          time.Duration
	ProgressMessages bool          // periodic "still waiting" messages
	Verbose          bool          // log every retryable failure
	AttemptTimeout   time.Duration // 0 disables the per-attempt bound
	PollInterval     time.Duration
	ReportInterval   time.Duration
	WOL              *WOLConfig      // nil if not configured
	Telegram         *TelegramConfig // nil if not configured
}

// Credentials is the optional username/password pair handed to a transport.
type Credentials struct {
	Username string
	Password string
}

// IsEmpty reports whether neither username nor password was supplied.
func (c Credentials) IsEmpty() bool {
	return c.Username == "" && c.Password == ""
}

// RedactEndpoint hides passwords in endpoints for logging. It understands URLs
// (user info and a password query parameter), go-sql-driver DSNs such as
// user:pass@tcp(host:3306)/db and libpq key/value strings.
func RedactEndpoint(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return redactURL(endpoint)
	}
	if cfg, err := mysql.ParseDSN(endpoint); err == nil && cfg.Passwd != "" {
		cfg.Passwd = redacted
		return cfg.FormatDSN()
	}
	return kvPassword.ReplaceAllString(endpoint, "${1}"+redacted)
}

func redactURL(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return kvPassword.ReplaceAllString(urlUserInfo.ReplaceAllString(endpoint, "${1}"+redacted+"@"), "${1}"+redacted)
	}

	changed := false
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)
			changed = true
		}
	}
	if q := u.Query(); q.Has("password") {
		q.Set("password", redacted)
		u.RawQuery = q.Encode()
		changed = true
	}
	if !changed {
		return endpoint
	}
	return u.String()
}
