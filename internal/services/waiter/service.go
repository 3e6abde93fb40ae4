// Package waiter polls an endpoint until it becomes reachable or the deadline passes.
package waiter

import (
	"context"
	"time"

	"github.com/fgeck/dbavailwait/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for the wait loop.
type Service interface {
	Run(ctx context.Context, cfg models.WaitConfig) *models.WaitResult
}

// Prober attempts exactly one connection and classifies the result.
// Implementations must not panic and must release every resource they acquire.
type Prober interface {
	Probe(ctx context.Context, endpoint string, creds models.Credentials, verbose bool) models.ProbeResult
}

// Clock allows replacing wall-clock time in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// DefaultClock is the default clock backed by package time.
type DefaultClock struct{}

// Now returns the current time.
func (DefaultClock) Now() time.Time { return time.Now() }

// After waits for the duration to elapse and then sends the current time.
func (DefaultClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Impl implements the waiter Service interface.
type Impl struct {
	prober Prober
	clock  Clock
	logger zerolog.Logger
}

// New creates a new waiter service.
func New(logger zerolog.Logger, prober Prober) *Impl {
	return &Impl{
		prober: prober,
		clock:  DefaultClock{},
		logger: logger,
	}
}

// NewWithClock creates a new waiter service with a custom clock (for testing).
func NewWithClock(logger zerolog.Logger, prober Prober, clock Clock) *Impl {
	return &Impl{
		prober: prober,
		clock:  clock,
		logger: logger,
	}
}

// Run drives the poll cycle to a single terminal outcome.
//
// At least one attempt is always made, so a zero or negative timeout still
// probes the endpoint once before reporting a timeout.
func (s *Impl) Run(ctx context.Context, cfg models.WaitConfig) *models.WaitResult {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = models.DefaultPollInterval
	}
	reportInterval := cfg.ReportInterval
	if reportInterval <= 0 {
		reportInterval = models.DefaultReportInterval
	}

	tracker := NewTracker(s.clock.Now(), cfg.Timeout, reportInterval, cfg.ProgressMessages)
	result := &models.WaitResult{}

	s.logger.Info().
		Str("endpoint", models.RedactEndpoint(cfg.Endpoint)).
		Str("driver", cfg.Driver).
		Int("timeout_sec", tracker.TotalSeconds()).
		Msgf("starting waiting loop (max %d seconds)", tracker.TotalSeconds())

	for {
		now := s.clock.Now()

		if result.Attempts > 0 && tracker.IsExpired(now) {
			result.Outcome = models.OutcomeTimedOut
			result.Elapsed = tracker.Elapsed(now)
			s.logger.Error().
				Int("elapsed_sec", tracker.ElapsedSeconds(now)).
				Int("attempts", result.Attempts).
				Msgf("timed out (after %d sec) while waiting for endpoint", tracker.ElapsedSeconds(now))
			return result
		}

		if tracker.DueForReport(now) {
			s.logger.Info().Msgf("[%d/%d sec] still waiting ...", tracker.ElapsedSeconds(now), tracker.TotalSeconds())
		}

		attemptCtx, cancel := attemptContext(ctx, cfg.AttemptTimeout, tracker.Remaining(now), pollInterval)
		probeResult := s.prober.Probe(attemptCtx, cfg.Endpoint, cfg.Credentials, cfg.Verbose)
		cancel()
		result.Attempts++

		switch probeResult.Kind {
		case models.ProbeReachable:
			result.Outcome = models.OutcomeSuccess
			result.Elapsed = tracker.Elapsed(s.clock.Now())
			s.logger.Info().
				Int("attempts", result.Attempts).
				Dur("elapsed", result.Elapsed).
				Msg("the wait is over, the endpoint is reachable")
			return result

		case models.ProbeFatalFailure:
			result.Outcome = models.OutcomeFatalDriverError
			result.Elapsed = tracker.Elapsed(s.clock.Now())
			result.Detail = probeResult.Detail
			s.logger.Error().
				Str("detail", probeResult.Detail).
				Msg("no suitable driver for endpoint, it is useless to continue waiting; check the endpoint for typos and that the driver supports it")
			return result
		}

		result.Detail = probeResult.Detail
		if cfg.Verbose {
			s.logger.Error().
				Int("attempt", result.Attempts).
				Str("detail", probeResult.Detail).
				Msg("connection attempt failed")
		}

		select {
		case <-ctx.Done():
			result.Outcome = models.OutcomeInterrupted
			result.Elapsed = tracker.Elapsed(s.clock.Now())
			s.logger.Error().Err(ctx.Err()).Msg("interrupted while sleeping in waiting loop")
			return result
		case <-s.clock.After(pollInterval):
		}
	}
}

// attemptContext bounds one probe by the per-attempt timeout, capped by the
// time left until the deadline but never below floor (itself capped by the
// attempt timeout). A non-positive attemptTimeout leaves the probe bounded only
// by the parent context.
func attemptContext(ctx context.Context, attemptTimeout, remaining, floor time.Duration) (context.Context, context.CancelFunc) {
	if attemptTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	bound := attemptTimeout
	if remaining > 0 && remaining < bound {
		bound = min(max(remaining, floor), attemptTimeout)
	}
	return context.WithTimeout(ctx, bound)
}
