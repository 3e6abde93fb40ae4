// Package probe provides single connection attempts against database and service endpoints.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/fgeck/dbavailwait/internal/models"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Service defines the interface for probe operations.
type Service interface {
	Probe(ctx context.Context, endpoint string, creds models.Credentials, verbose bool) models.ProbeResult
}

// Impl implements the probe Service interface on top of one transport.
type Impl struct {
	transport Transport
	logger    zerolog.Logger
}

// New creates a new probe service for the given transport.
func New(logger zerolog.Logger, transport Transport) *Impl {
	return &Impl{
		transport: transport,
		logger:    logger,
	}
}

// Probe attempts exactly one connection and classifies the result. It never
// panics: a panic inside the transport is reported as a retryable failure.
func (s *Impl) Probe(ctx context.Context, endpoint string, creds models.Credentials, verbose bool) (result models.ProbeResult) {
	defer func() {
		if r := recover(); r != nil {
			result = models.RetryableFailure(fmt.Sprintf("%s probe panicked: %v", s.transport.Name(), r))
		}
	}()

	if !s.transport.Accepts(endpoint) {
		return models.FatalFailure(fmt.Sprintf("%s for %s (driver %s)",
			ErrNoSuitableTransport, models.RedactEndpoint(endpoint), s.transport.Name()))
	}

	start := time.Now()
	err := s.transport.Ping(ctx, endpoint, creds)
	duration := time.Since(start)

	if err == nil {
		s.logger.Debug().
			Str("driver", s.transport.Name()).
			Dur("duration", duration).
			Msg("connection established")
		return models.Reachable()
	}

	if errors.Is(err, ErrNoSuitableTransport) {
		return models.FatalFailure(err.Error())
	}

	if verbose {
		s.logger.Debug().
			Str("driver", s.transport.Name()).
			Dur("duration", duration).
			Bool("network_error", isNetworkError(err)).
			Msg("connection attempt returned an error")
	}

	return models.RetryableFailure(describeError(err))
}

// describeError adds driver error codes to the message where available.
func describeError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Sprintf("%s (SQLSTATE %s)", pgErr.Message, pgErr.Code)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Sprintf("%s (SQLSTATE %s)", pqErr.Message, pqErr.Code)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return fmt.Sprintf("%s (MySQL error %d)", myErr.Message, myErr.Number)
	}

	return err.Error()
}

func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
