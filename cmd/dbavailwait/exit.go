package main

import (
	"errors"
	"fmt"

	"github.com/fgeck/dbavailwait/internal/config"
	"github.com/fgeck/dbavailwait/internal/models"
	"github.com/fgeck/dbavailwait/internal/services/probe"
)

// OutcomeError is returned by the root command when the wait loop ended
// without reaching the endpoint.
type OutcomeError struct {
	Result *models.WaitResult
}

func (e *OutcomeError) Error() string {
	if e.Result.Detail != "" {
		return fmt.Sprintf("wait %s after %d attempt(s): %s", e.Result.Outcome, e.Result.Attempts, e.Result.Detail)
	}
	return fmt.Sprintf("wait %s after %d attempt(s)", e.Result.Outcome, e.Result.Attempts)
}

// exitCode maps the error returned by the root command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return models.ExitSuccess
	}

	var outcomeErr *OutcomeError
	switch {
	case errors.As(err, &outcomeErr):
		return outcomeErr.Result.Outcome.ExitCode()
	case errors.Is(err, config.ErrIllegalParameters):
		return models.ExitIllegalParameters
	case errors.Is(err, probe.ErrUnknownTransport):
		return models.ExitNoDriver
	default:
		return models.ExitGenericError
	}
}
