package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fgeck/dbavailwait/internal/config"
	"github.com/fgeck/dbavailwait/internal/models"
	"github.com/fgeck/dbavailwait/internal/services/probe"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, 0},
		{"timed out", &OutcomeError{Result: &models.WaitResult{Outcome: models.OutcomeTimedOut}}, 1},
		{"illegal parameters", fmt.Errorf("%w: missing required option(s): url", config.ErrIllegalParameters), 2},
		{"interrupted", &OutcomeError{Result: &models.WaitResult{Outcome: models.OutcomeInterrupted}}, 3},
		{"unexpected error", errors.New("boom"), 3},
		{"unknown driver", fmt.Errorf("%w: %q", probe.ErrUnknownTransport, "oracle"), 4},
		{"fatal driver error", &OutcomeError{Result: &models.WaitResult{Outcome: models.OutcomeFatalDriverError}}, 4},
		{"wrapped outcome", fmt.Errorf("run: %w", &OutcomeError{Result: &models.WaitResult{Outcome: models.OutcomeTimedOut}}), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exitCode(tt.err))
		})
	}
}

func TestOutcomeError_Error(t *testing.T) {
	err := &OutcomeError{Result: &models.WaitResult{
		Outcome:  models.OutcomeTimedOut,
		Attempts: 3,
		Detail:   "connection refused",
	}}
	assert.Equal(t, "wait timed_out after 3 attempt(s): connection refused", err.Error())

	err = &OutcomeError{Result: &models.WaitResult{Outcome: models.OutcomeInterrupted, Attempts: 1}}
	assert.Equal(t, "wait interrupted after 1 attempt(s)", err.Error())
}
