//go:build integration

package integration

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/fgeck/dbavailwait/internal/models"
	"github.com/fgeck/dbavailwait/internal/services/probe"
	"github.com/fgeck/dbavailwait/internal/services/waiter"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// waitFor runs the real wait loop against endpoint with the named built-in driver.
func waitFor(t *testing.T, driver, endpoint string, creds models.Credentials, timeout time.Duration) *models.WaitResult {
	t.Helper()

	transport, err := probe.DefaultRegistry().Lookup(driver)
	require.NoError(t, err)

	svc := waiter.New(testLogger(), probe.New(testLogger(), transport))

	return svc.Run(context.Background(), models.WaitConfig{
		Endpoint:       endpoint,
		Driver:         driver,
		Credentials:    creds,
		Timeout:        timeout,
		Verbose:        true,
		AttemptTimeout: 5 * time.Second,
		PollInterval:   250 * time.Millisecond,
	})
}
