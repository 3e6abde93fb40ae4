package models

import "time"

// Process exit codes. Calling scripts depend on these values.
const (
	ExitSuccess           = 0
	ExitTimedOut          = 1
	ExitIllegalParameters = 2
	ExitGenericError      = 3
	ExitNoDriver          = 4
)

// Outcome is the single terminal result of a wait run.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeTimedOut
	OutcomeFatalDriverError
	OutcomeInterrupted
)

// ExitCode maps the outcome to the process exit code.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeSuccess:
		return ExitSuccess
	case OutcomeTimedOut:
		return ExitTimedOut
	case OutcomeFatalDriverError:
		return ExitNoDriver
	default:
		return ExitGenericError
	}
}

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeFatalDriverError:
		return "fatal_driver_error"
	case OutcomeInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// WaitResult holds the outcome of a wait run together with its statistics.
type WaitResult struct {
	Outcome  Outcome
	Attempts int
	Elapsed  time.Duration
	Detail   string // last probe failure detail, if any
}
