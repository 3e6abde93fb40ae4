package models

// ProbeKind classifies the result of a single connection attempt.
type ProbeKind int

const (
	// ProbeReachable means the endpoint accepted a connection.
	ProbeReachable ProbeKind = iota
	// ProbeRetryableFailure means polling again may still succeed.
	ProbeRetryableFailure
	// ProbeFatalFailure means no capable driver or transport exists for the endpoint.
	ProbeFatalFailure
)

func (k ProbeKind) String() string {
	switch k {
	case ProbeReachable:
		return "reachable"
	case ProbeRetryableFailure:
		return "retryable_failure"
	case ProbeFatalFailure:
		return "fatal_failure"
	default:
		return "unknown"
	}
}

// ProbeResult holds the classified result of one probe.
type ProbeResult struct {
	Kind   ProbeKind
	Detail string
}

// Reachable returns a successful probe result.
func Reachable() ProbeResult {
	return ProbeResult{Kind: ProbeReachable}
}

// RetryableFailure returns a probe result that keeps the loop polling.
func RetryableFailure(detail string) ProbeResult {
	return ProbeResult{Kind: ProbeRetryableFailure, Detail: detail}
}

// FatalFailure returns a probe result that ends the loop immediately.
func FatalFailure(detail string) ProbeResult {
	return ProbeResult{Kind: ProbeFatalFailure, Detail: detail}
}
