package waiter

import "time"

// Tracker keeps the deadline and progress-report schedule of one wait run.
// The deadline is fixed at construction and never extended.
type Tracker struct {
	startTime      time.Time
	deadline       time.Time
	timeout        time.Duration
	nextReport     time.Time
	reportInterval time.Duration
	reportEnabled  bool
}

// NewTracker starts tracking at now.
func NewTracker(now time.Time, timeout, reportInterval time.Duration, reportEnabled bool) *Tracker {
	return &Tracker{
		startTime:      now,
		deadline:       now.Add(timeout),
		timeout:        timeout,
		nextReport:     now.Add(reportInterval),
		reportInterval: reportInterval,
		reportEnabled:  reportEnabled && reportInterval > 0,
	}
}

// IsExpired reports whether now is at or past the deadline.
func (t *Tracker) IsExpired(now time.Time) bool {
	return !now.Before(t.deadline)
}

// DueForReport reports whether a progress message should be emitted at now.
// When it returns true the next report instant is moved past now, so every
// report window fires at most once and windows skipped by a slow iteration
// are not reported late.
func (t *Tracker) DueForReport(now time.Time) bool {
	if !t.reportEnabled || !now.After(t.nextReport) {
		return false
	}
	for !t.nextReport.After(now) {
		t.nextReport = t.nextReport.Add(t.reportInterval)
	}
	return true
}

// Elapsed returns the time passed since start.
func (t *Tracker) Elapsed(now time.Time) time.Duration {
	return now.Sub(t.startTime)
}

// ElapsedSeconds returns whole seconds passed since start, for display.
func (t *Tracker) ElapsedSeconds(now time.Time) int {
	return int(t.Elapsed(now) / time.Second)
}

// TotalSeconds returns the configured timeout in whole seconds.
func (t *Tracker) TotalSeconds() int {
	return int(t.timeout / time.Second)
}

// Remaining returns the time left until the deadline. It is negative once expired.
func (t *Tracker) Remaining(now time.Time) time.Duration {
	return t.deadline.Sub(now)
}

// Deadline returns the absolute deadline.
func (t *Tracker) Deadline() time.Time {
	return t.deadline
}
