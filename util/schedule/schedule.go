// Package schedule holds the time-slot types and the overlap predicate shared
// by the room availability checks.
package schedule

import (
	"fmt"
	"regexp"
	"time"
)

// Policy selects which overlap predicate is in force.
type Policy string

const (
	// PolicyStrict is the conventional half-open interval intersection:
	// a conflict exists iff existing.start < proposed.end AND
	// existing.end > proposed.start.
	PolicyStrict Policy = "strict"

	// PolicyConservative reproduces the legacy predicate carried over from
	// the previous system: an OR over the date bounds combined with an OR
	// over the clock-time bounds. It over-reports conflicts (back-to-back
	// slots are rejected) and exists so deployments relying on the old
	// blocking behavior can keep it.
	PolicyConservative Policy = "conservative"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyStrict, PolicyConservative:
		return Policy(s), nil
	case "":
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("unknown overlap policy %q", s)
}

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidClock reports whether s is a zero-padded 24-hour "HH:MM" time.
func ValidClock(s string) bool { return clockRe.MatchString(s) }

// Slot is a reservation window: calendar dates plus same-day clock times.
type Slot struct {
	StartDate time.Time
	EndDate   time.Time
	StartTime string // "HH:MM"
	EndTime   string // "HH:MM"
}

func (s Slot) Validate() error {
	if !ValidClock(s.StartTime) || !ValidClock(s.EndTime) {
		return fmt.Errorf("clock times must be HH:MM, got %q and %q", s.StartTime, s.EndTime)
	}
	if !s.Start().Before(s.End()) {
		return fmt.Errorf("slot start %s is not before end %s", s.Start(), s.End())
	}
	return nil
}

// Start is the absolute start instant: start date combined with start time.
func (s Slot) Start() time.Time { return at(s.StartDate, s.StartTime) }

// End is the absolute end instant: end date combined with end time.
func (s Slot) End() time.Time { return at(s.EndDate, s.EndTime) }

func at(d time.Time, clock string) time.Time {
	h, m := clockParts(clock)
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, time.UTC)
}

// clockParts assumes a validated "HH:MM" string.
func clockParts(clock string) (h, m int) {
	if len(clock) != 5 {
		return 0, 0
	}
	h = int(clock[0]-'0')*10 + int(clock[1]-'0')
	m = int(clock[3]-'0')*10 + int(clock[4]-'0')
	return h, m
}

// Conflicts reports whether existing and proposed overlap under the policy.
func Conflicts(existing, proposed Slot, p Policy) bool {
	if p == PolicyConservative {
		return conservativeConflict(existing, proposed)
	}
	return existing.Start().Before(proposed.End()) && existing.End().After(proposed.Start())
}

// conservativeConflict is the legacy test, kept bug-for-bug: each half is an
// OR of two open-ended conditions, so nearly any pair of slots trips it.
func conservativeConflict(existing, proposed Slot) bool {
	dateHit := !existing.StartDate.After(proposed.End()) || !existing.EndDate.Before(proposed.Start())
	timeHit := existing.StartTime <= proposed.EndTime || existing.EndTime >= proposed.StartTime
	return dateHit && timeHit
}
