// Package membership holds the calendar rules shared by every part of the
// system that shows or changes a membership: plan end dates, status
// derivation and reminder timing. Handlers expose them for previews so no
// client keeps its own copy.
package membership

import (
	"fmt"
	"strings"
)

// Status is the derived state of a membership on a given day.
type Status string

const (
	StatusUnknown      Status = "unknown"
	StatusActive       Status = "active"
	StatusExpiringSoon Status = "expiring soon"
	StatusExpired      Status = "expired"
)

// ExpiringSoonDays is the number of days before the end date from which a
// membership counts as expiring soon.
const ExpiringSoonDays = 3

// Reminder offsets, in days before the end date.
const (
	ReminderDaysAhead = 3
	ReminderDayOf     = 0
)

// DaysRemaining is end minus today in whole calendar days. A membership
// ending today has 0 days remaining.
func DaysRemaining(end, today Date) int {
	return today.DaysUntil(end)
}

// ComputeStatus derives the status of a membership ending on end. The end
// date itself is still covered, so it reports expiring soon, not expired.
func ComputeStatus(end, today Date) Status {
	if end.IsZero() || today.IsZero() {
		return StatusUnknown
	}
	days := DaysRemaining(end, today)
	switch {
	case days < 0:
		return StatusExpired
	case days <= ExpiringSoonDays:
		return StatusExpiringSoon
	default:
		return StatusActive
	}
}

// DeriveStatus is ComputeStatus over a raw end date; absent or unparseable
// input yields StatusUnknown.
func DeriveStatus(endDate string, today Date) Status {
	end, err := ParseDate(endDate)
	if err != nil {
		return StatusUnknown
	}
	return ComputeStatus(end, today)
}

// ParseStatus accepts the canonical labels plus "expiring_soon"/"expiring-soon".
func ParseStatus(s string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", " ", "-", " ").Replace(normalized)
	switch Status(normalized) {
	case StatusActive, StatusExpiringSoon, StatusExpired, StatusUnknown:
		return Status(normalized), nil
	}
	return "", fmt.Errorf("unrecognised membership status %q", s)
}

// EndDateBounds returns the inclusive range of end dates that produce
// status on today. A zero bound means unbounded on that side. ok is false
// for StatusUnknown, which has no end date at all.
func EndDateBounds(status Status, today Date) (from, to Date, ok bool) {
	switch status {
	case StatusExpired:
		return Date{}, today.AddDays(-1), true
	case StatusExpiringSoon:
		return today, today.AddDays(ExpiringSoonDays), true
	case StatusActive:
		return today.AddDays(ExpiringSoonDays + 1), Date{}, true
	}
	return Date{}, Date{}, false
}

// ReminderDue reports whether a reminder goes out with days remaining.
func ReminderDue(days int) bool {
	return days == ReminderDaysAhead || days == ReminderDayOf
}

// NeedsAttention reports whether staff should follow up on the membership.
func (s Status) NeedsAttention() bool {
	return s == StatusExpiringSoon || s == StatusExpired
}

func (s Status) String() string { return string(s) }
