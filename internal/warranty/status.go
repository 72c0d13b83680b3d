// Package warranty holds the pure warranty-domain rules: status computation,
// reminder scheduling decisions, and notification gating. Nothing in this
// package touches the database or the real clock; callers always pass "now"
// explicitly so the rules stay deterministic and testable.
package warranty

import (
	"errors"
	"time"
)

// Status classifies how close a product's warranty is to running out
type Status string

const (
	StatusActive       Status = "active"
	StatusExpiringSoon Status = "expiring-soon"
	StatusExpired      Status = "expired"
)

// ExpiringSoonDays is the fixed threshold below which an active warranty
// is flagged as expiring soon
const ExpiringSoonDays = 30

// ErrZeroDate is returned when a caller passes an uninitialized time.Time
var ErrZeroDate = errors.New("warranty: zero date input")

// StatusInfo is the derived warranty state for a product at a point in time
type StatusInfo struct {
	DaysLeft int    `json:"days_left"`
	Status   Status `json:"status"`
}

// ComputeStatus derives the remaining days and status for a warranty window.
// Both dates and "now" are normalized to midnight before subtraction so
// intraday clock values can never shift the result by a day.
//
// The end date itself counts as already over: daysLeft <= 0 means expired.
// A warrantyEndDate before purchaseDate still computes a result; rejecting
// such products is a validation concern at create/update time, not here.
func ComputeStatus(purchaseDate, warrantyEndDate, now time.Time) (StatusInfo, error) {
	if purchaseDate.IsZero() || warrantyEndDate.IsZero() || now.IsZero() {
		return StatusInfo{}, ErrZeroDate
	}

	end := StartOfDay(warrantyEndDate)
	today := StartOfDay(now)

	// Both sides sit at UTC midnight, so the division is exact
	daysLeft := int(end.Sub(today) / (24 * time.Hour))

	info := StatusInfo{DaysLeft: daysLeft}
	switch {
	case daysLeft <= 0:
		info.Status = StatusExpired
	case daysLeft <= ExpiringSoonDays:
		info.Status = StatusExpiringSoon
	default:
		info.Status = StatusActive
	}
	return info, nil
}

// StartOfDay normalizes a time to midnight UTC on its calendar day
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameCalendarDay reports whether two times fall on the same calendar day
func SameCalendarDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}
