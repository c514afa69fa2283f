package leave

import (
	"strings"
	"time"

	"go-leave/internal/domain"
	leaveerrors "go-leave/internal/leave/errors"
)

// Pure rule functions for leave requests. No I/O here; the service applies
// them before touching the store.

// NormalizeLeaveType returns the canonical CL/RH/EL form of t, or ("", false)
// when t is not a leave type. Matching is case- and whitespace-insensitive.
func NormalizeLeaveType(t string) (string, bool) {
	canonical := strings.ToUpper(strings.TrimSpace(t))
	if domain.IsLeaveType(canonical) {
		return canonical, true
	}
	return "", false
}

func ValidateLeaveType(t string) bool {
	_, ok := NormalizeLeaveType(t)
	return ok
}

// atStartOfDay zeroes the time component in UTC so day arithmetic is not
// skewed by timezones.
func atStartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateDateRange requires start on or after today and end on or after
// start, comparing calendar dates only.
func ValidateDateRange(start, end time.Time) error {
	today := atStartOfDay(time.Now())
	s := atStartOfDay(start)
	e := atStartOfDay(end)

	if s.Before(today) {
		return leaveerrors.ErrStartDateInPast
	}
	if e.Before(s) {
		return leaveerrors.ErrInvalidDateRange
	}
	return nil
}

// CalculateLeaveDays counts calendar days between start and end inclusive of
// both endpoints. Never below 1.
func CalculateLeaveDays(start, end time.Time) int {
	s := atStartOfDay(start)
	e := atStartOfDay(end)

	days := int(e.Sub(s).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return days
}

// ValidateLeaveDays enforces the per-type request length cap.
func ValidateLeaveDays(days int, leaveType string) error {
	if days < 1 {
		return leaveerrors.ErrInvalidLeaveDays
	}
	cap, ok := domain.RequestDayCaps[leaveType]
	if !ok {
		return leaveerrors.ErrInvalidLeaveType
	}
	if days > cap {
		return leaveerrors.LeaveDaysExceeded(leaveType, days, cap)
	}
	return nil
}

// NormalizeLeaveBalance coerces a balance value to a non-negative integer.
func NormalizeLeaveBalance(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// SanitizeInput strips angle brackets from free text before persistence.
// Minimal XSS mitigation, not a full sanitizer.
func SanitizeInput(s string) string {
	return strings.TrimSpace(angleBrackets.Replace(s))
}
