// Package entitlement holds the pure decision rules behind plan limits:
// monthly usage windows, limit fallbacks and the allow/deny decision.
// Nothing here touches storage.
package entitlement

import (
	"fmt"
	"time"
)

// WindowKey identifies one calendar-month usage window.
type WindowKey struct {
	Year  int
	Month time.Month
}

// CurrentWindowKey returns the window that contains now, evaluated in UTC.
func CurrentWindowKey(now time.Time) WindowKey {
	now = now.UTC()
	return WindowKey{Year: now.Year(), Month: now.Month()}
}

func (k WindowKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Start is the first instant of the window.
func (k WindowKey) Start() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant of the following window.
func (k WindowKey) End() time.Time {
	return k.Start().AddDate(0, 1, 0)
}

// ParseWindowKey reads the "YYYY-MM" form produced by String.
func ParseWindowKey(s string) (WindowKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return WindowKey{}, fmt.Errorf("invalid window key %q: %w", s, err)
	}
	return WindowKey{Year: t.Year(), Month: t.Month()}, nil
}

// NeedsReset reports whether a counter last reset at lastReset belongs to an
// older window than now. A zero lastReset always needs a reset.
func NeedsReset(lastReset, now time.Time) bool {
	if lastReset.IsZero() {
		return true
	}
	return CurrentWindowKey(lastReset) != CurrentWindowKey(now)
}
