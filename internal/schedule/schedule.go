// Package schedule decides whether a restaurant is open at a given instant.
// The result is always evaluated fresh from the wall clock; nothing here is
// cached or stored, so a displayed "open" badge never goes stale.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"foodcourt/internal/models"
)

// bangkok is the wall clock all restaurant hours are written against
var bangkok = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}()

// weekday code per time.Weekday index, sun..sat
var weekdayCodes = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// IsTodayOpen reports whether now's local day-of-week is in openDays
func IsTodayOpen(openDays models.StringSlice, now time.Time) bool {
	code := weekdayCodes[now.In(bangkok).Weekday()]
	return openDays.Contains(code)
}

// parseClock converts an "HH:MM" wall-clock string to minutes since midnight
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("schedule: invalid clock value %q", s)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("schedule: invalid hour in %q", s)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("schedule: invalid minute in %q", s)
	}
	return hh*60 + mm, nil
}

// IsTimeBetween reports whether now lies inside the [open, close] window.
// When close is numerically before open the window crosses midnight, so the
// test wraps: open at 22:00, close at 02:00 covers 23:30 but not 03:00.
func IsTimeBetween(now, open, close string) (bool, error) {
	n, err := parseClock(now)
	if err != nil {
		return false, err
	}
	o, err := parseClock(open)
	if err != nil {
		return false, err
	}
	c, err := parseClock(close)
	if err != nil {
		return false, err
	}

	if o <= c {
		return o <= n && n <= c, nil
	}
	return n >= o || n <= c, nil
}

// IsActuallyOpen reports whether the restaurant is open right now: scheduled
// open today, inside its operating hours, and not manually closed. Malformed
// stored clock values are treated as closed.
func IsActuallyOpen(r *models.Restaurant, now time.Time) bool {
	if r.ManuallyClosed {
		return false
	}
	if !IsTodayOpen(r.OpenDays, now) {
		return false
	}

	clock := now.In(bangkok).Format("15:04")
	within, err := IsTimeBetween(clock, r.OpenTime, r.CloseTime)
	if err != nil {
		return false
	}
	return within
}
