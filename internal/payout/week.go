package payout

import (
	"time"
)

// dateLayout is the display format for settlement window bounds, dd/MM/yy
const dateLayout = "02/01/06"

// bangkok is the fixed business timezone. Settlement weeks are anchored to
// local Bangkok midnights regardless of the server's own zone.
var bangkok = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}()

// WeekWindow is the Monday-to-Sunday settlement interval containing a date
type WeekWindow struct {
	Start          time.Time `json:"startDate"`
	End            time.Time `json:"endDate"`
	FormattedStart string    `json:"formattedStartDate"`
	FormattedEnd   string    `json:"formattedEndDate"`
}

// WeekOf computes the weekly settlement window containing t. Start is the
// most recent Monday midnight at or before t, End the following Sunday.
// Deterministic for a given input: every day of one week maps to the same
// window.
func WeekOf(t time.Time) WeekWindow {
	local := t.In(bangkok)

	// Days back to Monday; Go weeks start on Sunday.
	back := (int(local.Weekday()) + 6) % 7
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, bangkok).AddDate(0, 0, -back)
	end := start.AddDate(0, 0, 6)

	return WeekWindow{
		Start:          start,
		End:            end,
		FormattedStart: start.Format(dateLayout),
		FormattedEnd:   end.Format(dateLayout),
	}
}

// CurrentWeek returns the settlement window containing the current time
func CurrentWeek() WeekWindow {
	return WeekOf(time.Now())
}

// Contains reports whether t falls inside the window
func (w WeekWindow) Contains(t time.Time) bool {
	local := t.In(bangkok)
	return !local.Before(w.Start) && local.Before(w.Start.AddDate(0, 0, 7))
}
