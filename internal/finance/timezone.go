package finance

import "time"

// DateLayout is the calendar-date format used in requests, labels and logs.
const DateLayout = "2006-01-02"

// exchangeLocation returns the named exchange timezone, falling back to
// America/Sao_Paulo and then to a fixed BRT offset if tzdata is missing.
func exchangeLocation(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("BRT", -3*3600)
	}
	return loc
}

// dateOf truncates t to its calendar date in loc, expressed as midnight UTC.
// Dates from different exchanges compare equal when they name the same day.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
