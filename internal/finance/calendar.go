package finance

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/scmhub/calendar"
)

// CalendarFirstYear is the earliest year the exchange calendars are built for.
const CalendarFirstYear = 1990

// TradingCalendar answers business-day questions for the exchange the tickers trade on.
type TradingCalendar struct {
	cal       *calendar.Calendar
	loc       *time.Location
	fallback  bool
	startYear int
	endYear   int
}

// CalendarOption customizes a TradingCalendar.
type CalendarOption func(*calendarOptions)

type calendarOptions struct {
	startYear int
	endYear   int
}

// WithCalendarYears sets the inclusive year range the exchange calendar covers.
func WithCalendarYears(start, end int) CalendarOption {
	return func(o *calendarOptions) {
		o.startYear = start
		o.endYear = end
	}
}

// NewTradingCalendar loads the calendar for the given MIC, falling back to
// NYSE and then to a plain Monday-Friday rule. Dates outside the calendar's
// year range use the Monday-Friday rule too.
func NewTradingCalendar(mic string, log zerolog.Logger, opts ...CalendarOption) *TradingCalendar {
	o := calendarOptions{
		startYear: CalendarFirstYear,
		endYear:   time.Now().Year() + calendar.YearsAhead,
	}
	for _, opt := range opts {
		opt(&o)
	}

	mic = strings.ToLower(strings.TrimSpace(mic))
	cal := calendar.GetCalendar(mic, o.startYear, o.endYear)
	if cal == nil {
		log.Warn().Str("mic", mic).Msg("no exchange calendar for MIC, falling back to xnys")
		cal = calendar.GetCalendar("xnys", o.startYear, o.endYear)
	}
	if cal == nil {
		log.Warn().Str("mic", mic).Msg("no exchange calendar available, using Mon-Fri rule")
		return &TradingCalendar{fallback: true, loc: exchangeLocation("")}
	}
	if mic == "bvmf" {
		cal.AddHolidays(b3Holidays()...)
	}
	loc := cal.Loc
	if loc == nil {
		loc = exchangeLocation("")
	}
	start, end := cal.Years()
	return &TradingCalendar{cal: cal, loc: loc, startYear: start, endYear: end}
}

// b3Holidays lists the full-day B3 closures. The bvmf calendar ships without any.
func b3Holidays() []*calendar.Holiday {
	fixed := func(name string, month time.Month, day int) *calendar.Holiday {
		h := calendar.NewYear.Copy(name)
		h.Month, h.Day = month, day
		return h
	}
	return []*calendar.Holiday{
		calendar.NewYear.Copy(),
		calendar.Carnival.Copy("Carnival Monday").AddOffset(-1),
		calendar.Carnival.Copy(),
		calendar.GoodFriday.Copy(),
		fixed("Tiradentes", time.April, 21),
		fixed("Labour Day", time.May, 1),
		calendar.CorpusChristi.Copy(),
		fixed("Independence Day", time.September, 7),
		fixed("Our Lady of Aparecida", time.October, 12),
		fixed("All Souls' Day", time.November, 2),
		fixed("Republic Day", time.November, 15),
		fixed("Black Consciousness Day", time.November, 20).SetAfterYear(2024),
		fixed("Christmas Eve", time.December, 24),
		fixed("Christmas Day", time.December, 25),
		fixed("New Year's Eve", time.December, 31),
	}
}

// IsTradingDay reports whether the calendar date d is a business day.
func (tc *TradingCalendar) IsTradingDay(d time.Time) bool {
	// Noon on the date in exchange time, so the calendar sees the intended day.
	local := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, tc.loc)
	if tc.fallback || !tc.covers(local.Year()) {
		wd := local.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.cal.IsBusinessDay(local)
}

// covers reports whether the exchange calendar has holidays for year.
func (tc *TradingCalendar) covers(year int) bool {
	return tc.cal != nil && year >= tc.startYear && year <= tc.endYear
}

// Today returns the current calendar date on the exchange.
func (tc *TradingCalendar) Today(now time.Time) time.Time {
	return dateOf(now, tc.loc)
}

// HasTradingDay reports whether [start, end) contains at least one business day.
func (tc *TradingCalendar) HasTradingDay(start, end time.Time) bool {
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if tc.IsTradingDay(d) {
			return true
		}
	}
	return false
}
