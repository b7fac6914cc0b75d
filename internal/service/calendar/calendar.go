package calendar

import (
	"fmt"
	"time"

	"SentiPull/pkg/util"
)

// Calendar maps UTC timestamps to trading days for one market. A post
// published after the close belongs to the next session; weekends and
// holidays roll forward to the next open session.
type Calendar struct {
	loc       *time.Location
	closeHour int
	holidays  map[string]struct{}
}

// New builds a calendar for the given IANA timezone, close hour in
// market-local time, and holiday set keyed by YYYY-MM-DD.
func New(timezone string, closeHour int, holidays map[string]struct{}) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load market timezone %q: %w", timezone, err)
	}
	if closeHour < 0 || closeHour > 23 {
		return nil, fmt.Errorf("close hour %d out of range", closeHour)
	}
	if holidays == nil {
		holidays = map[string]struct{}{}
	}
	return &Calendar{loc: loc, closeHour: closeHour, holidays: holidays}, nil
}

// AssignTradingDay converts ts to market-local time, pushes anything at
// or after the close onto the next day, then rolls forward past
// weekends and holidays. The result is a UTC-midnight date.
func (c *Calendar) AssignTradingDay(ts time.Time) time.Time {
	local := ts.In(c.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	if local.Hour() >= c.closeHour {
		day = day.AddDate(0, 0, 1)
	}
	for !c.IsTradingDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// IsTradingDay reports whether date (a UTC-midnight date) is an open
// session: a weekday that is not a configured holiday.
func (c *Calendar) IsTradingDay(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[util.DateKey(date)]
	return !holiday
}
