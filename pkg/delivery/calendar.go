// Package delivery computes which dates a wreath can be delivered on.
package delivery

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DateLayout is the wire format of delivery dates.
const DateLayout = "2006-01-02"

// Calendar decides delivery availability in the shop's local time.
type Calendar struct {
	Location   *time.Location
	CutoffHour int
	LeadDays   int
}

// NewCalendar returns a calendar for Europe/Prague with one day of lead time.
func NewCalendar(cutoffHour int) (*Calendar, error) {
	loc, err := time.LoadLocation("Europe/Prague")
	if err != nil {
		return nil, fmt.Errorf("load delivery time zone: %w", err)
	}
	return &Calendar{Location: loc, CutoffHour: cutoffHour, LeadDays: 1}, nil
}

// Earliest is the first date an order placed at now could be delivered,
// before skipping Sundays and holidays.
func (c *Calendar) Earliest(now time.Time) time.Time {
	local := now.In(c.location())
	day := dateOf(local)
	lead := c.LeadDays
	if lead < 1 {
		lead = 1
	}
	if local.Hour() >= c.CutoffHour {
		lead++
	}
	return day.AddDate(0, 0, lead)
}

// AvailableDates lists the next n deliverable dates.
func (c *Calendar) AvailableDates(now time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	for day := c.Earliest(now); len(dates) < n; day = day.AddDate(0, 0, 1) {
		if Deliverable(day) {
			dates = append(dates, day)
		}
	}
	return dates
}

// IsAvailable reports whether date can be chosen for an order placed at now.
func (c *Calendar) IsAvailable(now, date time.Time) bool {
	day := dateOf(date.In(c.location()))
	if day.Before(c.Earliest(now)) {
		return false
	}
	return Deliverable(day)
}

// Parse reads a YYYY-MM-DD date in the calendar's zone.
func (c *Calendar) Parse(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, c.location())
}

func (c *Calendar) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Deliverable reports whether florists deliver on day: not on Sundays and
// not on Czech public holidays.
func Deliverable(day time.Time) bool {
	return day.Weekday() != time.Sunday && !IsHoliday(day)
}

type monthDay struct {
	month time.Month
	day   int
}

var fixedHolidays = map[monthDay]bool{
	{time.January, 1}:    true,
	{time.May, 1}:        true,
	{time.May, 8}:        true,
	{time.July, 5}:       true,
	{time.July, 6}:       true,
	{time.September, 28}: true,
	{time.October, 28}:   true,
	{time.November, 17}:  true,
	{time.December, 24}:  true,
	{time.December, 25}:  true,
	{time.December, 26}:  true,
}

// IsHoliday reports whether day is a Czech public holiday.
func IsHoliday(day time.Time) bool {
	if fixedHolidays[monthDay{day.Month(), day.Day()}] {
		return true
	}
	easter := EasterSunday(day.Year(), day.Location())
	d := dateOf(day)
	return d.Equal(easter.AddDate(0, 0, -2)) || d.Equal(easter.AddDate(0, 0, 1))
}

// EasterSunday returns the Gregorian Easter date of year.
func EasterSunday(year int, loc *time.Location) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
