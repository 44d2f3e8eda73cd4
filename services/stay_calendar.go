package services

import (
	"strings"
	"time"
)

// StayPolicy fixes the hotel's zone and the standard check-in / check-out hours.
type StayPolicy struct {
	Location     *time.Location
	CheckInHour  int
	CheckOutHour int
}

// StayCalendar turns calendar dates into stay instants. Every persisted
// check-in sits at CheckInHour and every check-out at CheckOutHour, both in
// the policy's zone.
type StayCalendar struct {
	policy StayPolicy
	clock  Clock
}

func NewStayCalendar(policy StayPolicy, clock Clock) *StayCalendar {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &StayCalendar{policy: policy, clock: clock}
}

func (c *StayCalendar) Location() *time.Location { return c.policy.Location }

func (c *StayCalendar) Now() time.Time { return c.clock.Now().In(c.policy.Location) }

// ParseDate reads YYYY-MM-DD, or an RFC 3339 instant whose calendar date is
// taken in the hotel's zone, and returns midnight of that date.
func (c *StayCalendar) ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, newValidationError("Fecha requerida")
	}
	if d, err := time.ParseInLocation("2006-01-02", raw, c.policy.Location); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, newValidationError("Fecha inválida: %s", raw)
	}
	return c.StartOfDay(t), nil
}

func (c *StayCalendar) CheckIn(raw string) (time.Time, error) {
	d, err := c.ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	return c.atHour(d, c.policy.CheckInHour), nil
}

func (c *StayCalendar) CheckOut(raw string) (time.Time, error) {
	d, err := c.ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	return c.atHour(d, c.policy.CheckOutHour), nil
}

// RollIfPast pushes a stay that has already ended forward by one calendar
// day. It is applied once; the result is not re-checked.
func (c *StayCalendar) RollIfPast(start, end time.Time) (time.Time, time.Time) {
	if end.After(c.clock.Now()) {
		return start, end
	}
	return c.addDays(start, 1), c.addDays(end, 1)
}

// NightsBetween counts calendar days between the start-of-day of both
// instants in the hotel's zone, never below zero.
func (c *StayCalendar) NightsBetween(start, end time.Time) int {
	a, b := c.civilDate(start), c.civilDate(end)
	n := int(b.Sub(a).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}

func (c *StayCalendar) StartOfDay(t time.Time) time.Time {
	t = t.In(c.policy.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.policy.Location)
}

// DayBounds returns the start of t's day and the start of the next one.
func (c *StayCalendar) DayBounds(t time.Time) (time.Time, time.Time) {
	start := c.StartOfDay(t)
	return start, c.addDays(start, 1)
}

func (c *StayCalendar) atHour(t time.Time, hour int) time.Time {
	t = t.In(c.policy.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, c.policy.Location)
}

// addDays moves by calendar days keeping the wall-clock time.
func (c *StayCalendar) addDays(t time.Time, days int) time.Time {
	return t.In(c.policy.Location).AddDate(0, 0, days)
}

// civilDate maps the zoned calendar date onto UTC midnight so differences
// are exact multiples of 24h regardless of DST.
func (c *StayCalendar) civilDate(t time.Time) time.Time {
	t = t.In(c.policy.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
