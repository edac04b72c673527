package clock

import "time"

// DayFormat is the local calendar date used as the aggregation key
const DayFormat = "2006-01-02"

// Clock supplies wall-clock time and the timezone-local day
// computation. The tracker and the jobs take it as an interface so
// tests can pin time.
type Clock interface {
	Now() time.Time
	// DateOf returns t's calendar date in the configured location,
	// formatted as YYYY-MM-DD.
	DateOf(t time.Time) string
	Today() string
	Location() *time.Location
}

type realClock struct {
	loc *time.Location
}

// New returns a Clock anchored to the named timezone
func New(tz string) (Clock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return &realClock{loc: loc}, nil
}

func (c *realClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *realClock) DateOf(t time.Time) string {
	return t.In(c.loc).Format(DayFormat)
}

func (c *realClock) Today() string {
	return c.DateOf(time.Now())
}

func (c *realClock) Location() *time.Location {
	return c.loc
}

// NextMidnight returns the first local midnight strictly after now,
// used by the nightly report timer.
func NextMidnight(c Clock, now time.Time) time.Time {
	local := now.In(c.Location())
	next := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Location())
	return next.AddDate(0, 0, 1)
}
