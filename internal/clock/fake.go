package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests
type Fake struct {
	mu  sync.Mutex
	now time.Time
	loc *time.Location
}

func NewFake(now time.Time, loc *time.Location) *Fake {
	return &Fake{now: now.In(loc), loc: loc}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.In(f.loc)
}

func (f *Fake) DateOf(t time.Time) string {
	return t.In(f.loc).Format(DayFormat)
}

func (f *Fake) Today() string {
	return f.DateOf(f.Now())
}

func (f *Fake) Location() *time.Location {
	return f.loc
}
