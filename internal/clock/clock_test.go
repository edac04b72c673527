package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testZone = time.FixedZone("TST", int(3.5*3600))

func TestDateOf(t *testing.T) {
	fake := NewFake(time.Date(2025, 6, 10, 15, 0, 0, 0, testZone), testZone)

	t.Run("formats the local date", func(t *testing.T) {
		assert.Equal(t, "2025-06-10", fake.DateOf(fake.Now()))
		assert.Equal(t, "2025-06-10", fake.Today())
	})

	t.Run("converts foreign zones before taking the date", func(t *testing.T) {
		// 2025-06-10 22:00 UTC is already 2025-06-11 01:30 local.
		utc := time.Date(2025, 6, 10, 22, 0, 0, 0, time.UTC)
		assert.Equal(t, "2025-06-11", fake.DateOf(utc))
	})
}

func TestNextMidnight(t *testing.T) {
	fake := NewFake(time.Date(2025, 6, 10, 15, 0, 0, 0, testZone), testZone)

	t.Run("afternoon rolls to tomorrow", func(t *testing.T) {
		next := NextMidnight(fake, fake.Now())
		assert.Equal(t, time.Date(2025, 6, 11, 0, 0, 0, 0, testZone), next)
	})

	t.Run("exactly midnight rolls a full day forward", func(t *testing.T) {
		midnight := time.Date(2025, 6, 11, 0, 0, 0, 0, testZone)
		next := NextMidnight(fake, midnight)
		assert.Equal(t, time.Date(2025, 6, 12, 0, 0, 0, 0, testZone), next)
	})

	t.Run("one second before midnight stays on the coming midnight", func(t *testing.T) {
		almost := time.Date(2025, 6, 10, 23, 59, 59, 0, testZone)
		next := NextMidnight(fake, almost)
		assert.Equal(t, time.Date(2025, 6, 11, 0, 0, 0, 0, testZone), next)
	})
}

func TestFake(t *testing.T) {
	fake := NewFake(time.Date(2025, 6, 10, 15, 0, 0, 0, testZone), testZone)

	fake.Advance(90 * time.Second)
	assert.Equal(t, time.Date(2025, 6, 10, 15, 1, 30, 0, testZone), fake.Now())

	fake.Set(time.Date(2025, 6, 12, 8, 0, 0, 0, testZone))
	assert.Equal(t, "2025-06-12", fake.Today())
}

func TestNew(t *testing.T) {
	c, err := New("UTC")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, c.Location())

	_, err = New("Mars/Olympus")
	assert.Error(t, err)
}
