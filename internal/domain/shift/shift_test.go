package shift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
}

func TestScheduledEnd(t *testing.T) {
	t.Parallel()

	checkIn := date(8, 5)

	assert.Equal(t, date(16, 0), ScheduledEnd(TypeMorning, checkIn))
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), ScheduledEnd(TypeEvening, checkIn))
	assert.Equal(t, date(8, 0), ScheduledEnd(TypeNight, checkIn))
	assert.Equal(t, checkIn.Add(8*time.Hour), ScheduledEnd(TypeRandom, checkIn))
}

func TestScheduledStart(t *testing.T) {
	t.Parallel()

	checkIn := date(16, 20)

	assert.Equal(t, date(8, 0), ScheduledStart(TypeMorning, checkIn))
	assert.Equal(t, date(16, 0), ScheduledStart(TypeEvening, checkIn))
	assert.Equal(t, date(0, 0), ScheduledStart(TypeNight, checkIn))
	assert.Equal(t, checkIn, ScheduledStart(TypeRandom, checkIn))
}

func TestPolicy_IsLate(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()

	// 08:10 is within the 15 minute grace, 08:20 is not.
	assert.False(t, p.IsLate(TypeMorning, date(8, 10)))
	assert.False(t, p.IsLate(TypeMorning, date(8, 15)))
	assert.True(t, p.IsLate(TypeMorning, date(8, 20)))

	// A random shift starts at check-in, so it is never late.
	assert.False(t, p.IsLate(TypeRandom, date(13, 45)))
}

func TestPolicy_IsEarlyCheckOut(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	end := date(16, 0)

	assert.True(t, p.IsEarlyCheckOut(date(15, 30), end))
	assert.False(t, p.IsEarlyCheckOut(date(15, 45), end))
	assert.False(t, p.IsEarlyCheckOut(date(16, 10), end))
}

func TestLateMinutes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, LateMinutes(TypeMorning, date(7, 55)))
	assert.Equal(t, 20, LateMinutes(TypeMorning, date(8, 20)))
}

func TestType_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, TypeMorning.Valid())
	assert.True(t, TypeRandom.Valid())
	assert.False(t, Type("weekend").Valid())
}
