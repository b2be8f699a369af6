package shift

import (
	"time"
)

// Type is a named daily work window.
type Type string

const (
	TypeMorning Type = "morning" // 08:00 - 16:00
	TypeEvening Type = "evening" // 16:00 - 24:00
	TypeNight   Type = "night"   // 00:00 - 08:00
	TypeRandom  Type = "random"  // starts at check-in, 8 hour window
)

func (t Type) Valid() bool {
	switch t {
	case TypeMorning, TypeEvening, TypeNight, TypeRandom:
		return true
	}
	return false
}

// Policy holds the per-organization attendance thresholds. The values come
// from configuration so tenants can vary them without code changes.
type Policy struct {
	BreakCapMinutes      int
	NamazCapMinutes      int
	StandardShiftMinutes int
	GraceMinutes         int
	TaskToleranceMinutes int
}

// DefaultPolicy returns the stock thresholds: 120 minute break cap, 90 minute
// namaz cap, 8 hour standard shift, 15 minute grace, 60 minute task tolerance.
func DefaultPolicy() Policy {
	return Policy{
		BreakCapMinutes:      120,
		NamazCapMinutes:      90,
		StandardShiftMinutes: 480,
		GraceMinutes:         15,
		TaskToleranceMinutes: 60,
	}
}

// ScheduledStart returns the canonical shift start for the calendar day of
// checkIn. A random shift has no fixed window and starts at the check-in
// instant itself.
func ScheduledStart(t Type, checkIn time.Time) time.Time {
	y, m, d := checkIn.Date()
	loc := checkIn.Location()
	switch t {
	case TypeMorning:
		return time.Date(y, m, d, 8, 0, 0, 0, loc)
	case TypeEvening:
		return time.Date(y, m, d, 16, 0, 0, 0, loc)
	case TypeNight:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	default:
		return checkIn
	}
}

// ScheduledEnd returns the canonical shift end for the calendar day of
// checkIn: morning ends 16:00, evening at midnight closing the day, night at
// 08:00, random eight hours after check-in.
func ScheduledEnd(t Type, checkIn time.Time) time.Time {
	y, m, d := checkIn.Date()
	loc := checkIn.Location()
	switch t {
	case TypeMorning:
		return time.Date(y, m, d, 16, 0, 0, 0, loc)
	case TypeEvening:
		return time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	case TypeNight:
		return time.Date(y, m, d, 8, 0, 0, 0, loc)
	default:
		return checkIn.Add(8 * time.Hour)
	}
}

// IsLate reports whether a check-in at actual exceeds the scheduled start
// plus the grace period.
func (p Policy) IsLate(t Type, actual time.Time) bool {
	if t == TypeRandom {
		return false
	}
	grace := time.Duration(p.GraceMinutes) * time.Minute
	return actual.After(ScheduledStart(t, actual).Add(grace))
}

// IsEarlyCheckOut reports whether actual falls before shiftEnd minus the
// grace period.
func (p Policy) IsEarlyCheckOut(actual, shiftEnd time.Time) bool {
	grace := time.Duration(p.GraceMinutes) * time.Minute
	return actual.Before(shiftEnd.Add(-grace))
}

// LateMinutes returns how many whole minutes actual is past the scheduled
// start, zero when on time.
func LateMinutes(t Type, actual time.Time) int {
	diff := actual.Sub(ScheduledStart(t, actual)).Minutes()
	if diff <= 0 {
		return 0
	}
	return int(diff)
}
