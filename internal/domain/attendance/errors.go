package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// Check-in errors
	ErrAlreadyCheckedIn   = errors.New("you have already checked in today")
	ErrLateReasonRequired = errors.New("a reason is required for a late check-in")
	ErrNotCheckedIn       = errors.New("you have not checked in yet")
	ErrAlreadyCheckedOut  = errors.New("you have already checked out")
	ErrInvalidShiftType   = errors.New("invalid shift type")

	// Break errors
	ErrAlreadyOnBreak    = errors.New("you are already on a break")
	ErrBreakNotFound     = errors.New("no active break with that id")
	ErrNamazAlreadyTaken = errors.New("this prayer break has already been taken today")
	ErrUnknownBreakKind  = errors.New("unknown break kind")

	// Check-out errors
	ErrOnBreak             = errors.New("you must end your break before checking out")
	ErrNoTasksProvided     = errors.New("at least one task is required at check-out")
	ErrZeroTaskTime        = errors.New("total task time must be greater than zero")
	ErrEarlyReasonRequired = errors.New("a reason is required for an early check-out")

	// Task update errors
	ErrNotCheckedOut = errors.New("tasks can only be edited after check-out")

	// Administrative errors
	ErrRecordExists       = errors.New("an attendance record already exists for that date")
	ErrCannotEditToday    = errors.New("today's record cannot be edited through the administrative path")
	ErrDeleteWindowActive = errors.New("attendance records cannot be deleted within 7 days of their date")

	// General errors
	ErrRecordNotFound  = errors.New("attendance record not found")
	ErrVersionConflict = errors.New("attendance record was modified concurrently")
	ErrUnauthorized    = errors.New("unauthorized to access this attendance record")
)

// DailyCapError is returned when starting a break would exceed the daily cap
// for its category. It carries the computed values so callers can display them.
type DailyCapError struct {
	Category    string // "break" or "namaz"
	UsedMinutes int
	CapMinutes  int
}

func (e *DailyCapError) Error() string {
	return fmt.Sprintf("daily %s cap exceeded: %d of %d minutes used", e.Category, e.UsedMinutes, e.CapMinutes)
}

// TaskTimeError is returned when declared task time exceeds net working time
// beyond the configured tolerance.
type TaskTimeError struct {
	TaskMinutes    int
	AllowedMinutes int
}

func (e *TaskTimeError) Error() string {
	return fmt.Sprintf("task time %d minutes exceeds allowed %d minutes", e.TaskMinutes, e.AllowedMinutes)
}
