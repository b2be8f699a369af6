package response

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shiftline-hq/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftline-hq/attendance-backend-go/internal/domain/employee"
	"github.com/shiftline-hq/attendance-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Policy threshold errors carry the numbers the client needs to render
	// a useful message.
	var capErr *attendance.DailyCapError
	if errors.As(err, &capErr) {
		BadRequest(w, capErr.Error(), map[string]string{
			"category":     capErr.Category,
			"used_minutes": strconv.Itoa(capErr.UsedMinutes),
			"cap_minutes":  strconv.Itoa(capErr.CapMinutes),
		})
		return
	}
	var taskErr *attendance.TaskTimeError
	if errors.As(err, &taskErr) {
		BadRequest(w, taskErr.Error(), map[string]string{
			"task_minutes":    strconv.Itoa(taskErr.TaskMinutes),
			"allowed_minutes": strconv.Itoa(taskErr.AllowedMinutes),
		})
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		Conflict(w, "Already checked in today")
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		Conflict(w, "Already checked out today")
	case errors.Is(err, attendance.ErrAlreadyOnBreak):
		Conflict(w, "A break is already in progress")
	case errors.Is(err, attendance.ErrNamazAlreadyTaken):
		Conflict(w, "This prayer break was already taken today")
	case errors.Is(err, attendance.ErrRecordExists):
		Conflict(w, "An attendance record already exists for that date")
	case errors.Is(err, attendance.ErrVersionConflict):
		Conflict(w, "The record was modified concurrently, please retry")
	case errors.Is(err, attendance.ErrCannotEditToday):
		Conflict(w, "Today's record cannot be edited through this endpoint")
	case errors.Is(err, attendance.ErrDeleteWindowActive):
		Conflict(w, "The record is still within the retention window")

	case errors.Is(err, attendance.ErrNotCheckedIn):
		BadRequest(w, "Not checked in today", nil)
	case errors.Is(err, attendance.ErrNotCheckedOut):
		BadRequest(w, "Not checked out yet", nil)
	case errors.Is(err, attendance.ErrOnBreak):
		BadRequest(w, "End the active break before checking out", nil)
	case errors.Is(err, attendance.ErrLateReasonRequired):
		BadRequest(w, "A reason is required for a late check-in", nil)
	case errors.Is(err, attendance.ErrEarlyReasonRequired):
		BadRequest(w, "A reason is required for an early check-out", nil)
	case errors.Is(err, attendance.ErrNoTasksProvided):
		BadRequest(w, "At least one task is required to check out", nil)
	case errors.Is(err, attendance.ErrZeroTaskTime):
		BadRequest(w, "Total task time must be greater than zero", nil)
	case errors.Is(err, attendance.ErrInvalidShiftType):
		BadRequest(w, "Unknown shift type", nil)
	case errors.Is(err, attendance.ErrUnknownBreakKind):
		BadRequest(w, "Unknown break type", nil)

	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrBreakNotFound):
		NotFound(w, "No active break with that id")

	case errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, "You do not have access to this record")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, "Employee is not active")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
