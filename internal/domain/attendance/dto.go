package attendance

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiftline-hq/attendance-backend-go/internal/domain/shift"
	"github.com/shiftline-hq/attendance-backend-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type CheckInRequest struct {
	Reason *string `json:"reason,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Reason != nil && len(*r.Reason) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// StartBreakRequest opens a break. Type is either an ordinary break kind
// (rest, lunch, personal) or a prayer name (fajr, dhuhr, asr, maghrib, isha).
type StartBreakRequest struct {
	Type   string  `json:"type"`
	Reason *string `json:"reason,omitempty"`
}

func (r *StartBreakRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Type) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type is required",
		})
	} else if !BreakKind(r.Type).Valid() && !NamazType(r.Type).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of rest, lunch, personal, fajr, dhuhr, asr, maghrib, isha",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// IsNamaz reports whether the request opens a prayer break.
func (r *StartBreakRequest) IsNamaz() bool {
	return NamazType(r.Type).Valid()
}

type TaskInput struct {
	Description      string  `json:"description"`
	TimeSpentMinutes int     `json:"time_spent_minutes"`
	Category         string  `json:"category,omitempty"`
	Priority         string  `json:"priority,omitempty"`
	Notes            *string `json:"notes,omitempty"`
}

func (t *TaskInput) validate(field string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if validator.IsEmpty(t.Description) {
		errs = append(errs, validator.ValidationError{
			Field:   field + ".description",
			Message: "description is required",
		})
	}
	if t.TimeSpentMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   field + ".time_spent_minutes",
			Message: "time spent must not be negative",
		})
	}
	if t.Priority != "" && !TaskPriority(t.Priority).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   field + ".priority",
			Message: "priority must be one of low, medium, high",
		})
	}
	return errs
}

// ToEntry converts the input to a TaskEntry with a fresh id.
func (t *TaskInput) ToEntry(now time.Time) TaskEntry {
	priority := PriorityMedium
	if t.Priority != "" {
		priority = TaskPriority(t.Priority)
	}
	return TaskEntry{
		ID:               uuid.New(),
		Description:      t.Description,
		TimeSpentMinutes: t.TimeSpentMinutes,
		Category:         t.Category,
		Priority:         priority,
		Notes:            t.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

type CheckOutRequest struct {
	Tasks       []TaskInput `json:"tasks"`
	Location    *GeoPoint   `json:"location,omitempty"`
	EarlyReason *string     `json:"early_reason,omitempty"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	for i := range r.Tasks {
		errs = append(errs, r.Tasks[i].validate("tasks["+validator.Itoa(i)+"]")...)
	}

	if r.Location != nil {
		if r.Location.Latitude < -90 || r.Location.Latitude > 90 {
			errs = append(errs, validator.ValidationError{
				Field:   "location.latitude",
				Message: "latitude must be between -90 and 90",
			})
		}
		if r.Location.Longitude < -180 || r.Location.Longitude > 180 {
			errs = append(errs, validator.ValidationError{
				Field:   "location.longitude",
				Message: "longitude must be between -180 and 180",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateTasksRequest struct {
	Date  *string     `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	Tasks []TaskInput `json:"tasks"`
}

func (r *UpdateTasksRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Date != nil && *r.Date != "" {
		if _, ok := validator.IsValidDate(*r.Date); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}
	if len(r.Tasks) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "tasks",
			Message: "tasks must not be empty",
		})
	}
	for i := range r.Tasks {
		errs = append(errs, r.Tasks[i].validate("tasks["+validator.Itoa(i)+"]")...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// BackdatedCreateRequest inserts a record for a past date directly, bypassing
// the live state machine. Administrative path only.
type BackdatedCreateRequest struct {
	EmployeeID   string      `json:"employee_id"`
	Date         string      `json:"date"` // YYYY-MM-DD
	Shift        string      `json:"shift"`
	CheckInTime  *string     `json:"check_in_time,omitempty"`  // RFC3339
	CheckOutTime *string     `json:"check_out_time,omitempty"` // RFC3339
	Tasks        []TaskInput `json:"tasks,omitempty"`
}

func (r *BackdatedCreateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	} else if _, err := uuid.Parse(r.EmployeeID); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if !shift.Type(r.Shift).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "shift",
			Message: "shift must be one of morning, evening, night, random",
		})
	}

	if r.CheckInTime != nil {
		if _, ok := validator.IsValidDateTime(*r.CheckInTime); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "check_in_time",
				Message: "check_in_time must be an RFC3339 timestamp",
			})
		}
	}
	if r.CheckOutTime != nil {
		if _, ok := validator.IsValidDateTime(*r.CheckOutTime); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "check_out_time",
				Message: "check_out_time must be an RFC3339 timestamp",
			})
		}
	}
	if r.CheckOutTime != nil && r.CheckInTime == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "check_out_time",
			Message: "check_out_time requires check_in_time",
		})
	}
	for i := range r.Tasks {
		errs = append(errs, r.Tasks[i].validate("tasks["+validator.Itoa(i)+"]")...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CorrectionRequest fixes an existing record. Administrative path only;
// derived totals and status are recomputed, never set directly.
type CorrectionRequest struct {
	ID           string  `json:"-"`
	CheckInTime  *string `json:"check_in_time,omitempty"`  // RFC3339
	CheckOutTime *string `json:"check_out_time,omitempty"` // RFC3339
	Shift        *string `json:"shift,omitempty"`
}

func (r *CorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.CheckInTime != nil {
		if _, ok := validator.IsValidDateTime(*r.CheckInTime); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "check_in_time",
				Message: "check_in_time must be an RFC3339 timestamp",
			})
		}
	}
	if r.CheckOutTime != nil {
		if _, ok := validator.IsValidDateTime(*r.CheckOutTime); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "check_out_time",
				Message: "check_out_time must be an RFC3339 timestamp",
			})
		}
	}
	if r.Shift != nil && !shift.Type(*r.Shift).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "shift",
			Message: "shift must be one of morning, evening, night, random",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RecordResponse struct {
	ID                  uuid.UUID    `json:"id"`
	EmployeeID          uuid.UUID    `json:"employee_id"`
	EmployeeName        *string      `json:"employee_name,omitempty"`
	Date                string       `json:"date"`
	Shift               string       `json:"shift"`
	CheckInTime         *time.Time   `json:"check_in_time,omitempty"`
	CheckOutTime        *time.Time   `json:"check_out_time,omitempty"`
	Status              Status       `json:"status"`
	Activity            Activity     `json:"activity"`
	ActiveBreakID       *uuid.UUID   `json:"active_break_id,omitempty"`
	IsLateCheckIn       bool         `json:"is_late_check_in"`
	LateMinutes         int          `json:"late_minutes,omitempty"`
	LateCheckInReason   *string      `json:"late_check_in_reason,omitempty"`
	IsEarlyCheckOut     bool         `json:"is_early_check_out"`
	EarlyCheckOutReason *string      `json:"early_check_out_reason,omitempty"`
	Breaks              []BreakEntry `json:"breaks"`
	NamazBreaks         []NamazEntry `json:"namaz_breaks"`
	Tasks               []TaskEntry  `json:"tasks"`
	TotalWorkMinutes    int          `json:"total_work_minutes"`
	TotalBreakMinutes   int          `json:"total_break_minutes"`
	TotalNamazMinutes   int          `json:"total_namaz_minutes"`
	Overtime            *Overtime    `json:"overtime,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// CheckOutResponse pairs the closed record with its day summary.
type CheckOutResponse struct {
	Record  RecordResponse `json:"record"`
	Summary Summary        `json:"summary"`
}

type RecordFilter struct {
	// Search & Filter
	EmployeeID *string `json:"employee_id,omitempty"`
	Date       *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, check_in_time, check_out_time, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *RecordFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}

	for _, d := range []struct {
		name  string
		value *string
	}{
		{"date", f.Date},
		{"start_date", f.StartDate},
		{"end_date", f.EndDate},
	} {
		if d.value != nil && *d.value != "" {
			if _, ok := validator.IsValidDate(*d.value); !ok {
				errs = append(errs, validator.ValidationError{
					Field:   d.name,
					Message: d.name + " must be in YYYY-MM-DD format",
				})
			}
		}
	}

	if f.EmployeeID != nil && *f.EmployeeID != "" {
		if _, err := uuid.Parse(*f.EmployeeID); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "employee_id",
				Message: "employee_id must be a valid UUID",
			})
		}
	}

	if f.Status != nil && *f.Status != "" && !validator.IsInSlice(*f.Status, []string{
		string(StatusPresent), string(StatusAbsent), string(StatusLate),
		string(StatusHalfDay), string(StatusEarlyDeparture),
	}) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of present, absent, late, half_day, early_departure",
		})
	}

	if f.SortBy != "" && !validator.IsInSlice(f.SortBy, []string{"date", "check_in_time", "check_out_time", "status"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "sort_by",
			Message: "sort_by must be one of date, check_in_time, check_out_time, status",
		})
	}
	if f.SortOrder != "" && !validator.IsInSlice(f.SortOrder, []string{"asc", "desc"}) {
		errs = append(errs, validator.ValidationError{
			Field:   "sort_order",
			Message: "sort_order must be asc or desc",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListRecordsResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Records    []RecordResponse `json:"records"`
}
