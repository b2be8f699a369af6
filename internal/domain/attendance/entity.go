package attendance

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiftline-hq/attendance-backend-go/internal/domain/shift"
)

// Activity is the record's current state. A record is always in exactly one
// activity, so two breaks can never be open at once.
type Activity string

const (
	ActivityWorking    Activity = "working"
	ActivityOnBreak    Activity = "on_break"
	ActivityOnNamaz    Activity = "on_namaz"
	ActivityCheckedOut Activity = "checked_out"
)

// Status classifies the day as a whole. It is recomputed from the record,
// never set by a client.
type Status string

const (
	StatusPresent        Status = "present"
	StatusAbsent         Status = "absent"
	StatusLate           Status = "late"
	StatusHalfDay        Status = "half_day"
	StatusEarlyDeparture Status = "early_departure"
)

// BreakKind categorizes an ordinary break.
type BreakKind string

const (
	BreakRest     BreakKind = "rest"
	BreakLunch    BreakKind = "lunch"
	BreakPersonal BreakKind = "personal"
)

func (k BreakKind) Valid() bool {
	switch k {
	case BreakRest, BreakLunch, BreakPersonal:
		return true
	}
	return false
}

// NamazType names a daily prayer. Each type may be taken at most once per day.
type NamazType string

const (
	NamazFajr    NamazType = "fajr"
	NamazDhuhr   NamazType = "dhuhr"
	NamazAsr     NamazType = "asr"
	NamazMaghrib NamazType = "maghrib"
	NamazIsha    NamazType = "isha"
)

func (n NamazType) Valid() bool {
	switch n {
	case NamazFajr, NamazDhuhr, NamazAsr, NamazMaghrib, NamazIsha:
		return true
	}
	return false
}

// TaskPriority ranks a self-reported work item.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// OvertimeStatus tracks approval of an overtime entry.
type OvertimeStatus string

const (
	OvertimePending  OvertimeStatus = "pending"
	OvertimeApproved OvertimeStatus = "approved"
	OvertimeRejected OvertimeStatus = "rejected"
)

// BreakEntry is one start/stop interval in the break ledger. Duration is
// computed when the entry ends; an open entry contributes zero to the daily
// totals until then. Entries are immutable once ended.
type BreakEntry struct {
	ID              uuid.UUID  `json:"id"`
	Kind            BreakKind  `json:"kind"`
	Reason          *string    `json:"reason,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
}

// Active reports whether the entry has not been ended yet.
func (b BreakEntry) Active() bool {
	return b.EndTime == nil
}

// NamazEntry is a prayer break interval. Same shape as BreakEntry but kept in
// its own ledger with its own daily cap.
type NamazEntry struct {
	ID              uuid.UUID  `json:"id"`
	Prayer          NamazType  `json:"prayer"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
}

func (n NamazEntry) Active() bool {
	return n.EndTime == nil
}

// TaskEntry is a self-reported work item for the day.
type TaskEntry struct {
	ID               uuid.UUID    `json:"id"`
	Description      string       `json:"description"`
	TimeSpentMinutes int          `json:"time_spent_minutes"`
	Category         string       `json:"category,omitempty"`
	Priority         TaskPriority `json:"priority"`
	Notes            *string      `json:"notes,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Overtime records net working time beyond the standard shift, pending
// approval by a manager.
type Overtime struct {
	Minutes     int            `json:"minutes"`
	Reason      *string        `json:"reason,omitempty"`
	Status      OvertimeStatus `json:"status"`
	RequestedAt time.Time      `json:"requested_at"`
}

// GeoPoint is an optional location payload, passed through unvalidated.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Record is the per-employee-per-day attendance aggregate. Date is midnight
// UTC of the working day and is unique per employee. Version backs the
// conditional update in the repository.
type Record struct {
	ID                  uuid.UUID
	EmployeeID          uuid.UUID
	Date                time.Time
	Shift               shift.Type
	CheckInTime         *time.Time
	CheckOutTime        *time.Time
	Status              Status
	Activity            Activity
	ActiveBreakID       *uuid.UUID
	IsLateCheckIn       bool
	LateCheckInReason   *string
	IsEarlyCheckOut     bool
	EarlyCheckOutReason *string
	Breaks              []BreakEntry
	NamazBreaks         []NamazEntry
	Tasks               []TaskEntry
	TotalWorkMinutes    int
	Overtime            *Overtime
	CheckOutLocation    *GeoPoint
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// DTO
	EmployeeName *string
}

// Summary is returned alongside the record at check-out.
type Summary struct {
	TotalWorkMinutes  int  `json:"total_work_minutes"`
	TotalBreakMinutes int  `json:"total_break_minutes"`
	TotalNamazMinutes int  `json:"total_namaz_minutes"`
	TotalTaskMinutes  int  `json:"total_task_minutes"`
	IsEarlyCheckOut   bool `json:"is_early_check_out"`
	OvertimeMinutes   int  `json:"overtime_minutes"`
}

// Day truncates t to midnight UTC, the canonical record date.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
