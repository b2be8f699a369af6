package attendance

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/shiftline-hq/attendance-backend-go/internal/domain/shift"
)

// ClosedBreak is the result of ending a break of either category.
type ClosedBreak struct {
	ID              uuid.UUID `json:"id"`
	Label           string    `json:"label"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

func roundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}

// CheckIn creates the day's record for an employee. Lateness is classified
// against the shift's scheduled start plus the grace period; a late check-in
// always requires a reason.
func CheckIn(employeeID uuid.UUID, st shift.Type, p shift.Policy, now time.Time, reason *string) (*Record, error) {
	if !st.Valid() {
		return nil, ErrInvalidShiftType
	}

	isLate := p.IsLate(st, now)
	if isLate && (reason == nil || *reason == "") {
		return nil, ErrLateReasonRequired
	}
	if !isLate {
		reason = nil
	}

	checkIn := now
	r := &Record{
		ID:                uuid.New(),
		EmployeeID:        employeeID,
		Date:              Day(now),
		Shift:             st,
		CheckInTime:       &checkIn,
		Activity:          ActivityWorking,
		IsLateCheckIn:     isLate,
		LateCheckInReason: reason,
	}
	r.recomputeStatus(p)
	return r, nil
}

// TotalBreakMinutes sums the durations of all ordinary break entries. Open
// entries have duration zero until ended.
func (r *Record) TotalBreakMinutes() int {
	total := 0
	for _, b := range r.Breaks {
		total += b.DurationMinutes
	}
	return total
}

// TotalNamazMinutes sums the durations of all prayer break entries.
func (r *Record) TotalNamazMinutes() int {
	total := 0
	for _, n := range r.NamazBreaks {
		total += n.DurationMinutes
	}
	return total
}

// TotalTaskMinutes sums the declared time over a task list.
func TotalTaskMinutes(tasks []TaskEntry) int {
	total := 0
	for _, t := range tasks {
		total += t.TimeSpentMinutes
	}
	return total
}

// ActiveBreakStart returns the start time of the currently open break of
// either category, if there is one.
func (r *Record) ActiveBreakStart() (time.Time, bool) {
	if r.ActiveBreakID == nil {
		return time.Time{}, false
	}
	for _, b := range r.Breaks {
		if b.ID == *r.ActiveBreakID && b.Active() {
			return b.StartTime, true
		}
	}
	for _, n := range r.NamazBreaks {
		if n.ID == *r.ActiveBreakID && n.Active() {
			return n.StartTime, true
		}
	}
	return time.Time{}, false
}

func (r *Record) guardStartBreak() error {
	if r.CheckInTime == nil {
		return ErrNotCheckedIn
	}
	if r.CheckOutTime != nil || r.Activity == ActivityCheckedOut {
		return ErrAlreadyCheckedOut
	}
	if r.Activity == ActivityOnBreak || r.Activity == ActivityOnNamaz {
		return ErrAlreadyOnBreak
	}
	return nil
}

// StartBreak opens an ordinary break. Fails when the employee is not working,
// already on a break of either category, or the daily break cap is used up.
func (r *Record) StartBreak(p shift.Policy, now time.Time, kind BreakKind, reason *string) (*BreakEntry, error) {
	if !kind.Valid() {
		return nil, ErrUnknownBreakKind
	}
	if err := r.guardStartBreak(); err != nil {
		return nil, err
	}
	if used := r.TotalBreakMinutes(); used >= p.BreakCapMinutes {
		return nil, &DailyCapError{Category: "break", UsedMinutes: used, CapMinutes: p.BreakCapMinutes}
	}

	entry := BreakEntry{
		ID:        uuid.New(),
		Kind:      kind,
		Reason:    reason,
		StartTime: now,
	}
	r.Breaks = append(r.Breaks, entry)
	r.Activity = ActivityOnBreak
	r.ActiveBreakID = &entry.ID
	return &r.Breaks[len(r.Breaks)-1], nil
}

// StartNamaz opens a prayer break. In addition to the ordinary break guards,
// each prayer type may be taken at most once per day.
func (r *Record) StartNamaz(p shift.Policy, now time.Time, prayer NamazType) (*NamazEntry, error) {
	if !prayer.Valid() {
		return nil, ErrUnknownBreakKind
	}
	if err := r.guardStartBreak(); err != nil {
		return nil, err
	}
	for _, n := range r.NamazBreaks {
		if n.Prayer == prayer && !n.Active() {
			return nil, ErrNamazAlreadyTaken
		}
	}
	if used := r.TotalNamazMinutes(); used >= p.NamazCapMinutes {
		return nil, &DailyCapError{Category: "namaz", UsedMinutes: used, CapMinutes: p.NamazCapMinutes}
	}

	entry := NamazEntry{
		ID:        uuid.New(),
		Prayer:    prayer,
		StartTime: now,
	}
	r.NamazBreaks = append(r.NamazBreaks, entry)
	r.Activity = ActivityOnNamaz
	r.ActiveBreakID = &entry.ID
	return &r.NamazBreaks[len(r.NamazBreaks)-1], nil
}

// EndBreak closes the active break matching id, computing its duration and
// returning the employee to working state. Ending an already-ended or unknown
// break fails with ErrBreakNotFound.
func (r *Record) EndBreak(now time.Time, id uuid.UUID) (ClosedBreak, error) {
	if r.ActiveBreakID == nil || *r.ActiveBreakID != id {
		return ClosedBreak{}, ErrBreakNotFound
	}

	var closed ClosedBreak
	switch r.Activity {
	case ActivityOnBreak:
		for i := range r.Breaks {
			if r.Breaks[i].ID == id {
				end := now
				r.Breaks[i].EndTime = &end
				r.Breaks[i].DurationMinutes = roundMinutes(now.Sub(r.Breaks[i].StartTime))
				closed = ClosedBreak{
					ID:              id,
					Label:           string(r.Breaks[i].Kind),
					StartTime:       r.Breaks[i].StartTime,
					EndTime:         end,
					DurationMinutes: r.Breaks[i].DurationMinutes,
				}
			}
		}
	case ActivityOnNamaz:
		for i := range r.NamazBreaks {
			if r.NamazBreaks[i].ID == id {
				end := now
				r.NamazBreaks[i].EndTime = &end
				r.NamazBreaks[i].DurationMinutes = roundMinutes(now.Sub(r.NamazBreaks[i].StartTime))
				closed = ClosedBreak{
					ID:              id,
					Label:           string(r.NamazBreaks[i].Prayer),
					StartTime:       r.NamazBreaks[i].StartTime,
					EndTime:         end,
					DurationMinutes: r.NamazBreaks[i].DurationMinutes,
				}
			}
		}
	default:
		return ClosedBreak{}, ErrBreakNotFound
	}

	r.Activity = ActivityWorking
	r.ActiveBreakID = nil
	return closed, nil
}

// CheckOut closes the day. All validations run before any mutation: the
// operation either fully succeeds or leaves the record untouched.
func (r *Record) CheckOut(p shift.Policy, now time.Time, tasks []TaskEntry, earlyReason *string, loc *GeoPoint) (Summary, error) {
	if r.CheckInTime == nil {
		return Summary{}, ErrNotCheckedIn
	}
	if r.CheckOutTime != nil || r.Activity == ActivityCheckedOut {
		return Summary{}, ErrAlreadyCheckedOut
	}
	if r.Activity == ActivityOnBreak || r.Activity == ActivityOnNamaz {
		return Summary{}, ErrOnBreak
	}
	if len(tasks) == 0 {
		return Summary{}, ErrNoTasksProvided
	}
	taskMinutes := TotalTaskMinutes(tasks)
	if taskMinutes <= 0 {
		return Summary{}, ErrZeroTaskTime
	}

	shiftEnd := shift.ScheduledEnd(r.Shift, *r.CheckInTime)
	isEarly := p.IsEarlyCheckOut(now, shiftEnd)
	if isEarly && (earlyReason == nil || *earlyReason == "") {
		return Summary{}, ErrEarlyReasonRequired
	}
	if !isEarly {
		earlyReason = nil
	}

	gross := roundMinutes(now.Sub(*r.CheckInTime))
	net := gross - r.TotalBreakMinutes() - r.TotalNamazMinutes()
	if net < 0 {
		net = 0
	}
	if allowed := net + p.TaskToleranceMinutes; taskMinutes > allowed {
		return Summary{}, &TaskTimeError{TaskMinutes: taskMinutes, AllowedMinutes: allowed}
	}

	checkOut := now
	r.CheckOutTime = &checkOut
	r.Activity = ActivityCheckedOut
	r.IsEarlyCheckOut = isEarly
	r.EarlyCheckOutReason = earlyReason
	r.Tasks = tasks
	r.TotalWorkMinutes = net
	r.CheckOutLocation = loc

	if net > p.StandardShiftMinutes {
		r.Overtime = &Overtime{
			Minutes:     net - p.StandardShiftMinutes,
			Status:      OvertimePending,
			RequestedAt: now,
		}
	}
	r.recomputeStatus(p)

	summary := Summary{
		TotalWorkMinutes:  net,
		TotalBreakMinutes: r.TotalBreakMinutes(),
		TotalNamazMinutes: r.TotalNamazMinutes(),
		TotalTaskMinutes:  taskMinutes,
		IsEarlyCheckOut:   isEarly,
	}
	if r.Overtime != nil {
		summary.OvertimeMinutes = r.Overtime.Minutes
	}
	return summary, nil
}

// ReplaceTasks swaps the whole task list after check-out, re-applying the
// task-time tolerance rule against the stored working minutes.
func (r *Record) ReplaceTasks(p shift.Policy, now time.Time, tasks []TaskEntry) error {
	if r.CheckOutTime == nil {
		return ErrNotCheckedOut
	}
	taskMinutes := TotalTaskMinutes(tasks)
	if allowed := r.TotalWorkMinutes + p.TaskToleranceMinutes; taskMinutes > allowed {
		return &TaskTimeError{TaskMinutes: taskMinutes, AllowedMinutes: allowed}
	}
	for i := range tasks {
		tasks[i].UpdatedAt = now
	}
	r.Tasks = tasks
	return nil
}

// Recompute rebuilds the derived totals and status from the lifecycle
// timestamps and ledgers. Used by the administrative correction path.
func (r *Record) Recompute(p shift.Policy) {
	if r.CheckInTime != nil && r.CheckOutTime != nil {
		gross := roundMinutes(r.CheckOutTime.Sub(*r.CheckInTime))
		net := gross - r.TotalBreakMinutes() - r.TotalNamazMinutes()
		if net < 0 {
			net = 0
		}
		r.TotalWorkMinutes = net

		if net > p.StandardShiftMinutes {
			if r.Overtime == nil {
				r.Overtime = &Overtime{Status: OvertimePending, RequestedAt: *r.CheckOutTime}
			}
			r.Overtime.Minutes = net - p.StandardShiftMinutes
		} else {
			r.Overtime = nil
		}
	}
	r.recomputeStatus(p)
}

// recomputeStatus derives the day's status. Half-day wins over early
// departure, which wins over late.
func (r *Record) recomputeStatus(p shift.Policy) {
	switch {
	case r.CheckInTime == nil:
		r.Status = StatusAbsent
	case r.CheckOutTime != nil && r.TotalWorkMinutes < p.StandardShiftMinutes/2:
		r.Status = StatusHalfDay
	case r.IsEarlyCheckOut:
		r.Status = StatusEarlyDeparture
	case r.IsLateCheckIn:
		r.Status = StatusLate
	default:
		r.Status = StatusPresent
	}
}
