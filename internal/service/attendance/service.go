package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/shiftline-hq/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftline-hq/attendance-backend-go/internal/domain/employee"
	"github.com/shiftline-hq/attendance-backend-go/internal/domain/shift"
	"github.com/shiftline-hq/attendance-backend-go/internal/pkg/clock"
	"github.com/shiftline-hq/attendance-backend-go/internal/pkg/validator"
)

// deleteRetentionDays guards manual deletion: records younger than this are
// still part of the active payroll window and cannot be removed.
const deleteRetentionDays = 7

type ServiceImpl struct {
	records   attendance.Repository
	employees employee.Repository
	policy    shift.Policy
	clock     clock.Clock
}

func NewService(
	records attendance.Repository,
	employees employee.Repository,
	policy shift.Policy,
	clk clock.Clock,
) attendance.Service {
	return &ServiceImpl{
		records:   records,
		employees: employees,
		policy:    policy,
		clock:     clk,
	}
}

// employeeIDFromClaims extracts the authenticated employee id from the JWT
// claims carried in the request context.
func employeeIDFromClaims(ctx context.Context) (uuid.UUID, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	raw, ok := claims["employee_id"].(string)
	if !ok || raw == "" {
		return uuid.Nil, attendance.ErrUnauthorized
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, attendance.ErrUnauthorized
	}
	return id, nil
}

func roleFromClaims(ctx context.Context) string {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}

func toResponse(r attendance.Record) attendance.RecordResponse {
	breaks := r.Breaks
	if breaks == nil {
		breaks = []attendance.BreakEntry{}
	}
	namaz := r.NamazBreaks
	if namaz == nil {
		namaz = []attendance.NamazEntry{}
	}
	tasks := r.Tasks
	if tasks == nil {
		tasks = []attendance.TaskEntry{}
	}

	lateMinutes := 0
	if r.IsLateCheckIn && r.CheckInTime != nil {
		lateMinutes = shift.LateMinutes(r.Shift, *r.CheckInTime)
	}

	return attendance.RecordResponse{
		ID:                  r.ID,
		EmployeeID:          r.EmployeeID,
		EmployeeName:        r.EmployeeName,
		Date:                r.Date.Format("2006-01-02"),
		Shift:               string(r.Shift),
		CheckInTime:         r.CheckInTime,
		CheckOutTime:        r.CheckOutTime,
		Status:              r.Status,
		Activity:            r.Activity,
		ActiveBreakID:       r.ActiveBreakID,
		IsLateCheckIn:       r.IsLateCheckIn,
		LateMinutes:         lateMinutes,
		LateCheckInReason:   r.LateCheckInReason,
		IsEarlyCheckOut:     r.IsEarlyCheckOut,
		EarlyCheckOutReason: r.EarlyCheckOutReason,
		Breaks:              breaks,
		NamazBreaks:         namaz,
		Tasks:               tasks,
		TotalWorkMinutes:    r.TotalWorkMinutes,
		TotalBreakMinutes:   r.TotalBreakMinutes(),
		TotalNamazMinutes:   r.TotalNamazMinutes(),
		Overtime:            r.Overtime,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func toListResponse(records []attendance.Record, total int64, filter attendance.RecordFilter) attendance.ListRecordsResponse {
	responses := make([]attendance.RecordResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, toResponse(r))
	}

	totalPages := 0
	if filter.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(filter.Limit)))
	}

	return attendance.ListRecordsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Records:    responses,
	}
}

// loadToday fetches the authenticated employee's record for the current
// working day. Returns nil when the employee has not checked in yet.
func (s *ServiceImpl) loadToday(ctx context.Context, now time.Time) (*attendance.Record, error) {
	employeeID, err := employeeIDFromClaims(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.records.GetByEmployeeAndDate(ctx, employeeID.String(), attendance.Day(now))
	if err != nil {
		return nil, fmt.Errorf("failed to get today's attendance record: %w", err)
	}
	return record, nil
}

// CheckIn implements attendance.Service.
func (s *ServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	employeeID, err := employeeIDFromClaims(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	emp, err := s.employees.GetByID(ctx, employeeID.String())
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	if !emp.IsActive {
		return attendance.RecordResponse{}, employee.ErrEmployeeInactive
	}

	now := s.clock.Now()
	existing, err := s.records.GetByEmployeeAndDate(ctx, employeeID.String(), attendance.Day(now))
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to get today's attendance record: %w", err)
	}
	if existing != nil {
		return attendance.RecordResponse{}, attendance.ErrAlreadyCheckedIn
	}

	record, err := attendance.CheckIn(employeeID, emp.Shift, s.policy, now, req.Reason)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	if err := s.records.Create(ctx, record); err != nil {
		// losing the insert race means someone checked in concurrently
		if errors.Is(err, attendance.ErrRecordExists) {
			return attendance.RecordResponse{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.RecordResponse{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	record.EmployeeName = &emp.FullName
	return toResponse(*record), nil
}

// StartBreak implements attendance.Service.
func (s *ServiceImpl) StartBreak(ctx context.Context, req attendance.StartBreakRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	now := s.clock.Now()
	record, err := s.loadToday(ctx, now)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	if record == nil {
		return attendance.RecordResponse{}, attendance.ErrNotCheckedIn
	}

	if req.IsNamaz() {
		_, err = record.StartNamaz(s.policy, now, attendance.NamazType(req.Type))
	} else {
		_, err = record.StartBreak(s.policy, now, attendance.BreakKind(req.Type), req.Reason)
	}
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	if err := s.records.Update(ctx, record); err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to update attendance record: %w", err)
	}
	return toResponse(*record), nil
}

// EndBreak implements attendance.Service.
func (s *ServiceImpl) EndBreak(ctx context.Context, breakID string) (attendance.ClosedBreak, error) {
	id, err := uuid.Parse(breakID)
	if err != nil {
		return attendance.ClosedBreak{}, attendance.ErrBreakNotFound
	}

	now := s.clock.Now()
	record, err := s.loadToday(ctx, now)
	if err != nil {
		return attendance.ClosedBreak{}, err
	}
	if record == nil {
		return attendance.ClosedBreak{}, attendance.ErrBreakNotFound
	}

	closed, err := record.EndBreak(now, id)
	if err != nil {
		return attendance.ClosedBreak{}, err
	}

	if err := s.records.Update(ctx, record); err != nil {
		return attendance.ClosedBreak{}, fmt.Errorf("failed to update attendance record: %w", err)
	}
	return closed, nil
}

// CheckOut implements attendance.Service.
func (s *ServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.CheckOutResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CheckOutResponse{}, err
	}

	now := s.clock.Now()
	record, err := s.loadToday(ctx, now)
	if err != nil {
		return attendance.CheckOutResponse{}, err
	}
	if record == nil {
		return attendance.CheckOutResponse{}, attendance.ErrNotCheckedIn
	}

	tasks := make([]attendance.TaskEntry, 0, len(req.Tasks))
	for i := range req.Tasks {
		tasks = append(tasks, req.Tasks[i].ToEntry(now))
	}

	summary, err := record.CheckOut(s.policy, now, tasks, req.EarlyReason, req.Location)
	if err != nil {
		return attendance.CheckOutResponse{}, err
	}

	if err := s.records.Update(ctx, record); err != nil {
		return attendance.CheckOutResponse{}, fmt.Errorf("failed to update attendance record: %w", err)
	}

	return attendance.CheckOutResponse{
		Record:  toResponse(*record),
		Summary: summary,
	}, nil
}

// UpdateTasks implements attendance.Service.
func (s *ServiceImpl) UpdateTasks(ctx context.Context, req attendance.UpdateTasksRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	employeeID, err := employeeIDFromClaims(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	now := s.clock.Now()
	date := attendance.Day(now)
	if req.Date != nil && *req.Date != "" {
		parsed, _ := validator.IsValidDate(*req.Date)
		date = attendance.Day(parsed)
	}

	record, err := s.records.GetByEmployeeAndDate(ctx, employeeID.String(), date)
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to get attendance record: %w", err)
	}
	if record == nil {
		return attendance.RecordResponse{}, attendance.ErrRecordNotFound
	}

	tasks := make([]attendance.TaskEntry, 0, len(req.Tasks))
	for i := range req.Tasks {
		tasks = append(tasks, req.Tasks[i].ToEntry(now))
	}

	if err := record.ReplaceTasks(s.policy, now, tasks); err != nil {
		return attendance.RecordResponse{}, err
	}

	if err := s.records.Update(ctx, record); err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to update attendance record: %w", err)
	}
	return toResponse(*record), nil
}

// GetMyRecords implements attendance.Service.
func (s *ServiceImpl) GetMyRecords(ctx context.Context, filter attendance.RecordFilter) (attendance.ListRecordsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	employeeID, err := employeeIDFromClaims(ctx)
	if err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	records, total, err := s.records.ListByEmployee(ctx, employeeID.String(), filter)
	if err != nil {
		return attendance.ListRecordsResponse{}, fmt.Errorf("failed to list attendance records: %w", err)
	}
	return toListResponse(records, total, filter), nil
}

// GetRecord implements attendance.Service.
func (s *ServiceImpl) GetRecord(ctx context.Context, id string) (attendance.RecordResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.RecordResponse{}, attendance.ErrRecordNotFound
	}

	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	// employees may only read their own records
	if role := roleFromClaims(ctx); role != "admin" && role != "manager" {
		employeeID, err := employeeIDFromClaims(ctx)
		if err != nil {
			return attendance.RecordResponse{}, err
		}
		if record.EmployeeID != employeeID {
			return attendance.RecordResponse{}, attendance.ErrUnauthorized
		}
	}

	return toResponse(record), nil
}

// ListRecords implements attendance.Service.
func (s *ServiceImpl) ListRecords(ctx context.Context, filter attendance.RecordFilter) (attendance.ListRecordsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	records, total, err := s.records.List(ctx, filter)
	if err != nil {
		return attendance.ListRecordsResponse{}, fmt.Errorf("failed to list attendance records: %w", err)
	}
	return toListResponse(records, total, filter), nil
}

// CreateBackdated implements attendance.Service.
func (s *ServiceImpl) CreateBackdated(ctx context.Context, req attendance.BackdatedCreateRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	now := s.clock.Now()
	parsed, _ := validator.IsValidDate(req.Date)
	date := attendance.Day(parsed)
	if !date.Before(attendance.Day(now)) {
		return attendance.RecordResponse{}, attendance.ErrCannotEditToday
	}

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return attendance.RecordResponse{}, employee.ErrEmployeeNotFound
	}
	emp, err := s.employees.GetByID(ctx, employeeID.String())
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	record := &attendance.Record{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		Date:       date,
		Shift:      shift.Type(req.Shift),
		Activity:   attendance.ActivityCheckedOut,
	}

	if req.CheckInTime != nil {
		checkIn, _ := validator.IsValidDateTime(*req.CheckInTime)
		checkIn = checkIn.UTC()
		record.CheckInTime = &checkIn
		record.IsLateCheckIn = s.policy.IsLate(record.Shift, checkIn)
		record.Activity = attendance.ActivityWorking
	}

	if req.CheckOutTime != nil {
		checkOut, _ := validator.IsValidDateTime(*req.CheckOutTime)
		checkOut = checkOut.UTC()
		if record.CheckInTime != nil && !checkOut.After(*record.CheckInTime) {
			return attendance.RecordResponse{}, validator.ValidationErrors{{
				Field:   "check_out_time",
				Message: "check_out_time must be after check_in_time",
			}}
		}
		record.CheckOutTime = &checkOut
		record.Activity = attendance.ActivityCheckedOut

		shiftEnd := shift.ScheduledEnd(record.Shift, *record.CheckInTime)
		record.IsEarlyCheckOut = s.policy.IsEarlyCheckOut(checkOut, shiftEnd)
	}

	tasks := make([]attendance.TaskEntry, 0, len(req.Tasks))
	for i := range req.Tasks {
		tasks = append(tasks, req.Tasks[i].ToEntry(now))
	}
	record.Tasks = tasks

	record.Recompute(s.policy)

	if err := s.records.Create(ctx, record); err != nil {
		return attendance.RecordResponse{}, err
	}

	record.EmployeeName = &emp.FullName
	return toResponse(*record), nil
}

// Correct implements attendance.Service.
func (s *ServiceImpl) Correct(ctx context.Context, req attendance.CorrectionRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}
	if _, err := uuid.Parse(req.ID); err != nil {
		return attendance.RecordResponse{}, attendance.ErrRecordNotFound
	}

	record, err := s.records.GetByID(ctx, req.ID)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	now := s.clock.Now()
	if record.Date.Equal(attendance.Day(now)) {
		return attendance.RecordResponse{}, attendance.ErrCannotEditToday
	}

	if req.Shift != nil {
		record.Shift = shift.Type(*req.Shift)
	}
	if req.CheckInTime != nil {
		checkIn, _ := validator.IsValidDateTime(*req.CheckInTime)
		checkIn = checkIn.UTC()
		record.CheckInTime = &checkIn
	}
	if req.CheckOutTime != nil {
		checkOut, _ := validator.IsValidDateTime(*req.CheckOutTime)
		checkOut = checkOut.UTC()
		record.CheckOutTime = &checkOut
		record.Activity = attendance.ActivityCheckedOut
	}
	if record.CheckInTime != nil && record.CheckOutTime != nil && !record.CheckOutTime.After(*record.CheckInTime) {
		return attendance.RecordResponse{}, validator.ValidationErrors{{
			Field:   "check_out_time",
			Message: "check_out_time must be after check_in_time",
		}}
	}

	if record.CheckInTime != nil {
		record.IsLateCheckIn = s.policy.IsLate(record.Shift, *record.CheckInTime)
		if !record.IsLateCheckIn {
			record.LateCheckInReason = nil
		}
	}
	if record.CheckInTime != nil && record.CheckOutTime != nil {
		shiftEnd := shift.ScheduledEnd(record.Shift, *record.CheckInTime)
		record.IsEarlyCheckOut = s.policy.IsEarlyCheckOut(*record.CheckOutTime, shiftEnd)
		if !record.IsEarlyCheckOut {
			record.EarlyCheckOutReason = nil
		}
	}

	record.Recompute(s.policy)

	if err := s.records.Update(ctx, &record); err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to update attendance record: %w", err)
	}
	return toResponse(record), nil
}

// DeleteRecord implements attendance.Service.
func (s *ServiceImpl) DeleteRecord(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.ErrRecordNotFound
	}

	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if now.Sub(record.Date) < deleteRetentionDays*24*time.Hour {
		return attendance.ErrDeleteWindowActive
	}

	return s.records.Delete(ctx, id)
}
