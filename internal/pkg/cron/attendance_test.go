package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftline-hq/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftline-hq/attendance-backend-go/internal/domain/employee"
	"github.com/shiftline-hq/attendance-backend-go/internal/domain/shift"
	"github.com/shiftline-hq/attendance-backend-go/internal/pkg/clock"
)

type memRecordRepo struct {
	records map[uuid.UUID]attendance.Record
}

func (m *memRecordRepo) Create(_ context.Context, record *attendance.Record) error {
	for _, r := range m.records {
		if r.EmployeeID == record.EmployeeID && r.Date.Equal(record.Date) {
			return attendance.ErrRecordExists
		}
	}
	m.records[record.ID] = *record
	return nil
}

func (m *memRecordRepo) GetByID(_ context.Context, id string) (attendance.Record, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	r, ok := m.records[parsed]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return r, nil
}

func (m *memRecordRepo) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	for _, r := range m.records {
		if r.EmployeeID.String() == employeeID && r.Date.Equal(date) {
			copied := r
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memRecordRepo) Update(_ context.Context, record *attendance.Record) error {
	if _, ok := m.records[record.ID]; !ok {
		return attendance.ErrRecordNotFound
	}
	record.Version++
	m.records[record.ID] = *record
	return nil
}

func (m *memRecordRepo) List(_ context.Context, _ attendance.RecordFilter) ([]attendance.Record, int64, error) {
	return nil, 0, nil
}

func (m *memRecordRepo) ListByEmployee(_ context.Context, _ string, _ attendance.RecordFilter) ([]attendance.Record, int64, error) {
	return nil, 0, nil
}

func (m *memRecordRepo) Delete(_ context.Context, _ string) error {
	return nil
}

func (m *memRecordRepo) GetStaleOpenRecords(_ context.Context, olderThan time.Time) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, r := range m.records {
		if r.CheckInTime != nil && r.CheckOutTime == nil && r.Date.Before(olderThan) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecordRepo) BulkCreateAbsences(ctx context.Context, records []attendance.Record) error {
	for i := range records {
		_ = m.Create(ctx, &records[i])
	}
	return nil
}

type memEmployeeRepo struct {
	employees []employee.Employee
}

func (m *memEmployeeRepo) GetByID(_ context.Context, _ string) (employee.Employee, error) {
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (m *memEmployeeRepo) ListActive(_ context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range m.employees {
		if e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestAutoCloseStaleRecords(t *testing.T) {
	repo := &memRecordRepo{records: make(map[uuid.UUID]attendance.Record)}

	// yesterday's morning shift, checked in, break left open, never closed
	checkIn := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	breakID := uuid.New()
	breakStart := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stale := attendance.Record{
		ID:          uuid.New(),
		EmployeeID:  uuid.New(),
		Date:        attendance.Day(checkIn),
		Shift:       shift.TypeMorning,
		CheckInTime: &checkIn,
		Activity:    attendance.ActivityOnBreak,
		Breaks: []attendance.BreakEntry{
			{ID: breakID, Kind: attendance.BreakLunch, StartTime: breakStart},
		},
		ActiveBreakID: &breakID,
	}
	repo.records[stale.ID] = stale

	// today's open record must not be touched
	todayCheckIn := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	open := attendance.Record{
		ID:          uuid.New(),
		EmployeeID:  uuid.New(),
		Date:        attendance.Day(todayCheckIn),
		Shift:       shift.TypeMorning,
		CheckInTime: &todayCheckIn,
		Activity:    attendance.ActivityWorking,
	}
	repo.records[open.ID] = open

	jobs := NewAttendanceJobs(repo, &memEmployeeRepo{}, shift.DefaultPolicy(), clock.Fixed{
		T: time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC),
	})

	require.NoError(t, jobs.AutoCloseStaleRecords(context.Background()))

	closed := repo.records[stale.ID]
	require.NotNil(t, closed.CheckOutTime)
	assert.Equal(t, time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC), *closed.CheckOutTime)
	assert.Equal(t, attendance.ActivityCheckedOut, closed.Activity)
	assert.Nil(t, closed.ActiveBreakID)
	require.Len(t, closed.Breaks, 1)
	assert.Equal(t, 240, closed.Breaks[0].DurationMinutes)
	// 480 gross minus the 240 minute break
	assert.Equal(t, 240, closed.TotalWorkMinutes)

	untouched := repo.records[open.ID]
	assert.Nil(t, untouched.CheckOutTime)
	assert.Equal(t, attendance.ActivityWorking, untouched.Activity)
}

func TestAutoCloseStaleRecords_LeavesCheckInAfterShiftEnd(t *testing.T) {
	repo := &memRecordRepo{records: make(map[uuid.UUID]attendance.Record)}

	// checked in at 17:00 against a morning shift that ended at 16:00; any
	// auto check-out would land before the check-in
	checkIn := time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC)
	rec := attendance.Record{
		ID:            uuid.New(),
		EmployeeID:    uuid.New(),
		Date:          attendance.Day(checkIn),
		Shift:         shift.TypeMorning,
		CheckInTime:   &checkIn,
		Activity:      attendance.ActivityWorking,
		IsLateCheckIn: true,
	}
	repo.records[rec.ID] = rec

	jobs := NewAttendanceJobs(repo, &memEmployeeRepo{}, shift.DefaultPolicy(), clock.Fixed{
		T: time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC),
	})

	require.NoError(t, jobs.AutoCloseStaleRecords(context.Background()))

	got := repo.records[rec.ID]
	assert.Nil(t, got.CheckOutTime)
	assert.Equal(t, attendance.ActivityWorking, got.Activity)
}

func TestAutoCloseStaleRecords_ClampsToOpenBreakStart(t *testing.T) {
	repo := &memRecordRepo{records: make(map[uuid.UUID]attendance.Record)}

	// break opened after the shift's scheduled end and never closed; the
	// close instant must move up to the break start, not go negative
	checkIn := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	breakID := uuid.New()
	breakStart := time.Date(2025, 6, 1, 16, 30, 0, 0, time.UTC)
	rec := attendance.Record{
		ID:          uuid.New(),
		EmployeeID:  uuid.New(),
		Date:        attendance.Day(checkIn),
		Shift:       shift.TypeMorning,
		CheckInTime: &checkIn,
		Activity:    attendance.ActivityOnBreak,
		Breaks: []attendance.BreakEntry{
			{ID: breakID, Kind: attendance.BreakRest, StartTime: breakStart},
		},
		ActiveBreakID: &breakID,
	}
	repo.records[rec.ID] = rec

	jobs := NewAttendanceJobs(repo, &memEmployeeRepo{}, shift.DefaultPolicy(), clock.Fixed{
		T: time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC),
	})

	require.NoError(t, jobs.AutoCloseStaleRecords(context.Background()))

	closed := repo.records[rec.ID]
	require.NotNil(t, closed.CheckOutTime)
	assert.Equal(t, breakStart, *closed.CheckOutTime)
	assert.True(t, closed.CheckOutTime.After(*closed.CheckInTime))
	require.Len(t, closed.Breaks, 1)
	assert.Equal(t, 0, closed.Breaks[0].DurationMinutes)
	// worked 08:00 to 16:30 with no completed breaks
	assert.Equal(t, 510, closed.TotalWorkMinutes)
	require.NotNil(t, closed.Overtime)
	assert.Equal(t, 30, closed.Overtime.Minutes)
	assert.Equal(t, attendance.OvertimePending, closed.Overtime.Status)
}

func TestMarkAbsentEmployees(t *testing.T) {
	repo := &memRecordRepo{records: make(map[uuid.UUID]attendance.Record)}

	present := uuid.New()
	missing := uuid.New()
	inactive := uuid.New()
	employees := &memEmployeeRepo{employees: []employee.Employee{
		{ID: present, Shift: shift.TypeMorning, IsActive: true},
		{ID: missing, Shift: shift.TypeEvening, IsActive: true},
		{ID: inactive, Shift: shift.TypeMorning, IsActive: false},
	}}

	// the present employee already has yesterday's record
	yesterday := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	checkIn := yesterday.Add(8 * time.Hour)
	checkOut := yesterday.Add(16 * time.Hour)
	existing := attendance.Record{
		ID:           uuid.New(),
		EmployeeID:   present,
		Date:         yesterday,
		Shift:        shift.TypeMorning,
		CheckInTime:  &checkIn,
		CheckOutTime: &checkOut,
		Status:       attendance.StatusPresent,
		Activity:     attendance.ActivityCheckedOut,
	}
	repo.records[existing.ID] = existing

	jobs := NewAttendanceJobs(repo, employees, shift.DefaultPolicy(), clock.Fixed{
		T: time.Date(2025, 6, 2, 0, 15, 0, 0, time.UTC),
	})

	require.NoError(t, jobs.MarkAbsentEmployees(context.Background()))

	assert.Len(t, repo.records, 2)
	assert.Equal(t, attendance.StatusPresent, repo.records[existing.ID].Status)

	got, err := repo.GetByEmployeeAndDate(context.Background(), missing.String(), yesterday)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, attendance.StatusAbsent, got.Status)
	assert.Equal(t, shift.TypeEvening, got.Shift)
	assert.Nil(t, got.CheckInTime)
}

func TestMarkAbsentEmployees_SkipsOutsideMidnightWindow(t *testing.T) {
	repo := &memRecordRepo{records: make(map[uuid.UUID]attendance.Record)}
	employees := &memEmployeeRepo{employees: []employee.Employee{
		{ID: uuid.New(), Shift: shift.TypeMorning, IsActive: true},
	}}

	jobs := NewAttendanceJobs(repo, employees, shift.DefaultPolicy(), clock.Fixed{
		T: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
	})

	require.NoError(t, jobs.MarkAbsentEmployees(context.Background()))
	assert.Empty(t, repo.records)
}
