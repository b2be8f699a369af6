package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftline-hq/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftline-hq/attendance-backend-go/internal/domain/employee"
	"github.com/shiftline-hq/attendance-backend-go/internal/domain/shift"
	"github.com/shiftline-hq/attendance-backend-go/internal/pkg/clock"
)

type fakeRecordRepo struct {
	records   map[uuid.UUID]attendance.Record
	updateErr error
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[uuid.UUID]attendance.Record)}
}

func (f *fakeRecordRepo) Create(_ context.Context, record *attendance.Record) error {
	for _, r := range f.records {
		if r.EmployeeID == record.EmployeeID && r.Date.Equal(record.Date) {
			return attendance.ErrRecordExists
		}
	}
	f.records[record.ID] = *record
	return nil
}

func (f *fakeRecordRepo) GetByID(_ context.Context, id string) (attendance.Record, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	r, ok := f.records[parsed]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return r, nil
}

func (f *fakeRecordRepo) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	for _, r := range f.records {
		if r.EmployeeID.String() == employeeID && r.Date.Equal(date) {
			copied := r
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRecordRepo) Update(_ context.Context, record *attendance.Record) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.records[record.ID]
	if !ok {
		return attendance.ErrRecordNotFound
	}
	if stored.Version != record.Version {
		return attendance.ErrVersionConflict
	}
	record.Version++
	f.records[record.ID] = *record
	return nil
}

func (f *fakeRecordRepo) List(_ context.Context, _ attendance.RecordFilter) ([]attendance.Record, int64, error) {
	out := make([]attendance.Record, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRecordRepo) ListByEmployee(_ context.Context, employeeID string, _ attendance.RecordFilter) ([]attendance.Record, int64, error) {
	var out []attendance.Record
	for _, r := range f.records {
		if r.EmployeeID.String() == employeeID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRecordRepo) Delete(_ context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return attendance.ErrRecordNotFound
	}
	if _, ok := f.records[parsed]; !ok {
		return attendance.ErrRecordNotFound
	}
	delete(f.records, parsed)
	return nil
}

func (f *fakeRecordRepo) GetStaleOpenRecords(_ context.Context, olderThan time.Time) ([]attendance.Record, error) {
	var out []attendance.Record
	for _, r := range f.records {
		if r.CheckInTime != nil && r.CheckOutTime == nil && r.Date.Before(olderThan) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) BulkCreateAbsences(ctx context.Context, records []attendance.Record) error {
	for i := range records {
		if err := f.Create(ctx, &records[i]); err != nil && !errors.Is(err, attendance.ErrRecordExists) {
			return err
		}
	}
	return nil
}

type fakeEmployeeRepo struct {
	employees map[uuid.UUID]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	e, ok := f.employees[parsed]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeEmployeeRepo) ListActive(_ context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.employees {
		if e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

type fixture struct {
	svc        attendance.Service
	records    *fakeRecordRepo
	employeeID uuid.UUID
	clock      *clock.Fixed
}

func contextWithClaims(t *testing.T, employeeID uuid.UUID, role string) context.Context {
	t.Helper()
	auth := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := auth.Encode(map[string]interface{}{
		"employee_id": employeeID.String(),
		"role":        role,
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func newFixture(t *testing.T, st shift.Type, now time.Time) *fixture {
	t.Helper()

	employeeID := uuid.New()
	employees := &fakeEmployeeRepo{employees: map[uuid.UUID]employee.Employee{
		employeeID: {
			ID:       employeeID,
			FullName: "Aisyah Rahmawati",
			Email:    "aisyah@example.com",
			Shift:    st,
			IsActive: true,
		},
	}}

	records := newFakeRecordRepo()
	clk := &clock.Fixed{T: now}

	return &fixture{
		svc:        NewService(records, employees, shift.DefaultPolicy(), clk),
		records:    records,
		employeeID: employeeID,
		clock:      clk,
	}
}

func ts(hour, minute int) time.Time {
	return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
}

func TestCheckIn_OnTime(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 5))
	ctx := contextWithClaims(t, f.employeeID, "employee")

	resp, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusPresent, resp.Status)
	assert.Equal(t, attendance.ActivityWorking, resp.Activity)
	assert.False(t, resp.IsLateCheckIn)
	assert.Equal(t, "2025-06-02", resp.Date)
	require.NotNil(t, resp.EmployeeName)
	assert.Equal(t, "Aisyah Rahmawati", *resp.EmployeeName)
}

func TestCheckIn_Twice(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 0))
	ctx := contextWithClaims(t, f.employeeID, "employee")

	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
}

func TestCheckIn_LateWithoutReason(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 30))
	ctx := contextWithClaims(t, f.employeeID, "employee")

	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrLateReasonRequired)
}

func TestCheckIn_LateWithReason(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 30))
	ctx := contextWithClaims(t, f.employeeID, "employee")

	reason := "train delay"
	resp, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{Reason: &reason})
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusLate, resp.Status)
	assert.True(t, resp.IsLateCheckIn)
	assert.Equal(t, 30, resp.LateMinutes)
	require.NotNil(t, resp.LateCheckInReason)
	assert.Equal(t, "train delay", *resp.LateCheckInReason)
}

func TestCheckIn_InactiveEmployee(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 0))

	inactiveID := uuid.New()
	f.records = newFakeRecordRepo()
	employees := &fakeEmployeeRepo{employees: map[uuid.UUID]employee.Employee{
		inactiveID: {ID: inactiveID, FullName: "Budi Santoso", Shift: shift.TypeMorning, IsActive: false},
	}}
	svc := NewService(f.records, employees, shift.DefaultPolicy(), f.clock)

	_, err := svc.CheckIn(contextWithClaims(t, inactiveID, "employee"), attendance.CheckInRequest{})
	assert.ErrorIs(t, err, employee.ErrEmployeeInactive)
}

func TestCheckIn_UnknownEmployee(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 0))

	_, err := f.svc.CheckIn(contextWithClaims(t, uuid.New(), "employee"), attendance.CheckInRequest{})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestStartBreak_NotCheckedIn(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(12, 0))
	ctx := contextWithClaims(t, f.employeeID, "employee")

	_, err := f.svc.StartBreak(ctx, attendance.StartBreakRequest{Type: "lunch"})
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)
}

func TestStartBreak_RoutesPrayerTypes(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 0))
	ctx := contextWithClaims(t, f.employeeID, "employee")

	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	f.clock.T = ts(12, 15)
	resp, err := f.svc.StartBreak(ctx, attendance.StartBreakRequest{Type: "dhuhr"})
	require.NoError(t, err)

	assert.Equal(t, attendance.ActivityOnNamaz, resp.Activity)
	require.Len(t, resp.NamazBreaks, 1)
	assert.Equal(t, attendance.NamazDhuhr, resp.NamazBreaks[0].Prayer)
	assert.Empty(t, resp.Breaks)
}

func TestFullDay_Workflow(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 0))
	ctx := contextWithClaims(t, f.employeeID, "employee")

	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	f.clock.T = ts(12, 0)
	breakResp, err := f.svc.StartBreak(ctx, attendance.StartBreakRequest{Type: "lunch"})
	require.NoError(t, err)
	require.NotNil(t, breakResp.ActiveBreakID)

	f.clock.T = ts(12, 30)
	closed, err := f.svc.EndBreak(ctx, breakResp.ActiveBreakID.String())
	require.NoError(t, err)
	assert.Equal(t, 30, closed.DurationMinutes)
	assert.Equal(t, "lunch", closed.Label)

	f.clock.T = ts(16, 0)
	out, err := f.svc.CheckOut(ctx, attendance.CheckOutRequest{
		Tasks: []attendance.TaskInput{
			{Description: "Quarterly report", TimeSpentMinutes: 300},
			{Description: "Standup and reviews", TimeSpentMinutes: 150},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 450, out.Summary.TotalWorkMinutes)
	assert.Equal(t, 30, out.Summary.TotalBreakMinutes)
	assert.Equal(t, 450, out.Summary.TotalTaskMinutes)
	assert.False(t, out.Summary.IsEarlyCheckOut)
	assert.Equal(t, attendance.StatusPresent, out.Record.Status)
	assert.Equal(t, attendance.ActivityCheckedOut, out.Record.Activity)
}

func TestEndBreak_UnknownID(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 0))
	ctx := contextWithClaims(t, f.employeeID, "employee")

	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	_, err = f.svc.EndBreak(ctx, uuid.New().String())
	assert.ErrorIs(t, err, attendance.ErrBreakNotFound)
}

func TestCheckOut_VersionConflictPropagates(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 0))
	ctx := contextWithClaims(t, f.employeeID, "employee")

	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	f.records.updateErr = attendance.ErrVersionConflict
	f.clock.T = ts(16, 0)
	_, err = f.svc.CheckOut(ctx, attendance.CheckOutRequest{
		Tasks: []attendance.TaskInput{{Description: "Report", TimeSpentMinutes: 400}},
	})
	assert.ErrorIs(t, err, attendance.ErrVersionConflict)
}

func TestUpdateTasks_AfterCheckOut(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 0))
	ctx := contextWithClaims(t, f.employeeID, "employee")

	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	f.clock.T = ts(16, 0)
	_, err = f.svc.CheckOut(ctx, attendance.CheckOutRequest{
		Tasks: []attendance.TaskInput{{Description: "Draft", TimeSpentMinutes: 400}},
	})
	require.NoError(t, err)

	resp, err := f.svc.UpdateTasks(ctx, attendance.UpdateTasksRequest{
		Tasks: []attendance.TaskInput{
			{Description: "Draft", TimeSpentMinutes: 300},
			{Description: "Review", TimeSpentMinutes: 180},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Tasks, 2)
	assert.Equal(t, "Review", resp.Tasks[1].Description)
}

func TestUpdateTasks_BeforeCheckOut(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 0))
	ctx := contextWithClaims(t, f.employeeID, "employee")

	_, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	_, err = f.svc.UpdateTasks(ctx, attendance.UpdateTasksRequest{
		Tasks: []attendance.TaskInput{{Description: "Draft", TimeSpentMinutes: 60}},
	})
	assert.ErrorIs(t, err, attendance.ErrNotCheckedOut)
}

func TestGetRecord_OwnershipEnforced(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 0))
	ctx := contextWithClaims(t, f.employeeID, "employee")

	resp, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	otherCtx := contextWithClaims(t, uuid.New(), "employee")
	_, err = f.svc.GetRecord(otherCtx, resp.ID.String())
	assert.ErrorIs(t, err, attendance.ErrUnauthorized)

	adminCtx := contextWithClaims(t, uuid.New(), "admin")
	got, err := f.svc.GetRecord(adminCtx, resp.ID.String())
	require.NoError(t, err)
	assert.Equal(t, resp.ID, got.ID)
}

func TestCreateBackdated_TodayRejected(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(10, 0))
	ctx := contextWithClaims(t, uuid.New(), "admin")

	_, err := f.svc.CreateBackdated(ctx, attendance.BackdatedCreateRequest{
		EmployeeID: f.employeeID.String(),
		Date:       "2025-06-02",
		Shift:      "morning",
	})
	assert.ErrorIs(t, err, attendance.ErrCannotEditToday)
}

func TestCreateBackdated_FullDay(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(10, 0))
	ctx := contextWithClaims(t, uuid.New(), "admin")

	checkIn := "2025-05-30T08:00:00Z"
	checkOut := "2025-05-30T16:00:00Z"
	resp, err := f.svc.CreateBackdated(ctx, attendance.BackdatedCreateRequest{
		EmployeeID:   f.employeeID.String(),
		Date:         "2025-05-30",
		Shift:        "morning",
		CheckInTime:  &checkIn,
		CheckOutTime: &checkOut,
		Tasks:        []attendance.TaskInput{{Description: "Migration", TimeSpentMinutes: 450}},
	})
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusPresent, resp.Status)
	assert.Equal(t, 480, resp.TotalWorkMinutes)
	assert.Equal(t, "2025-05-30", resp.Date)
}

func TestCreateBackdated_AbsentDay(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(10, 0))
	ctx := contextWithClaims(t, uuid.New(), "admin")

	resp, err := f.svc.CreateBackdated(ctx, attendance.BackdatedCreateRequest{
		EmployeeID: f.employeeID.String(),
		Date:       "2025-05-30",
		Shift:      "morning",
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, resp.Status)
	assert.Nil(t, resp.CheckInTime)
}

func TestCorrect_TodayRejected(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(8, 0))
	ctx := contextWithClaims(t, f.employeeID, "employee")

	resp, err := f.svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	adminCtx := contextWithClaims(t, uuid.New(), "admin")
	_, err = f.svc.Correct(adminCtx, attendance.CorrectionRequest{ID: resp.ID.String()})
	assert.ErrorIs(t, err, attendance.ErrCannotEditToday)
}

func TestCorrect_RecomputesDerivedFields(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(10, 0))
	adminCtx := contextWithClaims(t, uuid.New(), "admin")

	checkIn := "2025-05-30T08:00:00Z"
	checkOut := "2025-05-30T11:30:00Z"
	created, err := f.svc.CreateBackdated(adminCtx, attendance.BackdatedCreateRequest{
		EmployeeID:   f.employeeID.String(),
		Date:         "2025-05-30",
		Shift:        "morning",
		CheckInTime:  &checkIn,
		CheckOutTime: &checkOut,
		Tasks:        []attendance.TaskInput{{Description: "Support shift", TimeSpentMinutes: 200}},
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusHalfDay, created.Status)

	fixedOut := "2025-05-30T16:00:00Z"
	corrected, err := f.svc.Correct(adminCtx, attendance.CorrectionRequest{
		ID:           created.ID.String(),
		CheckOutTime: &fixedOut,
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, corrected.Status)
	assert.Equal(t, 480, corrected.TotalWorkMinutes)
}

func TestDeleteRecord_RetentionWindow(t *testing.T) {
	f := newFixture(t, shift.TypeMorning, ts(10, 0))
	adminCtx := contextWithClaims(t, uuid.New(), "admin")

	resp, err := f.svc.CreateBackdated(adminCtx, attendance.BackdatedCreateRequest{
		EmployeeID: f.employeeID.String(),
		Date:       "2025-05-30",
		Shift:      "morning",
	})
	require.NoError(t, err)

	err = f.svc.DeleteRecord(adminCtx, resp.ID.String())
	assert.ErrorIs(t, err, attendance.ErrDeleteWindowActive)

	f.clock.T = ts(10, 0).AddDate(0, 0, 10)
	err = f.svc.DeleteRecord(adminCtx, resp.ID.String())
	require.NoError(t, err)

	_, err = f.svc.GetRecord(adminCtx, resp.ID.String())
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}
