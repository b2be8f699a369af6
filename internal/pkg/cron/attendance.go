package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shiftline-hq/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftline-hq/attendance-backend-go/internal/domain/employee"
	"github.com/shiftline-hq/attendance-backend-go/internal/domain/shift"
	"github.com/shiftline-hq/attendance-backend-go/internal/pkg/clock"
)

type AttendanceJobs struct {
	records   attendance.Repository
	employees employee.Repository
	policy    shift.Policy
	clock     clock.Clock
}

func NewAttendanceJobs(
	records attendance.Repository,
	employees employee.Repository,
	policy shift.Policy,
	clk clock.Clock,
) *AttendanceJobs {
	return &AttendanceJobs{
		records:   records,
		employees: employees,
		policy:    policy,
		clock:     clk,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_close_stale_records", 1*time.Hour, j.AutoCloseStaleRecords)
	scheduler.AddJob("mark_absent_employees", 1*time.Hour, j.MarkAbsentEmployees)
}

// AutoCloseStaleRecords closes records from previous working days that never
// received a check-out. The check-out is stamped at the shift's scheduled end,
// pushed forward past any open break's start so the ledger never holds a
// negative duration. Records checked in after their shift end are left for
// an administrative correction: no close instant would keep check-out
// strictly after check-in.
func (j *AttendanceJobs) AutoCloseStaleRecords(ctx context.Context) error {
	now := j.clock.Now()

	stale, err := j.records.GetStaleOpenRecords(ctx, attendance.Day(now))
	if err != nil {
		return fmt.Errorf("failed to get stale open records: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	slog.Info("Cron: Auto-closing stale attendance records", "count", len(stale))

	closedCount := 0
	for i := range stale {
		record := &stale[i]
		closeAt := shift.ScheduledEnd(record.Shift, *record.CheckInTime)

		// give the employee 2 hours past shift end before closing on their behalf
		if now.Before(closeAt.Add(2 * time.Hour)) {
			continue
		}

		if !closeAt.After(*record.CheckInTime) {
			slog.Warn("Cron: Leaving open record checked in after shift end for manual correction",
				"record_id", record.ID,
				"employee_id", record.EmployeeID,
				"check_in", record.CheckInTime)
			continue
		}

		if start, ok := record.ActiveBreakStart(); ok && start.After(closeAt) {
			closeAt = start
		}
		if record.ActiveBreakID != nil {
			if _, err := record.EndBreak(closeAt, *record.ActiveBreakID); err != nil && !errors.Is(err, attendance.ErrBreakNotFound) {
				slog.Error("Cron: Failed to end open break",
					"record_id", record.ID,
					"employee_id", record.EmployeeID,
					"error", err)
				continue
			}
		}

		record.CheckOutTime = &closeAt
		record.Activity = attendance.ActivityCheckedOut
		record.Recompute(j.policy)

		if err := j.records.Update(ctx, record); err != nil {
			slog.Error("Cron: Failed to auto-close attendance record",
				"record_id", record.ID,
				"employee_id", record.EmployeeID,
				"error", err)
			continue
		}
		closedCount++
	}

	slog.Info("Cron: Auto-closed stale attendance records", "count", closedCount)
	return nil
}

// MarkAbsentEmployees inserts absent records for every active employee who
// never checked in on the previous working day. Days that already have a
// record are left alone.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	now := j.clock.Now()

	// Only run at midnight (00:00-00:59 UTC)
	if now.Hour() != 0 {
		return nil
	}

	slog.Info("Cron: Starting mark absent employees job")

	actives, err := j.employees.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active employees: %w", err)
	}

	yesterday := attendance.Day(now).AddDate(0, 0, -1)
	absences := make([]attendance.Record, 0, len(actives))
	for _, emp := range actives {
		absences = append(absences, attendance.Record{
			ID:         uuid.New(),
			EmployeeID: emp.ID,
			Date:       yesterday,
			Shift:      emp.Shift,
			Status:     attendance.StatusAbsent,
			Activity:   attendance.ActivityCheckedOut,
		})
	}

	if err := j.records.BulkCreateAbsences(ctx, absences); err != nil {
		return fmt.Errorf("failed to bulk create absences: %w", err)
	}

	slog.Info("Cron: Marked absent employees", "date", yesterday.Format("2006-01-02"), "count", len(absences))
	return nil
}
