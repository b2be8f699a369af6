package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shiftline-hq/attendance-backend-go/internal/domain/attendance"
	"github.com/shiftline-hq/attendance-backend-go/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

const recordColumns = `
	a.id, a.employee_id, a.date, a.shift,
	a.check_in, a.check_out, a.status, a.activity, a.active_break_id,
	a.is_late_check_in, a.late_check_in_reason,
	a.is_early_check_out, a.early_check_out_reason,
	a.breaks, a.namaz_breaks, a.tasks,
	a.total_work_minutes, a.overtime, a.check_out_location,
	a.version, a.created_at, a.updated_at`

func scanRecord(row pgx.Row, withEmployee bool) (attendance.Record, error) {
	var rec attendance.Record
	dest := []interface{}{
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.Shift,
		&rec.CheckInTime, &rec.CheckOutTime, &rec.Status, &rec.Activity, &rec.ActiveBreakID,
		&rec.IsLateCheckIn, &rec.LateCheckInReason,
		&rec.IsEarlyCheckOut, &rec.EarlyCheckOutReason,
		&rec.Breaks, &rec.NamazBreaks, &rec.Tasks,
		&rec.TotalWorkMinutes, &rec.Overtime, &rec.CheckOutLocation,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	}
	if withEmployee {
		dest = append(dest, &rec.EmployeeName)
	}
	if err := row.Scan(dest...); err != nil {
		return attendance.Record{}, err
	}
	return rec, nil
}

// Create implements attendance.Repository.
func (a *attendanceRepository) Create(ctx context.Context, rec *attendance.Record) error {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			id, employee_id, date, shift,
			check_in, check_out, status, activity, active_break_id,
			is_late_check_in, late_check_in_reason,
			is_early_check_out, early_check_out_reason,
			breaks, namaz_breaks, tasks,
			total_work_minutes, overtime, check_out_location, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.ID,
		rec.EmployeeID,
		rec.Date,
		rec.Shift,
		rec.CheckInTime,
		rec.CheckOutTime,
		rec.Status,
		rec.Activity,
		rec.ActiveBreakID,
		rec.IsLateCheckIn,
		rec.LateCheckInReason,
		rec.IsEarlyCheckOut,
		rec.EarlyCheckOutReason,
		emptyIfNilBreaks(rec.Breaks),
		emptyIfNilNamaz(rec.NamazBreaks),
		emptyIfNilTasks(rec.Tasks),
		rec.TotalWorkMinutes,
		rec.Overtime,
		rec.CheckOutLocation,
		rec.Version,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return attendance.ErrRecordExists
		}
		return fmt.Errorf("failed to create attendance record: %w", err)
	}

	return nil
}

// GetByID implements attendance.Repository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `, e.full_name AS employee_name
		FROM attendance_records a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.id = $1
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record by ID: %w", err)
	}

	return rec, nil
}

// GetByEmployeeAndDate implements attendance.Repository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records a
		WHERE a.employee_id = $1
		  AND a.date = $2
		LIMIT 1
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, date), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No record for that day
		}
		return nil, fmt.Errorf("failed to get attendance record by employee and date: %w", err)
	}

	return &rec, nil
}

// Update implements attendance.Repository. The write is conditional on the
// version the record was loaded with; a concurrent writer wins the race and
// this call reports the conflict instead of silently overwriting.
func (a *attendanceRepository) Update(ctx context.Context, rec *attendance.Record) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records SET
			shift = $1,
			check_in = $2,
			check_out = $3,
			status = $4,
			activity = $5,
			active_break_id = $6,
			is_late_check_in = $7,
			late_check_in_reason = $8,
			is_early_check_out = $9,
			early_check_out_reason = $10,
			breaks = $11,
			namaz_breaks = $12,
			tasks = $13,
			total_work_minutes = $14,
			overtime = $15,
			check_out_location = $16,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $17 AND version = $18
		RETURNING version, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.Shift,
		rec.CheckInTime,
		rec.CheckOutTime,
		rec.Status,
		rec.Activity,
		rec.ActiveBreakID,
		rec.IsLateCheckIn,
		rec.LateCheckInReason,
		rec.IsEarlyCheckOut,
		rec.EarlyCheckOutReason,
		emptyIfNilBreaks(rec.Breaks),
		emptyIfNilNamaz(rec.NamazBreaks),
		emptyIfNilTasks(rec.Tasks),
		rec.TotalWorkMinutes,
		rec.Overtime,
		rec.CheckOutLocation,
		rec.ID,
		rec.Version,
	).Scan(&rec.Version, &rec.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the row is gone or someone else updated it first.
			var exists bool
			if exErr := q.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM attendance_records WHERE id = $1)`, rec.ID,
			).Scan(&exists); exErr == nil && exists {
				return attendance.ErrVersionConflict
			}
			return attendance.ErrRecordNotFound
		}
		return fmt.Errorf("failed to update attendance record: %w", err)
	}

	return nil
}

func buildFilterWhere(baseWhere string, args []interface{}, filter attendance.RecordFilter) (string, []interface{}) {
	argIdx := len(args) + 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND a.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND a.date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND a.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND a.status = $%d", argIdx)
		args = append(args, *filter.Status)
	}

	return baseWhere, args
}

func orderClause(filter attendance.RecordFilter) string {
	orderByField := "a.date"
	switch filter.SortBy {
	case "check_in_time":
		orderByField = "a.check_in"
	case "check_out_time":
		orderByField = "a.check_out"
	case "status":
		orderByField = "a.status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}
	return orderByField + " " + sortOrder
}

func (a *attendanceRepository) list(ctx context.Context, baseWhere string, args []interface{}, filter attendance.RecordFilter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, a.db)

	baseWhere, args = buildFilterWhere(baseWhere, args, filter)

	countQuery := "SELECT COUNT(*) FROM attendance_records a WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit

	argIdx := len(args) + 1
	selectQuery := fmt.Sprintf(`
		SELECT `+recordColumns+`, e.full_name AS employee_name
		FROM attendance_records a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, baseWhere, orderClause(filter), argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows, true)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}

	return records, total, nil
}

// List implements attendance.Repository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, int64, error) {
	return a.list(ctx, "TRUE", nil, filter)
}

// ListByEmployee implements attendance.Repository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, filter attendance.RecordFilter) ([]attendance.Record, int64, error) {
	filter.EmployeeID = nil // the scoped employee id wins over the filter
	return a.list(ctx, "a.employee_id = $1", []interface{}{employeeID}, filter)
}

// Delete implements attendance.Repository.
func (a *attendanceRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, a.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attendance record: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return attendance.ErrRecordNotFound
	}

	return nil
}

// GetStaleOpenRecords implements attendance.Repository.
func (a *attendanceRepository) GetStaleOpenRecords(ctx context.Context, olderThan time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records a
		WHERE a.check_in IS NOT NULL
		  AND a.check_out IS NULL
		  AND a.check_in < $1
		ORDER BY a.check_in
	`

	rows, err := q.Query(ctx, query, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale open records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stale open record: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// BulkCreateAbsences implements attendance.Repository. The batch runs in one
// transaction so a partial nightly run never leaves half the workforce marked.
func (a *attendanceRepository) BulkCreateAbsences(ctx context.Context, records []attendance.Record) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO attendance_records (
			id, employee_id, date, shift, status, activity,
			breaks, namaz_breaks, tasks, total_work_minutes, version
		) VALUES ($1, $2, $3, $4, $5, $6, '[]', '[]', '[]', 0, 0)
		ON CONFLICT (employee_id, date) DO NOTHING
	`

	return WithTransaction(ctx, a.db, func(tx pgx.Tx) error {
		q := GetQuerier(ContextWithTx(ctx, tx), a.db)
		for _, rec := range records {
			if _, err := q.Exec(ctx, query,
				rec.ID, rec.EmployeeID, rec.Date, rec.Shift, rec.Status, rec.Activity,
			); err != nil {
				return fmt.Errorf("failed to insert absence record: %w", err)
			}
		}
		return nil
	})
}

// jsonb columns are NOT NULL; nil slices must round-trip as empty arrays.
func emptyIfNilBreaks(v []attendance.BreakEntry) []attendance.BreakEntry {
	if v == nil {
		return []attendance.BreakEntry{}
	}
	return v
}

func emptyIfNilNamaz(v []attendance.NamazEntry) []attendance.NamazEntry {
	if v == nil {
		return []attendance.NamazEntry{}
	}
	return v
}

func emptyIfNilTasks(v []attendance.TaskEntry) []attendance.TaskEntry {
	if v == nil {
		return []attendance.TaskEntry{}
	}
	return v
}
