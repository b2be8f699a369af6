package attendance

import (
	"context"
)

// Service defines the attendance workflow exposed to the request layer. The
// authenticated employee id comes from the request context claims.
type Service interface {
	// CheckIn opens the day's record for the authenticated employee.
	CheckIn(ctx context.Context, req CheckInRequest) (RecordResponse, error)

	// StartBreak opens an ordinary or prayer break on today's record.
	StartBreak(ctx context.Context, req StartBreakRequest) (RecordResponse, error)

	// EndBreak closes the active break with the given id.
	EndBreak(ctx context.Context, breakID string) (ClosedBreak, error)

	// CheckOut closes the day, validating the task log and computing totals.
	CheckOut(ctx context.Context, req CheckOutRequest) (CheckOutResponse, error)

	// UpdateTasks replaces the task list of an already checked-out day.
	UpdateTasks(ctx context.Context, req UpdateTasksRequest) (RecordResponse, error)

	// GetMyRecords lists the authenticated employee's records.
	GetMyRecords(ctx context.Context, filter RecordFilter) (ListRecordsResponse, error)

	// GetRecord retrieves a single record by id.
	GetRecord(ctx context.Context, id string) (RecordResponse, error)

	// ListRecords lists records across employees (admin/manager).
	ListRecords(ctx context.Context, filter RecordFilter) (ListRecordsResponse, error)

	// CreateBackdated inserts a record for a past date (admin/manager).
	CreateBackdated(ctx context.Context, req BackdatedCreateRequest) (RecordResponse, error)

	// Correct fixes timestamps on a past record and recomputes derived
	// fields (admin/manager). Today's record is rejected.
	Correct(ctx context.Context, req CorrectionRequest) (RecordResponse, error)

	// DeleteRecord removes a record older than the 7 day retention window.
	DeleteRecord(ctx context.Context, id string) error
}
