package attendance

import (
	"context"
	"time"
)

// Repository defines data access for attendance records. Update is a
// conditional write: it only applies when the stored version matches
// record.Version, and returns ErrVersionConflict otherwise. This makes the
// load-validate-mutate-persist cycle of each workflow call atomic.
type Repository interface {
	// Create inserts a new record. The (employee_id, date) pair is unique;
	// a duplicate insert returns ErrRecordExists.
	Create(ctx context.Context, record *Record) error

	// GetByID retrieves a record by id, ErrRecordNotFound when absent.
	GetByID(ctx context.Context, id string) (Record, error)

	// GetByEmployeeAndDate retrieves the record for one employee on one
	// working day. Returns nil without error when no record exists.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Record, error)

	// Update persists a mutated record guarded by its version.
	Update(ctx context.Context, record *Record) error

	// List retrieves records with filters and pagination.
	List(ctx context.Context, filter RecordFilter) ([]Record, int64, error)

	// ListByEmployee retrieves one employee's records with filters.
	ListByEmployee(ctx context.Context, employeeID string, filter RecordFilter) ([]Record, int64, error)

	// Delete removes a record, ErrRecordNotFound when absent.
	Delete(ctx context.Context, id string) error

	// GetStaleOpenRecords returns records still open (no check-out) whose
	// working day started at least cutoff hours ago.
	GetStaleOpenRecords(ctx context.Context, olderThan time.Time) ([]Record, error)

	// BulkCreateAbsences inserts absent records, skipping days that already
	// have one.
	BulkCreateAbsences(ctx context.Context, records []Record) error
}
