package employee

import "context"

// Repository defines data access for employees.
type Repository interface {
	// GetByID retrieves an employee, ErrEmployeeNotFound when absent.
	GetByID(ctx context.Context, id string) (Employee, error)

	// ListActive retrieves all active employees.
	ListActive(ctx context.Context) ([]Employee, error)
}
