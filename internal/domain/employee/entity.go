package employee

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiftline-hq/attendance-backend-go/internal/domain/shift"
)

// Employee is the collaborator entity the attendance workflow resolves at
// check-in: it supplies the assigned shift and the active flag. Everything
// else about employees lives outside this service.
type Employee struct {
	ID        uuid.UUID
	FullName  string
	Email     string
	Shift     shift.Type
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
