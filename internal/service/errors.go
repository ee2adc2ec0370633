package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("invalid input")

	// ErrProjectNotFound is returned when a project is not found
	ErrProjectNotFound = errors.New("project not found")

	// ErrAssignmentNotFound is returned when an assignment is not found
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidTransition is returned when an assignment or project is not in
	// the state the operation expects; the operation is a no-op
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrAlreadyResolved is returned when responding to an assignment that has
	// already been accepted or declined. Terminal assignment statuses are
	// write-once; a repeat accept reports this error instead of silently
	// succeeding.
	ErrAlreadyResolved = errors.New("assignment already resolved")

	// ErrConflict is returned when a concurrent update won the race; the
	// caller may re-read and retry
	ErrConflict = errors.New("concurrent update conflict")
)

// OverAllocationError is returned when a revenue allocation batch exceeds the
// project's total revenue. The whole batch is rejected.
type OverAllocationError struct {
	ProjectID uuid.UUID
	Revenue   float64
	Requested float64
}

func (e *OverAllocationError) Error() string {
	return fmt.Sprintf("revenue over-allocation: requested %.2f exceeds project revenue %.2f by %.2f",
		e.Requested, e.Revenue, e.Excess())
}

// Excess returns the amount by which the batch exceeds the project revenue
func (e *OverAllocationError) Excess() float64 {
	return e.Requested - e.Revenue
}
