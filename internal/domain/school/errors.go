package school

import "github.com/alfalah/schooladmin/internal/domain/shared"

// Error codes raised by the school domain
const (
	CodeInvalidStudentID = "INVALID_STUDENT_ID"
	CodeInvalidDateRange = "INVALID_DATE_RANGE"
	CodeInvalidClassName = "INVALID_CLASS_NAME"
	CodeInvalidSalary    = "INVALID_SALARY"
)

var (
	ErrInvalidStudentID = shared.NewValidationError(CodeInvalidStudentID, "Student ID must be exactly 5 characters")
	ErrInvalidDateRange = shared.NewValidationError(CodeInvalidDateRange, "End date must not be before start date")
)
