package school

import (
	"strings"

	"github.com/alfalah/schooladmin/internal/domain/shared"
)

// Class is a grade/section with its roster
type Class struct {
	ID         string    `json:"id"`
	Grade      string    `json:"grade"`
	Section    string    `json:"section"`
	RoomNumber string    `json:"roomNumber,omitempty"`
	InCharge   string    `json:"inCharge,omitempty"`
	Students   []Student `json:"students,omitempty"`
}

// Ref returns the reference form embedded in student payloads
func (c Class) Ref() ClassRef {
	return ClassRef{ID: c.ID, Grade: c.Grade, Section: c.Section}
}

// Label returns "grade - section"
func (c Class) Label() string {
	return c.Ref().Label()
}

// ParseClassName splits "5 - A" into grade and section
func ParseClassName(name string) (ClassRef, error) {
	grade, section, ok := strings.Cut(name, "-")
	grade, section = strings.TrimSpace(grade), strings.TrimSpace(section)
	if !ok || grade == "" || section == "" {
		return ClassRef{}, shared.NewValidationError(CodeInvalidClassName, "class name must look like \"grade - section\"")
	}
	return ClassRef{Grade: grade, Section: section}, nil
}
