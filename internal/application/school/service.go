// Package school manages the records the fee screens reference: students,
// classes and staff, including salary disbursement.
package school

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/alfalah/schooladmin/internal/application/state"
	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
	"github.com/alfalah/schooladmin/internal/infrastructure/apiclient"
	"go.uber.org/zap"
)

// ErrSalaryAlreadyPaid rejects a second disbursement for the same month
var ErrSalaryAlreadyPaid = shared.NewValidationError("SALARY_ALREADY_PAID", "Salary for this month has already been paid")

// SchoolAPI is the records part of the school API
type SchoolAPI interface {
	ListStudents(ctx context.Context) ([]school.Student, error)
	GetStudent(ctx context.Context, studentID string) (school.Student, error)
	AddStudent(ctx context.Context, form apiclient.StudentForm) (school.Student, error)
	UpdateStudent(ctx context.Context, id string, form apiclient.StudentForm) (school.Student, error)
	DeleteStudent(ctx context.Context, id string) error

	ListClasses(ctx context.Context) ([]school.Class, error)
	GetClass(ctx context.Context, id string) (school.Class, error)
	AddClass(ctx context.Context, form apiclient.ClassForm) (school.Class, error)
	DeleteClass(ctx context.Context, id string) error

	ListStaff(ctx context.Context) ([]school.Staff, error)
	GetStaff(ctx context.Context, id string) (school.Staff, error)
	AddStaff(ctx context.Context, form apiclient.StaffForm) (school.Staff, error)
	UpdateStaff(ctx context.Context, id string, form apiclient.StaffForm) (school.Staff, error)
	DeleteStaff(ctx context.Context, id string) error
	PaySalary(ctx context.Context, id string, p school.SalaryPayment) (school.Staff, error)
}

// Service is the records application service
type Service struct {
	api    SchoolAPI
	store  *state.Store
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a records service
func NewService(api SchoolAPI, store *state.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = state.NewStore(logger)
	}
	return &Service{api: api, store: store, now: time.Now, logger: logger.Named("school")}
}

// Students lists students, optionally narrowed by a name/id/roll search
func (s *Service) Students(ctx context.Context, query string) ([]school.Student, error) {
	all, err := s.api.ListStudents(ctx)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all, nil
	}
	out := make([]school.Student, 0, len(all))
	for _, st := range all {
		if strings.Contains(strings.ToLower(st.Name), query) ||
			strings.Contains(strings.ToLower(st.StudentID), query) ||
			strings.Contains(strings.ToLower(st.RollNumber), query) {
			out = append(out, st)
		}
	}
	return out, nil
}

// Student fetches one student by printed id
func (s *Service) Student(ctx context.Context, studentID string) (school.Student, error) {
	id, err := school.ValidateStudentID(studentID)
	if err != nil {
		return school.Student{}, err
	}
	st, err := s.api.GetStudent(ctx, id)
	if err != nil {
		return school.Student{}, s.fail(ctx, err)
	}
	return st, nil
}

// AddStudent creates a student
func (s *Service) AddStudent(ctx context.Context, form apiclient.StudentForm) (school.Student, error) {
	if _, err := school.ValidateStudentID(form.StudentID); err != nil {
		return school.Student{}, err
	}
	if strings.TrimSpace(form.Name) == "" {
		return school.Student{}, shared.NewValidationError("INVALID_NAME", "Student name is required")
	}
	st, err := s.api.AddStudent(ctx, form)
	if err != nil {
		return school.Student{}, s.fail(ctx, err)
	}
	s.logger.Info("student added", zap.String("student_id", st.StudentID))
	s.store.Notify(state.LevelSuccess, "Student added successfully")
	return st, nil
}

// UpdateStudent replaces a student's details
func (s *Service) UpdateStudent(ctx context.Context, id string, form apiclient.StudentForm) (school.Student, error) {
	st, err := s.api.UpdateStudent(ctx, id, form)
	if err != nil {
		return school.Student{}, s.fail(ctx, err)
	}
	s.store.Notify(state.LevelSuccess, "Student updated successfully")
	return st, nil
}

// DeleteStudent removes a student
func (s *Service) DeleteStudent(ctx context.Context, id string) error {
	if err := s.api.DeleteStudent(ctx, id); err != nil {
		return s.fail(ctx, err)
	}
	s.logger.Info("student deleted", zap.String("id", id))
	s.store.Notify(state.LevelSuccess, "Student deleted successfully")
	return nil
}

// Classes lists every class
func (s *Service) Classes(ctx context.Context) ([]school.Class, error) {
	cs, err := s.api.ListClasses(ctx)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return cs, nil
}

// Class fetches a class with its roster
func (s *Service) Class(ctx context.Context, id string) (school.Class, error) {
	c, err := s.api.GetClass(ctx, id)
	if err != nil {
		return school.Class{}, s.fail(ctx, err)
	}
	return c, nil
}

// AddClass creates a class from its "grade - section" name
func (s *Service) AddClass(ctx context.Context, name, room, inCharge string) (school.Class, error) {
	ref, err := school.ParseClassName(name)
	if err != nil {
		return school.Class{}, err
	}
	c, err := s.api.AddClass(ctx, apiclient.ClassForm{
		Grade:      ref.Grade,
		Section:    ref.Section,
		RoomNumber: strings.TrimSpace(room),
		InCharge:   strings.TrimSpace(inCharge),
	})
	if err != nil {
		return school.Class{}, s.fail(ctx, err)
	}
	s.store.Notify(state.LevelSuccess, "Class "+c.Label()+" added")
	return c, nil
}

// DeleteClass removes a class
func (s *Service) DeleteClass(ctx context.Context, id string) error {
	if err := s.api.DeleteClass(ctx, id); err != nil {
		return s.fail(ctx, err)
	}
	s.store.Notify(state.LevelSuccess, "Class deleted")
	return nil
}

// Staff lists every staff member
func (s *Service) Staff(ctx context.Context) ([]school.Staff, error) {
	list, err := s.api.ListStaff(ctx)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return list, nil
}

// StaffMember fetches one staff member
func (s *Service) StaffMember(ctx context.Context, id string) (school.Staff, error) {
	st, err := s.api.GetStaff(ctx, id)
	if err != nil {
		return school.Staff{}, s.fail(ctx, err)
	}
	return st, nil
}

// AddStaff creates a staff member
func (s *Service) AddStaff(ctx context.Context, form apiclient.StaffForm) (school.Staff, error) {
	if err := validateStaff(form); err != nil {
		return school.Staff{}, err
	}
	st, err := s.api.AddStaff(ctx, form)
	if err != nil {
		return school.Staff{}, s.fail(ctx, err)
	}
	s.store.Notify(state.LevelSuccess, "Staff member added")
	return st, nil
}

// UpdateStaff replaces a staff member's details
func (s *Service) UpdateStaff(ctx context.Context, id string, form apiclient.StaffForm) (school.Staff, error) {
	if err := validateStaff(form); err != nil {
		return school.Staff{}, err
	}
	st, err := s.api.UpdateStaff(ctx, id, form)
	if err != nil {
		return school.Staff{}, s.fail(ctx, err)
	}
	s.store.Notify(state.LevelSuccess, "Staff member updated")
	return st, nil
}

// DeleteStaff removes a staff member
func (s *Service) DeleteStaff(ctx context.Context, id string) error {
	if err := s.api.DeleteStaff(ctx, id); err != nil {
		return s.fail(ctx, err)
	}
	s.store.Notify(state.LevelSuccess, "Staff member deleted")
	return nil
}

// PaySalary disburses one month's salary. A zero amount pays the staff
// member's monthly salary; a month already in the history is rejected.
func (s *Service) PaySalary(ctx context.Context, id string, month, year int, amount valueobject.Money) (school.Staff, school.SalaryPayment, error) {
	staff, err := s.api.GetStaff(ctx, id)
	if err != nil {
		return school.Staff{}, school.SalaryPayment{}, s.fail(ctx, err)
	}
	if amount.IsZero() {
		amount = staff.Salary
	}
	payment, err := school.NewSalaryPayment(month, year, amount, s.now())
	if err != nil {
		return school.Staff{}, school.SalaryPayment{}, err
	}
	if staff.PaidFor(payment.Period) {
		return school.Staff{}, school.SalaryPayment{}, ErrSalaryAlreadyPaid
	}

	updated, err := s.api.PaySalary(ctx, id, payment)
	if err != nil {
		return school.Staff{}, school.SalaryPayment{}, s.fail(ctx, err)
	}
	if updated.Name == "" {
		history := slices.Concat(staff.SalaryHistory, updated.SalaryHistory)
		updated = staff
		updated.SalaryHistory = history
	}
	s.logger.Info("salary paid",
		zap.String("staff_id", id),
		zap.String("period", payment.Period.String()),
		zap.String("amount", payment.Amount.String()))
	s.store.Notify(state.LevelSuccess, "Salary paid for "+payment.Period.String())
	return updated, payment, nil
}

func validateStaff(form apiclient.StaffForm) error {
	if strings.TrimSpace(form.Name) == "" {
		return shared.NewValidationError("INVALID_NAME", "Staff name is required")
	}
	if !form.Salary.IsPositive() {
		return shared.NewValidationError(school.CodeInvalidSalary, "Salary must be positive")
	}
	return nil
}

func (s *Service) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.Error("school request failed", zap.Error(err))
	s.store.NotifyError(err)
	return err
}
