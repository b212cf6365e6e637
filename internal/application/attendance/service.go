// Package attendance drives the QR scanning desk and per-student history.
package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/alfalah/schooladmin/internal/application/state"
	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/infrastructure/apiclient"
	"go.uber.org/zap"
)

// Error codes surfaced to the scanning desk
const (
	CodeAlreadyMarked  = "ALREADY_MARKED"
	CodeInvalidStudent = "INVALID_STUDENT"
)

var (
	ErrAlreadyMarked  = shared.NewDomainError(CodeAlreadyMarked, "Attendance already marked for today")
	ErrInvalidStudent = shared.NewDomainError(CodeInvalidStudent, "Invalid student ID")
)

// AttendanceAPI is the part of the school API the service needs
type AttendanceAPI interface {
	MarkAttendance(ctx context.Context, studentID string) error
	GetStudent(ctx context.Context, studentID string) (school.Student, error)
	ScannedStudents(ctx context.Context, date string) ([]school.ScannedStudent, error)
	AttendanceRecords(ctx context.Context, studentID string, r school.DateRange) ([]school.AttendanceRecord, error)
}

// ScanResult is shown after a successful scan
type ScanResult struct {
	Student   school.Student `json:"student"`
	MarkedAt  time.Time      `json:"markedAt"`
	ClassName string         `json:"className"`
}

// History is a student's attendance over a date range
type History struct {
	StudentID string                 `json:"studentId"`
	Range     school.DateRange       `json:"range"`
	Days      []school.AttendanceDay `json:"days"`
	Present   int                    `json:"present"`
	Total     int                    `json:"total"`
	Rate      int                    `json:"rate"`
}

// Service is the attendance application service
type Service struct {
	api    AttendanceAPI
	store  *state.Store
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates an attendance service
func NewService(api AttendanceAPI, store *state.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = state.NewStore(logger)
	}
	return &Service{api: api, store: store, now: time.Now, logger: logger.Named("attendance")}
}

// Scan marks a scanned or typed student id present for today.
// A second scan on the same day yields ErrAlreadyMarked; an id the API
// does not know yields ErrInvalidStudent.
func (s *Service) Scan(ctx context.Context, rawID string) (ScanResult, error) {
	id, err := school.ValidateStudentID(rawID)
	if err != nil {
		s.store.Notify(state.LevelError, ErrInvalidStudent.Message)
		return ScanResult{}, ErrInvalidStudent
	}

	if err := s.api.MarkAttendance(ctx, id); err != nil {
		switch {
		case errors.Is(err, apiclient.ErrAlreadyMarked):
			s.logger.Info("attendance already marked", zap.String("student_id", id))
			s.store.Notify(state.LevelWarning, ErrAlreadyMarked.Message)
			return ScanResult{}, ErrAlreadyMarked
		case apiclient.IsNotFound(err):
			s.store.Notify(state.LevelError, ErrInvalidStudent.Message)
			return ScanResult{}, ErrInvalidStudent
		}
		return ScanResult{}, s.fail(ctx, err)
	}

	student, err := s.api.GetStudent(ctx, id)
	if err != nil {
		if apiclient.IsNotFound(err) {
			s.store.Notify(state.LevelError, ErrInvalidStudent.Message)
			return ScanResult{}, ErrInvalidStudent
		}
		return ScanResult{}, s.fail(ctx, err)
	}

	s.logger.Info("attendance marked", zap.String("student_id", id))
	s.store.Notify(state.LevelSuccess, "Attendance marked for "+student.Name)
	return ScanResult{Student: student, MarkedAt: s.now(), ClassName: student.Class.Label()}, nil
}

// ScannedToday lists the students scanned on date; a zero date means today
func (s *Service) ScannedToday(ctx context.Context, date time.Time) ([]school.ScannedStudent, error) {
	if date.IsZero() {
		date = s.now()
	}
	list, err := s.api.ScannedStudents(ctx, date.Format(time.DateOnly))
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return list, nil
}

// History lists every day of r as Present or Absent for a student
func (s *Service) History(ctx context.Context, studentID string, r school.DateRange) (History, error) {
	id, err := school.ValidateStudentID(studentID)
	if err != nil {
		return History{}, err
	}
	if r.End.Before(r.Start) {
		return History{}, school.ErrInvalidDateRange
	}

	records, err := s.api.AttendanceRecords(ctx, id, r)
	if err != nil {
		return History{}, s.fail(ctx, err)
	}
	days := school.BuildAttendanceHistory(r, records)
	present := school.CountPresent(days)
	return History{
		StudentID: id,
		Range:     r,
		Days:      days,
		Present:   present,
		Total:     len(days),
		Rate:      fee.AttendanceRate(present, len(days)),
	}, nil
}

func (s *Service) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.logger.Error("attendance request failed", zap.Error(err))
	s.store.NotifyError(err)
	return err
}
