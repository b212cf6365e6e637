package attendance

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alfalah/schooladmin/internal/application/state"
	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/infrastructure/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockAttendanceAPI is a mock implementation of AttendanceAPI
type MockAttendanceAPI struct {
	mock.Mock
}

func (m *MockAttendanceAPI) MarkAttendance(ctx context.Context, studentID string) error {
	return m.Called(ctx, studentID).Error(0)
}

func (m *MockAttendanceAPI) GetStudent(ctx context.Context, studentID string) (school.Student, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(school.Student), args.Error(1)
}

func (m *MockAttendanceAPI) ScannedStudents(ctx context.Context, date string) ([]school.ScannedStudent, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]school.ScannedStudent), args.Error(1)
}

func (m *MockAttendanceAPI) AttendanceRecords(ctx context.Context, studentID string, r school.DateRange) ([]school.AttendanceRecord, error) {
	args := m.Called(ctx, studentID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]school.AttendanceRecord), args.Error(1)
}

var testNow = time.Date(2025, time.March, 20, 8, 5, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *MockAttendanceAPI, *state.Store) {
	t.Helper()
	api := new(MockAttendanceAPI)
	store := state.NewStore(nil)
	svc := NewService(api, store, zaptest.NewLogger(t))
	svc.now = func() time.Time { return testNow }
	return svc, api, store
}

func lastNotification(t *testing.T, store *state.Store) state.Notification {
	t.Helper()
	ns := store.Snapshot().Notifications
	require.NotEmpty(t, ns)
	return ns[len(ns)-1]
}

func TestScan_Success(t *testing.T) {
	svc, api, store := newTestService(t)
	ctx := context.Background()
	student := school.Student{StudentID: "10001", Name: "Ayesha Khan", Class: school.ClassRef{Grade: "5", Section: "A"}}

	api.On("MarkAttendance", ctx, "10001").Return(nil)
	api.On("GetStudent", ctx, "10001").Return(student, nil)

	res, err := svc.Scan(ctx, " 10001 ")
	require.NoError(t, err)
	assert.Equal(t, "Ayesha Khan", res.Student.Name)
	assert.Equal(t, "5 - A", res.ClassName)
	assert.Equal(t, testNow, res.MarkedAt)
	assert.Equal(t, state.LevelSuccess, lastNotification(t, store).Level)
	api.AssertExpectations(t)
}

func TestScan_InvalidIDSendsNothing(t *testing.T) {
	svc, api, store := newTestService(t)

	_, err := svc.Scan(context.Background(), "123")
	assert.ErrorIs(t, err, ErrInvalidStudent)
	assert.Equal(t, "Invalid student ID", lastNotification(t, store).Message)
	api.AssertNotCalled(t, "MarkAttendance", mock.Anything, mock.Anything)
}

func TestScan_AlreadyMarked(t *testing.T) {
	svc, api, store := newTestService(t)
	reqErr := &apiclient.RequestError{Method: http.MethodPost, Path: "/api/mark", Status: http.StatusBadRequest}
	api.On("MarkAttendance", mock.Anything, "10001").Return(errors.Join(apiclient.ErrAlreadyMarked, reqErr))

	_, err := svc.Scan(context.Background(), "10001")
	assert.ErrorIs(t, err, ErrAlreadyMarked)
	assert.Equal(t, state.LevelWarning, lastNotification(t, store).Level)
	api.AssertNotCalled(t, "GetStudent", mock.Anything, mock.Anything)
}

func TestScan_UnknownStudent(t *testing.T) {
	svc, api, _ := newTestService(t)
	notFound := &apiclient.NotFoundError{RequestError: apiclient.RequestError{Method: http.MethodGet, Path: "/api/student/99999", Status: http.StatusNotFound}}
	api.On("MarkAttendance", mock.Anything, "99999").Return(nil)
	api.On("GetStudent", mock.Anything, "99999").Return(school.Student{}, notFound)

	_, err := svc.Scan(context.Background(), "99999")
	assert.ErrorIs(t, err, ErrInvalidStudent)
}

func TestScan_ServerErrorUsesServerMessage(t *testing.T) {
	svc, api, store := newTestService(t)
	api.On("MarkAttendance", mock.Anything, "10001").
		Return(&apiclient.RequestError{Method: http.MethodPost, Path: "/api/mark", Status: 500, Message: "database offline"})

	_, err := svc.Scan(context.Background(), "10001")
	require.Error(t, err)
	assert.Equal(t, 500, apiclient.StatusOf(err))
	n := lastNotification(t, store)
	assert.Equal(t, state.LevelError, n.Level)
	assert.Equal(t, "database offline", n.Message)
}

func TestScannedToday_DefaultsToToday(t *testing.T) {
	svc, api, _ := newTestService(t)
	rows := []school.ScannedStudent{{StudentID: "10001", Name: "Ayesha Khan", Time: "08:01"}}
	api.On("ScannedStudents", mock.Anything, "2025-03-20").Return(rows, nil)

	got, err := svc.ScannedToday(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestHistory(t *testing.T) {
	svc, api, _ := newTestService(t)
	r, err := school.NewDateRange(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	api.On("AttendanceRecords", mock.Anything, "10001", r).Return([]school.AttendanceRecord{
		{StudentID: "10001", Date: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), Time: "08:00"},
		{StudentID: "10001", Date: time.Date(2025, 3, 3, 8, 10, 0, 0, time.UTC), Time: "08:10"},
	}, nil)

	h, err := svc.History(context.Background(), "10001", r)
	require.NoError(t, err)
	require.Len(t, h.Days, 3)
	assert.Equal(t, school.Present, h.Days[0].Status)
	assert.Equal(t, school.Absent, h.Days[1].Status)
	assert.Equal(t, "08:10", h.Days[2].Time)
	assert.Equal(t, 2, h.Present)
	assert.Equal(t, 67, h.Rate)
}

func TestHistory_RejectsInvertedRange(t *testing.T) {
	svc, api, _ := newTestService(t)
	r := school.DateRange{Start: testNow, End: testNow.AddDate(0, 0, -1)}

	_, err := svc.History(context.Background(), "10001", r)
	assert.ErrorIs(t, err, school.ErrInvalidDateRange)
	api.AssertNotCalled(t, "AttendanceRecords", mock.Anything, mock.Anything, mock.Anything)
}
