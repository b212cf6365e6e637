package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/alfalah/schooladmin/internal/domain/school"
)

// ErrAlreadyMarked is returned when today's attendance was already recorded
var ErrAlreadyMarked = errors.New("attendance already marked")

type wireScannedStudent struct {
	StudentID  string `json:"studentId"`
	Name       string `json:"studentName"`
	ClassName  string `json:"className"`
	RollNumber string `json:"rollNumber"`
	Time       string `json:"time"`
}

type wireAttendanceRecord struct {
	StudentID string   `json:"studentId"`
	Date      flexTime `json:"date"`
	Time      string   `json:"time"`
}

// MarkAttendance records a present scan. The API answers 400 when the
// student was already marked today; that case returns ErrAlreadyMarked
// wrapped around the request error.
func (c *Client) MarkAttendance(ctx context.Context, studentID string) error {
	err := c.sendJSON(ctx, http.MethodPost, "/api/mark", "/api/mark", map[string]string{"studentId": studentID}, nil)
	if StatusOf(err) == http.StatusBadRequest {
		return errors.Join(ErrAlreadyMarked, err)
	}
	return err
}

// ScannedStudents lists the students scanned on a day (YYYY-MM-DD)
func (c *Client) ScannedStudents(ctx context.Context, date string) ([]school.ScannedStudent, error) {
	query := url.Values{}
	query.Set("date", date)
	var ws []wireScannedStudent
	if err := c.getJSON(ctx, "/api/attendance/scanned-students", "/api/attendance/scanned-students", query, &ws); err != nil {
		return nil, err
	}
	out := make([]school.ScannedStudent, 0, len(ws))
	for _, w := range ws {
		out = append(out, school.ScannedStudent{
			StudentID:  w.StudentID,
			Name:       w.Name,
			RollNumber: w.RollNumber,
			ClassLabel: w.ClassName,
			Time:       w.Time,
		})
	}
	return out, nil
}

// AttendanceRecords returns the raw scans of a student inside r
func (c *Client) AttendanceRecords(ctx context.Context, studentID string, r school.DateRange) ([]school.AttendanceRecord, error) {
	query := url.Values{}
	query.Set("startDate", r.StartParam())
	query.Set("endDate", r.EndParam())
	var ws []wireAttendanceRecord
	if err := c.getJSON(ctx, "/api/attendance/student/:id", "/api/attendance/student/"+escape(studentID), query, &ws); err != nil {
		return nil, err
	}
	out := make([]school.AttendanceRecord, 0, len(ws))
	for _, w := range ws {
		id := w.StudentID
		if id == "" {
			id = studentID
		}
		out = append(out, school.AttendanceRecord{StudentID: id, Date: w.Date.Time, Time: w.Time})
	}
	return out, nil
}
