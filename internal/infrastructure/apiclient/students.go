package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/alfalah/schooladmin/internal/domain/school"
)

// StudentForm is the multipart add/edit student form
type StudentForm struct {
	StudentID     string
	Name          string
	RollNumber    string
	ClassID       string
	Gender        string
	GuardianName  string
	GuardianPhone string
	Address       string
	PhotoName     string
	Photo         []byte
}

// encode writes the form as multipart/form-data
func (f StudentForm) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := []struct{ key, value string }{
		{"studentId", f.StudentID},
		{"name", f.Name},
		{"rollNumber", f.RollNumber},
		{"classId", f.ClassID},
		{"gender", f.Gender},
		{"guardianName", f.GuardianName},
		{"guardianPhone", f.GuardianPhone},
		{"address", f.Address},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		if err := w.WriteField(field.key, field.value); err != nil {
			return nil, "", err
		}
	}
	if len(f.Photo) > 0 {
		name := f.PhotoName
		if name == "" {
			name = "photo.jpg"
		}
		part, err := w.CreateFormFile("photo", name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Photo); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// ListStudents returns every student
func (c *Client) ListStudents(ctx context.Context) ([]school.Student, error) {
	var ws []wireStudent
	if err := c.getJSON(ctx, "/api/students", "/api/students", nil, &ws); err != nil {
		return nil, err
	}
	out := make([]school.Student, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// TotalStudents returns the enrolled student count
func (c *Client) TotalStudents(ctx context.Context) (int, error) {
	var res struct {
		Total int `json:"total"`
	}
	err := c.getJSON(ctx, "/api/total-students", "/api/total-students", nil, &res)
	return res.Total, err
}

// GetStudent fetches a student by the 5-digit student id
func (c *Client) GetStudent(ctx context.Context, studentID string) (school.Student, error) {
	var w wireStudent
	if err := c.getJSON(ctx, "/api/student/:id", "/api/student/"+escape(studentID), nil, &w); err != nil {
		return school.Student{}, err
	}
	if err := checkPayload("student "+studentID, w); err != nil {
		return school.Student{}, err
	}
	return w.toDomain(), nil
}

// AddStudent uploads a new student
func (c *Client) AddStudent(ctx context.Context, form StudentForm) (school.Student, error) {
	if form.Name == "" || form.ClassID == "" {
		return school.Student{}, fmt.Errorf("add student: %w", invalidForm("name and class are required"))
	}
	return c.submitStudent(ctx, http.MethodPost, "/api/add-student", "/api/add-student", form)
}

// UpdateStudent replaces a student's details
func (c *Client) UpdateStudent(ctx context.Context, id string, form StudentForm) (school.Student, error) {
	return c.submitStudent(ctx, http.MethodPut, "/api/student/:id", "/api/student/"+escape(id), form)
}

func (c *Client) submitStudent(ctx context.Context, method, route, path string, form StudentForm) (school.Student, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return school.Student{}, fmt.Errorf("encoding student form: %w", err)
	}
	resp, err := c.Do(ctx, Request{Method: method, Route: route, Path: path, RawBody: body, ContentType: contentType})
	if err != nil {
		return school.Student{}, err
	}
	var res struct {
		Student wireStudent `json:"student"`
	}
	if err := decode(resp, &res); err != nil {
		return school.Student{}, err
	}
	return res.Student.toDomain(), nil
}

// DeleteStudent removes a student
func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/api/student/:id", "/api/student/"+escape(id), nil, nil)
}
