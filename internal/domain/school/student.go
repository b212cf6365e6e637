package school

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// StudentIDLength is the length of the printed/scanned student id
const StudentIDLength = 5

// ClassRef is the class a student belongs to, as embedded in API payloads
type ClassRef struct {
	ID      string `json:"id,omitempty"`
	Grade   string `json:"grade"`
	Section string `json:"section"`
}

// Label returns "grade - section", the class name used across summaries
func (c ClassRef) Label() string {
	if c.Grade == "" && c.Section == "" {
		return ""
	}
	return fmt.Sprintf("%s - %s", c.Grade, c.Section)
}

// Student is owned by the remote system; vouchers only reference it
type Student struct {
	ID            string   `json:"id,omitempty"`
	StudentID     string   `json:"studentId"`
	Name          string   `json:"name"`
	RollNumber    string   `json:"rollNumber"`
	Class         ClassRef `json:"class"`
	Gender        string   `json:"gender,omitempty"`
	GuardianName  string   `json:"guardianName,omitempty"`
	GuardianPhone string   `json:"guardianPhone,omitempty"`
	Address       string   `json:"address,omitempty"`
	Photo         string   `json:"photo,omitempty"`
}

// ValidateStudentID checks a scanned or typed student id
func ValidateStudentID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if utf8.RuneCountInString(id) != StudentIDLength {
		return "", ErrInvalidStudentID
	}
	return id, nil
}
