package apiclient

import (
	"context"
	"net/http"

	"github.com/alfalah/schooladmin/internal/domain/school"
)

type wireClass struct {
	ID         string        `json:"_id"`
	Grade      string        `json:"grade" validate:"required"`
	Section    string        `json:"section"`
	RoomNumber string        `json:"roomNumber"`
	InCharge   string        `json:"inCharge"`
	Students   []wireStudent `json:"students"`
}

func (w wireClass) toDomain() school.Class {
	c := school.Class{
		ID:         w.ID,
		Grade:      w.Grade,
		Section:    w.Section,
		RoomNumber: w.RoomNumber,
		InCharge:   w.InCharge,
	}
	for _, s := range w.Students {
		student := s.toDomain()
		if student.Class.ID == "" {
			student.Class = c.Ref()
		}
		c.Students = append(c.Students, student)
	}
	return c
}

// ClassForm is the add-class payload
type ClassForm struct {
	Grade      string `json:"grade" validate:"required"`
	Section    string `json:"section" validate:"required"`
	RoomNumber string `json:"roomNumber,omitempty"`
	InCharge   string `json:"inCharge,omitempty"`
}

// ListClasses returns every class
func (c *Client) ListClasses(ctx context.Context) ([]school.Class, error) {
	var ws []wireClass
	if err := c.getJSON(ctx, "/api/classes", "/api/classes", nil, &ws); err != nil {
		return nil, err
	}
	out := make([]school.Class, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// GetClass fetches a class with its students
func (c *Client) GetClass(ctx context.Context, id string) (school.Class, error) {
	var w wireClass
	if err := c.getJSON(ctx, "/api/class/:id", "/api/class/"+escape(id), nil, &w); err != nil {
		return school.Class{}, err
	}
	if err := checkPayload("class "+id, w); err != nil {
		return school.Class{}, err
	}
	return w.toDomain(), nil
}

// AddClass creates a class
func (c *Client) AddClass(ctx context.Context, form ClassForm) (school.Class, error) {
	if err := checkPayload("add class", form); err != nil {
		return school.Class{}, err
	}
	var res struct {
		NewClass wireClass `json:"newClass"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, "/api/add-class", "/api/add-class", form, &res); err != nil {
		return school.Class{}, err
	}
	return res.NewClass.toDomain(), nil
}

// DeleteClass removes a class
func (c *Client) DeleteClass(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/api/delete-class/:id", "/api/delete-class/"+escape(id), nil, nil)
}
