package apiclient

import (
	"context"
	"net/http"

	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
)

type wireSalaryPayment struct {
	Month  int               `json:"month"`
	Year   int               `json:"year"`
	Amount valueobject.Money `json:"amount"`
	PaidAt flexTime          `json:"paidAt"`
}

type wireStaff struct {
	ID            string              `json:"_id"`
	Name          string              `json:"name" validate:"required"`
	Phone         string              `json:"phone"`
	Address       string              `json:"address"`
	Education     string              `json:"education"`
	Role          string              `json:"role"`
	Salary        valueobject.Money   `json:"salary" validate:"money_nonneg"`
	SalaryHistory []wireSalaryPayment `json:"salaryHistory"`
}

func (w wireStaff) toDomain() school.Staff {
	s := school.Staff{
		ID:        w.ID,
		Name:      w.Name,
		Phone:     w.Phone,
		Address:   w.Address,
		Education: w.Education,
		Role:      w.Role,
		Salary:    w.Salary,
	}
	for _, h := range w.SalaryHistory {
		s.SalaryHistory = append(s.SalaryHistory, school.SalaryPayment{
			Period: valueobject.Period{Month: h.Month, Year: h.Year},
			Amount: h.Amount,
			PaidAt: h.PaidAt.Time,
		})
	}
	return s
}

// StaffForm is the add/edit staff payload
type StaffForm struct {
	Name      string            `json:"name" validate:"required"`
	Phone     string            `json:"phone,omitempty"`
	Address   string            `json:"address,omitempty"`
	Education string            `json:"education,omitempty"`
	Role      string            `json:"role,omitempty"`
	Salary    valueobject.Money `json:"salary" validate:"money_pos"`
}

type paySalaryRequest struct {
	Month  int               `json:"month"`
	Year   int               `json:"year"`
	Amount valueobject.Money `json:"amount"`
}

// ListStaff returns every staff member
func (c *Client) ListStaff(ctx context.Context) ([]school.Staff, error) {
	var ws []wireStaff
	if err := c.getJSON(ctx, "/api/staff", "/api/staff", nil, &ws); err != nil {
		return nil, err
	}
	out := make([]school.Staff, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// GetStaff fetches a staff member
func (c *Client) GetStaff(ctx context.Context, id string) (school.Staff, error) {
	var w wireStaff
	if err := c.getJSON(ctx, "/api/staff/:id", "/api/staff/"+escape(id), nil, &w); err != nil {
		return school.Staff{}, err
	}
	if err := checkPayload("staff "+id, w); err != nil {
		return school.Staff{}, err
	}
	return w.toDomain(), nil
}

// StaffCount returns the number of staff members
func (c *Client) StaffCount(ctx context.Context) (int, error) {
	var res struct {
		Count int `json:"count"`
	}
	err := c.getJSON(ctx, "/api/staff-count", "/api/staff-count", nil, &res)
	return res.Count, err
}

// AddStaff creates a staff member
func (c *Client) AddStaff(ctx context.Context, form StaffForm) (school.Staff, error) {
	return c.submitStaff(ctx, http.MethodPost, "/api/staff", "/api/staff", form)
}

// UpdateStaff replaces a staff member's details
func (c *Client) UpdateStaff(ctx context.Context, id string, form StaffForm) (school.Staff, error) {
	return c.submitStaff(ctx, http.MethodPut, "/api/staff/:id", "/api/staff/"+escape(id), form)
}

func (c *Client) submitStaff(ctx context.Context, method, route, path string, form StaffForm) (school.Staff, error) {
	if err := checkPayload("staff form", form); err != nil {
		return school.Staff{}, err
	}
	var res struct {
		Staff wireStaff `json:"staff"`
	}
	if err := c.sendJSON(ctx, method, route, path, form, &res); err != nil {
		return school.Staff{}, err
	}
	return res.Staff.toDomain(), nil
}

// DeleteStaff removes a staff member
func (c *Client) DeleteStaff(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/api/staff/:id", "/api/staff/"+escape(id), nil, nil)
}

// PaySalary records a salary disbursement and returns the updated staff member
func (c *Client) PaySalary(ctx context.Context, id string, p school.SalaryPayment) (school.Staff, error) {
	req := paySalaryRequest{Month: p.Month, Year: p.Year, Amount: p.Amount}
	var res struct {
		Staff *wireStaff `json:"staff"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, "/api/staff/:id/pay-salary", "/api/staff/"+escape(id)+"/pay-salary", req, &res); err != nil {
		return school.Staff{}, err
	}
	if res.Staff == nil {
		return school.Staff{ID: id, SalaryHistory: []school.SalaryPayment{p}}, nil
	}
	return res.Staff.toDomain(), nil
}
