package apiclient

import (
	"context"
	"net/url"

	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/school"
)

// DashboardSummary fetches the aggregate figures for a date range
func (c *Client) DashboardSummary(ctx context.Context, r school.DateRange) (fee.DashboardSummary, error) {
	query := url.Values{}
	query.Set("startDate", r.StartParam())
	query.Set("endDate", r.EndParam())

	var w wireDashboard
	if err := c.getJSON(ctx, "/api/dashboard-summary", "/api/dashboard-summary", query, &w); err != nil {
		return fee.DashboardSummary{}, err
	}
	if err := checkPayload("dashboard summary", w); err != nil {
		return fee.DashboardSummary{}, err
	}
	return w.toDomain(), nil
}
