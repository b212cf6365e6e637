// Package dashboard loads the date-range summary and derives its rates.
package dashboard

import (
	"context"
	"time"

	"github.com/alfalah/schooladmin/internal/application/state"
	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// DashboardAPI fetches the aggregate computed by the school API
type DashboardAPI interface {
	DashboardSummary(ctx context.Context, r school.DateRange) (fee.DashboardSummary, error)
}

// MonthRate is one month of the yearly fee chart with its collection rate
type MonthRate struct {
	fee.MonthFeeSummary
	Rate int `json:"rate"`
}

// View is the dashboard as displayed
type View struct {
	Range   school.DateRange     `json:"range"`
	Summary fee.DashboardSummary `json:"summary"`

	OverallCollectionRate   int `json:"overallCollectionRate"`
	MonthlyCollectionRate   int `json:"monthlyCollectionRate"`
	AdmissionCollectionRate int `json:"admissionCollectionRate"`
	StaffSalaryRate         int `json:"staffSalaryRate"`
	AttendanceRate          int `json:"attendanceRate"`

	Months       []MonthRate       `json:"months"`
	DailyPaid    valueobject.Money `json:"dailyPaid"`
	DailyPending valueobject.Money `json:"dailyPending"`
}

// Service is the dashboard application service
type Service struct {
	api    DashboardAPI
	store  *state.Store
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a dashboard service
func NewService(api DashboardAPI, store *state.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = state.NewStore(logger)
	}
	return &Service{api: api, store: store, now: time.Now, logger: logger.Named("dashboard")}
}

// Load fetches the summary for [start, end]. Zero bounds default to the
// current month; an end before start is rejected without a request.
func (s *Service) Load(ctx context.Context, start, end time.Time) (View, error) {
	r := school.CurrentMonth(s.now())
	if !start.IsZero() {
		r.Start = start
	}
	if !end.IsZero() {
		r.End = end
	}
	r, err := school.NewDateRange(r.Start, r.End)
	if err != nil {
		return View{}, err
	}

	summary, err := s.api.DashboardSummary(ctx, r)
	if err != nil {
		if ctx.Err() != nil {
			return View{}, ctx.Err()
		}
		s.logger.Error("dashboard request failed", zap.Error(err))
		s.store.NotifyError(err)
		return View{}, err
	}

	s.store.Dispatch(state.DashboardLoaded{Summary: summary})
	return BuildView(r, summary), nil
}

// BuildView derives the displayed rates and totals from a summary
func BuildView(r school.DateRange, d fee.DashboardSummary) View {
	v := View{
		Range:                   r,
		Summary:                 d,
		OverallCollectionRate:   fee.OverallCollectionRate(d),
		MonthlyCollectionRate:   fee.CollectionRate(d.MonthlyFee.Paid, d.MonthlyFee.Pending),
		AdmissionCollectionRate: fee.CollectionRate(d.AdmissionFee.Paid, d.AdmissionFee.Pending),
		StaffSalaryRate:         fee.StaffSalaryRate(d),
		AttendanceRate:          fee.AttendanceRate(d.PresentStudents, d.TotalStudents),
	}
	for _, m := range d.MonthlyFeeYearSummary {
		v.Months = append(v.Months, MonthRate{MonthFeeSummary: m, Rate: fee.CollectionRate(m.PaidFees, m.PendingFees)})
	}
	v.DailyPaid, v.DailyPending = fee.DailyTotals(d.DailyFeeSummary)
	return v
}
