package valueobject

import (
	"fmt"
	"time"
)

// Period is a billing month, e.g. March 2025
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// NewPeriod creates a period, rejecting months outside 1..12 and non-positive years
func NewPeriod(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if !p.IsValid() {
		return Period{}, fmt.Errorf("invalid period %d/%d", month, year)
	}
	return p, nil
}

// PeriodOf returns the period containing t
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

func (p Period) IsValid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year > 0
}

// MonthName returns the English month name, or "" for an invalid month
func (p Period) MonthName() string {
	if p.Month < 1 || p.Month > 12 {
		return ""
	}
	return time.Month(p.Month).String()
}

// String returns "March 2025"
func (p Period) String() string {
	return fmt.Sprintf("%s %d", p.MonthName(), p.Year)
}
