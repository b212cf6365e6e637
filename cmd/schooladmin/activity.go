package main

import (
	"context"
	"strconv"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/school"
)

var attendanceCommands = map[string]subcommand{
	"scan":    {usage: "<studentId>", run: runAttendanceScan},
	"today":   {usage: "[-date YYYY-MM-DD]", run: runAttendanceToday},
	"history": {usage: "[-from YYYY-MM-DD] [-to YYYY-MM-DD] <studentId>", run: runAttendanceHistory},
}

func runAttendanceScan(ctx context.Context, a *app, args []string) error {
	pos, err := parseArgs(newFlagSet("attendance scan"), args, 1)
	if err != nil {
		return err
	}
	res, err := a.attendance.Scan(ctx, pos[0])
	if err != nil {
		return err
	}
	return a.out.result(res, func() {
		a.out.printf("%s (%s) %s marked present at %s\n",
			res.Student.Name, res.Student.StudentID, res.ClassName, res.MarkedAt.Format("15:04"))
	})
}

func runAttendanceToday(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("attendance today")
	date := fs.String("date", "", "Day to list, default today")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	day := time.Now()
	if *date != "" {
		var err error
		if day, err = parseDate(*date); err != nil {
			return err
		}
	}
	scanned, err := a.attendance.ScannedToday(ctx, day)
	if err != nil {
		return err
	}
	return a.out.result(scanned, func() {
		rows := make([][]string, 0, len(scanned))
		for _, s := range scanned {
			rows = append(rows, []string{s.Time, s.StudentID, s.Name, s.RollNumber, s.ClassLabel})
		}
		a.out.table([]string{"TIME", "ID", "NAME", "ROLL", "CLASS"}, rows)
		a.out.printf("\n%d present\n", len(scanned))
	})
}

// dateRange parses -from and -to, defaulting to the current month
func dateRange(from, to string) (school.DateRange, error) {
	r := school.CurrentMonth(time.Now())
	var err error
	if from != "" {
		if r.Start, err = parseDate(from); err != nil {
			return r, err
		}
	}
	if to != "" {
		if r.End, err = parseDate(to); err != nil {
			return r, err
		}
	}
	return school.NewDateRange(r.Start, r.End)
}

func runAttendanceHistory(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("attendance history")
	from := fs.String("from", "", "First day, default start of this month")
	to := fs.String("to", "", "Last day, default end of this month")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	r, err := dateRange(*from, *to)
	if err != nil {
		return err
	}
	h, err := a.attendance.History(ctx, pos[0], r)
	if err != nil {
		return err
	}
	return a.out.result(h, func() {
		rows := make([][]string, 0, len(h.Days))
		for _, d := range h.Days {
			rows = append(rows, []string{d.Date.Format(time.DateOnly), string(d.Status), d.Time})
		}
		a.out.table([]string{"DATE", "STATUS", "TIME"}, rows)
		a.out.printf("\nPresent %d of %d days (%d%%)\n", h.Present, h.Total, h.Rate)
	})
}

func runDashboard(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("dashboard")
	from := fs.String("from", "", "First day, default start of this month")
	to := fs.String("to", "", "Last day, default end of this month")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	r, err := dateRange(*from, *to)
	if err != nil {
		return err
	}
	v, err := a.dashboard.Load(ctx, r.Start, r.End)
	if err != nil {
		return err
	}
	d := v.Summary
	return a.out.result(v, func() {
		a.out.printf("%s to %s\n\n", v.Range.Start.Format(time.DateOnly), v.Range.End.Format(time.DateOnly))
		a.out.table([]string{"", "PAID", "PENDING", "RATE"}, [][]string{
			{"Monthly fees", d.MonthlyFee.Paid.Format(), d.MonthlyFee.Pending.Format(), pct(v.MonthlyCollectionRate)},
			{"Admission fees", d.AdmissionFee.Paid.Format(), d.AdmissionFee.Pending.Format(), pct(v.AdmissionCollectionRate)},
			{"Staff salaries", d.StaffSalary.Paid.Format(), d.StaffSalary.Pending.Format(), pct(v.StaffSalaryRate)},
		})
		a.out.printf("\nOverall collection %s\n", pct(v.OverallCollectionRate))
		a.out.printf("Attendance %d of %d students (%s), %d staff\n",
			d.PresentStudents, d.TotalStudents, pct(v.AttendanceRate), d.TotalStaff)
		if len(v.Months) > 0 {
			a.out.printf("\n")
			rows := make([][]string, 0, len(v.Months))
			for _, m := range v.Months {
				rows = append(rows, []string{m.MonthName, m.PaidFees.Format(), m.PendingFees.Format(), pct(m.Rate)})
			}
			a.out.table([]string{"MONTH", "PAID", "PENDING", "RATE"}, rows)
		}
		if len(d.DailyFeeSummary) > 0 {
			a.out.printf("\n")
			rows := make([][]string, 0, len(d.DailyFeeSummary)+1)
			for _, day := range d.DailyFeeSummary {
				rows = append(rows, []string{day.Date.Format(time.DateOnly), day.Paid.Format(), day.Pending.Format()})
			}
			rows = append(rows, []string{"Total", v.DailyPaid.Format(), v.DailyPending.Format()})
			a.out.table([]string{"DATE", "PAID", "PENDING"}, rows)
		}
	})
}

func pct(n int) string {
	return strconv.Itoa(n) + "%"
}
