package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/infrastructure/apiclient"
)

var studentCommands = map[string]subcommand{
	"list":   {usage: "[-q text]", run: runStudentsList},
	"show":   {usage: "<studentId>", run: runStudentsShow},
	"add":    {usage: "-id <studentId> -name <name> -roll <no> -class <classId> [details]", run: runStudentsAdd},
	"update": {usage: "[details] <id>", run: runStudentsUpdate},
	"delete": {usage: "<id>", run: runStudentsDelete},
}

var classCommands = map[string]subcommand{
	"list":   {usage: "", run: runClassesList},
	"show":   {usage: "<classId>", run: runClassesShow},
	"add":    {usage: "-name \"5 - A\" [-room no] [-in-charge name]", run: runClassesAdd},
	"delete": {usage: "<classId>", run: runClassesDelete},
}

var staffCommands = map[string]subcommand{
	"list":   {usage: "", run: runStaffList},
	"show":   {usage: "<staffId>", run: runStaffShow},
	"add":    {usage: "-name <name> -salary <amount> [details]", run: runStaffAdd},
	"update": {usage: "-name <name> -salary <amount> [details] <staffId>", run: runStaffUpdate},
	"delete": {usage: "<staffId>", run: runStaffDelete},
	"pay":    {usage: "[-month m] [-year y] [-amount n] <staffId>", run: runStaffPay},
}

func printStudents(a *app, students []school.Student) error {
	return a.out.result(students, func() {
		rows := make([][]string, 0, len(students))
		for _, st := range students {
			rows = append(rows, []string{st.StudentID, st.Name, st.RollNumber, st.Class.Label(), st.GuardianName, st.GuardianPhone})
		}
		a.out.table([]string{"ID", "NAME", "ROLL", "CLASS", "GUARDIAN", "PHONE"}, rows)
	})
}

func runStudentsList(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("students list")
	query := fs.String("q", "", "Search by name, id or roll number")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	students, err := a.school.Students(ctx, *query)
	if err != nil {
		return err
	}
	return printStudents(a, students)
}

func runStudentsShow(ctx context.Context, a *app, args []string) error {
	pos, err := parseArgs(newFlagSet("students show"), args, 1)
	if err != nil {
		return err
	}
	st, err := a.school.Student(ctx, pos[0])
	if err != nil {
		return err
	}
	return printStudents(a, []school.Student{st})
}

// studentFlags binds the student form; -photo names an image file to upload
func studentFlags(fs *flag.FlagSet) func() (apiclient.StudentForm, error) {
	var form apiclient.StudentForm
	fs.StringVar(&form.StudentID, "id", "", "Five digit student id")
	fs.StringVar(&form.Name, "name", "", "Student name")
	fs.StringVar(&form.RollNumber, "roll", "", "Roll number")
	fs.StringVar(&form.ClassID, "class", "", "Class id")
	fs.StringVar(&form.Gender, "gender", "", "Gender")
	fs.StringVar(&form.GuardianName, "guardian", "", "Guardian name")
	fs.StringVar(&form.GuardianPhone, "phone", "", "Guardian phone")
	fs.StringVar(&form.Address, "address", "", "Address")
	photo := fs.String("photo", "", "Photo file")
	return func() (apiclient.StudentForm, error) {
		if *photo != "" {
			data, err := os.ReadFile(*photo)
			if err != nil {
				return form, err
			}
			form.Photo, form.PhotoName = data, filepath.Base(*photo)
		}
		return form, nil
	}
}

func runStudentsAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("students add")
	build := studentFlags(fs)
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	form, err := build()
	if err != nil {
		return err
	}
	st, err := a.school.AddStudent(ctx, form)
	if err != nil {
		return err
	}
	return printStudents(a, []school.Student{st})
}

func runStudentsUpdate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("students update")
	build := studentFlags(fs)
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	form, err := build()
	if err != nil {
		return err
	}
	st, err := a.school.UpdateStudent(ctx, pos[0], form)
	if err != nil {
		return err
	}
	return printStudents(a, []school.Student{st})
}

func runStudentsDelete(ctx context.Context, a *app, args []string) error {
	pos, err := parseArgs(newFlagSet("students delete"), args, 1)
	if err != nil {
		return err
	}
	return a.school.DeleteStudent(ctx, pos[0])
}

func runClassesList(ctx context.Context, a *app, args []string) error {
	if _, err := parseArgs(newFlagSet("classes list"), args, 0); err != nil {
		return err
	}
	classes, err := a.school.Classes(ctx)
	if err != nil {
		return err
	}
	return a.out.result(classes, func() {
		rows := make([][]string, 0, len(classes))
		for _, c := range classes {
			rows = append(rows, []string{c.ID, c.Label(), c.RoomNumber, c.InCharge, strconv.Itoa(len(c.Students))})
		}
		a.out.table([]string{"ID", "CLASS", "ROOM", "IN CHARGE", "STUDENTS"}, rows)
	})
}

func runClassesShow(ctx context.Context, a *app, args []string) error {
	pos, err := parseArgs(newFlagSet("classes show"), args, 1)
	if err != nil {
		return err
	}
	c, err := a.school.Class(ctx, pos[0])
	if err != nil {
		return err
	}
	return a.out.result(c, func() {
		a.out.printf("%s  room %s  in charge %s\n\n", c.Label(), c.RoomNumber, c.InCharge)
		rows := make([][]string, 0, len(c.Students))
		for _, st := range c.Students {
			rows = append(rows, []string{st.RollNumber, st.StudentID, st.Name, st.GuardianName})
		}
		a.out.table([]string{"ROLL", "ID", "NAME", "GUARDIAN"}, rows)
	})
}

func runClassesAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("classes add")
	name := fs.String("name", "", "Class name as \"grade - section\"")
	room := fs.String("room", "", "Room number")
	inCharge := fs.String("in-charge", "", "Class teacher")
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	c, err := a.school.AddClass(ctx, *name, *room, *inCharge)
	if err != nil {
		return err
	}
	return a.out.result(c, func() {
		a.out.printf("%s\t%s\n", c.ID, c.Label())
	})
}

func runClassesDelete(ctx context.Context, a *app, args []string) error {
	pos, err := parseArgs(newFlagSet("classes delete"), args, 1)
	if err != nil {
		return err
	}
	return a.school.DeleteClass(ctx, pos[0])
}

func printStaff(a *app, staff []school.Staff) error {
	return a.out.result(staff, func() {
		rows := make([][]string, 0, len(staff))
		for _, s := range staff {
			rows = append(rows, []string{s.ID, s.Name, s.Role, s.Phone, s.Salary.Format()})
		}
		a.out.table([]string{"ID", "NAME", "ROLE", "PHONE", "SALARY"}, rows)
	})
}

func runStaffList(ctx context.Context, a *app, args []string) error {
	if _, err := parseArgs(newFlagSet("staff list"), args, 0); err != nil {
		return err
	}
	staff, err := a.school.Staff(ctx)
	if err != nil {
		return err
	}
	return printStaff(a, staff)
}

func runStaffShow(ctx context.Context, a *app, args []string) error {
	pos, err := parseArgs(newFlagSet("staff show"), args, 1)
	if err != nil {
		return err
	}
	s, err := a.school.StaffMember(ctx, pos[0])
	if err != nil {
		return err
	}
	return a.out.result(s, func() {
		_ = printStaff(a, []school.Staff{s})
		if len(s.SalaryHistory) == 0 {
			return
		}
		a.out.printf("\n")
		rows := make([][]string, 0, len(s.SalaryHistory))
		for _, p := range s.SalaryHistory {
			rows = append(rows, []string{p.Period.String(), p.Amount.Format(), p.PaidAt.Format(time.DateOnly)})
		}
		a.out.table([]string{"PERIOD", "AMOUNT", "PAID ON"}, rows)
	})
}

func staffFlags(fs *flag.FlagSet) func() apiclient.StaffForm {
	var form apiclient.StaffForm
	var salary moneyFlag
	fs.StringVar(&form.Name, "name", "", "Name")
	fs.StringVar(&form.Phone, "phone", "", "Phone")
	fs.StringVar(&form.Address, "address", "", "Address")
	fs.StringVar(&form.Education, "education", "", "Education")
	fs.StringVar(&form.Role, "role", "", "Role")
	fs.Var(&salary, "salary", "Monthly salary")
	return func() apiclient.StaffForm {
		form.Salary = salary.m
		return form
	}
}

func runStaffAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("staff add")
	build := staffFlags(fs)
	if _, err := parseArgs(fs, args, 0); err != nil {
		return err
	}
	s, err := a.school.AddStaff(ctx, build())
	if err != nil {
		return err
	}
	return printStaff(a, []school.Staff{s})
}

func runStaffUpdate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("staff update")
	build := staffFlags(fs)
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	s, err := a.school.UpdateStaff(ctx, pos[0], build())
	if err != nil {
		return err
	}
	return printStaff(a, []school.Staff{s})
}

func runStaffDelete(ctx context.Context, a *app, args []string) error {
	pos, err := parseArgs(newFlagSet("staff delete"), args, 1)
	if err != nil {
		return err
	}
	return a.school.DeleteStaff(ctx, pos[0])
}

func runStaffPay(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("staff pay")
	month, year := periodFlags(fs, time.Now())
	var amount moneyFlag
	fs.Var(&amount, "amount", "Amount, default the monthly salary")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return err
	}
	s, payment, err := a.school.PaySalary(ctx, pos[0], *month, *year, amount.m)
	if err != nil {
		return err
	}
	return a.out.result(payment, func() {
		a.out.printf("Paid %s to %s for %s\n", payment.Amount.Format(), s.Name, payment.Period.String())
	})
}
