package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/identity"
	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddStudent_Multipart(t *testing.T) {
	name := gofakeit.Name()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, name, r.FormValue("name"))
		assert.Equal(t, "c1", r.FormValue("classId"))
		f, hdr, err := r.FormFile("photo")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "me.png", hdr.Filename)

		_ = json.NewEncoder(w).Encode(map[string]any{"student": map[string]any{
			"_id": "s9", "studentId": "10009", "name": name, "classId": "c1",
		}})
	}))

	s, err := c.AddStudent(context.Background(), StudentForm{
		Name: name, ClassID: "c1", RollNumber: "7", PhotoName: "me.png", Photo: []byte{0x89, 'P', 'N', 'G'},
	})
	require.NoError(t, err)
	assert.Equal(t, "10009", s.StudentID)
	assert.Equal(t, "c1", s.Class.ID)

	_, err = c.AddStudent(context.Background(), StudentForm{Name: name})
	assert.True(t, shared.IsValidation(err))
}

func TestStudentsAndClasses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/students", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"studentId":"10001","name":"Ali","classId":{"_id":"c1","grade":"5","section":"A"}}]`)
	})
	mux.HandleFunc("GET /api/total-students", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"total":312}`)
	})
	mux.HandleFunc("GET /api/class/c1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"_id":"c1","grade":"5","section":"A","students":[{"studentId":"10001","name":"Ali"}]}`)
	})
	mux.HandleFunc("POST /api/add-class", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"newClass":{"_id":"c2","grade":"6","section":"B"}}`)
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	students, err := c.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "5 - A", students[0].Class.Label())

	total, err := c.TotalStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 312, total)

	class, err := c.GetClass(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, class.Students, 1)
	assert.Equal(t, "5 - A", class.Students[0].Class.Label())

	added, err := c.AddClass(ctx, ClassForm{Grade: "6", Section: "B"})
	require.NoError(t, err)
	assert.Equal(t, "6 - B", added.Label())

	_, err = c.AddClass(ctx, ClassForm{Grade: "6"})
	assert.True(t, shared.IsValidation(err))
}

func TestStaffEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/staff-count", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"count":14}`)
	})
	mux.HandleFunc("POST /api/staff/st1/pay-salary", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 3.0, body["month"])
		assert.Equal(t, 45000.0, body["amount"])
		_, _ = io.WriteString(w, `{"staff":{"_id":"st1","name":"Bilal","salary":45000,
		  "salaryHistory":[{"month":3,"year":2025,"amount":45000,"paidAt":"2025-03-31T10:00:00Z"}]}}`)
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	count, err := c.StaffCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 14, count)

	p, err := school.NewSalaryPayment(3, 2025, valueobject.NewMoneyFromInt(45000), time.Now())
	require.NoError(t, err)
	staff, err := c.PaySalary(ctx, "st1", p)
	require.NoError(t, err)
	assert.True(t, staff.PaidFor(valueobject.Period{Month: 3, Year: 2025}))

	_, err = c.AddStaff(ctx, StaffForm{Name: "Bilal"})
	assert.True(t, shared.IsValidation(err))
}

func TestMarkAttendance(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch body["studentId"] {
		case "10001":
			_, _ = io.WriteString(w, `{"message":"Attendance marked"}`)
		case "10002":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"message":"Attendance already marked for today"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	ctx := context.Background()

	require.NoError(t, c.MarkAttendance(ctx, "10001"))

	err := c.MarkAttendance(ctx, "10002")
	assert.True(t, errors.Is(err, ErrAlreadyMarked))
	assert.Equal(t, "Attendance already marked for today", UserMessage(err))

	err = c.MarkAttendance(ctx, "99999")
	assert.True(t, IsNotFound(err))
	assert.False(t, errors.Is(err, ErrAlreadyMarked))
}

func TestAttendanceRecords(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-03-01", r.URL.Query().Get("startDate"))
		assert.Equal(t, "2025-03-31", r.URL.Query().Get("endDate"))
		_, _ = io.WriteString(w, `[{"date":"2025-03-03T03:10:00.000Z","time":"08:10:00"},{"date":"2025-03-04","time":"08:05:00"}]`)
	}))

	r, err := school.NewDateRange(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	records, err := c.AttendanceRecords(context.Background(), "10001", r)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "10001", records[0].StudentID)
	assert.Equal(t, 4, records[1].Date.Day())
}

func TestDashboardSummary(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"totalStudents":300,"presentStudents":270,"totalStaff":14,
		  "monthlyFee":{"paid":450000,"pending":50000,"paidStudents":270,"pendingStudents":30},
		  "admissionFee":{"paid":0,"pending":0},
		  "staffSalary":{"paid":300000,"pending":100000,"paidStaffCount":10,"pendingStaffCount":4},
		  "monthlyFeeYearSummary":[{"monthName":"January","paidFees":400000,"pendingFees":20000}],
		  "dailyFeeSummary":[{"date":"2025-03-01","paid":15000,"pending":0}]}`)
	}))

	r, err := school.NewDateRange(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	d, err := c.DashboardSummary(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 300, d.TotalStudents)
	assert.True(t, d.MonthlyFee.Paid.Equals(valueobject.NewMoneyFromInt(450000)))
	assert.Equal(t, 4, d.StaffSalary.PendingStaffCount)
	require.Len(t, d.DailyFeeSummary, 1)
	assert.Equal(t, 1, d.DailyFeeSummary[0].Date.Day())
}

func TestAuthEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds identity.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"user":{"_id":"u1","firstName":"Sara","lastName":"Ahmed","email":"sara@school.pk"}}`)
	})
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"newUser":{"_id":"u2","firstName":"Ali","lastName":"Khan","email":"ali@school.pk"}}`)
	})
	mux.HandleFunc("POST /api/auth/update-password", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u1", body["userId"])
		assert.NotContains(t, body, "confirmPassword")
		_, _ = io.WriteString(w, `{"message":"Password updated"}`)
	})
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"_id":"u1","email":"sara@school.pk"}]`)
	})
	mux.HandleFunc("DELETE /api/users/u1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"message":"deleted"}`)
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	u, err := c.Login(ctx, identity.Credentials{Email: "sara@school.pk", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Sara Ahmed", u.FullName())

	_, err = c.Login(ctx, identity.Credentials{Email: "sara@school.pk", Password: "wrong"})
	assert.Equal(t, "Invalid credentials", UserMessage(err))

	reg, err := identity.NewRegistration("Ali", "Khan", "ali@school.pk", "secret1")
	require.NoError(t, err)
	u, err = c.Register(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, "u2", u.ID)

	pc, err := identity.NewPasswordChange("u1", "secret1", "secret2", "secret2")
	require.NoError(t, err)
	require.NoError(t, c.UpdatePassword(ctx, pc))

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	require.NoError(t, c.DeleteUser(ctx, "u1"))
}

func TestChat(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch body["message"] {
		case "When are fees due?":
			_, _ = io.WriteString(w, `{"reply":"Fees are due by the 10th of each month."}`)
		case "silent":
			_, _ = io.WriteString(w, `{}`)
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, `{"message":"Assistant unavailable"}`)
		}
	})
	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	reply, err := c.Chat(ctx, "When are fees due?")
	require.NoError(t, err)
	assert.Equal(t, "Fees are due by the 10th of each month.", reply)

	_, err = c.Chat(ctx, "silent")
	assert.True(t, shared.IsValidation(err), "a reply without text is a bad payload")

	_, err = c.Chat(ctx, "anything else")
	assert.Equal(t, "Assistant unavailable", UserMessage(err))

	before := calls
	_, err = c.Chat(ctx, "")
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, before, calls, "an empty message is not sent")
}
