package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/school"
	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
	"github.com/go-playground/validator/v10"
)

// CodeInvalidPayload marks API responses or requests that fail boundary validation
const CodeInvalidPayload = "INVALID_PAYLOAD"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("money_nonneg", func(fl validator.FieldLevel) bool {
		m, ok := fl.Field().Interface().(valueobject.Money)
		return ok && !m.IsNegative()
	})
	_ = v.RegisterValidation("money_pos", func(fl validator.FieldLevel) bool {
		m, ok := fl.Field().Interface().(valueobject.Money)
		return ok && m.IsPositive()
	})
	return v
}

// checkPayload validates a wire struct and reports the first failing field
func checkPayload(what string, payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return shared.NewValidationError(CodeInvalidPayload,
			fmt.Sprintf("%s: field %s failed %q", what, fe.Namespace(), fe.Tag()))
	}
	return shared.NewValidationError(CodeInvalidPayload, fmt.Sprintf("%s: %v", what, err))
}

func invalidForm(msg string) error {
	return shared.NewValidationError(CodeInvalidPayload, msg)
}

// flexTime accepts RFC 3339 timestamps, plain dates and null
type flexTime struct {
	time.Time
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02", "2006-01-02 15:04:05"}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

func (t flexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

func (t flexTime) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// flexInt accepts a JSON number, a numeric string or null
type flexInt struct {
	Value int
	Set   bool
}

func (n *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return nil
		}
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	n.Value, n.Set = v, true
	return nil
}

func (n flexInt) ptr() *int {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}

// wireClassRef is either a bare class id or a populated class object
type wireClassRef struct {
	ID      string `json:"_id"`
	Grade   string `json:"grade"`
	Section string `json:"section"`
}

func (c *wireClassRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &c.ID)
	}
	type plain wireClassRef
	return json.Unmarshal(data, (*plain)(c))
}

func (c wireClassRef) toDomain() school.ClassRef {
	return school.ClassRef{ID: c.ID, Grade: c.Grade, Section: c.Section}
}

type wireStudent struct {
	ID            string       `json:"_id"`
	StudentID     string       `json:"studentId"`
	Name          string       `json:"name" validate:"required"`
	RollNumber    string       `json:"rollNumber"`
	ClassID       wireClassRef `json:"classId"`
	Gender        string       `json:"gender"`
	GuardianName  string       `json:"guardianName"`
	GuardianPhone string       `json:"guardianPhone"`
	Address       string       `json:"address"`
	Photo         string       `json:"photo"`
}

func (s wireStudent) toDomain() school.Student {
	return school.Student{
		ID:            s.ID,
		StudentID:     s.StudentID,
		Name:          s.Name,
		RollNumber:    s.RollNumber,
		Class:         s.ClassID.toDomain(),
		Gender:        s.Gender,
		GuardianName:  s.GuardianName,
		GuardianPhone: s.GuardianPhone,
		Address:       s.Address,
		Photo:         s.Photo,
	}
}

type wireBreakdown struct {
	AdmissionFee    valueobject.Money `json:"admissionFee" validate:"money_nonneg"`
	AnnualCharges   valueobject.Money `json:"annualCharges" validate:"money_nonneg"`
	SecurityCard    valueobject.Money `json:"securityCard" validate:"money_nonneg"`
	PaperFund       valueobject.Money `json:"paperFund" validate:"money_nonneg"`
	OtherDues       valueobject.Money `json:"otherDues" validate:"money_nonneg"`
	MonthlyFee      valueobject.Money `json:"monthlyFee" validate:"money_nonneg"`
	MonthlyFeeMonth flexInt           `json:"monthlyFeeMonth"`
	MonthlyFeeYear  flexInt           `json:"monthlyFeeYear"`
}

func (b wireBreakdown) toDomain() fee.AdmissionBreakdown {
	return fee.AdmissionBreakdown{
		AdmissionFee:    b.AdmissionFee,
		AnnualCharges:   b.AnnualCharges,
		SecurityCard:    b.SecurityCard,
		PaperFund:       b.PaperFund,
		OtherDues:       b.OtherDues,
		MonthlyFee:      b.MonthlyFee,
		MonthlyFeeMonth: b.MonthlyFeeMonth.ptr(),
		MonthlyFeeYear:  b.MonthlyFeeYear.ptr(),
	}
}

func breakdownToWire(b fee.AdmissionBreakdown) wireBreakdown {
	w := wireBreakdown{
		AdmissionFee:  b.AdmissionFee,
		AnnualCharges: b.AnnualCharges,
		SecurityCard:  b.SecurityCard,
		PaperFund:     b.PaperFund,
		OtherDues:     b.OtherDues,
		MonthlyFee:    b.MonthlyFee,
	}
	if b.MonthlyFeeMonth != nil {
		w.MonthlyFeeMonth = flexInt{Value: *b.MonthlyFeeMonth, Set: true}
	}
	if b.MonthlyFeeYear != nil {
		w.MonthlyFeeYear = flexInt{Value: *b.MonthlyFeeYear, Set: true}
	}
	return w
}

// MarshalJSON writes month/year as numbers and omits them when unset
func (n flexInt) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(n.Value)), nil
}

type wirePartialPayment struct {
	Amount          valueobject.Money `json:"amount" validate:"money_pos"`
	Date            flexTime          `json:"date"`
	ReceivedBy      string            `json:"receivedBy"`
	PaymentMethod   string            `json:"paymentMethod"`
	ReferenceNumber string            `json:"referenceNumber,omitempty"`
	Remarks         string            `json:"remarks,omitempty"`
}

type wireVoucher struct {
	ID              string               `json:"_id"`
	VoucherNumber   string               `json:"voucherNumber" validate:"required"`
	StudentID       string               `json:"studentId"`
	StudentName     string               `json:"studentName"`
	FeeType         string               `json:"feeType" validate:"oneof=monthly admission"`
	Amount          valueobject.Money    `json:"amount" validate:"money_nonneg"`
	PaidAmount      valueobject.Money    `json:"paidAmount" validate:"money_nonneg"`
	IsPaid          bool                 `json:"isPaid"`
	Month           flexInt              `json:"month"`
	Year            flexInt              `json:"year"`
	Details         *wireBreakdown       `json:"details"`
	CreatedAt       flexTime             `json:"createdAt"`
	PaymentDate     flexTime             `json:"paymentDate"`
	PartialPayments []wirePartialPayment `json:"partialPayments" validate:"dive"`
}

// toDomain converts a validated wire voucher into the tagged variant,
// normalizing the isPaid override so that isPaid implies no balance.
func (w wireVoucher) toDomain(studentID string) (fee.Voucher, error) {
	if err := checkPayload("voucher "+w.VoucherNumber, w); err != nil {
		return fee.Voucher{}, err
	}

	v := fee.Voucher{
		ID:            w.ID,
		VoucherNumber: w.VoucherNumber,
		StudentID:     w.StudentID,
		StudentName:   w.StudentName,
		FeeType:       fee.FeeType(w.FeeType),
		Amount:        w.Amount,
		PaidAmount:    w.PaidAmount,
		IsPaid:        w.IsPaid,
		CreatedAt:     w.CreatedAt.Time,
		PaymentDate:   w.PaymentDate.ptr(),
	}
	if v.StudentID == "" {
		v.StudentID = studentID
	}
	switch v.FeeType {
	case fee.FeeTypeMonthly:
		v.Period = &valueobject.Period{Month: w.Month.Value, Year: w.Year.Value}
	case fee.FeeTypeAdmission:
		if w.Details != nil {
			d := w.Details.toDomain()
			v.Details = &d
		}
	}
	for _, p := range w.PartialPayments {
		v.PartialPayments = append(v.PartialPayments, fee.PartialPayment{
			Amount:          p.Amount,
			Date:            p.Date.Time,
			ReceivedBy:      p.ReceivedBy,
			PaymentMethod:   fee.PaymentMethod(p.PaymentMethod),
			ReferenceNumber: p.ReferenceNumber,
			Remarks:         p.Remarks,
		})
	}

	v = fee.Normalize(v)
	if err := v.Validate(); err != nil {
		return fee.Voucher{}, err
	}
	return v, nil
}

func vouchersToDomain(ws []wireVoucher, studentID string) ([]fee.Voucher, error) {
	out := make([]fee.Voucher, 0, len(ws))
	for _, w := range ws {
		v, err := w.toDomain(studentID)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type wireBucket struct {
	Paid    valueobject.Money `json:"paid"`
	Pending valueobject.Money `json:"pending"`
	Details []wireVoucher     `json:"details"`
}

func (b wireBucket) toDomain(studentID string) (fee.FeeBucket, error) {
	details, err := vouchersToDomain(b.Details, studentID)
	if err != nil {
		return fee.FeeBucket{}, err
	}
	return fee.FeeBucket{Paid: b.Paid, Pending: b.Pending, Details: details}, nil
}

type wireStudentSummary struct {
	Student       wireStudent `json:"student"`
	MonthlyFees   wireBucket  `json:"monthlyFees"`
	AdmissionFees wireBucket  `json:"admissionFees"`
	Overall       struct {
		TotalFees   valueobject.Money `json:"totalFees"`
		PaidFees    valueobject.Money `json:"paidFees"`
		PendingFees valueobject.Money `json:"pendingFees"`
	} `json:"overall"`
	FeeHistory []wireVoucher `json:"feeHistory"`
}

func (w wireStudentSummary) toDomain() (fee.StudentFeeSummary, error) {
	student := w.Student.toDomain()
	monthly, err := w.MonthlyFees.toDomain(student.StudentID)
	if err != nil {
		return fee.StudentFeeSummary{}, err
	}
	admission, err := w.AdmissionFees.toDomain(student.StudentID)
	if err != nil {
		return fee.StudentFeeSummary{}, err
	}
	history, err := vouchersToDomain(w.FeeHistory, student.StudentID)
	if err != nil {
		return fee.StudentFeeSummary{}, err
	}
	return fee.StudentFeeSummary{
		Student:   student,
		Monthly:   monthly,
		Admission: admission,
		Overall: fee.OverallTotals{
			TotalFees:   w.Overall.TotalFees,
			PaidFees:    w.Overall.PaidFees,
			PendingFees: w.Overall.PendingFees,
		},
		FeeHistory: history,
	}, nil
}

type wireClassSummary struct {
	ClassName       string            `json:"className"`
	TotalStudents   int               `json:"totalStudents" validate:"gte=0"`
	PaidStudents    int               `json:"paidStudents" validate:"gte=0"`
	PendingStudents int               `json:"pendingStudents" validate:"gte=0"`
	TotalFees       valueobject.Money `json:"totalFees" validate:"money_nonneg"`
	PaidFees        valueobject.Money `json:"paidFees" validate:"money_nonneg"`
	PendingFees     valueobject.Money `json:"pendingFees" validate:"money_nonneg"`
	Vouchers        []wireVoucher     `json:"vouchers"`
}

type wireFeeCollection struct {
	Paid            valueobject.Money `json:"paid"`
	Pending         valueobject.Money `json:"pending"`
	PaidStudents    int               `json:"paidStudents"`
	PendingStudents int               `json:"pendingStudents"`
}

func (c wireFeeCollection) toDomain() fee.FeeCollection {
	return fee.FeeCollection(c)
}

type wireDashboard struct {
	TotalStudents   int               `json:"totalStudents" validate:"gte=0"`
	PresentStudents int               `json:"presentStudents" validate:"gte=0"`
	TotalStaff      int               `json:"totalStaff" validate:"gte=0"`
	MonthlyFee      wireFeeCollection `json:"monthlyFee"`
	AdmissionFee    wireFeeCollection `json:"admissionFee"`
	StaffSalary     struct {
		Paid              valueobject.Money `json:"paid"`
		Pending           valueobject.Money `json:"pending"`
		PaidStaffCount    int               `json:"paidStaffCount"`
		PendingStaffCount int               `json:"pendingStaffCount"`
	} `json:"staffSalary"`
	MonthlyFeeYearSummary []struct {
		MonthName   string            `json:"monthName"`
		PaidFees    valueobject.Money `json:"paidFees"`
		PendingFees valueobject.Money `json:"pendingFees"`
	} `json:"monthlyFeeYearSummary"`
	DailyFeeSummary []struct {
		Date    flexTime          `json:"date"`
		Paid    valueobject.Money `json:"paid"`
		Pending valueobject.Money `json:"pending"`
	} `json:"dailyFeeSummary"`
}

func (w wireDashboard) toDomain() fee.DashboardSummary {
	d := fee.DashboardSummary{
		TotalStudents:   w.TotalStudents,
		PresentStudents: w.PresentStudents,
		TotalStaff:      w.TotalStaff,
		MonthlyFee:      w.MonthlyFee.toDomain(),
		AdmissionFee:    w.AdmissionFee.toDomain(),
		StaffSalary: fee.SalaryCollection{
			Paid:              w.StaffSalary.Paid,
			Pending:           w.StaffSalary.Pending,
			PaidStaffCount:    w.StaffSalary.PaidStaffCount,
			PendingStaffCount: w.StaffSalary.PendingStaffCount,
		},
	}
	for _, m := range w.MonthlyFeeYearSummary {
		d.MonthlyFeeYearSummary = append(d.MonthlyFeeYearSummary, fee.MonthFeeSummary{
			MonthName: m.MonthName, PaidFees: m.PaidFees, PendingFees: m.PendingFees,
		})
	}
	for _, day := range w.DailyFeeSummary {
		d.DailyFeeSummary = append(d.DailyFeeSummary, fee.DailyFeeSummary{
			Date: day.Date.Time, Paid: day.Paid, Pending: day.Pending,
		})
	}
	return d
}
