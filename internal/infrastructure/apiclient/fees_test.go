package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfalah/schooladmin/internal/domain/fee"
	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/domain/shared/valueobject"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summaryJSON = `{
  "student": {"_id": "s1", "studentId": "10001", "name": "Ayesha Khan", "rollNumber": "12",
              "classId": {"_id": "c1", "grade": "5", "section": "A"}},
  "monthlyFees": {"paid": 1500, "pending": 500, "details": [
    {"_id": "v1", "voucherNumber": "V-001", "feeType": "monthly", "amount": 1500, "paidAmount": 1500,
     "isPaid": true, "month": 2, "year": 2025, "createdAt": "2025-02-01T08:00:00.000Z"},
    {"_id": "v2", "voucherNumber": "V-002", "feeType": "monthly", "amount": 1500, "paidAmount": 1000,
     "isPaid": false, "month": "3", "year": "2025",
     "partialPayments": [{"amount": 1000, "date": "2025-03-05", "receivedBy": "Cashier", "paymentMethod": "Cash"}]}
  ]},
  "admissionFees": {"paid": 0, "pending": 6700, "details": [
    {"_id": "v3", "voucherNumber": "A-001", "feeType": "admission", "amount": 6700, "paidAmount": 0, "isPaid": false,
     "details": {"admissionFee": 5000, "annualCharges": 1000, "securityCard": 500, "paperFund": 200,
                 "otherDues": 0, "monthlyFee": 0, "monthlyFeeMonth": null, "monthlyFeeYear": ""}}
  ]},
  "overall": {"totalFees": 9700, "paidFees": 2500, "pendingFees": 7200},
  "feeHistory": []
}`

func TestGetStudentFeeSummary(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/student-fee/summary/10001", r.URL.Path)
		_, _ = io.WriteString(w, summaryJSON)
	}))

	s, err := c.GetStudentFeeSummary(context.Background(), "10001")
	require.NoError(t, err)

	assert.Equal(t, "Ayesha Khan", s.Student.Name)
	assert.Equal(t, "5 - A", s.Student.Class.Label())
	require.Len(t, s.Monthly.Details, 2)

	partial := s.Monthly.Details[1]
	assert.Equal(t, valueobject.Period{Month: 3, Year: 2025}, *partial.Period)
	assert.Equal(t, "10001", partial.StudentID)
	require.Len(t, partial.PartialPayments, 1)
	assert.Equal(t, fee.PaymentMethodCash, partial.PartialPayments[0].PaymentMethod)
	assert.Equal(t, fee.StatusPartiallyPaid, fee.ClassifyStatus(partial))

	adm := s.Admission.Details[0]
	require.NotNil(t, adm.Details)
	assert.Nil(t, adm.Details.MonthlyFeeMonth)
	assert.Nil(t, adm.Details.MonthlyFeeYear)
	assert.True(t, adm.Amount.Equals(valueobject.NewMoneyFromInt(6700)))
	assert.Equal(t, 26, s.CollectionRate())
}

func TestGetStudentFeeSummary_NormalizesOverride(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"student":{"studentId":"10001","name":"Ali"},
		  "monthlyFees":{"paid":0,"pending":0,"details":[
		    {"voucherNumber":"V-9","feeType":"monthly","amount":2000,"paidAmount":500,"isPaid":true,"month":4,"year":2025}]},
		  "admissionFees":{"paid":0,"pending":0,"details":[]},
		  "overall":{"totalFees":2000,"paidFees":2000,"pendingFees":0}}`)
	}))

	s, err := c.GetStudentFeeSummary(context.Background(), "10001")
	require.NoError(t, err)
	v := s.Monthly.Details[0]
	assert.True(t, v.IsPaid)
	assert.True(t, v.PaidByOverride)
	assert.True(t, v.OverrideShortfall.Equals(valueobject.NewMoneyFromInt(1500)))
	assert.True(t, fee.ComputeRemaining(v).IsZero())
}

func TestGetStudentFeeSummary_RejectsBadVoucher(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"student":{"studentId":"10001","name":"Ali"},
		  "monthlyFees":{"details":[{"voucherNumber":"V-1","feeType":"monthly","amount":-5,"month":4,"year":2025}]}}`)
	}))

	_, err := c.GetStudentFeeSummary(context.Background(), "10001")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidPayload, shared.Code(err))
}

func TestGetStudentFeeSummary_MonthlyWithoutPeriod(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"student":{"studentId":"10001","name":"Ali"},
		  "monthlyFees":{"details":[{"voucherNumber":"V-1","feeType":"monthly","amount":100}]}}`)
	}))

	_, err := c.GetStudentFeeSummary(context.Background(), "10001")
	assert.Equal(t, fee.CodeInvalidVoucher, shared.Code(err))
}

func TestGetStudentFeeSummary_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Student not found"}`)
	}))

	_, err := c.GetStudentFeeSummary(context.Background(), "99999")
	assert.True(t, IsNotFound(err))
}

func TestGetClassFeeSummary(t *testing.T) {
	names := []string{gofakeit.Name(), gofakeit.Name()}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "c1", q.Get("classId"))
		assert.Equal(t, "3", q.Get("month"))
		assert.Equal(t, "2025", q.Get("year"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"className": "5 - A", "totalStudents": 2, "paidStudents": 1, "pendingStudents": 1,
			"totalFees": 3000, "paidFees": 1500, "pendingFees": 1500,
			"vouchers": []map[string]any{
				{"voucherNumber": "V-1", "studentId": "10001", "studentName": names[0], "feeType": "monthly", "amount": 1500, "paidAmount": 1500, "isPaid": true, "month": 3, "year": 2025},
				{"voucherNumber": "V-2", "studentId": "10002", "studentName": names[1], "feeType": "monthly", "amount": 1500, "paidAmount": 0, "isPaid": false, "month": 3, "year": 2025},
			},
		})
	}))

	s, err := c.GetClassFeeSummary(context.Background(), "c1", valueobject.Period{Month: 3, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "c1", s.ClassID)
	assert.Equal(t, 50, s.CollectionRate())
	require.Len(t, s.Vouchers, 2)
	assert.Equal(t, names[1], s.Vouchers[1].StudentName)
}

func TestGetVoucherDetails(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/student-fee/voucher-details/10001/V%2F1", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{"voucher":{"voucherNumber":"V/1","feeType":"monthly","amount":1500,"paidAmount":0,"month":3,"year":2025}}`)
	}))

	v, err := c.GetVoucherDetails(context.Background(), "10001", "V/1")
	require.NoError(t, err)
	assert.Equal(t, "V/1", v.VoucherNumber)
}

func TestGenerateVoucher_ValidatesBeforeSending(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	_, err := c.GenerateVoucher(context.Background(), NewMonthlyVoucherRequest("10001", valueobject.Zero(), valueobject.Period{Month: 3, Year: 2025}))
	assert.True(t, shared.IsValidation(err))

	_, err = c.GenerateVoucher(context.Background(), NewMonthlyVoucherRequest("10001", valueobject.NewMoneyFromInt(100), valueobject.Period{}))
	assert.True(t, shared.IsValidation(err))

	assert.Equal(t, int32(0), hits.Load())
}

func TestGenerateVoucher_Admission(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admission", body["feeType"])
		assert.Equal(t, 6700.0, body["amount"])
		details := body["feeDetails"].(map[string]any)
		assert.Equal(t, 5000.0, details["admissionFee"])
		assert.Nil(t, details["monthlyFeeMonth"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"voucher":{"voucherNumber":"A-7","feeType":"admission","amount":6700,"paidAmount":0,
		  "details":{"admissionFee":5000,"annualCharges":1000,"securityCard":500,"paperFund":200}}}`)
	}))

	b := fee.AdmissionBreakdown{
		AdmissionFee:  valueobject.NewMoneyFromInt(5000),
		AnnualCharges: valueobject.NewMoneyFromInt(1000),
		SecurityCard:  valueobject.NewMoneyFromInt(500),
		PaperFund:     valueobject.NewMoneyFromInt(200),
	}
	total, err := fee.ComputeAdmissionTotal(b)
	require.NoError(t, err)

	v, err := c.GenerateVoucher(context.Background(), NewAdmissionVoucherRequest("10001", b, total))
	require.NoError(t, err)
	assert.Equal(t, "A-7", v.VoucherNumber)
	assert.Equal(t, "10001", v.StudentID)
	assert.True(t, v.IsAdmission())
}

func TestSubmitPartialPayment(t *testing.T) {
	paidAt := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/student-fee/partial-payment/10001/V-002", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 500.0, body["amount"])
		assert.Equal(t, "Cashier", body["receivedBy"])
		assert.Equal(t, "Bank Transfer", body["paymentMethod"])
		assert.Equal(t, "2025-03-10T09:30:00Z", body["date"])
		_, _ = io.WriteString(w, `{"success":true,"message":"Payment recorded"}`)
	}))

	v := fee.Voucher{VoucherNumber: "V-002", StudentID: "10001", FeeType: fee.FeeTypeMonthly,
		Amount: valueobject.NewMoneyFromInt(1500), PaidAmount: valueobject.NewMoneyFromInt(1000),
		Period: &valueobject.Period{Month: 3, Year: 2025}}
	req, err := fee.RecordPartialPayment(v, valueobject.NewMoneyFromInt(500),
		fee.PaymentMeta{PaymentMethod: fee.PaymentMethodBankTransfer}, paidAt)
	require.NoError(t, err)

	res, err := c.SubmitPartialPayment(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Payment recorded", res.Message)
}

func TestMarkPaidAndDelete(t *testing.T) {
	var calls []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			var body map[string]bool
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.True(t, body["isPaid"])
		}
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	ctx := context.Background()

	require.NoError(t, c.MarkPaid(ctx, "10001", "V-1"))
	require.NoError(t, c.DeleteVoucher(ctx, "10001", "V-1"))
	assert.Equal(t, []string{
		"PUT /api/student-fee/update-status/10001/V-1",
		"DELETE /api/student-fee/delete-voucher/10001/V-1",
	}, calls)
}

func TestGenerateBulkMonthly(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "c1", body["classId"])
		assert.Equal(t, 3.0, body["month"])
		_, _ = io.WriteString(w, `{"success":true,"message":"Generated 28 vouchers","count":28}`)
	}))

	res, err := c.GenerateBulkMonthly(context.Background(), "c1", valueobject.Period{Month: 3, Year: 2025}, valueobject.NewMoneyFromInt(1500))
	require.NoError(t, err)
	assert.Equal(t, 28, res.Count)

	_, err = c.GenerateBulkMonthly(context.Background(), "c1", valueobject.Period{Month: 13, Year: 2025}, valueobject.NewMoneyFromInt(1500))
	assert.True(t, shared.IsValidation(err))
}

func TestEditVouchers(t *testing.T) {
	var paths []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true}`)
	}))
	ctx := context.Background()

	require.NoError(t, c.EditMonthly(ctx, "10001", "V-1", valueobject.NewMoneyFromInt(1800), valueobject.Period{Month: 4, Year: 2025}))
	b := fee.AdmissionBreakdown{AdmissionFee: valueobject.NewMoneyFromInt(4000)}
	require.NoError(t, c.EditAdmission(ctx, "10001", "A-1", b, valueobject.NewMoneyFromInt(4000)))
	assert.Equal(t, []string{
		"/api/student-fee/edit-monthly/10001/V-1",
		"/api/student-fee/edit-admission/10001/A-1",
	}, paths)
}
