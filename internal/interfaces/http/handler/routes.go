package handler

import (
	"github.com/alfalah/schooladmin/internal/interfaces/http/router"
)

// FeeRoutes creates the versioned fee view and payment routes
func FeeRoutes(h *FeeHandler) *router.DomainGroup {
	group := router.NewDomainGroup("fees", "/fees")

	students := group.Group("students", "/students")
	students.GET("/:studentId", h.GetStudentFees)
	students.POST("/:studentId/vouchers/:voucherNumber/payments", h.RecordPayment)
	students.POST("/:studentId/vouchers/:voucherNumber/mark-paid", h.MarkPaid)

	group.GET("/classes/:classId", h.GetClassFees)
	return group
}

// PrintRoutes creates the unversioned document routes opened by the browser
func PrintRoutes(h *PrintHandler) *router.DomainGroup {
	group := router.NewDomainGroup("print", "/print")

	group.GET("/students/:studentId/vouchers/:voucherNumber", h.PrintVoucher)
	group.GET("/students/:studentId/pending", h.PrintPending)
	group.GET("/classes/:classId/vouchers", h.PrintClassVouchers)
	group.GET("/classes/:classId/roster", h.PrintClassRoster)
	group.GET("/staff/:staffId/salary-slip", h.PrintSalarySlip)
	group.GET("/document-types", h.DocumentTypes)

	return group
}

// SystemRoutes creates the health route
func SystemRoutes(h *SystemHandler) *router.DomainGroup {
	return router.NewDomainGroup("system", "").GET("/health", h.Health)
}
