package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler handles the health endpoint
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	pdf       bool
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. pdf reports whether a PDF
// renderer is configured.
func NewSystemHandler(name, version string, pdf bool) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		pdf:       pdf,
		startTime: time.Now(),
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Name      string `json:"name" example:"schooladmin-printserver"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
	PDF       bool   `json:"pdf"`
}

// Health reports that the print server is up
//
//	@Summary	Health check
//	@Tags		system
//	@Router		/health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, HealthResponse{
		Status:    "ok",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		PDF:       h.pdf,
	})
}
