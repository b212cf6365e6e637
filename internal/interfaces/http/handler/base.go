package handler

import (
	"context"
	"errors"
	"net/http"

	feeapp "github.com/alfalah/schooladmin/internal/application/fee"
	printapp "github.com/alfalah/schooladmin/internal/application/printing"
	"github.com/alfalah/schooladmin/internal/domain/shared"
	"github.com/alfalah/schooladmin/internal/infrastructure/apiclient"
	"github.com/alfalah/schooladmin/internal/infrastructure/logger"
	infra "github.com/alfalah/schooladmin/internal/infrastructure/printing"
	"github.com/alfalah/schooladmin/internal/interfaces/http/dto"
	"github.com/alfalah/schooladmin/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// HandleError maps application, API client and renderer errors to responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, code, message := classify(err)
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("request failed",
			zap.Int("status", status),
			zap.String("code", code),
			zap.Error(err))
	}
	h.Error(c, status, code, message)
}

func classify(err error) (status int, code, message string) {
	var (
		domainErr *shared.DomainError
		renderErr *infra.RenderError
		reqErr    *apiclient.RequestError
	)
	switch {
	case errors.As(err, &renderErr):
		if renderErr.Code == infra.ErrCodeRenderTimeout {
			return http.StatusGatewayTimeout, dto.ErrCodeRenderFailed, renderErr.Message
		}
		return http.StatusInternalServerError, dto.ErrCodeRenderFailed, renderErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, dto.ErrCodeUpstreamTimeout, "The school API did not respond in time"
	case errors.Is(err, feeapp.ErrPaymentInFlight):
		return http.StatusConflict, feeapp.CodePaymentInFlight, feeapp.ErrPaymentInFlight.Message
	case errors.Is(err, printapp.ErrRendererUnavailable):
		return http.StatusServiceUnavailable, dto.ErrCodeRendererUnavailable, "PDF output is not available on this server"
	case errors.As(err, &domainErr):
		switch {
		case domainErr.Validation:
			return http.StatusBadRequest, domainErr.Code, domainErr.Message
		case errors.Is(err, shared.ErrNotFound):
			return http.StatusNotFound, dto.ErrCodeNotFound, domainErr.Message
		}
		return http.StatusConflict, domainErr.Code, domainErr.Message
	case apiclient.IsNotFound(err):
		return http.StatusNotFound, dto.ErrCodeNotFound, apiclient.UserMessage(err)
	case errors.As(err, &reqErr):
		return http.StatusBadGateway, dto.ErrCodeUpstream, apiclient.UserMessage(err)
	}
	return http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"
}
