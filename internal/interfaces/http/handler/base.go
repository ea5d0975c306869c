package handler

import (
	"net/http"

	"github.com/TOMBRITO1979/restaurante-sub001/internal/domain/shared"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/infrastructure/logger"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/interfaces/http/dto"
	"github.com/TOMBRITO1979/restaurante-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// HandleError converts an error to the response of its kind. Internal errors
// are logged; their text never reaches the client.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status := dto.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("Request failed", zap.Error(err))
		_ = c.Error(err)
	}
	c.JSON(status, dto.ErrorResponseOf(err, middleware.GetRequestID(c)))
}

// BindJSON binds the body into dst and answers 400 on failure
func (h *BaseHandler) BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.HandleError(c, shared.Validation("INVALID_REQUEST", "%s", middleware.ValidationMessage(err)))
		return false
	}
	return true
}

// PathID parses the :id path parameter and answers 400 when it is not a UUID
func (h *BaseHandler) PathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "INVALID_ID", "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

// namespace is the tenant resolved by the tenant middleware
func namespace(c *gin.Context) string {
	return middleware.GetTenantNamespace(c)
}
