package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/UMS-P-2025/coursework-service/internal/services"
	"github.com/UMS-P-2025/coursework-service/internal/utils"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse wraps successful payloads.
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries shared handler plumbing.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs with the request-scoped logger when available.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c.Request.Context(), h.logger).Info(msg, args...)
}

// parseIDParam parses a numeric path parameter; on failure it writes the 400
// response and returns 0.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// handleServiceError maps service sentinel errors onto status codes with
// stable reason strings. Internal detail is logged, never returned.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var capErr *services.CapacityError
	if errors.As(err, &capErr) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Subject has reached maximum capacity",
			Details: capErr.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrInvalidRubric),
		errors.Is(err, services.ErrFileRequired):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})

	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrExpiredToken),
		errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Invalid email or password",
		})

	// Like bad credentials, a pending account refuses login with 401; no
	// token exists to make the request merely forbidden.
	case errors.Is(err, services.ErrPendingApproval):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Account is pending admin approval",
		})

	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrNotApprovedFaculty),
		errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "You do not have permission to perform this action",
		})

	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
		})

	case errors.Is(err, services.ErrDuplicateIdentity):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Username or email already registered",
		})

	case errors.Is(err, services.ErrDuplicateCode):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Subject code already exists",
		})

	case errors.Is(err, services.ErrAlreadyDecided),
		errors.Is(err, services.ErrNotFaculty):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Approval request already decided",
			Details: err.Error(),
		})

	case errors.Is(err, services.ErrSubjectInactive):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Subject is not open for enrollment",
		})

	case errors.Is(err, services.ErrAlreadyEnrolled):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Already enrolled in this subject",
		})

	case errors.Is(err, services.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Subject has reached maximum capacity",
		})

	case errors.Is(err, services.ErrNotEnrolled):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "You are not enrolled in this subject",
		})

	case errors.Is(err, services.ErrDuplicateSubmission):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Project already submitted for this subject",
		})

	default:
		utils.FromContext(c.Request.Context(), h.logger).Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
