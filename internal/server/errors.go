package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	allocationdomain "github.com/summitgrid/corebank/internal/allocation/domain"
	ledgerdomain "github.com/summitgrid/corebank/internal/ledger/domain"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	// Category routing failures are semantic, not syntactic: the request
	// parsed fine but names a category no ledger serves.
	case errors.Is(err, ledgerdomain.ErrUnsupportedResourceCategory):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unsupported_resource_category",
			Message: "unsupported resource category",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    notFoundCode(err),
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "rate limited",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger the coarse type and the
// stable code of whatever a handler aborted with.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	switch {
	case status == http.StatusBadRequest:
		return "validation_error", code
	case status == http.StatusNotFound:
		return "not_found", code
	case status == http.StatusUnprocessableEntity:
		return "unsupported_category", code
	case status == http.StatusConflict:
		return "conflict", code
	case status == http.StatusTooManyRequests:
		return "rate_limited", code
	case status >= http.StatusInternalServerError:
		return "internal_error", code
	default:
		return payload.Type, code
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isRegistryValidationError(err),
		isAllocationValidationError(err),
		isAdjustmentValidationError(err),
		isUsageValidationError(err),
		isAlertValidationError(err):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, registrydomain.ErrProjectNotFound),
		errors.Is(err, registrydomain.ErrResourceNotFound),
		errors.Is(err, registrydomain.ErrAccountNotFound),
		errors.Is(err, allocationdomain.ErrAllocationNotFound),
		errors.Is(err, allocationdomain.ErrParentNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// notFoundCode keeps the specific sentinel visible in the payload;
// dashboards distinguish a dead account from a dead allocation.
func notFoundCode(err error) string {
	switch {
	case errors.Is(err, registrydomain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, registrydomain.ErrProjectNotFound):
		return "project_not_found"
	case errors.Is(err, registrydomain.ErrResourceNotFound):
		return "resource_not_found"
	case errors.Is(err, allocationdomain.ErrAllocationNotFound):
		return "allocation_not_found"
	case errors.Is(err, allocationdomain.ErrParentNotFound):
		return "parent_not_found"
	default:
		return "not_found"
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, registrydomain.ErrDuplicateProject),
		errors.Is(err, registrydomain.ErrDuplicateResource),
		errors.Is(err, registrydomain.ErrDuplicateAccount):
		return true
	default:
		return false
	}
}

// validationErrorCode digs down to the root sentinel so wrapped errors
// still surface their stable snake_case code.
func validationErrorCode(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_date_range":
		return "start_date must not be after end_date"
	default:
		return "invalid value"
	}
}
