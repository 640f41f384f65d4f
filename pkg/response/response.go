package response

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "foodshare/pkg/errors"
	"foodshare/pkg/logger"
)

type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorInfo struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Paginated(c echo.Context, items interface{}, total int64, page, pageSize int) error {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}

	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Timestamp: now(),
		Data: PaginatedResponse{
			Items:      items,
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	})
}

func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return handleValidationError(c, validationErr)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error().Err(appErr.Err).Str("code", appErr.Code).Str("path", c.Path()).Msg(appErr.Message)
		}
		return fail(c, appErr.Status, appErr.Code, appErr.Message)
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code := apperrors.CodeBadRequest
		switch httpErr.Code {
		case http.StatusUnauthorized:
			code = apperrors.CodeUnauthorized
		case http.StatusNotFound:
			code = apperrors.CodeNotFound
		case http.StatusForbidden:
			code = apperrors.CodeForbidden
		}
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		return fail(c, httpErr.Code, code, message)
	}

	logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	return fail(c, http.StatusInternalServerError, apperrors.CodeInternal, "An unexpected error occurred")
}

func handleValidationError(c echo.Context, validationErr validator.ValidationErrors) error {
	return fail(c, http.StatusBadRequest, apperrors.CodeValidation, ValidationMessage(validationErr))
}

// ValidationMessage describes the first failed field of validationErr.
func ValidationMessage(validationErr validator.ValidationErrors) string {
	for _, err := range validationErr {
		field := strings.ToLower(err.Field())
		param := err.Param()

		switch err.Tag() {
		case "required":
			return field + " is required"
		case "min":
			return field + " must be at least " + param
		case "max":
			return field + " must be at most " + param
		case "oneof":
			return field + " must be one of: " + param
		case "nefield":
			return field + " must differ from " + strings.ToLower(param)
		default:
			return field + " is invalid"
		}
	}

	return "Invalid input data"
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Response{
		Success:   false,
		Timestamp: now(),
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
