package api

import (
	"errors"

	"github.com/go-playground/validator/v10"

	apperrors "foodshare/pkg/errors"
	"foodshare/pkg/response"
)

// CustomValidator plugs go-playground/validator into echo's c.Validate.
type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// ValidatePayload validates a decoded socket payload and converts failures to
// a VALIDATION_ERROR so they can travel in an error event.
func (cv *CustomValidator) ValidatePayload(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return apperrors.Validation(response.ValidationMessage(validationErr))
	}
	return apperrors.BadRequest("Invalid payload", err)
}
