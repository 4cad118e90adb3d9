package response

import (
	"techtrust-backend/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
)

// SuccessBody is the standardized success JSON shape.
type SuccessBody struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// ErrorBody is the standardized error JSON shape.
type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

// ErrorDetail is the nested error object.
type ErrorDetail struct {
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Details    interface{} `json:"details,omitempty"`
}

const statusSuccess = "success"
const statusError = "error"

func success(c *fiber.Ctx, code int, message string, data, metadata interface{}) error {
	if metadata == nil {
		metadata = fiber.Map{}
	}
	return c.Status(code).JSON(SuccessBody{Status: statusSuccess, Message: message, Data: data, Metadata: metadata})
}

// Success answers 200 with the success envelope.
func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return success(c, fiber.StatusOK, message, data, metadata)
}

// SuccessCreated answers 201 with the success envelope.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return success(c, fiber.StatusCreated, message, data, metadata)
}

// Error answers statusCode with the error envelope.
func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	if details == nil {
		details = fiber.Map{}
	}
	body := ErrorBody{Status: statusError}
	body.Error = ErrorDetail{Message: message, StatusCode: statusCode, Details: details}
	return c.Status(statusCode).JSON(body)
}

// Unauthorized answers 401 with the error envelope.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, nil)
}

// StatusFor maps an error kind to its HTTP status. Foreign errors are 500.
func StatusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindConfirmation:
		return fiber.StatusBadRequest
	case apperrors.KindAuthRequired:
		return fiber.StatusUnauthorized
	case apperrors.KindForbidden:
		return fiber.StatusForbidden
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindUpload:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// FromError sends err in the standard error format. Details carry the error kind and,
// for validation errors, the offending field. Causes are never exposed.
func FromError(c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	details := map[string]interface{}{}
	if kind := apperrors.KindOf(err); kind != "" {
		details["kind"] = kind
	}
	if field := apperrors.FieldOf(err); field != "" {
		details["field"] = field
	}
	return Error(c, apperrors.Message(err, "Internal Server Error"), code, details)
}
