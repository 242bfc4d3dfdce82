package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"opsdesk/internal/http/middleware"
	"opsdesk/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeErrorFields(c, status, code, message, nil)
}

func writeErrorFields(c *fiber.Ctx, status int, code, message string, fields map[string]string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
			Fields:  fields,
		},
	}
	return c.Status(status).JSON(res)
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// Checked in order; the first match wins.
var serviceErrors = []errorMapping{
	{service.ErrIDRequired, fiber.StatusBadRequest, "INVALID_ID"},
	{service.ErrReaderNil, fiber.StatusBadRequest, "FILE_REQUIRED"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{service.ErrInvalidCredentials, fiber.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{service.ErrAccountDisabled, fiber.StatusUnauthorized, "ACCOUNT_DISABLED"},
	{service.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{service.ErrEmailTaken, fiber.StatusConflict, "EMAIL_TAKEN"},
	{service.ErrOverlappingLeave, fiber.StatusConflict, "LEAVE_OVERLAP"},
	{service.ErrLeaveNotPending, fiber.StatusConflict, "LEAVE_NOT_PENDING"},
	{service.ErrLeaveNotCancellable, fiber.StatusConflict, "LEAVE_NOT_CANCELLABLE"},
	{service.ErrProjectClosed, fiber.StatusConflict, "PROJECT_CLOSED"},
	{service.ErrSelfAction, fiber.StatusUnprocessableEntity, "SELF_ACTION"},
	{service.ErrDailyLimit, fiber.StatusUnprocessableEntity, "DAILY_LIMIT_EXCEEDED"},
	{service.ErrInsufficientBalance, fiber.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"},
}

// serviceError translates a service error into a response. Unknown errors are returned
// unchanged so the request logger records them and ErrorHandler answers 500.
func serviceError(c *fiber.Ctx, err error) error {
	var re *requestError
	if errors.As(err, &re) {
		return writeError(c, fiber.StatusBadRequest, re.code, re.message)
	}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return writeErrorFields(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "validation failed", ve.Map())
	}
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return writeError(c, m.status, m.code, err.Error())
		}
	}
	return err
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := ""
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
			message = e.Message
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", message)
		case fiber.StatusForbidden:
			return writeError(c, status, "FORBIDDEN", message)
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusTooManyRequests:
			return writeError(c, status, "RATE_LIMITED", "too many requests")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
