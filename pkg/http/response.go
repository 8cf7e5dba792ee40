package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorDetail describes a failed request. Fields carries field-scoped
// validation messages, keyed by the offending input, so a UI can highlight
// them.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"trace_id"`
}

func ErrorJSON(c echo.Context, status int, code, message, traceID string, fields map[string]string) error {
	return c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Fields: fields}, TraceID: traceID})
}

// Unauthorized writes the uniform credential-failure body. Every credential
// failure uses this one shape so callers cannot tell which check tripped.
func Unauthorized(c echo.Context, traceID string) error {
	return ErrorJSON(c, http.StatusUnauthorized, "unauthorized", "unauthorized", traceID, nil)
}
