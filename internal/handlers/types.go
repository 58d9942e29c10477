package handlers

import (
	"time"

	"github.com/labstack/echo/v4"
)

// APIError carries a machine-readable error in the response envelope
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
}

// APIResponse is the envelope every JSON endpoint answers with
type APIResponse struct {
	Success   bool        `json:"success"`
	RequestID string      `json:"request_id"`
	Action    string      `json:"action"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func successResponse(c echo.Context, action string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		RequestID: requestID(c),
		Action:    action,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func errorResponse(c echo.Context, action, code, message, source string) APIResponse {
	return APIResponse{
		Success:   false,
		RequestID: requestID(c),
		Action:    action,
		Error:     &APIError{Code: code, Message: message, Source: source},
		Timestamp: time.Now().UTC(),
	}
}
