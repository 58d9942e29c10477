package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CustomErrorHandler renders every uncaught error as the JSON envelope
// the rest of the API uses
func CustomErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "Something went wrong. Please try again later."

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		}
	}

	c.Logger().Error(err)

	if c.Response().Committed {
		return
	}

	_ = c.JSON(code, map[string]interface{}{
		"success":    false,
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		"error": map[string]string{
			"code":    http.StatusText(code),
			"message": message,
		},
	})
}
