package handlers

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
)

type SystemHandler struct{}

func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

// Health reports liveness for load balancers and uptime checks
func (h *SystemHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, successResponse(c, "health_check", map[string]interface{}{
		"status":      "healthy",
		"environment": os.Getenv("APP_ENV"),
	}))
}

// Root identifies the service
func (h *SystemHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, successResponse(c, "root", map[string]interface{}{
		"message": "Condominium PIX payment automation API",
	}))
}
