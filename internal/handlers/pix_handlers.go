package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"condopix_app/internal/models"
	"condopix_app/internal/services"
)

// PIXCreateRequest is the direct charge API body. The plan code is
// resolved against the catalog; arbitrary amounts are not accepted.
type PIXCreateRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Condo     string `json:"condo"`
	Block     string `json:"block"`
	Apartment string `json:"apartment"`
	Plan      string `json:"plan"`
	MonthRef  string `json:"month_ref,omitempty"`
}

type PIXHandler struct {
	pix      *services.PIXService
	payments services.PaymentStore
}

func NewPIXHandler(pix *services.PIXService, payments services.PaymentStore) *PIXHandler {
	return &PIXHandler{pix: pix, payments: payments}
}

// CreatePIX issues a charge without the conversation flow, for
// administrative use
func (h *PIXHandler) CreatePIX(c echo.Context) error {
	var req PIXCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	for field, value := range map[string]string{
		"name":      req.Name,
		"phone":     req.Phone,
		"condo":     req.Condo,
		"block":     req.Block,
		"apartment": req.Apartment,
		"plan":      req.Plan,
	} {
		if strings.TrimSpace(value) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "Missing required field: "+field)
		}
	}

	plan, ok := models.LookupPlan(req.Plan)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid plan code: "+req.Plan)
	}

	result, err := h.pix.GenerateAndSendPIX(c.Request().Context(), services.ChargeRequest{
		Phone:     services.NormalizePhone(req.Phone),
		Name:      req.Name,
		Condo:     req.Condo,
		Block:     req.Block,
		Apartment: req.Apartment,
		PlanCode:  plan.Code,
		Amount:    plan.Price,
		MonthRef:  req.MonthRef,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError,
			errorResponse(c, "create_pix", "PIX_CREATION_FAILED", err.Error(), "pix_service"))
	}

	if !result.Success {
		return c.JSON(http.StatusBadRequest,
			errorResponse(c, "create_pix", "PAYMENT_EXISTS",
				"Client already has an approved payment for "+result.MonthRef, "pix_service"))
	}

	return c.JSON(http.StatusOK, successResponse(c, "create_pix", map[string]interface{}{
		"client_id":        result.ClientID,
		"payment_id":       result.PaymentID,
		"request_id":       result.RequestID,
		"mp_payment_id":    result.MPPaymentID,
		"pix_code":         result.PixCode,
		"amount":           result.Amount.StringFixed(2),
		"month_ref":        result.MonthRef,
		"expiration_hours": result.ExpiryHours,
	}))
}

// PaymentStatus looks up a payment by its request id
func (h *PIXHandler) PaymentStatus(c echo.Context) error {
	requestID := c.Param("request_id")

	payment, err := h.payments.GetByRequestID(c.Request().Context(), requestID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError,
			errorResponse(c, "payment_status", "LOOKUP_FAILED", err.Error(), "payment_store"))
	}
	if payment == nil {
		return c.JSON(http.StatusNotFound,
			errorResponse(c, "payment_status", "PAYMENT_NOT_FOUND", "No payment for request id "+requestID, "payment_store"))
	}

	data := map[string]interface{}{
		"request_id":    payment.RequestID,
		"mp_payment_id": payment.MPPaymentID,
		"status":        payment.Status,
		"amount":        payment.Amount.StringFixed(2),
		"month_ref":     payment.MonthRef,
		"created_at":    payment.CreatedAt,
	}
	if payment.PaidAt != nil {
		data["paid_at"] = payment.PaidAt
	}

	return c.JSON(http.StatusOK, successResponse(c, "payment_status", data))
}
