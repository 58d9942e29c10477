package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"condopix_app/internal/models"
	"condopix_app/internal/services"
)

// MercadoPagoWebhook is the notification body Mercado Pago posts to us
type MercadoPagoWebhook struct {
	ID     json.Number `json:"id"`
	Action string      `json:"action"`
	Type   string      `json:"type"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

type MercadoPagoHandler struct {
	db        *gorm.DB
	processor *services.WebhookProcessor
}

func NewMercadoPagoHandler(db *gorm.DB, processor *services.WebhookProcessor) *MercadoPagoHandler {
	return &MercadoPagoHandler{db: db, processor: processor}
}

// ReceiveWebhook handles payment notifications. Mercado Pago retries on
// non-2xx, so this endpoint always answers 200 "OK" no matter what
// happened internally.
func (h *MercadoPagoHandler) ReceiveWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		log.Printf("Failed to read webhook body: %v", err)
		return c.String(http.StatusOK, "OK")
	}

	var webhook MercadoPagoWebhook
	if err := json.Unmarshal(body, &webhook); err != nil {
		log.Printf("Invalid Mercado Pago webhook payload: %v", err)
		return c.String(http.StatusOK, "OK")
	}

	h.recordCallback(webhook.ID.String(), body)

	if webhook.Type != "payment" {
		log.Printf("Ignoring Mercado Pago webhook of type %s", webhook.Type)
		return c.String(http.StatusOK, "OK")
	}

	result, err := h.processor.ProcessPaymentNotification(c.Request().Context(), webhook.Data.ID, webhook.ID.String())
	if err != nil {
		log.Printf("Webhook processing failed for notification %s: %v", webhook.ID.String(), err)
		return c.String(http.StatusOK, "OK")
	}

	log.Printf("Webhook %s processed: payment=%d updated=%v reason=%s",
		webhook.ID.String(), result.PaymentID, result.Updated, result.Reason)

	return c.String(http.StatusOK, "OK")
}

// recordCallback stores the raw payload for auditing; a write failure is
// logged and never blocks reconciliation
func (h *MercadoPagoHandler) recordCallback(notificationID string, body []byte) {
	history := models.PaymentCallbackHistory{
		Provider:       models.CallbackProviderMercadoPago,
		NotificationID: notificationID,
		Payload:        datatypes.JSON(body),
	}
	if err := h.db.Create(&history).Error; err != nil {
		log.Printf("Failed to record callback history: %v", err)
	}
}
