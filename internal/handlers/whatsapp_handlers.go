package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"condopix_app/internal/services"
)

// WhatsAppWebhook mirrors the Meta Cloud API webhook payload, down to the
// fields we act on
type WhatsAppWebhook struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Value struct {
				Messages []WhatsAppMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type WhatsAppMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
}

type WhatsAppHandler struct {
	conversation *services.ConversationService
	pix          *services.PIXService
	verifyToken  string
}

func NewWhatsAppHandler(conversation *services.ConversationService, pix *services.PIXService, verifyToken string) *WhatsAppHandler {
	return &WhatsAppHandler{conversation: conversation, pix: pix, verifyToken: verifyToken}
}

// VerifyWebhook answers Meta's verification handshake: it checks the
// shared verify token and echoes the challenge back as plain text
func (h *WhatsAppHandler) VerifyWebhook(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	challenge := c.QueryParam("hub.challenge")
	token := c.QueryParam("hub.verify_token")

	if token != h.verifyToken {
		log.Printf("Webhook verification failed: invalid token")
		return echo.NewHTTPError(http.StatusForbidden, "Invalid verify token")
	}
	if mode != "subscribe" {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid mode")
	}

	return c.String(http.StatusOK, challenge)
}

// ReceiveWebhook processes inbound chat messages. Each message is an
// independent unit of work: one failing never stops the others.
func (h *WhatsAppHandler) ReceiveWebhook(c echo.Context) error {
	var webhook WhatsAppWebhook
	if err := c.Bind(&webhook); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid webhook payload")
	}

	messages := extractMessages(webhook)
	processed := 0

	for _, msg := range messages {
		if msg.Type != "text" || msg.Text == nil {
			log.Printf("Skipping message %s of type %s", msg.ID, msg.Type)
			continue
		}
		text := strings.TrimSpace(msg.Text.Body)
		if text == "" {
			continue
		}

		result, err := h.conversation.HandleMessage(c.Request().Context(), msg.From, text, msg.ID)
		if err != nil {
			log.Printf("Failed to process message %s: %v", msg.ID, err)
			continue
		}

		if result.Charge != nil {
			// Terminal transition: the collected fields become a charge
			if _, err := h.pix.GenerateAndSendPIX(c.Request().Context(), *result.Charge); err != nil {
				log.Printf("Charge issuance failed for %s: %v", msg.From, err)
			}
		}

		processed++
	}

	return c.JSON(http.StatusOK, successResponse(c, "webhook_received", map[string]interface{}{
		"messages_processed": processed,
		"total_messages":     len(messages),
	}))
}

func extractMessages(webhook WhatsAppWebhook) []WhatsAppMessage {
	var messages []WhatsAppMessage
	for _, entry := range webhook.Entry {
		for _, change := range entry.Changes {
			messages = append(messages, change.Value.Messages...)
		}
	}
	return messages
}
