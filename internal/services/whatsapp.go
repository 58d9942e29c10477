package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// WhatsAppService talks to the WhatsApp Cloud API (graph.facebook.com)
type WhatsAppService struct {
	apiURL        string
	phoneNumberID string
	accessToken   string
	client        *http.Client
}

func NewWhatsAppService() *WhatsAppService {
	url := os.Getenv("WHATSAPP_API_URL")
	if url == "" {
		url = "https://graph.facebook.com/v18.0"
	}
	return &WhatsAppService{
		apiURL:        url,
		phoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
		accessToken:   os.Getenv("WHATSAPP_ACCESS_TOKEN"),
		client:        &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *WhatsAppService) postMessages(ctx context.Context, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.apiURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// SendTextMessage sends a plain text message to a phone number with
// country code (e.g. "5511999999999")
func (s *WhatsAppService) SendTextMessage(ctx context.Context, to, text string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                NormalizePhone(to),
		"type":              "text",
		"text":              map[string]string{"body": text},
	}

	if err := s.postMessages(ctx, payload); err != nil {
		return fmt.Errorf("failed to send text message: %w", err)
	}
	return nil
}

// MarkMessageAsRead flags an inbound message as read so the sender sees
// the double blue check
func (s *WhatsAppService) MarkMessageAsRead(ctx context.Context, messageID string) error {
	payload := map[string]string{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}

	if err := s.postMessages(ctx, payload); err != nil {
		return fmt.Errorf("failed to mark message as read: %w", err)
	}
	return nil
}

// NormalizePhone strips everything but digits from a phone number
func NormalizePhone(phone string) string {
	out := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			out = append(out, phone[i])
		}
	}
	return string(out)
}
