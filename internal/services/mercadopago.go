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

	"github.com/shopspring/decimal"
)

// MercadoPagoService talks to the Mercado Pago payments REST API
type MercadoPagoService struct {
	apiURL      string
	accessToken string
	client      *http.Client
}

func NewMercadoPagoService() *MercadoPagoService {
	url := os.Getenv("MERCADOPAGO_API_URL")
	if url == "" {
		url = "https://api.mercadopago.com/v1"
	}
	return &MercadoPagoService{
		apiURL:      url,
		accessToken: os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// CreatePIXParams carries everything needed to create a PIX charge
type CreatePIXParams struct {
	Amount            decimal.Decimal
	Description       string
	ExternalReference string
	ExpirationHours   int
	NotificationURL   string
	IdempotencyKey    string
}

// PIXCharge is the subset of the Mercado Pago payment we act on after
// creating a charge
type PIXCharge struct {
	MPPaymentID  string
	Status       string
	PixCode      string
	QRCodeBase64 string
}

// ProcessorPayment is the authoritative status fetched back during
// webhook reconciliation
type ProcessorPayment struct {
	Status       string
	StatusDetail string
}

type mpPaymentResponse struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	StatusDetail       string      `json:"status_detail"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// GenerateExternalReference builds the deterministic reference used both
// as the processor idempotency key and for reconciliation lookups.
// Format: PIX|YYYY-MM|AMOUNT|PHONE|APARTMENT
func GenerateExternalReference(monthRef string, amount decimal.Decimal, phone, apartment string) string {
	return fmt.Sprintf("PIX|%s|%s|%s|%s", monthRef, amount.StringFixed(2), phone, apartment)
}

func (s *MercadoPagoService) doRequest(ctx context.Context, method, path string, payload interface{}, idempotencyKey string) (*mpPaymentResponse, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.apiURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed mpPaymentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &parsed, nil
}

// CreatePIXPayment creates a PIX charge with an expiration window and
// asks Mercado Pago to notify our webhook endpoint
func (s *MercadoPagoService) CreatePIXPayment(ctx context.Context, p CreatePIXParams) (*PIXCharge, error) {
	expiration := time.Now().UTC().Add(time.Duration(p.ExpirationHours) * time.Hour)

	payload := map[string]interface{}{
		"transaction_amount": p.Amount.InexactFloat64(),
		"description":        p.Description,
		"payment_method_id":  "pix",
		"external_reference": p.ExternalReference,
		"date_of_expiration": expiration.Format("2006-01-02T15:04:05.000") + "Z",
		"notification_url":   p.NotificationURL,
	}

	idempotencyKey := p.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = p.ExternalReference
	}

	resp, err := s.doRequest(ctx, http.MethodPost, "/payments", payload, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("mercadopago create payment: %w", err)
	}

	return &PIXCharge{
		MPPaymentID:  resp.ID.String(),
		Status:       resp.Status,
		PixCode:      resp.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64: resp.PointOfInteraction.TransactionData.QRCodeBase64,
	}, nil
}

// GetPayment fetches the authoritative payment status by Mercado Pago id
func (s *MercadoPagoService) GetPayment(ctx context.Context, mpPaymentID string) (*ProcessorPayment, error) {
	resp, err := s.doRequest(ctx, http.MethodGet, "/payments/"+mpPaymentID, nil, "")
	if err != nil {
		return nil, fmt.Errorf("mercadopago get payment %s: %w", mpPaymentID, err)
	}

	return &ProcessorPayment{
		Status:       resp.Status,
		StatusDetail: resp.StatusDetail,
	}, nil
}
