package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestGenerateExternalReference(t *testing.T) {
	tests := []struct {
		name      string
		monthRef  string
		amount    decimal.Decimal
		phone     string
		apartment string
		expected  string
	}{
		{
			name:      "individual plan",
			monthRef:  "2025-01",
			amount:    decimal.NewFromFloat(70.00),
			phone:     "5511999999999",
			apartment: "101",
			expected:  "PIX|2025-01|70.00|5511999999999|101",
		},
		{
			name:      "amount keeps two decimals",
			monthRef:  "2025-12",
			amount:    decimal.NewFromFloat(100),
			phone:     "5511888887777",
			apartment: "42B",
			expected:  "PIX|2025-12|100.00|5511888887777|42B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateExternalReference(tt.monthRef, tt.amount, tt.phone, tt.apartment)
			if got != tt.expected {
				t.Errorf("GenerateExternalReference() = %q; want %q", got, tt.expected)
			}
		})
	}
}

func TestCreatePIXPayment(t *testing.T) {
	var gotPath, gotIdempotencyKey, gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotIdempotencyKey = r.Header.Get("X-Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 123456789,
			"status": "pending",
			"point_of_interaction": {
				"transaction_data": {
					"qr_code": "00020126pixcode",
					"qr_code_base64": "aW1hZ2U="
				}
			}
		}`))
	}))
	defer srv.Close()

	svc := &MercadoPagoService{
		apiURL:      srv.URL,
		accessToken: "test-token",
		client:      &http.Client{Timeout: 5 * time.Second},
	}

	charge, err := svc.CreatePIXPayment(context.Background(), CreatePIXParams{
		Amount:            decimal.NewFromFloat(70.00),
		Description:       "Pagamento PIX - Condo Sol - Bloco B - Apto 101 - 2025-01",
		ExternalReference: "PIX|2025-01|70.00|5511999999999|101",
		ExpirationHours:   6,
		NotificationURL:   "http://localhost:8080/webhooks/mercadopago",
		IdempotencyKey:    "req-1",
	})
	require.NoError(t, err)
	require.Equal(t, "/payments", gotPath)
	require.Equal(t, "req-1", gotIdempotencyKey)
	require.Equal(t, "Bearer test-token", gotAuth)
	require.Equal(t, 70.0, gotBody["transaction_amount"])
	require.Equal(t, "pix", gotBody["payment_method_id"])
	require.Equal(t, "PIX|2025-01|70.00|5511999999999|101", gotBody["external_reference"])
	require.Equal(t, "123456789", charge.MPPaymentID)
	require.Equal(t, "pending", charge.Status)
	require.Equal(t, "00020126pixcode", charge.PixCode)
	require.Equal(t, "aW1hZ2U=", charge.QRCodeBase64)
}

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payments/PAY123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 987654321, "status": "approved", "status_detail": "accredited"}`))
	}))
	defer srv.Close()

	svc := &MercadoPagoService{
		apiURL:      srv.URL,
		accessToken: "test-token",
		client:      &http.Client{Timeout: 5 * time.Second},
	}

	payment, err := svc.GetPayment(context.Background(), "PAY123")
	require.NoError(t, err)
	require.Equal(t, "approved", payment.Status)
	require.Equal(t, "accredited", payment.StatusDetail)
}

func TestGetPaymentHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"payment not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	svc := &MercadoPagoService{
		apiURL:      srv.URL,
		accessToken: "test-token",
		client:      &http.Client{Timeout: 5 * time.Second},
	}

	_, err := svc.GetPayment(context.Background(), "MISSING")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 404")
}
