package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"condopix_app/internal/models"
)

// PIXService issues PIX charges: it upserts the client, guards against a
// second charge for an already-paid month, creates the charge at Mercado
// Pago and delivers the copia-e-cola code over WhatsApp.
type PIXService struct {
	clients     ClientStore
	payments    PaymentStore
	processor   PaymentProcessor
	messenger   Messenger
	mirror      AuditMirror // may be nil when no spreadsheet is configured
	baseURL     string
	expiryHours int
}

func NewPIXService(clients ClientStore, payments PaymentStore, processor PaymentProcessor, messenger Messenger, mirror AuditMirror, baseURL string, expiryHours int) *PIXService {
	if expiryHours <= 0 {
		expiryHours = 6
	}
	return &PIXService{
		clients:     clients,
		payments:    payments,
		processor:   processor,
		messenger:   messenger,
		mirror:      mirror,
		baseURL:     baseURL,
		expiryHours: expiryHours,
	}
}

// PIXResult reports the outcome of a charge issuance. Success false with
// a reason is an informational outcome, not an error.
type PIXResult struct {
	Success     bool
	Reason      string
	ClientID    uint
	PaymentID   uint
	RequestID   string
	MPPaymentID string
	PixCode     string
	Amount      decimal.Decimal
	MonthRef    string
	ExpiryHours int
}

// GenerateAndSendPIX runs the full issuance flow. On failure a
// best-effort apology is sent to the payer and the original error is
// returned to the caller.
func (s *PIXService) GenerateAndSendPIX(ctx context.Context, req ChargeRequest) (*PIXResult, error) {
	result, err := s.generateAndSend(ctx, req)
	if err != nil {
		log.Printf("PIX generation failed for %s: %v", req.Phone, err)

		apology := "❌ Desculpe, ocorreu um erro ao gerar seu PIX.\n\n" +
			"Por favor, tente novamente em alguns minutos ou entre em contato com a administração."
		if sendErr := s.messenger.SendTextMessage(ctx, req.Phone, apology); sendErr != nil {
			log.Printf("Failed to send error message to %s: %v", req.Phone, sendErr)
		}

		return nil, err
	}
	return result, nil
}

func (s *PIXService) generateAndSend(ctx context.Context, req ChargeRequest) (*PIXResult, error) {
	client, created, err := s.clients.GetOrCreate(ctx, &models.Client{
		Name:      req.Name,
		Phone:     req.Phone,
		Condo:     req.Condo,
		Block:     req.Block,
		Apartment: req.Apartment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert client: %w", err)
	}
	if created {
		log.Printf("Created client %d for phone %s", client.ID, client.Phone)
	}

	monthRef := req.MonthRef
	if monthRef == "" {
		monthRef = time.Now().UTC().Format("2006-01")
	}

	existing, err := s.payments.GetApprovedForMonth(ctx, client.ID, monthRef)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing payment: %w", err)
	}
	if existing != nil {
		log.Printf("Client %d already has approved payment %d for %s", client.ID, existing.ID, monthRef)

		message := fmt.Sprintf("Você já possui um pagamento aprovado para %s.\n\n"+
			"Se tiver alguma dúvida, entre em contato com a administração.", monthRef)
		if err := s.messenger.SendTextMessage(ctx, req.Phone, message); err != nil {
			return nil, fmt.Errorf("failed to send already-paid notice: %w", err)
		}

		return &PIXResult{
			Success:   false,
			Reason:    "payment_exists",
			ClientID:  client.ID,
			PaymentID: existing.ID,
			RequestID: existing.RequestID,
			MonthRef:  monthRef,
		}, nil
	}

	requestID := uuid.New().String()
	externalReference := GenerateExternalReference(monthRef, req.Amount, req.Phone, req.Apartment)
	description := fmt.Sprintf("Pagamento PIX - %s - Bloco %s - Apto %s - %s",
		req.Condo, req.Block, req.Apartment, monthRef)

	charge, err := s.processor.CreatePIXPayment(ctx, CreatePIXParams{
		Amount:            req.Amount,
		Description:       description,
		ExternalReference: externalReference,
		ExpirationHours:   s.expiryHours,
		NotificationURL:   s.baseURL + "/webhooks/mercadopago",
		IdempotencyKey:    requestID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PIX payment: %w", err)
	}

	if charge.PixCode == "" {
		return nil, fmt.Errorf("no PIX code returned for payment %s", charge.MPPaymentID)
	}

	payment := &models.Payment{
		RequestID:         requestID,
		ClientID:          client.ID,
		MonthRef:          monthRef,
		Amount:            req.Amount,
		Status:            models.PaymentStatusPending,
		MPPaymentID:       charge.MPPaymentID,
		ExternalReference: externalReference,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment record: %w", err)
	}

	if s.mirror != nil {
		if err := s.mirror.AppendPaymentRow(ctx, PaymentRow{
			RequestID:   requestID,
			Name:        req.Name,
			Phone:       req.Phone,
			Condo:       req.Condo,
			Block:       req.Block,
			Apartment:   req.Apartment,
			MonthRef:    monthRef,
			Amount:      req.Amount,
			Status:      string(models.PaymentStatusPending),
			MPPaymentID: charge.MPPaymentID,
		}); err != nil {
			log.Printf("Failed to mirror payment %s to sheet: %v", requestID, err)
		}
	}

	pixMessage := fmt.Sprintf("✅ PIX gerado com sucesso!\n\n"+
		"💰 Valor: R$ %s\n"+
		"📅 Referência: %s\n"+
		"🏢 %s - Bloco %s - Apto %s\n\n"+
		"🔑 Código PIX Copia e Cola:\n\n"+
		"%s\n\n"+
		"⏰ Este PIX expira em %d horas.\n\n"+
		"Após o pagamento, você receberá a confirmação automaticamente.",
		req.Amount.StringFixed(2), monthRef, req.Condo, req.Block, req.Apartment,
		charge.PixCode, s.expiryHours)

	if err := s.messenger.SendTextMessage(ctx, req.Phone, pixMessage); err != nil {
		return nil, fmt.Errorf("failed to deliver PIX code: %w", err)
	}

	log.Printf("PIX generated and sent: client=%d payment=%d mp_payment=%s", client.ID, payment.ID, charge.MPPaymentID)

	return &PIXResult{
		Success:     true,
		ClientID:    client.ID,
		PaymentID:   payment.ID,
		RequestID:   requestID,
		MPPaymentID: charge.MPPaymentID,
		PixCode:     charge.PixCode,
		Amount:      req.Amount,
		MonthRef:    monthRef,
		ExpiryHours: s.expiryHours,
	}, nil
}
