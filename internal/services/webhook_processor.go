package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"condopix_app/internal/models"
)

// WebhookProcessor reconciles Mercado Pago payment notifications into the
// ledger. Processing is idempotent per (notificationID, mpPaymentID).
type WebhookProcessor struct {
	payments  PaymentStore
	markers   NotificationMarkerStore
	processor PaymentProcessor
	messenger Messenger
	mirror    AuditMirror // may be nil
}

func NewWebhookProcessor(payments PaymentStore, markers NotificationMarkerStore, processor PaymentProcessor, messenger Messenger, mirror AuditMirror) *WebhookProcessor {
	return &WebhookProcessor{
		payments:  payments,
		markers:   markers,
		processor: processor,
		messenger: messenger,
		mirror:    mirror,
	}
}

// ReconcileResult reports what one notification did to the ledger
type ReconcileResult struct {
	Processed      bool
	Reason         string
	PaymentID      uint
	OldStatus      models.PaymentStatus
	NewStatus      models.PaymentStatus
	Updated        bool
	NotificationID string
}

// ProcessPaymentNotification applies one notification. The marker insert
// doubles as the idempotency check: the first delivery claims the marker
// atomically, duplicates short-circuit. When processing fails after the
// claim, the marker is released so the processor's redelivery can retry.
func (p *WebhookProcessor) ProcessPaymentNotification(ctx context.Context, mpPaymentID, notificationID string) (*ReconcileResult, error) {
	inserted, err := p.markers.InsertIfAbsent(ctx, notificationID, mpPaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to record notification marker: %w", err)
	}
	if !inserted {
		log.Printf("Notification %s for payment %s already processed", notificationID, mpPaymentID)
		return &ReconcileResult{
			Processed:      false,
			Reason:         "already_processed",
			NotificationID: notificationID,
		}, nil
	}

	result, err := p.reconcile(ctx, mpPaymentID, notificationID)
	if err != nil {
		if removeErr := p.markers.Remove(ctx, notificationID, mpPaymentID); removeErr != nil {
			log.Printf("Failed to release marker for notification %s: %v", notificationID, removeErr)
		}
		return nil, err
	}
	return result, nil
}

func (p *WebhookProcessor) reconcile(ctx context.Context, mpPaymentID, notificationID string) (*ReconcileResult, error) {
	mpPayment, err := p.processor.GetPayment(ctx, mpPaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment status: %w", err)
	}

	log.Printf("Mercado Pago payment %s status=%s detail=%s", mpPaymentID, mpPayment.Status, mpPayment.StatusDetail)

	payment, err := p.payments.GetByMPPaymentID(ctx, mpPaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up payment: %w", err)
	}
	if payment == nil {
		// Keep the marker so repeated deliveries for an unknown payment
		// stop hitting the processor API
		log.Printf("Payment %s not found in database", mpPaymentID)
		return &ReconcileResult{
			Processed:      false,
			Reason:         "payment_not_found",
			NotificationID: notificationID,
		}, nil
	}

	oldStatus := payment.Status
	updated := false

	switch {
	case mpPayment.Status == string(models.PaymentStatusApproved) && payment.Status != models.PaymentStatusApproved:
		now := time.Now().UTC()
		if err := p.payments.UpdateStatus(ctx, payment, models.PaymentStatusApproved, mpPaymentID, &now); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// ux_payments_one_approved: the month already has an
				// approved payment, this one stays as it is
				log.Printf("Payment %d not approved: client %d already has an approved payment for %s",
					payment.ID, payment.ClientID, payment.MonthRef)
				return &ReconcileResult{
					Processed:      true,
					Reason:         "month_already_approved",
					PaymentID:      payment.ID,
					OldStatus:      oldStatus,
					NewStatus:      payment.Status,
					NotificationID: notificationID,
				}, nil
			}
			return nil, fmt.Errorf("failed to approve payment %d: %w", payment.ID, err)
		}
		updated = true

		log.Printf("Payment %d approved (mp_payment=%s)", payment.ID, mpPaymentID)
		p.mirrorStatus(ctx, payment.RequestID, models.PaymentStatusApproved, &now)
		p.sendConfirmation(ctx, payment)

	case (mpPayment.Status == string(models.PaymentStatusCancelled) || mpPayment.Status == string(models.PaymentStatusRejected)) &&
		payment.Status == models.PaymentStatusPending:
		newStatus := models.PaymentStatus(mpPayment.Status)
		if err := p.payments.UpdateStatus(ctx, payment, newStatus, mpPaymentID, nil); err != nil {
			return nil, fmt.Errorf("failed to update payment %d to %s: %w", payment.ID, newStatus, err)
		}
		updated = true

		log.Printf("Payment %d %s (detail=%s)", payment.ID, newStatus, mpPayment.StatusDetail)
		p.mirrorStatus(ctx, payment.RequestID, newStatus, nil)

	case mpPayment.Status == string(models.PaymentStatusPending) && payment.Status != models.PaymentStatusPending:
		if err := p.payments.UpdateStatus(ctx, payment, models.PaymentStatusPending, mpPaymentID, nil); err != nil {
			return nil, fmt.Errorf("failed to update payment %d to pending: %w", payment.ID, err)
		}
		updated = true
	}

	return &ReconcileResult{
		Processed:      true,
		PaymentID:      payment.ID,
		OldStatus:      oldStatus,
		NewStatus:      payment.Status,
		Updated:        updated,
		NotificationID: notificationID,
	}, nil
}

// sendConfirmation notifies the payer after approval. Delivery is
// best-effort: the ledger update already happened and is not rolled back.
func (p *WebhookProcessor) sendConfirmation(ctx context.Context, payment *models.Payment) {
	client := payment.Client

	message := fmt.Sprintf("✅ Pagamento confirmado!\n\n"+
		"💰 Valor: R$ %s\n"+
		"📅 Referência: %s\n"+
		"🏢 %s - Bloco %s - Apto %s\n\n"+
		"Obrigado pelo pagamento! Seu recibo está registrado no sistema.\n\n"+
		"ID do pagamento: %s",
		payment.Amount.StringFixed(2), payment.MonthRef,
		client.Condo, client.Block, client.Apartment,
		payment.MPPaymentID)

	if err := p.messenger.SendTextMessage(ctx, client.Phone, message); err != nil {
		log.Printf("Failed to send confirmation for payment %d: %v", payment.ID, err)
	}
}

func (p *WebhookProcessor) mirrorStatus(ctx context.Context, requestID string, status models.PaymentStatus, paidAt *time.Time) {
	if p.mirror == nil {
		return
	}
	if err := p.mirror.UpdateRowByRequestID(ctx, requestID, string(status), paidAt); err != nil {
		log.Printf("Failed to mirror status of %s to sheet: %v", requestID, err)
	}
}
