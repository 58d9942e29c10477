package services

import (
	"context"
	"time"

	"condopix_app/internal/models"
)

// ClientStore persists residents keyed by phone number
type ClientStore interface {
	// GetOrCreate upserts by phone: an existing client has its mutable
	// fields overwritten with the latest values (last-write-wins).
	// Returns true when a new client was created.
	GetOrCreate(ctx context.Context, data *models.Client) (*models.Client, bool, error)
}

// PaymentStore is the durable payment ledger
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	// UpdateStatus mutates the status fields in place; mpPaymentID and
	// paidAt are only written when non-zero.
	UpdateStatus(ctx context.Context, payment *models.Payment, status models.PaymentStatus, mpPaymentID string, paidAt *time.Time) error
	GetByRequestID(ctx context.Context, requestID string) (*models.Payment, error)
	// GetByMPPaymentID loads the payment with its client
	GetByMPPaymentID(ctx context.Context, mpPaymentID string) (*models.Payment, error)
	// GetApprovedForMonth returns nil when the client has no approved
	// payment for the month
	GetApprovedForMonth(ctx context.Context, clientID uint, monthRef string) (*models.Payment, error)
}

// NotificationMarkerStore records which webhook deliveries were already
// reconciled. InsertIfAbsent must be atomic.
type NotificationMarkerStore interface {
	// InsertIfAbsent returns true when the marker was newly inserted,
	// false when another delivery already claimed it
	InsertIfAbsent(ctx context.Context, notificationID, mpPaymentID string) (bool, error)
	// Remove releases a claimed marker so a later redelivery can retry
	// after a processing failure
	Remove(ctx context.Context, notificationID, mpPaymentID string) error
}

// PaymentProcessor is the external charge provider
type PaymentProcessor interface {
	CreatePIXPayment(ctx context.Context, p CreatePIXParams) (*PIXCharge, error)
	GetPayment(ctx context.Context, mpPaymentID string) (*ProcessorPayment, error)
}

// AuditMirror is the fire-and-forget spreadsheet mirror; failures are
// logged by callers and never block the primary flow
type AuditMirror interface {
	AppendPaymentRow(ctx context.Context, row PaymentRow) error
	UpdateRowByRequestID(ctx context.Context, requestID string, status string, paidAt *time.Time) error
}
