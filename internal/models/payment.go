package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus represents the lifecycle state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRejected  PaymentStatus = "rejected"
)

// Payment records a PIX charge issued for a client and billing month.
// At most one approved payment may exist per (client, month): the partial
// unique index ux_payments_one_approved enforces it in the database, so
// concurrent approvals cannot slip past the issuance-time check.
type Payment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	RequestID string          `gorm:"type:varchar(100);uniqueIndex" json:"request_id"`
	ClientID  uint            `gorm:"index;index:idx_payments_client_month,priority:1;uniqueIndex:ux_payments_one_approved,priority:1,where:status = 'approved'" json:"client_id"`
	MonthRef  string          `gorm:"type:varchar(7);index:idx_payments_client_month,priority:2;uniqueIndex:ux_payments_one_approved,priority:2,where:status = 'approved'" json:"month_ref"` // YYYY-MM
	Amount    decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount"`
	Status    PaymentStatus   `gorm:"type:varchar(50);default:'pending';index" json:"status"`

	// MPPaymentID is Mercado Pago's id for the charge, recorded with the
	// row so webhook reconciliation can always find it
	MPPaymentID       string     `gorm:"type:varchar(255);index" json:"mp_payment_id"`
	ExternalReference string     `gorm:"type:varchar(500)" json:"external_reference"` // PIX|YYYY-MM|AMOUNT|PHONE|APARTMENT
	PaidAt            *time.Time `json:"paid_at,omitempty"`

	// Relationships
	Client Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}
