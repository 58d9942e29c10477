package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CallbackProvider string

const (
	CallbackProviderMercadoPago CallbackProvider = "mercadopago"
	CallbackProviderWhatsApp    CallbackProvider = "whatsapp"
)

// PaymentCallbackHistory keeps the raw webhook payloads we received, for
// auditing and replay when reconciliation goes wrong.
type PaymentCallbackHistory struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	Provider       CallbackProvider `gorm:"type:varchar(50);not null;index" json:"provider"`
	NotificationID string           `gorm:"type:varchar(100);index" json:"notification_id"`
	Payload        datatypes.JSON   `gorm:"type:jsonb" json:"payload"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
}
