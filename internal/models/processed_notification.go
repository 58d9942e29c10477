package models

import "time"

// ProcessedNotification marks a Mercado Pago webhook delivery as already
// reconciled. The composite unique index makes the insert an atomic
// insert-if-absent, which is what keeps redelivered notifications from
// being applied twice.
type ProcessedNotification struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	NotificationID string    `gorm:"type:varchar(100);not null;index:ux_processed_notifications_key,unique,priority:1" json:"notification_id"`
	MPPaymentID    string    `gorm:"type:varchar(255);not null;index:ux_processed_notifications_key,unique,priority:2" json:"mp_payment_id"`
	CreatedAt      time.Time `json:"created_at"`
}
