package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"condopix_app/internal/models"
)

// NotificationMarkerRepository records processed webhook deliveries. The
// composite unique index on (notification_id, mp_payment_id) makes the
// insert an atomic insert-if-absent under concurrent delivery.
type NotificationMarkerRepository struct {
	db *gorm.DB
}

func NewNotificationMarkerRepository(db *gorm.DB) *NotificationMarkerRepository {
	return &NotificationMarkerRepository{db: db}
}

func (r *NotificationMarkerRepository) InsertIfAbsent(ctx context.Context, notificationID, mpPaymentID string) (bool, error) {
	marker := models.ProcessedNotification{
		NotificationID: notificationID,
		MPPaymentID:    mpPaymentID,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&marker)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *NotificationMarkerRepository) Remove(ctx context.Context, notificationID, mpPaymentID string) error {
	return r.db.WithContext(ctx).
		Where("notification_id = ? AND mp_payment_id = ?", notificationID, mpPaymentID).
		Delete(&models.ProcessedNotification{}).Error
}
