package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"condopix_app/internal/models"
)

// PaymentRepository is the GORM-backed ledger
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// UpdateStatus mutates the status fields, writing the processor id and
// paid timestamp only when provided
func (r *PaymentRepository) UpdateStatus(ctx context.Context, payment *models.Payment, status models.PaymentStatus, mpPaymentID string, paidAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if mpPaymentID != "" {
		updates["mp_payment_id"] = mpPaymentID
	}
	if paidAt != nil {
		updates["paid_at"] = paidAt
	}

	if err := r.db.WithContext(ctx).Model(payment).Updates(updates).Error; err != nil {
		return err
	}

	payment.Status = status
	if mpPaymentID != "" {
		payment.MPPaymentID = mpPaymentID
	}
	if paidAt != nil {
		payment.PaidAt = paidAt
	}
	return nil
}

func (r *PaymentRepository) GetByRequestID(ctx context.Context, requestID string) (*models.Payment, error) {
	return r.getOne(ctx, r.db.Where("request_id = ?", requestID))
}

func (r *PaymentRepository) GetByMPPaymentID(ctx context.Context, mpPaymentID string) (*models.Payment, error) {
	return r.getOne(ctx, r.db.Preload("Client").Where("mp_payment_id = ?", mpPaymentID))
}

func (r *PaymentRepository) GetApprovedForMonth(ctx context.Context, clientID uint, monthRef string) (*models.Payment, error) {
	return r.getOne(ctx, r.db.Where(
		"client_id = ? AND month_ref = ? AND status = ?",
		clientID, monthRef, models.PaymentStatusApproved,
	))
}

func (r *PaymentRepository) getOne(ctx context.Context, query *gorm.DB) (*models.Payment, error) {
	var payment models.Payment
	err := query.WithContext(ctx).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}
