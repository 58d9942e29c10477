package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"condopix_app/internal/models"
)

// ClientRepository persists clients in Postgres
type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) GetByPhone(ctx context.Context, phone string) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

// GetOrCreate upserts by phone with last-write-wins on the mutable fields
func (r *ClientRepository) GetOrCreate(ctx context.Context, data *models.Client) (*models.Client, bool, error) {
	existing, err := r.GetByPhone(ctx, data.Phone)
	if err != nil {
		return nil, false, err
	}

	if existing != nil {
		existing.Name = data.Name
		existing.Condo = data.Condo
		existing.Block = data.Block
		existing.Apartment = data.Apartment
		if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	if err := r.db.WithContext(ctx).Create(data).Error; err != nil {
		return nil, false, err
	}
	return data, true, nil
}
