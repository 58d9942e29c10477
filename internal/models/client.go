package models

import (
	"time"

	"gorm.io/gorm"
)

// Client represents a condominium resident identified by phone number.
// A client is created on first contact and overwritten in place when the
// same phone recontacts with different details.
type Client struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name      string `gorm:"type:varchar(255)" json:"name"`
	Phone     string `gorm:"type:varchar(20);uniqueIndex" json:"phone"`
	Condo     string `gorm:"type:varchar(255)" json:"condo"`
	Block     string `gorm:"type:varchar(50)" json:"block"`
	Apartment string `gorm:"type:varchar(50)" json:"apartment"`

	// Relationships
	Payments []Payment `gorm:"foreignKey:ClientID" json:"payments,omitempty"`
}
