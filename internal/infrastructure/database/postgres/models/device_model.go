package models

import (
	"time"

	"github.com/google/uuid"
)

// DeviceModel represents the database model for tracked devices. The unique
// index on OwnerID enforces the one-device-per-owner rule at the store, so two
// racing first saves by the same user cannot create two rows.
type DeviceModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OwnerID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Name       string    `gorm:"type:varchar(100);not null"`
	Identifier string    `gorm:"type:varchar(100);not null"`
	Icon       string    `gorm:"type:varchar(32);not null;default:'person'"`
	Lat        float64   `gorm:"type:double precision;not null;default:0"`
	Lng        float64   `gorm:"type:double precision;not null;default:0"`
	Accuracy   float64   `gorm:"type:double precision;not null;default:0"`
	IsActive   bool      `gorm:"not null;default:false;index"`
	LastUpdate time.Time `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (DeviceModel) TableName() string {
	return "devices"
}
