package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PaymentTransaction struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId          uuid.UUID      `gorm:"type:uuid;not null;index"`
	Provider        string         `gorm:"type:varchar(30);not null"`
	SessionId       string         `gorm:"type:varchar(255);not null;uniqueIndex"`
	Status          string         `gorm:"type:varchar(20);not null;default:'pending';index"`
	SessionStatus   string         `gorm:"type:varchar(30)"`
	PaymentStatus   string         `gorm:"type:varchar(30)"`
	PaymentIntentId *string        `gorm:"type:varchar(255)"`
	Amount          int64          `gorm:"not null"`
	Currency        string         `gorm:"type:varchar(10);not null"`
	Metadata        datatypes.JSON `json:"metadata,omitempty"`
	CheckoutURL     string         `gorm:"type:text"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
	CompletedAt     *time.Time
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
