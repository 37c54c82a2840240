package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusExpired PaymentStatus = "expired"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed || s == PaymentStatusExpired
}

// PaymentTransaction tracks one checkout attempt. Rows are updated in place, never deleted.
type PaymentTransaction struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Provider  string
	SessionId string
	Status    PaymentStatus

	// Raw values last reported by the provider (e.g. "open"/"complete", "unpaid"/"paid").
	SessionStatus string
	PaymentStatus string

	PaymentIntentId *string
	Amount          int64 // minor units
	Currency        string
	Metadata        map[string]string
	CheckoutURL     string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}
