package entity

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusTrial, SubscriptionStatusActive, SubscriptionStatusCancelled, SubscriptionStatusExpired:
		return true
	}
	return false
}

type User struct {
	Id              uuid.UUID
	Email           string
	PasswordHash    *string
	FullName        string
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	AvatarURL       *string

	SubscriptionStatus SubscriptionStatus
	// Trial bounds are fixed when the account is created and only reset by a resubscribe.
	TrialStartDate *time.Time
	TrialEndDate   *time.Time

	SubscriptionStartDate *time.Time
	SubscriptionEndDate   *time.Time
	NextBillingDate       *time.Time

	ExternalCustomerId     *string
	ExternalSubscriptionId *string

	LastPaymentDate             *time.Time
	SubscriptionCancelledDate   *time.Time
	CancelReason                *string
	SubscriptionReactivatedDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type PasswordResetToken struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

type UserProvider struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	ProviderName   string
	ProviderUserId string
	AvatarURL      string
	CreatedAt      time.Time
}

type EmailVerificationToken struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
