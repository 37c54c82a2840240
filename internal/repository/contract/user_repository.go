package contract

import (
	"context"
	"time"

	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/repository/specification"

	"github.com/google/uuid"
)

// SubscriptionActivation carries the fields written when a paid period begins.
type SubscriptionActivation struct {
	PaidAt         time.Time
	PeriodEnd      time.Time
	CustomerId     *string
	SubscriptionId *string
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// Token Management
	CreatePasswordResetToken(ctx context.Context, token *entity.PasswordResetToken) error
	FindPasswordResetToken(ctx context.Context, specs ...specification.Specification) (*entity.PasswordResetToken, error)
	MarkTokenUsed(ctx context.Context, id uuid.UUID) error

	CreateEmailVerificationToken(ctx context.Context, token *entity.EmailVerificationToken) error
	FindEmailVerificationToken(ctx context.Context, specs ...specification.Specification) (*entity.EmailVerificationToken, error)
	DeleteEmailVerificationTokens(ctx context.Context, userId uuid.UUID) error

	// Business Specific
	MarkEmailVerified(ctx context.Context, userId uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, userId uuid.UUID, hash string) error
	SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error

	// Subscription lifecycle. Each is a conditional single-row update and reports
	// whether the row actually changed.
	ActivateSubscription(ctx context.Context, userId uuid.UUID, activation SubscriptionActivation) (bool, error)
	CancelSubscription(ctx context.Context, userId uuid.UUID, at time.Time, reason *string) (bool, error)
	RestartTrial(ctx context.Context, userId uuid.UUID, expected entity.SubscriptionStatus, start, end time.Time) (bool, error)
}
