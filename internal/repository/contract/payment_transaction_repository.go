package contract

import (
	"context"
	"time"

	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/repository/specification"
)

// TransactionStatusUpdate is the provider-reported state of a checkout session.
type TransactionStatusUpdate struct {
	Status          entity.PaymentStatus
	SessionStatus   string
	PaymentStatus   string
	PaymentIntentId *string
	At              time.Time
}

type PaymentTransactionRepository interface {
	Create(ctx context.Context, tx *entity.PaymentTransaction) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PaymentTransaction, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PaymentTransaction, error)

	// ApplyStatus writes the update only when it differs from what is stored and the
	// stored row is not already paid. It returns true when a row was changed.
	ApplyStatus(ctx context.Context, sessionId string, update TransactionStatusUpdate) (bool, error)
}
