package contract

import (
	"context"

	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/repository/specification"

	"github.com/google/uuid"
)

type CartRepository interface {
	Create(ctx context.Context, item *entity.CartItem) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CartItem, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CartItem, error)
	IncrementQuantity(ctx context.Context, id uuid.UUID, delta int) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userId uuid.UUID) error
}
