package contract

import (
	"context"

	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/repository/specification"

	"github.com/google/uuid"
)

type RecipeRepository interface {
	Create(ctx context.Context, recipe *entity.Recipe) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Recipe, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Recipe, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
