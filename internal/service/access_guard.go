package service

import (
	"context"

	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/pkg/metrics"
	"ai-recipe-be/internal/repository/specification"
	"ai-recipe-be/internal/repository/unitofwork"
	"ai-recipe-be/pkg/access"

	"github.com/google/uuid"
)

const (
	FeatureRecipeGeneration = "recipe_generation"
	FeatureDrinkGeneration  = "drink_generation"
	FeatureProductSearch    = "product_search"
	FeatureCartBuilding     = "cart_building"
)

// IAccessGuard gates premium features. Access is evaluated from the stored
// dates on every call; nothing is cached.
type IAccessGuard interface {
	RequirePremium(ctx context.Context, userId uuid.UUID, feature string) (*entity.User, error)
}

type accessGuard struct {
	uowFactory unitofwork.RepositoryFactory
	evaluator  *access.Evaluator
	metrics    *metrics.Recorder
}

func NewAccessGuard(uowFactory unitofwork.RepositoryFactory, evaluator *access.Evaluator, recorder *metrics.Recorder) IAccessGuard {
	return &accessGuard{
		uowFactory: uowFactory,
		evaluator:  evaluator,
		metrics:    recorder,
	}
}

func (g *accessGuard) RequirePremium(ctx context.Context, userId uuid.UUID, feature string) (*entity.User, error) {
	uow := g.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}

	if !g.evaluator.CanAccessPremiumFeatures(user) {
		g.metrics.AccessDenied(feature)
		return nil, apperror.Forbidden("an active trial or subscription is required")
	}
	return user, nil
}
