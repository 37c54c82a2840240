package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/pkg/logger"
	"ai-recipe-be/internal/repository/specification"
	"ai-recipe-be/internal/repository/unitofwork"
	"ai-recipe-be/internal/tracer"
	"ai-recipe-be/pkg/access"
	"ai-recipe-be/pkg/catalog"
	"ai-recipe-be/pkg/ingredient"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type ICartService interface {
	SearchProducts(ctx context.Context, userId uuid.UUID, keyword string) (*dto.ProductSearchResponse, error)
	BuildCart(ctx context.Context, userId uuid.UUID, req *dto.BuildCartRequest) (*dto.BuildCartResponse, error)
	GetCart(ctx context.Context, userId uuid.UUID) (*dto.CartResponse, error)
	RemoveCartItem(ctx context.Context, userId, itemId uuid.UUID) error
	ClearCart(ctx context.Context, userId uuid.UUID) error
}

type cartService struct {
	uowFactory unitofwork.RepositoryFactory
	guard      IAccessGuard
	catalog    catalog.Searcher
	evaluator  *access.Evaluator
	logger     logger.ILogger
}

func NewCartService(
	uowFactory unitofwork.RepositoryFactory,
	guard IAccessGuard,
	searcher catalog.Searcher,
	evaluator *access.Evaluator,
	log logger.ILogger,
) ICartService {
	return &cartService{
		uowFactory: uowFactory,
		guard:      guard,
		catalog:    searcher,
		evaluator:  evaluator,
		logger:     log,
	}
}

func catalogError(err error) error {
	if errors.Is(err, catalog.ErrNotConfigured) {
		return apperror.Wrap(apperror.KindConfiguration, "product catalog unavailable", err)
	}
	return apperror.Upstream("product search failed", err)
}

func (s *cartService) SearchProducts(ctx context.Context, userId uuid.UUID, keyword string) (*dto.ProductSearchResponse, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, apperror.Validation("q is required")
	}
	if _, err := s.guard.RequirePremium(ctx, userId, FeatureProductSearch); err != nil {
		return nil, err
	}

	products, err := s.catalog.Search(ctx, keyword)
	if err != nil {
		return nil, catalogError(err)
	}

	res := &dto.ProductSearchResponse{Keyword: keyword, Products: make([]*dto.ProductResponse, len(products))}
	for i, p := range products {
		res.Products[i] = &dto.ProductResponse{ProductId: p.ProductId, Name: p.Name, Price: p.Price, ImageURL: p.ImageURL}
	}
	return res, nil
}

type cartMatch struct {
	line    string
	product catalog.Product
}

// BuildCart maps each ingredient to the cheapest catalog product and appends
// it to the user's cart. Catalog calls happen before the transaction opens.
func (s *cartService) BuildCart(ctx context.Context, userId uuid.UUID, req *dto.BuildCartRequest) (*dto.BuildCartResponse, error) {
	ctx, span := tracer.Start(ctx, "CartService.BuildCart")
	defer span.End()

	if req.RecipeId == nil && len(req.Ingredients) == 0 {
		return nil, apperror.Validation("recipe_id or ingredients is required")
	}
	if _, err := s.guard.RequirePremium(ctx, userId, FeatureCartBuilding); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	lines := req.Ingredients
	if req.RecipeId != nil {
		recipe, err := uow.RecipeRepository().FindOne(ctx,
			specification.ByID{ID: *req.RecipeId},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return nil, apperror.Internal("failed to load recipe", err)
		}
		if recipe == nil {
			return nil, apperror.NotFound("recipe not found")
		}
		lines = recipe.Ingredients
	}

	terms, source, unmatched := ingredient.Dedupe(lines)
	span.SetAttributes(attribute.Int("cart.terms", len(terms)))

	matches := make([]cartMatch, 0, len(terms))
	for _, term := range terms {
		products, err := s.catalog.Search(ctx, term)
		if err != nil {
			return nil, catalogError(err)
		}
		cheapest, ok := catalog.Cheapest(products)
		if !ok {
			unmatched = append(unmatched, source[term])
			continue
		}
		matches = append(matches, cartMatch{line: source[term], product: cheapest})
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal("failed to start transaction", err)
	}
	defer uow.Rollback()

	now := s.evaluator.Now()
	added := make([]*dto.CartItemResponse, 0, len(matches))
	for _, m := range matches {
		existing, err := uow.CartRepository().FindOne(ctx,
			specification.UserOwnedBy{UserID: userId},
			specification.ByProductID{ProductID: m.product.ProductId},
		)
		if err != nil {
			return nil, apperror.Internal("failed to load cart", err)
		}

		if existing != nil {
			if err := uow.CartRepository().IncrementQuantity(ctx, existing.Id, 1); err != nil {
				return nil, apperror.Internal("failed to update cart", err)
			}
			existing.Quantity++
			added = append(added, toCartItemResponse(existing))
			continue
		}

		item := &entity.CartItem{
			Id:         uuid.New(),
			UserId:     userId,
			ProductId:  m.product.ProductId,
			Name:       m.product.Name,
			Price:      m.product.Price,
			ImageURL:   m.product.ImageURL,
			Quantity:   1,
			Ingredient: m.line,
			RecipeId:   req.RecipeId,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := uow.CartRepository().Create(ctx, item); err != nil {
			return nil, apperror.Internal("failed to add cart item", err)
		}
		added = append(added, toCartItemResponse(item))
	}

	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal("failed to commit cart", err)
	}

	cart, err := s.GetCart(ctx, userId)
	if err != nil {
		return nil, err
	}

	if unmatched == nil {
		unmatched = []string{}
	}
	s.logger.Info("Cart", "Cart built", map[string]interface{}{
		"user_id":   userId,
		"added":     len(added),
		"unmatched": len(unmatched),
	})
	return &dto.BuildCartResponse{Added: added, Unmatched: unmatched, Cart: cart}, nil
}

func (s *cartService) GetCart(ctx context.Context, userId uuid.UUID) (*dto.CartResponse, error) {
	items, err := s.uowFactory.NewUnitOfWork(ctx).CartRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, apperror.Internal("failed to load cart", err)
	}

	res := &dto.CartResponse{Items: make([]*dto.CartItemResponse, len(items))}
	var total float64
	for i, item := range items {
		res.Items[i] = toCartItemResponse(item)
		res.ItemCount += item.Quantity
		total += item.Price * float64(item.Quantity)
	}
	res.TotalPrice = math.Round(total*100) / 100
	return res, nil
}

func (s *cartService) RemoveCartItem(ctx context.Context, userId, itemId uuid.UUID) error {
	repo := s.uowFactory.NewUnitOfWork(ctx).CartRepository()
	item, err := repo.FindOne(ctx, specification.ByID{ID: itemId}, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return apperror.Internal("failed to load cart item", err)
	}
	if item == nil {
		return apperror.NotFound("cart item not found")
	}
	if err := repo.Delete(ctx, item.Id); err != nil {
		return apperror.Internal("failed to remove cart item", err)
	}
	return nil
}

func (s *cartService) ClearCart(ctx context.Context, userId uuid.UUID) error {
	if err := s.uowFactory.NewUnitOfWork(ctx).CartRepository().DeleteByUser(ctx, userId); err != nil {
		return apperror.Internal("failed to clear cart", err)
	}
	return nil
}

func toCartItemResponse(item *entity.CartItem) *dto.CartItemResponse {
	return &dto.CartItemResponse{
		Id:         item.Id,
		ProductId:  item.ProductId,
		Name:       item.Name,
		Price:      item.Price,
		ImageURL:   item.ImageURL,
		Quantity:   item.Quantity,
		Ingredient: item.Ingredient,
		RecipeId:   item.RecipeId,
	}
}
