package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/internal/pkg/logger"
	"ai-recipe-be/internal/repository/specification"
	"ai-recipe-be/internal/repository/unitofwork"
	"ai-recipe-be/internal/tracer"
	"ai-recipe-be/pkg/access"
	"ai-recipe-be/pkg/llm"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultRecipeLimit = 20
	defaultDrinkCount  = 3
)

type IRecipeService interface {
	GenerateRecipe(ctx context.Context, userId uuid.UUID, req *dto.GenerateRecipeRequest) (*dto.RecipeResponse, error)
	GenerateDrinks(ctx context.Context, userId uuid.UUID, req *dto.GenerateDrinksRequest) (*dto.DrinksResponse, error)
	ListRecipes(ctx context.Context, userId uuid.UUID, req *dto.ListRecipesRequest) (*dto.RecipeListResponse, error)
	GetRecipe(ctx context.Context, userId, recipeId uuid.UUID) (*dto.RecipeResponse, error)
	DeleteRecipe(ctx context.Context, userId, recipeId uuid.UUID) error
}

type recipeService struct {
	uowFactory unitofwork.RepositoryFactory
	guard      IAccessGuard
	llm        llm.LLMProvider
	evaluator  *access.Evaluator
	logger     logger.ILogger
}

func NewRecipeService(
	uowFactory unitofwork.RepositoryFactory,
	guard IAccessGuard,
	provider llm.LLMProvider,
	evaluator *access.Evaluator,
	log logger.ILogger,
) IRecipeService {
	return &recipeService{
		uowFactory: uowFactory,
		guard:      guard,
		llm:        provider,
		evaluator:  evaluator,
		logger:     log,
	}
}

// generatedRecipe is the JSON shape the model is asked to return.
type generatedRecipe struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Ingredients     []string `json:"ingredients"`
	Instructions    []string `json:"instructions"`
	PrepTimeMinutes int      `json:"prep_time_minutes"`
	CookTimeMinutes int      `json:"cook_time_minutes"`
	Servings        int      `json:"servings"`
	Cuisine         string   `json:"cuisine"`
	Tags            []string `json:"tags"`
}

const recipeSchema = `{"title": string, "description": string, "ingredients": [string], "instructions": [string], "prep_time_minutes": number, "cook_time_minutes": number, "servings": number, "cuisine": string, "tags": [string]}`

const recipeSystemPrompt = "You are a professional chef. Reply with a single JSON object and nothing else."

func buildRecipePrompt(req *dto.GenerateRecipeRequest) string {
	var b strings.Builder
	b.WriteString("Create one recipe that uses these ingredients: ")
	b.WriteString(strings.Join(req.Ingredients, ", "))
	b.WriteString(".\n")
	if req.Cuisine != "" {
		fmt.Fprintf(&b, "Cuisine: %s.\n", req.Cuisine)
	}
	if len(req.Dietary) > 0 {
		fmt.Fprintf(&b, "Dietary requirements: %s.\n", strings.Join(req.Dietary, ", "))
	}
	if req.MealType != "" {
		fmt.Fprintf(&b, "Meal type: %s.\n", req.MealType)
	}
	servings := req.Servings
	if servings == 0 {
		servings = 2
	}
	fmt.Fprintf(&b, "Servings: %d.\n", servings)
	if req.Notes != "" {
		fmt.Fprintf(&b, "Additional notes: %s.\n", req.Notes)
	}
	b.WriteString("Respond with JSON matching: ")
	b.WriteString(recipeSchema)
	return b.String()
}

func buildDrinksPrompt(req *dto.GenerateDrinksRequest, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest %d drink recipes.\n", count)
	if req.Occasion != "" {
		fmt.Fprintf(&b, "Occasion: %s.\n", req.Occasion)
	}
	if req.NonAlcoholic {
		b.WriteString("All drinks must be non-alcoholic.\n")
	} else if req.BaseSpirit != "" {
		fmt.Fprintf(&b, "Base spirit: %s.\n", req.BaseSpirit)
	}
	b.WriteString(`Respond with JSON matching: {"drinks": [`)
	b.WriteString(recipeSchema)
	b.WriteString("]}")
	return b.String()
}

func (s *recipeService) complete(ctx context.Context, prompt string, out interface{}) error {
	raw, err := s.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: recipeSystemPrompt},
		{Role: "user", Content: prompt},
	}, llm.WithJSONFormat(), llm.WithTemperature(0.7))
	if err != nil {
		return apperror.Upstream("recipe generation failed", err)
	}
	if err := json.Unmarshal([]byte(llm.StripCodeFence(raw)), out); err != nil {
		s.logger.Warn("Recipe", "LLM returned invalid JSON", map[string]interface{}{
			"error":  err.Error(),
			"length": len(raw),
		})
		return apperror.Upstream("recipe generation returned an invalid response", err)
	}
	return nil
}

func (s *recipeService) GenerateRecipe(ctx context.Context, userId uuid.UUID, req *dto.GenerateRecipeRequest) (*dto.RecipeResponse, error) {
	ctx, span := tracer.Start(ctx, "RecipeService.GenerateRecipe")
	defer span.End()
	span.SetAttributes(attribute.Int("recipe.ingredients", len(req.Ingredients)))

	if _, err := s.guard.RequirePremium(ctx, userId, FeatureRecipeGeneration); err != nil {
		return nil, err
	}

	var generated generatedRecipe
	if err := s.complete(ctx, buildRecipePrompt(req), &generated); err != nil {
		return nil, err
	}
	if strings.TrimSpace(generated.Title) == "" || len(generated.Ingredients) == 0 {
		return nil, apperror.Upstream("recipe generation returned an incomplete recipe", llm.ErrEmptyResponse)
	}

	recipe := s.toEntity(userId, entity.RecipeKindRecipe, generated)
	if recipe.Cuisine == "" {
		recipe.Cuisine = req.Cuisine
	}
	if err := s.uowFactory.NewUnitOfWork(ctx).RecipeRepository().Create(ctx, recipe); err != nil {
		return nil, apperror.Internal("failed to save recipe", err)
	}

	s.logger.Info("Recipe", "Recipe generated", map[string]interface{}{"user_id": userId, "recipe_id": recipe.Id})
	return toRecipeResponse(recipe), nil
}

func (s *recipeService) GenerateDrinks(ctx context.Context, userId uuid.UUID, req *dto.GenerateDrinksRequest) (*dto.DrinksResponse, error) {
	ctx, span := tracer.Start(ctx, "RecipeService.GenerateDrinks")
	defer span.End()

	if _, err := s.guard.RequirePremium(ctx, userId, FeatureDrinkGeneration); err != nil {
		return nil, err
	}

	count := req.Count
	if count == 0 {
		count = defaultDrinkCount
	}

	var generated struct {
		Drinks []generatedRecipe `json:"drinks"`
	}
	if err := s.complete(ctx, buildDrinksPrompt(req, count), &generated); err != nil {
		return nil, err
	}
	if len(generated.Drinks) == 0 {
		return nil, apperror.Upstream("drink generation returned no drinks", llm.ErrEmptyResponse)
	}
	if len(generated.Drinks) > count {
		generated.Drinks = generated.Drinks[:count]
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Internal("failed to start transaction", err)
	}
	defer uow.Rollback()

	res := &dto.DrinksResponse{Drinks: make([]*dto.RecipeResponse, 0, len(generated.Drinks))}
	for _, d := range generated.Drinks {
		if strings.TrimSpace(d.Title) == "" {
			continue
		}
		drink := s.toEntity(userId, entity.RecipeKindDrink, d)
		if err := uow.RecipeRepository().Create(ctx, drink); err != nil {
			return nil, apperror.Internal("failed to save drink", err)
		}
		res.Drinks = append(res.Drinks, toRecipeResponse(drink))
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Internal("failed to commit drinks", err)
	}
	return res, nil
}

func (s *recipeService) ListRecipes(ctx context.Context, userId uuid.UUID, req *dto.ListRecipesRequest) (*dto.RecipeListResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultRecipeLimit
	}

	specs := []specification.Specification{specification.UserOwnedBy{UserID: userId}}
	if req.Kind != "" {
		specs = append(specs, specification.ByRecipeKind{Kind: entity.RecipeKind(req.Kind)})
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).RecipeRepository()
	total, err := repo.Count(ctx, specs...)
	if err != nil {
		return nil, apperror.Internal("failed to count recipes", err)
	}

	recipes, err := repo.FindAll(ctx, append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)...)
	if err != nil {
		return nil, apperror.Internal("failed to list recipes", err)
	}

	items := make([]*dto.RecipeResponse, len(recipes))
	for i, r := range recipes {
		items[i] = toRecipeResponse(r)
	}
	return &dto.RecipeListResponse{Items: items, Total: total, Limit: limit, Offset: req.Offset}, nil
}

func (s *recipeService) findOwned(ctx context.Context, userId, recipeId uuid.UUID) (*entity.Recipe, error) {
	recipe, err := s.uowFactory.NewUnitOfWork(ctx).RecipeRepository().FindOne(ctx,
		specification.ByID{ID: recipeId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, apperror.Internal("failed to load recipe", err)
	}
	if recipe == nil {
		return nil, apperror.NotFound("recipe not found")
	}
	return recipe, nil
}

func (s *recipeService) GetRecipe(ctx context.Context, userId, recipeId uuid.UUID) (*dto.RecipeResponse, error) {
	recipe, err := s.findOwned(ctx, userId, recipeId)
	if err != nil {
		return nil, err
	}
	return toRecipeResponse(recipe), nil
}

func (s *recipeService) DeleteRecipe(ctx context.Context, userId, recipeId uuid.UUID) error {
	recipe, err := s.findOwned(ctx, userId, recipeId)
	if err != nil {
		return err
	}
	if err := s.uowFactory.NewUnitOfWork(ctx).RecipeRepository().Delete(ctx, recipe.Id); err != nil {
		return apperror.Internal("failed to delete recipe", err)
	}
	return nil
}

func (s *recipeService) toEntity(userId uuid.UUID, kind entity.RecipeKind, g generatedRecipe) *entity.Recipe {
	now := s.evaluator.Now()
	return &entity.Recipe{
		Id:              uuid.New(),
		UserId:          userId,
		Kind:            kind,
		Title:           strings.TrimSpace(g.Title),
		Description:     strings.TrimSpace(g.Description),
		Ingredients:     nonNil(g.Ingredients),
		Instructions:    nonNil(g.Instructions),
		PrepTimeMinutes: g.PrepTimeMinutes,
		CookTimeMinutes: g.CookTimeMinutes,
		Servings:        g.Servings,
		Cuisine:         strings.TrimSpace(g.Cuisine),
		Tags:            nonNil(g.Tags),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toRecipeResponse(r *entity.Recipe) *dto.RecipeResponse {
	return &dto.RecipeResponse{
		Id:              r.Id,
		Kind:            string(r.Kind),
		Title:           r.Title,
		Description:     r.Description,
		Ingredients:     nonNil(r.Ingredients),
		Instructions:    nonNil(r.Instructions),
		PrepTimeMinutes: r.PrepTimeMinutes,
		CookTimeMinutes: r.CookTimeMinutes,
		Servings:        r.Servings,
		Cuisine:         r.Cuisine,
		Tags:            nonNil(r.Tags),
		CreatedAt:       r.CreatedAt,
	}
}
