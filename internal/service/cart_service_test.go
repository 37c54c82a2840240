package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/pkg/catalog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	mu       sync.Mutex
	products map[string][]catalog.Product
	err      error
	queries  []string
}

func (c *stubCatalog) Search(_ context.Context, keyword string) ([]catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, keyword)
	if c.err != nil {
		return nil, c.err
	}
	return c.products[keyword], nil
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{products: map[string][]catalog.Product{
		"tomato": {
			{ProductId: "tom-vine", Name: "Vine Tomatoes 500g", Price: 2.5},
			{ProductId: "tom-loose", Name: "Loose Tomatoes", Price: 1.2},
		},
		"onion": {{ProductId: "onion-1", Name: "Brown Onion", Price: 0.8}},
		"salt":  {{ProductId: "salt-1", Name: "Sea Salt", Price: 0.333}},
	}}
}

func TestSearchProducts(t *testing.T) {
	env := newTestEnv(t)
	user := env.createTrialUser(t, "cook@example.com")
	svc := NewCartService(env.uowFactory, env.guard, newStubCatalog(), env.evaluator, env.log)

	res, err := svc.SearchProducts(env.ctx, user.Id, " tomato ")
	require.NoError(t, err)
	assert.Equal(t, "tomato", res.Keyword)
	assert.Len(t, res.Products, 2)

	_, err = svc.SearchProducts(env.ctx, user.Id, "  ")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestSearchProducts_CatalogErrors(t *testing.T) {
	env := newTestEnv(t)
	user := env.createTrialUser(t, "cook@example.com")
	stub := newStubCatalog()
	svc := NewCartService(env.uowFactory, env.guard, stub, env.evaluator, env.log)

	stub.err = catalog.ErrNotConfigured
	_, err := svc.SearchProducts(env.ctx, user.Id, "tomato")
	assert.Equal(t, apperror.KindConfiguration, apperror.KindOf(err))

	stub.err = errors.New("503 from upstream")
	_, err = svc.SearchProducts(env.ctx, user.Id, "tomato")
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
}

func TestBuildCart_FromIngredients(t *testing.T) {
	env := newTestEnv(t)
	user := env.createTrialUser(t, "cook@example.com")
	stub := newStubCatalog()
	svc := NewCartService(env.uowFactory, env.guard, stub, env.evaluator, env.log)

	res, err := svc.BuildCart(env.ctx, user.Id, &dto.BuildCartRequest{Ingredients: []string{
		"2 tomatoes",
		"1 cup diced tomatoes",
		"1 onion",
		"3 saffron threads",
		"salt, to taste",
		"2 cups",
	}})
	require.NoError(t, err)

	// Duplicate terms are searched once.
	assert.Equal(t, []string{"tomato", "onion", "saffron thread", "salt"}, stub.queries)

	require.Len(t, res.Added, 3)
	assert.Equal(t, "tom-loose", res.Added[0].ProductId)
	assert.Equal(t, "2 tomatoes", res.Added[0].Ingredient)
	assert.ElementsMatch(t, []string{"2 cups", "3 saffron threads"}, res.Unmatched)

	assert.Equal(t, 3, res.Cart.ItemCount)
	assert.InDelta(t, 2.33, res.Cart.TotalPrice, 0.0001)

	// Building again bumps quantities instead of adding rows.
	again, err := svc.BuildCart(env.ctx, user.Id, &dto.BuildCartRequest{Ingredients: []string{"tomatoes"}})
	require.NoError(t, err)
	require.Len(t, again.Added, 1)
	assert.Equal(t, 2, again.Added[0].Quantity)
	assert.NotNil(t, again.Unmatched)
	assert.Len(t, again.Cart.Items, 3)
	assert.Equal(t, 4, again.Cart.ItemCount)
	assert.InDelta(t, 3.53, again.Cart.TotalPrice, 0.0001)
}

func TestBuildCart_FromRecipe(t *testing.T) {
	env := newTestEnv(t)
	user := env.createTrialUser(t, "cook@example.com")
	other := env.createTrialUser(t, "other@example.com")
	recipes := NewRecipeService(env.uowFactory, env.guard, &scriptedLLM{reply: shakshukaJSON}, env.evaluator, env.log)
	recipe, err := recipes.GenerateRecipe(env.ctx, user.Id, &dto.GenerateRecipeRequest{Ingredients: []string{"eggs"}})
	require.NoError(t, err)

	svc := NewCartService(env.uowFactory, env.guard, newStubCatalog(), env.evaluator, env.log)

	res, err := svc.BuildCart(env.ctx, user.Id, &dto.BuildCartRequest{RecipeId: &recipe.Id})
	require.NoError(t, err)
	require.Len(t, res.Added, 2)
	for _, item := range res.Added {
		require.NotNil(t, item.RecipeId)
		assert.Equal(t, recipe.Id, *item.RecipeId)
	}
	assert.Equal(t, []string{"4 eggs"}, res.Unmatched)

	_, err = svc.BuildCart(env.ctx, other.Id, &dto.BuildCartRequest{RecipeId: &recipe.Id})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestBuildCart_Validation(t *testing.T) {
	env := newTestEnv(t)
	user := env.createTrialUser(t, "cook@example.com")
	svc := NewCartService(env.uowFactory, env.guard, newStubCatalog(), env.evaluator, env.log)

	_, err := svc.BuildCart(env.ctx, user.Id, &dto.BuildCartRequest{})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	env.clock.Advance(testPlan.TrialDuration)
	_, err = svc.BuildCart(env.ctx, user.Id, &dto.BuildCartRequest{Ingredients: []string{"1 onion"}})
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestCartItemRemoval(t *testing.T) {
	env := newTestEnv(t)
	user := env.createTrialUser(t, "cook@example.com")
	other := env.createTrialUser(t, "other@example.com")
	svc := NewCartService(env.uowFactory, env.guard, newStubCatalog(), env.evaluator, env.log)

	res, err := svc.BuildCart(env.ctx, user.Id, &dto.BuildCartRequest{Ingredients: []string{"1 onion", "2 tomatoes"}})
	require.NoError(t, err)
	itemId := res.Added[0].Id

	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(svc.RemoveCartItem(env.ctx, other.Id, itemId)))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(svc.RemoveCartItem(env.ctx, user.Id, uuid.New())))

	require.NoError(t, svc.RemoveCartItem(env.ctx, user.Id, itemId))
	cart, err := svc.GetCart(env.ctx, user.Id)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	require.NoError(t, svc.ClearCart(env.ctx, user.Id))
	cart, err = svc.GetCart(env.ctx, user.Id)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalPrice)
}
