package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-recipe-be/internal/dto"
	"ai-recipe-be/internal/pkg/apperror"
	"ai-recipe-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	reply   string
	err     error
	history []llm.Message
	opts    llm.Options
}

func (m *scriptedLLM) Chat(_ context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	m.history = history
	m.opts = llm.Apply(llm.Options{}, options...)
	return m.reply, m.err
}

func (m *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return m.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

const shakshukaJSON = "```json\n" + `{
  "title": "Shakshuka",
  "description": "Eggs poached in spiced tomato sauce",
  "ingredients": ["4 eggs", "2 cups diced tomatoes", "1 onion"],
  "instructions": ["Soften the onion", "Add tomatoes", "Crack in the eggs"],
  "prep_time_minutes": 10,
  "cook_time_minutes": 20,
  "servings": 2,
  "tags": ["brunch"]
}` + "\n```"

func TestGenerateRecipe(t *testing.T) {
	env := newTestEnv(t)
	user := env.createTrialUser(t, "cook@example.com")
	model := &scriptedLLM{reply: shakshukaJSON}
	svc := NewRecipeService(env.uowFactory, env.guard, model, env.evaluator, env.log)

	res, err := svc.GenerateRecipe(env.ctx, user.Id, &dto.GenerateRecipeRequest{
		Ingredients: []string{"eggs", "tomatoes"},
		Cuisine:     "Middle Eastern",
		Dietary:     []string{"vegetarian"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Shakshuka", res.Title)
	assert.Equal(t, "recipe", res.Kind)
	assert.Equal(t, "Middle Eastern", res.Cuisine)
	assert.Len(t, res.Ingredients, 3)

	assert.True(t, model.opts.JSON)
	require.Len(t, model.history, 2)
	assert.Equal(t, "system", model.history[0].Role)
	assert.Contains(t, model.history[1].Content, "eggs, tomatoes")
	assert.Contains(t, model.history[1].Content, "vegetarian")

	stored, err := svc.GetRecipe(env.ctx, user.Id, res.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{"4 eggs", "2 cups diced tomatoes", "1 onion"}, stored.Ingredients)
	assert.Equal(t, []string{"brunch"}, stored.Tags)
}

func TestGenerateRecipe_Failures(t *testing.T) {
	env := newTestEnv(t)
	user := env.createTrialUser(t, "cook@example.com")
	req := &dto.GenerateRecipeRequest{Ingredients: []string{"rice"}}

	cases := []struct {
		name  string
		model *scriptedLLM
	}{
		{"provider error", &scriptedLLM{err: errors.New("connection refused")}},
		{"not json", &scriptedLLM{reply: "Sure! Here is a recipe for rice."}},
		{"incomplete", &scriptedLLM{reply: `{"title": "Rice", "ingredients": []}`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewRecipeService(env.uowFactory, env.guard, tc.model, env.evaluator, env.log)
			_, err := svc.GenerateRecipe(env.ctx, user.Id, req)
			require.Error(t, err)
			assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
		})
	}

	list, err := NewRecipeService(env.uowFactory, env.guard, &scriptedLLM{}, env.evaluator, env.log).
		ListRecipes(env.ctx, user.Id, &dto.ListRecipesRequest{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestGenerateRecipe_RequiresAccess(t *testing.T) {
	env := newTestEnv(t)
	user := env.createTrialUser(t, "cook@example.com")
	env.clock.Advance(testPlan.TrialDuration + time.Second)
	model := &scriptedLLM{reply: shakshukaJSON}
	svc := NewRecipeService(env.uowFactory, env.guard, model, env.evaluator, env.log)

	_, err := svc.GenerateRecipe(env.ctx, user.Id, &dto.GenerateRecipeRequest{Ingredients: []string{"eggs"}})
	require.Error(t, err)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
	assert.Nil(t, model.history)
}

func TestGenerateDrinks(t *testing.T) {
	env := newTestEnv(t)
	user := env.createTrialUser(t, "cook@example.com")
	model := &scriptedLLM{reply: `{"drinks": [
		{"title": "Virgin Mojito", "ingredients": ["mint", "lime", "soda"]},
		{"title": "", "ingredients": ["water"]},
		{"title": "Shirley Temple", "ingredients": ["ginger ale", "grenadine"]},
		{"title": "Extra", "ingredients": ["ice"]}
	]}`}
	svc := NewRecipeService(env.uowFactory, env.guard, model, env.evaluator, env.log)

	res, err := svc.GenerateDrinks(env.ctx, user.Id, &dto.GenerateDrinksRequest{NonAlcoholic: true})
	require.NoError(t, err)
	// Capped at the default count, untitled entries skipped.
	require.Len(t, res.Drinks, 2)
	assert.Equal(t, "Virgin Mojito", res.Drinks[0].Title)
	assert.Equal(t, "drink", res.Drinks[0].Kind)
	assert.Contains(t, model.history[1].Content, "Suggest 3 drink recipes")
	assert.Contains(t, model.history[1].Content, "non-alcoholic")

	drinks, err := svc.ListRecipes(env.ctx, user.Id, &dto.ListRecipesRequest{Kind: "drink"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), drinks.Total)

	recipes, err := svc.ListRecipes(env.ctx, user.Id, &dto.ListRecipesRequest{Kind: "recipe"})
	require.NoError(t, err)
	assert.Zero(t, recipes.Total)
}

func TestRecipeOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createTrialUser(t, "owner@example.com")
	other := env.createTrialUser(t, "other@example.com")
	svc := NewRecipeService(env.uowFactory, env.guard, &scriptedLLM{reply: shakshukaJSON}, env.evaluator, env.log)

	created, err := svc.GenerateRecipe(env.ctx, owner.Id, &dto.GenerateRecipeRequest{Ingredients: []string{"eggs"}})
	require.NoError(t, err)

	_, err = svc.GetRecipe(env.ctx, other.Id, created.Id)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(svc.DeleteRecipe(env.ctx, other.Id, created.Id)))

	require.NoError(t, svc.DeleteRecipe(env.ctx, owner.Id, created.Id))
	_, err = svc.GetRecipe(env.ctx, owner.Id, created.Id)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = svc.GetRecipe(env.ctx, owner.Id, uuid.New())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestListRecipes_Pagination(t *testing.T) {
	env := newTestEnv(t)
	user := env.createTrialUser(t, "cook@example.com")
	svc := NewRecipeService(env.uowFactory, env.guard, &scriptedLLM{reply: shakshukaJSON}, env.evaluator, env.log)

	for i := 0; i < 3; i++ {
		_, err := svc.GenerateRecipe(env.ctx, user.Id, &dto.GenerateRecipeRequest{Ingredients: []string{"eggs"}})
		require.NoError(t, err)
		env.clock.Advance(time.Minute)
	}

	page, err := svc.ListRecipes(env.ctx, user.Id, &dto.ListRecipesRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].CreatedAt.After(page.Items[1].CreatedAt))

	rest, err := svc.ListRecipes(env.ctx, user.Id, &dto.ListRecipesRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)

	defaults, err := svc.ListRecipes(env.ctx, user.Id, &dto.ListRecipesRequest{})
	require.NoError(t, err)
	assert.Equal(t, defaultRecipeLimit, defaults.Limit)
}
