package mapper

import (
	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/model"
)

type RecipeMapper struct{}

func NewRecipeMapper() *RecipeMapper {
	return &RecipeMapper{}
}

func (m *RecipeMapper) ToEntity(r *model.Recipe) *entity.Recipe {
	if r == nil {
		return nil
	}
	return &entity.Recipe{
		Id:              r.Id,
		UserId:          r.UserId,
		Kind:            entity.RecipeKind(r.Kind),
		Title:           r.Title,
		Description:     r.Description,
		Ingredients:     []string(r.Ingredients),
		Instructions:    []string(r.Instructions),
		PrepTimeMinutes: r.PrepTimeMinutes,
		CookTimeMinutes: r.CookTimeMinutes,
		Servings:        r.Servings,
		Cuisine:         r.Cuisine,
		Tags:            []string(r.Tags),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (m *RecipeMapper) ToModel(r *entity.Recipe) *model.Recipe {
	if r == nil {
		return nil
	}
	return &model.Recipe{
		Id:              r.Id,
		UserId:          r.UserId,
		Kind:            string(r.Kind),
		Title:           r.Title,
		Description:     r.Description,
		Ingredients:     r.Ingredients,
		Instructions:    r.Instructions,
		PrepTimeMinutes: r.PrepTimeMinutes,
		CookTimeMinutes: r.CookTimeMinutes,
		Servings:        r.Servings,
		Cuisine:         r.Cuisine,
		Tags:            r.Tags,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (m *RecipeMapper) ToEntities(recipes []*model.Recipe) []*entity.Recipe {
	entities := make([]*entity.Recipe, len(recipes))
	for i, r := range recipes {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
