package dto

import (
	"time"

	"github.com/google/uuid"
)

type GenerateRecipeRequest struct {
	Ingredients []string `json:"ingredients" validate:"required,min=1,max=30,dive,required,max=100"`
	Cuisine     string   `json:"cuisine" validate:"omitempty,max=50"`
	Dietary     []string `json:"dietary" validate:"omitempty,max=10,dive,max=50"`
	Servings    int      `json:"servings" validate:"omitempty,min=1,max=20"`
	MealType    string   `json:"meal_type" validate:"omitempty,max=30"`
	Notes       string   `json:"notes" validate:"omitempty,max=500"`
}

type GenerateDrinksRequest struct {
	Occasion     string `json:"occasion" validate:"omitempty,max=100"`
	BaseSpirit   string `json:"base_spirit" validate:"omitempty,max=50"`
	NonAlcoholic bool   `json:"non_alcoholic"`
	Count        int    `json:"count" validate:"omitempty,min=1,max=5"`
}

type ListRecipesRequest struct {
	Kind   string `query:"kind" validate:"omitempty,oneof=recipe drink"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

type RecipeResponse struct {
	Id              uuid.UUID `json:"id"`
	Kind            string    `json:"kind"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Ingredients     []string  `json:"ingredients"`
	Instructions    []string  `json:"instructions"`
	PrepTimeMinutes int       `json:"prep_time_minutes"`
	CookTimeMinutes int       `json:"cook_time_minutes"`
	Servings        int       `json:"servings"`
	Cuisine         string    `json:"cuisine,omitempty"`
	Tags            []string  `json:"tags"`
	CreatedAt       time.Time `json:"created_at"`
}

type RecipeListResponse struct {
	Items  []*RecipeResponse `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type DrinksResponse struct {
	Drinks []*RecipeResponse `json:"drinks"`
}
