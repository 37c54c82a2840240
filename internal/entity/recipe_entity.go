package entity

import (
	"time"

	"github.com/google/uuid"
)

type RecipeKind string

const (
	RecipeKindRecipe RecipeKind = "recipe"
	RecipeKindDrink  RecipeKind = "drink"
)

type Recipe struct {
	Id              uuid.UUID
	UserId          uuid.UUID
	Kind            RecipeKind
	Title           string
	Description     string
	Ingredients     []string
	Instructions    []string
	PrepTimeMinutes int
	CookTimeMinutes int
	Servings        int
	Cuisine         string
	Tags            []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
