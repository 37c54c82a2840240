package specification

import (
	"ai-recipe-be/internal/entity"

	"gorm.io/gorm"
)

type ByRecipeKind struct {
	Kind entity.RecipeKind
}

func (s ByRecipeKind) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("kind = ?", string(s.Kind))
}

type ByProductID struct {
	ProductID string
}

func (s ByProductID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("product_id = ?", s.ProductID)
}
