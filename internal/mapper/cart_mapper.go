package mapper

import (
	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/model"
)

type CartMapper struct{}

func NewCartMapper() *CartMapper {
	return &CartMapper{}
}

func (m *CartMapper) ToEntity(c *model.CartItem) *entity.CartItem {
	if c == nil {
		return nil
	}
	return &entity.CartItem{
		Id:         c.Id,
		UserId:     c.UserId,
		ProductId:  c.ProductId,
		Name:       c.Name,
		Price:      c.Price,
		ImageURL:   c.ImageURL,
		Quantity:   c.Quantity,
		Ingredient: c.Ingredient,
		RecipeId:   c.RecipeId,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func (m *CartMapper) ToModel(c *entity.CartItem) *model.CartItem {
	if c == nil {
		return nil
	}
	return &model.CartItem{
		Id:         c.Id,
		UserId:     c.UserId,
		ProductId:  c.ProductId,
		Name:       c.Name,
		Price:      c.Price,
		ImageURL:   c.ImageURL,
		Quantity:   c.Quantity,
		Ingredient: c.Ingredient,
		RecipeId:   c.RecipeId,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func (m *CartMapper) ToEntities(items []*model.CartItem) []*entity.CartItem {
	entities := make([]*entity.CartItem, len(items))
	for i, c := range items {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
