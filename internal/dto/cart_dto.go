package dto

import (
	"github.com/google/uuid"
)

type ProductResponse struct {
	ProductId string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
}

type ProductSearchResponse struct {
	Keyword  string             `json:"keyword"`
	Products []*ProductResponse `json:"products"`
}

// BuildCartRequest takes either a saved recipe or a raw ingredient list.
type BuildCartRequest struct {
	RecipeId    *uuid.UUID `json:"recipe_id" `
	Ingredients []string   `json:"ingredients" validate:"omitempty,max=50,dive,required,max=100"`
}

type CartItemResponse struct {
	Id         uuid.UUID  `json:"id"`
	ProductId  string     `json:"product_id"`
	Name       string     `json:"name"`
	Price      float64    `json:"price"`
	ImageURL   string     `json:"image_url"`
	Quantity   int        `json:"quantity"`
	Ingredient string     `json:"ingredient,omitempty"`
	RecipeId   *uuid.UUID `json:"recipe_id,omitempty"`
}

type CartResponse struct {
	Items      []*CartItemResponse `json:"items"`
	ItemCount  int                 `json:"item_count"`
	TotalPrice float64             `json:"total_price"`
}

type BuildCartResponse struct {
	Added     []*CartItemResponse `json:"added"`
	Unmatched []string            `json:"unmatched"`
	Cart      *CartResponse       `json:"cart"`
}
