package entity

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one retailer product in a user's grocery cart. A user has a single cart.
type CartItem struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	ProductId  string
	Name       string
	Price      float64
	ImageURL   string
	Quantity   int
	Ingredient string
	RecipeId   *uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type GroceryCart struct {
	UserId     uuid.UUID
	Items      []*CartItem
	TotalPrice float64
}
