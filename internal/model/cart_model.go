package model

import (
	"time"

	"github.com/google/uuid"
)

type CartItem struct {
	Id         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserId     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_cart_items_user_product"`
	ProductId  string     `gorm:"type:varchar(255);not null;uniqueIndex:ux_cart_items_user_product"`
	Name       string     `gorm:"type:varchar(255);not null"`
	Price      float64    `gorm:"type:decimal(10,2)"`
	ImageURL   string     `gorm:"type:text"`
	Quantity   int        `gorm:"not null;default:1"`
	Ingredient string     `gorm:"type:varchar(255)"`
	RecipeId   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
