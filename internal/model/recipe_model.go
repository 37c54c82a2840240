package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Recipe struct {
	Id              uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	UserId          uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Kind            string                      `gorm:"type:varchar(20);not null;default:'recipe';index"`
	Title           string                      `gorm:"type:varchar(255);not null"`
	Description     string                      `gorm:"type:text"`
	Ingredients     datatypes.JSONSlice[string] `json:"ingredients"`
	Instructions    datatypes.JSONSlice[string] `json:"instructions"`
	PrepTimeMinutes int
	CookTimeMinutes int
	Servings        int
	Cuisine         string                      `gorm:"type:varchar(100)"`
	Tags            datatypes.JSONSlice[string] `json:"tags"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt       time.Time                   `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt              `gorm:"index"`
}

func (Recipe) TableName() string {
	return "recipes"
}
