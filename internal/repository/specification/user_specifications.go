package specification

import (
	"strings"

	"gorm.io/gorm"
)

// ByEmail matches case-insensitively; emails are stored lower-cased.
type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", strings.ToLower(strings.TrimSpace(s.Email)))
}

// Token Specs

type ByToken struct {
	Token string
}

func (s ByToken) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("token = ?", s.Token)
}

type NotUsed struct{}

func (s NotUsed) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("used = ?", false)
}
