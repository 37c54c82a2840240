package unitofwork

import (
	"context"

	"ai-recipe-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	PaymentTransactionRepository() contract.PaymentTransactionRepository
	RecipeRepository() contract.RecipeRepository
	CartRepository() contract.CartRepository
}
