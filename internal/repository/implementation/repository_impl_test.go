package implementation_test

import (
	"context"
	"testing"
	"time"

	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/model"
	"ai-recipe-be/internal/repository/contract"
	"ai-recipe-be/internal/repository/implementation"
	"ai-recipe-be/internal/repository/specification"
	"ai-recipe-be/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewInMemoryDB(&model.User{}, &model.PaymentTransaction{}, &model.CartItem{}, &model.Recipe{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, repo contract.UserRepository, status entity.SubscriptionStatus) *entity.User {
	t.Helper()
	trialEnd := t0.Add(7 * 24 * time.Hour)
	user := &entity.User{
		Id:                 uuid.New(),
		Email:              uuid.NewString() + "@example.com",
		FullName:           "Repo Cook",
		SubscriptionStatus: status,
		TrialStartDate:     &t0,
		TrialEndDate:       &trialEnd,
		CreatedAt:          t0,
		UpdatedAt:          t0,
	}
	if status == entity.SubscriptionStatusActive {
		end := t0.Add(30 * 24 * time.Hour)
		user.SubscriptionEndDate = &end
		user.NextBillingDate = &end
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestApplyStatus(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	repo := implementation.NewPaymentTransactionRepository(db)

	require.NoError(t, repo.Create(ctx, &entity.PaymentTransaction{
		Id:            uuid.New(),
		UserId:        uuid.New(),
		Provider:      "stripe",
		SessionId:     "cs_1",
		Status:        entity.PaymentStatusPending,
		SessionStatus: "open",
		PaymentStatus: "unpaid",
		Amount:        999,
		Currency:      "usd",
		Metadata:      map[string]string{"package_id": "premium_monthly"},
		CreatedAt:     t0,
		UpdatedAt:     t0,
	}))

	same := contract.TransactionStatusUpdate{Status: entity.PaymentStatusPending, SessionStatus: "open", PaymentStatus: "unpaid", At: t0}
	changed, err := repo.ApplyStatus(ctx, "cs_1", same)
	require.NoError(t, err)
	assert.False(t, changed, "identical state is not a change")

	paid := contract.TransactionStatusUpdate{Status: entity.PaymentStatusPaid, SessionStatus: "complete", PaymentStatus: "paid", At: t0.Add(time.Minute)}
	changed, err = repo.ApplyStatus(ctx, "cs_1", paid)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.ApplyStatus(ctx, "cs_1", paid)
	require.NoError(t, err)
	assert.False(t, changed, "paid is applied once")

	changed, err = repo.ApplyStatus(ctx, "cs_1", contract.TransactionStatusUpdate{Status: entity.PaymentStatusExpired, SessionStatus: "expired", PaymentStatus: "unpaid", At: t0.Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, changed, "paid is terminal")

	tx, err := repo.FindOne(ctx, specification.BySessionID{SessionID: "cs_1"})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPaid, tx.Status)
	require.NotNil(t, tx.CompletedAt)
	assert.Equal(t, "premium_monthly", tx.Metadata["package_id"])

	changed, err = repo.ApplyStatus(ctx, "cs_missing", paid)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestUserLifecycleUpdates(t *testing.T) {
	ctx := context.Background()
	repo := implementation.NewUserRepository(setupDB(t))

	t.Run("activate", func(t *testing.T) {
		user := seedUser(t, repo, entity.SubscriptionStatusTrial)
		customer := "cus_1"
		ok, err := repo.ActivateSubscription(ctx, user.Id, contract.SubscriptionActivation{
			PaidAt:     t0,
			PeriodEnd:  t0.Add(30 * 24 * time.Hour),
			CustomerId: &customer,
		})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.FindOne(ctx, specification.ByID{ID: user.Id})
		require.NoError(t, err)
		assert.Equal(t, entity.SubscriptionStatusActive, got.SubscriptionStatus)
		require.NotNil(t, got.ExternalCustomerId)
		assert.Equal(t, "cus_1", *got.ExternalCustomerId)
		require.NotNil(t, got.LastPaymentDate)

		ok, err = repo.ActivateSubscription(ctx, uuid.New(), contract.SubscriptionActivation{PaidAt: t0, PeriodEnd: t0})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("cancel only from active", func(t *testing.T) {
		user := seedUser(t, repo, entity.SubscriptionStatusActive)
		ok, err := repo.CancelSubscription(ctx, user.Id, t0, nil)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.CancelSubscription(ctx, user.Id, t0, nil)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.FindOne(ctx, specification.ByID{ID: user.Id})
		require.NoError(t, err)
		assert.Equal(t, entity.SubscriptionStatusCancelled, got.SubscriptionStatus)
		assert.Nil(t, got.SubscriptionEndDate)
	})

	t.Run("restart trial compares status", func(t *testing.T) {
		user := seedUser(t, repo, entity.SubscriptionStatusCancelled)
		start := t0.Add(40 * 24 * time.Hour)

		ok, err := repo.RestartTrial(ctx, user.Id, entity.SubscriptionStatusTrial, start, start.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.RestartTrial(ctx, user.Id, entity.SubscriptionStatusCancelled, start, start.Add(7*24*time.Hour))
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.FindOne(ctx, specification.ByID{ID: user.Id})
		require.NoError(t, err)
		assert.Equal(t, entity.SubscriptionStatusTrial, got.SubscriptionStatus)
		require.NotNil(t, got.TrialEndDate)
		assert.True(t, got.TrialEndDate.Equal(start.Add(7*24*time.Hour)))
	})

	t.Run("email lookup ignores case", func(t *testing.T) {
		user := seedUser(t, repo, entity.SubscriptionStatusTrial)
		got, err := repo.FindOne(ctx, specification.ByEmail{Email: "  " + user.Email})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, user.Id, got.Id)
	})
}

func TestCartIncrement(t *testing.T) {
	ctx := context.Background()
	repo := implementation.NewCartRepository(setupDB(t))
	userId := uuid.New()

	item := &entity.CartItem{Id: uuid.New(), UserId: userId, ProductId: "p-1", Name: "Onion", Price: 0.8, Quantity: 1, CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, repo.Create(ctx, item))
	require.NoError(t, repo.IncrementQuantity(ctx, item.Id, 2))

	got, err := repo.FindOne(ctx, specification.UserOwnedBy{UserID: userId}, specification.ByProductID{ProductID: "p-1"})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	require.NoError(t, repo.DeleteByUser(ctx, userId))
	items, err := repo.FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	assert.Empty(t, items)
}
