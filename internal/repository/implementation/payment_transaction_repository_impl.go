package implementation

import (
	"context"
	"errors"

	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/mapper"
	"ai-recipe-be/internal/model"
	"ai-recipe-be/internal/repository/contract"
	"ai-recipe-be/internal/repository/specification"

	"gorm.io/gorm"
)

type PaymentTransactionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PaymentTransactionMapper
}

func NewPaymentTransactionRepository(db *gorm.DB) contract.PaymentTransactionRepository {
	return &PaymentTransactionRepositoryImpl{
		db:     db,
		mapper: mapper.NewPaymentTransactionMapper(),
	}
}

func (r *PaymentTransactionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PaymentTransactionRepositoryImpl) Create(ctx context.Context, tx *entity.PaymentTransaction) error {
	m := r.mapper.ToModel(tx)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*tx = *r.mapper.ToEntity(m)
	return nil
}

func (r *PaymentTransactionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PaymentTransaction, error) {
	var m model.PaymentTransaction
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PaymentTransactionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PaymentTransaction, error) {
	var models []*model.PaymentTransaction
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PaymentTransactionRepositoryImpl) ApplyStatus(ctx context.Context, sessionId string, update contract.TransactionStatusUpdate) (bool, error) {
	updates := map[string]interface{}{
		"status":         string(update.Status),
		"session_status": update.SessionStatus,
		"payment_status": update.PaymentStatus,
		"updated_at":     update.At,
	}
	if update.PaymentIntentId != nil {
		updates["payment_intent_id"] = *update.PaymentIntentId
	}

	// Paid is terminal: once stored, nothing overwrites it.
	query := r.db.WithContext(ctx).Model(&model.PaymentTransaction{}).
		Where("session_id = ? AND status <> ?", sessionId, string(entity.PaymentStatusPaid))

	if update.Status == entity.PaymentStatusPaid {
		updates["completed_at"] = update.At
	} else {
		query = query.Where("(status <> ? OR session_status <> ? OR payment_status <> ?)",
			string(update.Status), update.SessionStatus, update.PaymentStatus)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
