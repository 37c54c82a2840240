package implementation

import (
	"context"
	"errors"

	"ai-recipe-be/internal/entity"
	"ai-recipe-be/internal/mapper"
	"ai-recipe-be/internal/model"
	"ai-recipe-be/internal/repository/contract"
	"ai-recipe-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CartMapper
}

func NewCartRepository(db *gorm.DB) contract.CartRepository {
	return &CartRepositoryImpl{
		db:     db,
		mapper: mapper.NewCartMapper(),
	}
}

func (r *CartRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CartRepositoryImpl) Create(ctx context.Context, item *entity.CartItem) error {
	m := r.mapper.ToModel(item)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*item = *r.mapper.ToEntity(m)
	return nil
}

func (r *CartRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CartItem, error) {
	var m model.CartItem
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *CartRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CartItem, error) {
	var models []*model.CartItem
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *CartRepositoryImpl) IncrementQuantity(ctx context.Context, id uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).Model(&model.CartItem{}).Where("id = ?", id).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

func (r *CartRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.CartItem{}).Error
}

func (r *CartRepositoryImpl) DeleteByUser(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.CartItem{}).Error
}
