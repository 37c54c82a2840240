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

type RecipeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RecipeMapper
}

func NewRecipeRepository(db *gorm.DB) contract.RecipeRepository {
	return &RecipeRepositoryImpl{
		db:     db,
		mapper: mapper.NewRecipeMapper(),
	}
}

func (r *RecipeRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *RecipeRepositoryImpl) Create(ctx context.Context, recipe *entity.Recipe) error {
	m := r.mapper.ToModel(recipe)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*recipe = *r.mapper.ToEntity(m)
	return nil
}

func (r *RecipeRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Recipe, error) {
	var m model.Recipe
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *RecipeRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Recipe, error) {
	var models []*model.Recipe
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *RecipeRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Recipe{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RecipeRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Recipe{}).Error
}
