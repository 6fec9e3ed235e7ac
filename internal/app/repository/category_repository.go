package repository

import (
	"context"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

// CategoryRepository covers categories and the shared attribute catalogue
type CategoryRepository interface {
	WithTx(tx *gorm.DB) CategoryRepository
	CreateCategory(ctx context.Context, category *model.Category) error
	FindCategories(ctx context.Context) ([]model.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	CategoryExists(ctx context.Context, id uint) (bool, error)
	CreateAttribute(ctx context.Context, attribute *model.Attribute) error
	FindAttributes(ctx context.Context) ([]model.Attribute, error)
	CountAttributes(ctx context.Context, ids []uint) (int64, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) WithTx(tx *gorm.DB) CategoryRepository {
	return &categoryRepository{db: tx}
}

func (r *categoryRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	logger.Debug("Creating category in database", logger.Fields{
		"slug": category.Slug,
	})

	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		logger.Error("Failed to create category in database", err, logger.Fields{
			"slug": category.Slug,
		})
		return err
	}
	return nil
}

func (r *categoryRepository) FindCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		logger.Error("Failed to find categories", err)
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) FindCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) CategoryExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) CreateAttribute(ctx context.Context, attribute *model.Attribute) error {
	logger.Debug("Creating attribute in database", logger.Fields{
		"name":  attribute.Name,
		"value": attribute.Value,
	})

	if err := r.db.WithContext(ctx).Create(attribute).Error; err != nil {
		logger.Error("Failed to create attribute in database", err, logger.Fields{
			"name": attribute.Name,
		})
		return err
	}
	return nil
}

func (r *categoryRepository) FindAttributes(ctx context.Context) ([]model.Attribute, error) {
	var attributes []model.Attribute
	if err := r.db.WithContext(ctx).Order("name ASC, value ASC").Find(&attributes).Error; err != nil {
		logger.Error("Failed to find attributes", err)
		return nil, err
	}
	return attributes, nil
}

// CountAttributes counts how many of ids exist
func (r *categoryRepository) CountAttributes(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Attribute{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}
