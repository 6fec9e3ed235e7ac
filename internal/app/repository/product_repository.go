package repository

import (
	"context"
	"errors"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	CategoryID *uint
	Limit      int
	Offset     int
}

type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	LockForShare(ctx context.Context, id uint) (*model.Product, error)
	LockForUpdate(ctx context.Context, id uint) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	UpdateFields(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uint) error
	DecrementStock(ctx context.Context, id uint, quantity int) error

	FindColors(ctx context.Context, productID uint) ([]model.Color, error)
	FindSizes(ctx context.Context, productID uint) ([]model.Size, error)
	HasColor(ctx context.Context, productID, colorID uint) (bool, error)
	HasSize(ctx context.Context, productID, sizeID uint) (bool, error)
	DeleteColors(ctx context.Context, productID uint) error
	DeleteSizes(ctx context.Context, productID uint) error
	DeleteAttributeLinks(ctx context.Context, productID uint) error
	CreateColors(ctx context.Context, colors []model.Color) error
	CreateSizes(ctx context.Context, sizes []model.Size) error
	CreateAttributeLinks(ctx context.Context, links []model.ProductAttribute) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepository{db: tx}
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", logger.Fields{
		"product_id": id,
	})

	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Colors", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Attributes").
		First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Debug("Product not found in database", logger.Fields{
				"product_id": id,
			})
		} else {
			logger.Error("Failed to find product by ID in database", err, logger.Fields{
				"product_id": id,
			})
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindAll(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products in database", logger.Fields{
		"category_id": filter.CategoryID,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	})

	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&model.Product{})
		if filter.CategoryID != nil {
			query = query.Where("category_id = ?", *filter.CategoryID)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	query := scoped()
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []model.Product
	err := query.
		Preload("Category").
		Preload("Colors", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Attributes").
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to find products in database", err)
		return nil, 0, err
	}

	logger.Debug("Products found in database", logger.Fields{
		"count": len(products),
		"total": total,
	})
	return products, total, nil
}

// LockForShare blocks concurrent variant replacement of the product until the caller's transaction ends
func (r *productRepository) LockForShare(ctx context.Context, id uint) (*model.Product, error) {
	return r.lock(ctx, id, "SHARE")
}

func (r *productRepository) LockForUpdate(ctx context.Context, id uint) (*model.Product, error) {
	return r.lock(ctx, id, "UPDATE")
}

func (r *productRepository) lock(ctx context.Context, id uint, strength string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: strength}).
		First(&product, id).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to lock product", err, logger.Fields{
				"product_id": id,
				"strength":   strength,
			})
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	logger.Debug("Creating product in database", logger.Fields{
		"name":        product.Name,
		"category_id": product.CategoryID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, logger.Fields{
			"name": product.Name,
		})
		return err
	}

	logger.Debug("Product created in database", logger.Fields{
		"product_id": product.ID,
	})
	return nil
}

// UpdateFields writes the scalar columns only; variants are replaced separately
func (r *productRepository) UpdateFields(ctx context.Context, product *model.Product) error {
	logger.Debug("Updating product fields in database", logger.Fields{
		"product_id": product.ID,
	})

	err := r.db.WithContext(ctx).
		Model(product).
		Select("name", "description", "price", "sale_price", "stock", "category_id", "image_url", "updated_at").
		Omit(clause.Associations).
		Updates(product).Error
	if err != nil {
		logger.Error("Failed to update product fields in database", err, logger.Fields{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	logger.Debug("Deleting product from database", logger.Fields{
		"product_id": id,
	})

	if err := r.db.WithContext(ctx).Delete(&model.Product{}, id).Error; err != nil {
		logger.Error("Failed to delete product from database", err, logger.Fields{
			"product_id": id,
		})
		return err
	}
	return nil
}

func (r *productRepository) DecrementStock(ctx context.Context, id uint, quantity int) error {
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock - ?", quantity)).Error
	if err != nil {
		logger.Error("Failed to decrement product stock", err, logger.Fields{
			"product_id": id,
			"quantity":   quantity,
		})
	}
	return err
}

func (r *productRepository) FindColors(ctx context.Context, productID uint) ([]model.Color, error) {
	var colors []model.Color
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("id ASC").Find(&colors).Error
	return colors, err
}

func (r *productRepository) FindSizes(ctx context.Context, productID uint) ([]model.Size, error) {
	var sizes []model.Size
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("id ASC").Find(&sizes).Error
	return sizes, err
}

func (r *productRepository) HasColor(ctx context.Context, productID, colorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Color{}).
		Where("id = ? AND product_id = ?", colorID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *productRepository) HasSize(ctx context.Context, productID, sizeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Size{}).
		Where("id = ? AND product_id = ?", sizeID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *productRepository) DeleteColors(ctx context.Context, productID uint) error {
	return r.deleteByProduct(ctx, &model.Color{}, productID, "colors")
}

func (r *productRepository) DeleteSizes(ctx context.Context, productID uint) error {
	return r.deleteByProduct(ctx, &model.Size{}, productID, "sizes")
}

func (r *productRepository) DeleteAttributeLinks(ctx context.Context, productID uint) error {
	return r.deleteByProduct(ctx, &model.ProductAttribute{}, productID, "attribute links")
}

func (r *productRepository) deleteByProduct(ctx context.Context, value interface{}, productID uint, what string) error {
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(value).Error; err != nil {
		logger.Error("Failed to delete product "+what, err, logger.Fields{
			"product_id": productID,
		})
		return err
	}
	return nil
}

func (r *productRepository) CreateColors(ctx context.Context, colors []model.Color) error {
	if len(colors) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&colors).Error
}

func (r *productRepository) CreateSizes(ctx context.Context, sizes []model.Size) error {
	if len(sizes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&sizes).Error
}

func (r *productRepository) CreateAttributeLinks(ctx context.Context, links []model.ProductAttribute) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&links).Error
}
