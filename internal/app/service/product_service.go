package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type AttributeInput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ProductService interface {
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error)
	CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error)
	ReplaceProduct(ctx context.Context, id uint, input ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*model.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	ListAttributes(ctx context.Context) ([]model.Attribute, error)
	CreateAttribute(ctx context.Context, input AttributeInput) (*model.Attribute, error)
}

type productService struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	cartRepo     repository.CartRepository
}

func NewProductService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	cartRepo repository.CartRepository,
) ProductService {
	return &productService{
		db:           db,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cartRepo:     cartRepo,
	}
}

func (s *productService) bind(tx *gorm.DB) variantTx {
	return variantTx{
		products:   s.productRepo.WithTx(tx),
		categories: s.categoryRepo.WithTx(tx),
		carts:      s.cartRepo.WithTx(tx),
	}
}

func (s *productService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	return s.productRepo.FindAll(ctx, filter)
}

func (s *productService) requireCategory(ctx context.Context, tx variantTx, categoryID uint) error {
	exists, err := tx.categories.CategoryExists(ctx, categoryID)
	if err != nil {
		return err
	}
	if !exists {
		logger.Warn("Product rejected: category not found", logger.Fields{
			"category_id": categoryID,
		})
		return ErrCategoryNotFound
	}
	return nil
}

func (s *productService) CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error) {
	logger.Info("Creating product", logger.Fields{
		"name":        input.Name,
		"category_id": input.CategoryID,
		"colors":      len(input.Colors),
		"sizes":       len(input.Sizes),
	})

	if err := input.Validate(); err != nil {
		logger.Warn("Product rejected: invalid input", logger.Fields{
			"error": err.Error(),
		})
		return nil, err
	}

	var product model.Product
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		tx := s.bind(db)
		if err := s.requireCategory(ctx, tx, input.CategoryID); err != nil {
			return err
		}

		input.applyTo(&product)
		if err := tx.products.Create(ctx, &product); err != nil {
			return err
		}
		return replaceVariantAggregate(ctx, tx, &product, input)
	})
	if err != nil {
		logger.Error("Failed to create product", err, logger.Fields{
			"name": input.Name,
		})
		return nil, err
	}

	logger.Info("Product created", logger.Fields{
		"product_id": product.ID,
	})
	return s.GetProduct(ctx, product.ID)
}

// ReplaceProduct swaps the product's fields and whole variant set for input in one transaction
func (s *productService) ReplaceProduct(ctx context.Context, id uint, input ProductInput) (*model.Product, error) {
	logger.Info("Replacing product", logger.Fields{
		"product_id":  id,
		"category_id": input.CategoryID,
		"colors":      len(input.Colors),
		"sizes":       len(input.Sizes),
	})

	if err := input.Validate(); err != nil {
		logger.Warn("Product update rejected: invalid input", logger.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		tx := s.bind(db)

		product, err := tx.products.LockForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if err := s.requireCategory(ctx, tx, input.CategoryID); err != nil {
			return err
		}
		return replaceVariantAggregate(ctx, tx, product, input)
	})
	if err != nil {
		logger.Error("Failed to replace product", err, logger.Fields{
			"product_id": id,
		})
		return nil, err
	}

	logger.Info("Product replaced", logger.Fields{
		"product_id": id,
	})
	return s.GetProduct(ctx, id)
}

// DeleteProduct removes the product along with its variants, attribute links and cart lines
func (s *productService) DeleteProduct(ctx context.Context, id uint) error {
	logger.Info("Deleting product", logger.Fields{
		"product_id": id,
	})

	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		tx := s.bind(db)

		if _, err := tx.products.LockForUpdate(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if err := tx.carts.DeleteItemsForProduct(ctx, id); err != nil {
			return err
		}
		if err := tx.products.DeleteColors(ctx, id); err != nil {
			return err
		}
		if err := tx.products.DeleteSizes(ctx, id); err != nil {
			return err
		}
		if err := tx.products.DeleteAttributeLinks(ctx, id); err != nil {
			return err
		}
		return tx.products.Delete(ctx, id)
	})
	if err != nil {
		logger.Error("Failed to delete product", err, logger.Fields{
			"product_id": id,
		})
		return err
	}

	logger.Info("Product deleted", logger.Fields{
		"product_id": id,
	})
	return nil
}

func (s *productService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.FindCategories(ctx)
}

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	return strings.Trim(slugInvalidChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func (s *productService) CreateCategory(ctx context.Context, input CategoryInput) (*model.Category, error) {
	fields := FieldErrors{}
	requireNonBlank(fields, "name", input.Name)
	if err := fields.asError(); err != nil {
		return nil, err
	}

	slug := slugify(input.Slug)
	if slug == "" {
		slug = slugify(input.Name)
	}
	if slug == "" {
		return nil, FieldErrors{"slug": "must contain letters or digits"}.asError()
	}

	category := &model.Category{Name: strings.TrimSpace(input.Name), Slug: slug}
	if err := s.categoryRepo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}

	logger.Info("Category created", logger.Fields{
		"category_id": category.ID,
		"slug":        category.Slug,
	})
	return category, nil
}

func (s *productService) FindCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	category, err := s.categoryRepo.FindCategoryBySlug(ctx, slugify(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *productService) ListAttributes(ctx context.Context) ([]model.Attribute, error) {
	return s.categoryRepo.FindAttributes(ctx)
}

func (s *productService) CreateAttribute(ctx context.Context, input AttributeInput) (*model.Attribute, error) {
	fields := FieldErrors{}
	requireNonBlank(fields, "name", input.Name)
	requireNonBlank(fields, "value", input.Value)
	if err := fields.asError(); err != nil {
		return nil, err
	}

	attribute := &model.Attribute{Name: strings.TrimSpace(input.Name), Value: strings.TrimSpace(input.Value)}
	if err := s.categoryRepo.CreateAttribute(ctx, attribute); err != nil {
		return nil, err
	}

	logger.Info("Attribute created", logger.Fields{
		"attribute_id": attribute.ID,
		"name":         attribute.Name,
	})
	return attribute, nil
}
