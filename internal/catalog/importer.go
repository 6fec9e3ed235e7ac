package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

// Store is the part of the product service the catalog tools need
type Store interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error)
	CreateProduct(ctx context.Context, input service.ProductInput) (*model.Product, error)
	CreateCategory(ctx context.Context, input service.CategoryInput) (*model.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
}

type ImportResult struct {
	Created    int
	Categories int
}

// Import creates every row as a new product, creating missing categories by
// slug. Each product is its own transaction; the first failure stops the import.
func Import(ctx context.Context, store Store, rows []Row) (*ImportResult, error) {
	result := &ImportResult{}
	categories := map[string]uint{}

	for _, row := range rows {
		categoryID, ok := categories[row.Category]
		if !ok {
			category, err := store.FindCategoryBySlug(ctx, row.Category)
			if errors.Is(err, service.ErrCategoryNotFound) {
				category, err = store.CreateCategory(ctx, service.CategoryInput{Name: row.Category, Slug: row.Category})
				if err == nil {
					result.Categories++
				}
			}
			if err != nil {
				return result, &RowError{Line: row.Line, Err: fmt.Errorf("category %q: %w", row.Category, err)}
			}
			categoryID = category.ID
			categories[row.Category] = categoryID
		}

		product, err := store.CreateProduct(ctx, row.toInput(categoryID))
		if err != nil {
			return result, &RowError{Line: row.Line, Err: err}
		}
		result.Created++

		logger.Debug("Imported catalog row", logger.Fields{
			"line":       row.Line,
			"product_id": product.ID,
		})
	}

	logger.Info("Catalog import finished", logger.Fields{
		"created":    result.Created,
		"categories": result.Categories,
	})
	return result, nil
}

func (r Row) toInput(categoryID uint) service.ProductInput {
	input := service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		SalePrice:   r.SalePrice,
		Stock:       r.Stock,
		CategoryID:  categoryID,
		ImageURL:    r.ImageURL,
	}
	for _, c := range r.Colors {
		input.Colors = append(input.Colors, service.ColorInput{Name: c.Name, Code: c.Code})
	}
	for _, s := range r.Sizes {
		input.Sizes = append(input.Sizes, service.SizeInput{Name: s})
	}
	return input
}

const exportPageSize = 200

// Export loads the whole catalog with variants for Write
func Export(ctx context.Context, store Store) ([]model.Product, error) {
	var out []model.Product
	for offset := 0; ; offset += exportPageSize {
		page, total, err := store.ListProducts(ctx, repository.ProductFilter{Limit: exportPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) == 0 || int64(offset+len(page)) >= total {
			return out, nil
		}
	}
}
