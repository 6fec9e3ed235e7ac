package service

import (
	"context"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSalePrice = apperrors.Validation(apperrors.ProductInvalidSalePrice, "sale price must be less than price")
	ErrDuplicateVariant = apperrors.Validation(apperrors.ProductDuplicateVariant, "color and size names must be unique")
)

type ColorInput struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type SizeInput struct {
	Name string `json:"name"`
}

// ProductInput is the full desired state of a product and its variants
type ProductInput struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Price        decimal.Decimal  `json:"price"`
	SalePrice    *decimal.Decimal `json:"sale_price"`
	Stock        int              `json:"stock"`
	CategoryID   uint             `json:"category_id"`
	ImageURL     string           `json:"image_url"`
	Colors       []ColorInput     `json:"colors"`
	Sizes        []SizeInput      `json:"sizes"`
	AttributeIDs []uint           `json:"attribute_ids"`
}

// Validate checks everything that can be checked without the store
func (in ProductInput) Validate() error {
	fields := FieldErrors{}
	requireNonBlank(fields, "name", in.Name)
	if !in.Price.IsPositive() {
		fields["price"] = "must be greater than zero"
	}
	if in.Stock < 0 {
		fields["stock"] = "must not be negative"
	}
	if in.CategoryID == 0 {
		fields["category_id"] = "is required"
	}
	if err := fields.asError(); err != nil {
		return err
	}

	if in.SalePrice != nil && !in.SalePrice.LessThan(in.Price) {
		return ErrInvalidSalePrice.Withf("sale price %s must be less than price %s", in.SalePrice.String(), in.Price.String())
	}
	if in.SalePrice != nil && in.SalePrice.IsNegative() {
		return ErrInvalidSalePrice.Withf("sale price %s must not be negative", in.SalePrice.String())
	}

	seen := map[string]bool{}
	for _, c := range in.Colors {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return FieldErrors{"colors": "color name is required"}.asError()
		}
		if seen[strings.ToLower(name)] {
			return ErrDuplicateVariant.Withf("duplicate color %q", name)
		}
		seen[strings.ToLower(name)] = true
	}

	seen = map[string]bool{}
	for _, sz := range in.Sizes {
		name := strings.TrimSpace(sz.Name)
		if name == "" {
			return FieldErrors{"sizes": "size name is required"}.asError()
		}
		if seen[strings.ToLower(name)] {
			return ErrDuplicateVariant.Withf("duplicate size %q", name)
		}
		seen[strings.ToLower(name)] = true
	}
	return nil
}

func (in ProductInput) applyTo(product *model.Product) {
	product.Name = strings.TrimSpace(in.Name)
	product.Description = in.Description
	product.Price = in.Price
	product.SalePrice = decimal.NullDecimal{}
	if in.SalePrice != nil {
		product.SalePrice = decimal.NewNullDecimal(*in.SalePrice)
	}
	product.Stock = in.Stock
	product.CategoryID = in.CategoryID
	product.ImageURL = in.ImageURL
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// variantTx groups the repositories bound to one transaction
type variantTx struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	carts      repository.CartRepository
}

// replaceVariantAggregate rewrites a product's scalar fields, colors, sizes
// and attribute links from input, then repoints cart lines at the new
// variants. It must run inside a transaction: any failure leaves the product
// exactly as it was.
func replaceVariantAggregate(ctx context.Context, tx variantTx, product *model.Product, input ProductInput) error {
	oldColors, err := tx.products.FindColors(ctx, product.ID)
	if err != nil {
		return err
	}
	oldSizes, err := tx.products.FindSizes(ctx, product.ID)
	if err != nil {
		return err
	}

	if err := tx.products.DeleteColors(ctx, product.ID); err != nil {
		return err
	}
	if err := tx.products.DeleteSizes(ctx, product.ID); err != nil {
		return err
	}
	if err := tx.products.DeleteAttributeLinks(ctx, product.ID); err != nil {
		return err
	}

	input.applyTo(product)
	if err := tx.products.UpdateFields(ctx, product); err != nil {
		return err
	}

	colors := make([]model.Color, 0, len(input.Colors))
	for _, c := range input.Colors {
		colors = append(colors, model.Color{ProductID: product.ID, Name: strings.TrimSpace(c.Name), Code: strings.TrimSpace(c.Code)})
	}
	if err := tx.products.CreateColors(ctx, colors); err != nil {
		return err
	}

	sizes := make([]model.Size, 0, len(input.Sizes))
	for _, sz := range input.Sizes {
		sizes = append(sizes, model.Size{ProductID: product.ID, Name: strings.TrimSpace(sz.Name)})
	}
	if err := tx.products.CreateSizes(ctx, sizes); err != nil {
		return err
	}

	attributeIDs := uniqueIDs(input.AttributeIDs)
	if len(attributeIDs) > 0 {
		found, err := tx.categories.CountAttributes(ctx, attributeIDs)
		if err != nil {
			return err
		}
		if found != int64(len(attributeIDs)) {
			logger.Warn("Variant replace aborted: unknown attribute", logger.Fields{
				"product_id":    product.ID,
				"attribute_ids": attributeIDs,
				"found":         found,
			})
			return ErrAttributeNotFound
		}

		links := make([]model.ProductAttribute, 0, len(attributeIDs))
		for _, id := range attributeIDs {
			links = append(links, model.ProductAttribute{ProductID: product.ID, AttributeID: id})
		}
		if err := tx.products.CreateAttributeLinks(ctx, links); err != nil {
			return err
		}
	}

	if err := reconcileCartLines(ctx, tx.carts, product.ID, oldColors, oldSizes, colors, sizes); err != nil {
		return err
	}

	product.Colors = colors
	product.Sizes = sizes
	return nil
}

// reconcileCartLines keeps cart lines pointing at live variants. A line whose
// color and size names survive the edit is moved to the new rows; any other
// line is dropped.
func reconcileCartLines(
	ctx context.Context,
	carts repository.CartRepository,
	productID uint,
	oldColors []model.Color,
	oldSizes []model.Size,
	newColors []model.Color,
	newSizes []model.Size,
) error {
	items, err := carts.FindItemsForProduct(ctx, productID)
	if err != nil || len(items) == 0 {
		return err
	}

	colorByName := make(map[string]uint, len(newColors))
	for _, c := range newColors {
		colorByName[strings.ToLower(c.Name)] = c.ID
	}
	sizeByName := make(map[string]uint, len(newSizes))
	for _, sz := range newSizes {
		sizeByName[strings.ToLower(sz.Name)] = sz.ID
	}

	colorRemap := make(map[uint]uint, len(oldColors))
	for _, c := range oldColors {
		if id, ok := colorByName[strings.ToLower(c.Name)]; ok {
			colorRemap[c.ID] = id
		}
	}
	sizeRemap := make(map[uint]uint, len(oldSizes))
	for _, sz := range oldSizes {
		if id, ok := sizeByName[strings.ToLower(sz.Name)]; ok {
			sizeRemap[sz.ID] = id
		}
	}

	var remapped, dropped int
	for _, item := range items {
		colorID, colorOK := colorRemap[item.ColorID]
		sizeID, sizeOK := sizeRemap[item.SizeID]
		if !colorOK || !sizeOK {
			if err := carts.DeleteItem(ctx, item.ID); err != nil {
				return err
			}
			dropped++
			continue
		}
		if err := carts.UpdateItemSelection(ctx, item.ID, colorID, sizeID); err != nil {
			return err
		}
		remapped++
	}

	logger.Debug("Cart lines reconciled with new variants", logger.Fields{
		"product_id": productID,
		"remapped":   remapped,
		"dropped":    dropped,
	})
	return nil
}
