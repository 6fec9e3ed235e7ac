package service

import (
	"context"
	"errors"

	"github.com/ikkim/storefront-backend/internal/app/identity"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	SkipProductUnavailable = "product_unavailable"
	SkipInsufficientStock  = "insufficient_stock"
	SkipNoVariants         = "no_variants"
)

type ReorderedLine struct {
	ProductID uint `json:"product_id"`
	ColorID   uint `json:"color_id"`
	SizeID    uint `json:"size_id"`
	Quantity  int  `json:"quantity"`
}

type SkippedLine struct {
	ProductID uint   `json:"product_id"`
	Reason    string `json:"reason"`
}

// ReorderResult reports what happened to each line of the historical order
type ReorderResult struct {
	CartID  uint            `json:"cart_id"`
	Added   []ReorderedLine `json:"added"`
	Skipped []SkippedLine   `json:"skipped"`
}

// Reorder copies a past order's lines into the user's cart in one transaction.
// Lines whose product is gone or short on stock are skipped, not failed.
func (s *orderService) Reorder(ctx context.Context, userID, orderID uint) (*ReorderResult, error) {
	logger.Info("Reordering", logger.Fields{
		"user_id":  userID,
		"order_id": orderID,
	})

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		logger.Warn("Reorder rejected: order belongs to another user", logger.Fields{
			"user_id":  userID,
			"order_id": orderID,
		})
		return nil, ErrOrderNotOwner
	}

	owner := identity.UserOwner(userID)
	result := &ReorderResult{Added: []ReorderedLine{}, Skipped: []SkippedLine{}}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		cart, err := cartRepo.GetOrCreate(ctx, owner.String(), owner.UserIDPtr())
		if err != nil {
			return err
		}
		result.CartID = cart.ID

		for _, line := range order.Items {
			added, reason, err := s.reorderLine(ctx, cartRepo, productRepo, cart.ID, line)
			if err != nil {
				return err
			}
			if reason != "" {
				result.Skipped = append(result.Skipped, SkippedLine{ProductID: line.ProductID, Reason: reason})
				continue
			}
			result.Added = append(result.Added, *added)
		}
		return cartRepo.Touch(ctx, cart.ID)
	})
	if err != nil {
		logger.Error("Reorder failed", err, logger.Fields{
			"user_id":  userID,
			"order_id": orderID,
		})
		return nil, err
	}

	logger.Info("Reorder completed", logger.Fields{
		"user_id":  userID,
		"order_id": orderID,
		"added":    len(result.Added),
		"skipped":  len(result.Skipped),
	})
	return result, nil
}

// reorderLine returns either the line written to the cart or a skip reason
func (s *orderService) reorderLine(
	ctx context.Context,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	cartID uint,
	line model.OrderItem,
) (*ReorderedLine, string, error) {
	product, err := productRepo.LockForShare(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, SkipProductUnavailable, nil
		}
		return nil, "", err
	}
	if product.Stock < line.Quantity {
		return nil, SkipInsufficientStock, nil
	}

	existing, err := cartRepo.FindItemsByProduct(ctx, cartID, product.ID)
	if err != nil {
		return nil, "", err
	}
	if len(existing) > 0 {
		item := existing[0]
		if err := cartRepo.UpdateItemQuantity(ctx, item.ID, item.Quantity+line.Quantity); err != nil {
			return nil, "", err
		}
		return &ReorderedLine{ProductID: product.ID, ColorID: item.ColorID, SizeID: item.SizeID, Quantity: line.Quantity}, "", nil
	}

	colorID, err := pickColor(ctx, productRepo, product.ID, line.ColorID)
	if err != nil {
		return nil, "", err
	}
	sizeID, err := pickSize(ctx, productRepo, product.ID, line.SizeID)
	if err != nil {
		return nil, "", err
	}
	if colorID == 0 || sizeID == 0 {
		return nil, SkipNoVariants, nil
	}

	if err := cartRepo.AddQuantity(ctx, &model.CartItem{
		CartID:    cartID,
		ProductID: product.ID,
		ColorID:   colorID,
		SizeID:    sizeID,
		Quantity:  line.Quantity,
	}); err != nil {
		return nil, "", err
	}
	return &ReorderedLine{ProductID: product.ID, ColorID: colorID, SizeID: sizeID, Quantity: line.Quantity}, "", nil
}

// pickColor prefers the historical color, falling back to the product's first one; 0 means none exist
func pickColor(ctx context.Context, repo repository.ProductRepository, productID, historical uint) (uint, error) {
	if historical != 0 {
		ok, err := repo.HasColor(ctx, productID, historical)
		if err != nil || ok {
			return historical, err
		}
	}
	colors, err := repo.FindColors(ctx, productID)
	if err != nil || len(colors) == 0 {
		return 0, err
	}
	return colors[0].ID, nil
}

func pickSize(ctx context.Context, repo repository.ProductRepository, productID, historical uint) (uint, error) {
	if historical != 0 {
		ok, err := repo.HasSize(ctx, productID, historical)
		if err != nil || ok {
			return historical, err
		}
	}
	sizes, err := repo.FindSizes(ctx, productID)
	if err != nil || len(sizes) == 0 {
		return 0, err
	}
	return sizes[0].ID, nil
}
