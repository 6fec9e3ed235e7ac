package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	GetOrCreate(ctx context.Context, ownerKey string, userID *uint) (*model.Cart, error)
	FindByOwnerKey(ctx context.Context, ownerKey string) (*model.Cart, error)
	FindItems(ctx context.Context, cartID uint) ([]model.CartItem, error)
	FindItem(ctx context.Context, cartID, itemID uint) (*model.CartItem, error)
	FindItemsByProduct(ctx context.Context, cartID, productID uint) ([]model.CartItem, error)
	AddQuantity(ctx context.Context, item *model.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error
	DeleteItem(ctx context.Context, itemID uint) error
	DeleteItemsByCart(ctx context.Context, cartID uint) error
	FindItemsForProduct(ctx context.Context, productID uint) ([]model.CartItem, error)
	UpdateItemSelection(ctx context.Context, itemID, colorID, sizeID uint) error
	DeleteItemsForProduct(ctx context.Context, productID uint) error
	Touch(ctx context.Context, cartID uint) error
	TouchByOwnerKey(ctx context.Context, ownerKey string) error
	FindAnonymousIdleSince(ctx context.Context, before time.Time) ([]uint, error)
	DeleteCarts(ctx context.Context, cartIDs []uint) (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

// GetOrCreate returns the cart for ownerKey, inserting it if absent.
// Concurrent callers race on the unique owner_key; the loser's insert is a no-op.
func (r *cartRepository) GetOrCreate(ctx context.Context, ownerKey string, userID *uint) (*model.Cart, error) {
	logger.Debug("Getting or creating cart", logger.Fields{
		"owner_key": ownerKey,
	})

	cart := model.Cart{OwnerKey: ownerKey, UserID: userID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_key"}},
			DoNothing: true,
		}).
		Create(&cart).Error
	if err != nil {
		logger.Error("Failed to insert cart", err, logger.Fields{
			"owner_key": ownerKey,
		})
		return nil, err
	}

	return r.FindByOwnerKey(ctx, ownerKey)
}

func (r *cartRepository) FindByOwnerKey(ctx context.Context, ownerKey string) (*model.Cart, error) {
	var cart model.Cart
	if err := r.db.WithContext(ctx).Where("owner_key = ?", ownerKey).First(&cart).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find cart by owner key", err, logger.Fields{
				"owner_key": ownerKey,
			})
		}
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) FindItems(ctx context.Context, cartID uint) ([]model.CartItem, error) {
	logger.Debug("Finding cart items", logger.Fields{
		"cart_id": cartID,
	})

	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Preload("Product").
		Preload("Color").
		Preload("Size").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to find cart items", err, logger.Fields{
			"cart_id": cartID,
		})
		return nil, err
	}

	logger.Debug("Cart items found", logger.Fields{
		"cart_id": cartID,
		"count":   len(items),
	})
	return items, nil
}

// FindItem scopes the lookup to cartID so an item id from another cart is not found
func (r *cartRepository) FindItem(ctx context.Context, cartID, itemID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find cart item", err, logger.Fields{
				"cart_id":      cartID,
				"cart_item_id": itemID,
			})
		}
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) FindItemsByProduct(ctx context.Context, cartID, productID uint) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to find cart items by product", err, logger.Fields{
			"cart_id":    cartID,
			"product_id": productID,
		})
		return nil, err
	}
	return items, nil
}

// AddQuantity inserts item or, when the same selection is already in the cart,
// adds item.Quantity to the existing line in a single statement.
func (r *cartRepository) AddQuantity(ctx context.Context, item *model.CartItem) error {
	logger.Debug("Upserting cart item", logger.Fields{
		"cart_id":    item.CartID,
		"product_id": item.ProductID,
		"color_id":   item.ColorID,
		"size_id":    item.SizeID,
		"quantity":   item.Quantity,
	})

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "cart_id"},
				{Name: "product_id"},
				{Name: "color_id"},
				{Name: "size_id"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"updated_at": time.Now(),
			}),
		}).
		Create(item).Error
	if err != nil {
		logger.Error("Failed to upsert cart item", err, logger.Fields{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) UpdateItemQuantity(ctx context.Context, itemID uint, quantity int) error {
	logger.Debug("Updating cart item quantity", logger.Fields{
		"cart_item_id": itemID,
		"quantity":     quantity,
	})

	if err := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error; err != nil {
		logger.Error("Failed to update cart item quantity", err, logger.Fields{
			"cart_item_id": itemID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, itemID uint) error {
	logger.Debug("Deleting cart item", logger.Fields{
		"cart_item_id": itemID,
	})

	if err := r.db.WithContext(ctx).Delete(&model.CartItem{}, itemID).Error; err != nil {
		logger.Error("Failed to delete cart item", err, logger.Fields{
			"cart_item_id": itemID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItemsByCart(ctx context.Context, cartID uint) error {
	logger.Debug("Clearing cart", logger.Fields{
		"cart_id": cartID,
	})

	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to clear cart", err, logger.Fields{
			"cart_id": cartID,
		})
		return err
	}
	return nil
}

// FindItemsForProduct returns lines referencing productID in every cart
func (r *cartRepository) FindItemsForProduct(ctx context.Context, productID uint) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		logger.Error("Failed to find cart items for product", err, logger.Fields{
			"product_id": productID,
		})
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) UpdateItemSelection(ctx context.Context, itemID, colorID, sizeID uint) error {
	err := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"color_id":   colorID,
			"size_id":    sizeID,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		logger.Error("Failed to remap cart item selection", err, logger.Fields{
			"cart_item_id": itemID,
		})
	}
	return err
}

func (r *cartRepository) DeleteItemsForProduct(ctx context.Context, productID uint) error {
	logger.Debug("Deleting cart items for product", logger.Fields{
		"product_id": productID,
	})

	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items for product", err, logger.Fields{
			"product_id": productID,
		})
		return err
	}
	return nil
}

// Touch bumps updated_at so idle-cart sweeps see recent activity
func (r *cartRepository) Touch(ctx context.Context, cartID uint) error {
	return r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now()).Error
}

// TouchByOwnerKey is a no-op when the owner has no cart yet
func (r *cartRepository) TouchByOwnerKey(ctx context.Context, ownerKey string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("owner_key = ?", ownerKey).
		Update("updated_at", time.Now()).Error
	if err != nil {
		logger.Error("Failed to touch cart", err, logger.Fields{
			"owner_key": ownerKey,
		})
	}
	return err
}

func (r *cartRepository) FindAnonymousIdleSince(ctx context.Context, before time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("user_id IS NULL AND updated_at < ?", before).
		Pluck("id", &ids).Error
	if err != nil {
		logger.Error("Failed to find idle anonymous carts", err, logger.Fields{
			"before": before,
		})
		return nil, err
	}
	return ids, nil
}

// DeleteCarts removes carts and their items
func (r *cartRepository) DeleteCarts(ctx context.Context, cartIDs []uint) (int64, error) {
	if len(cartIDs) == 0 {
		return 0, nil
	}

	db := r.db.WithContext(ctx)
	if err := db.Where("cart_id IN ?", cartIDs).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete items of carts", err, logger.Fields{
			"count": len(cartIDs),
		})
		return 0, err
	}

	result := db.Where("id IN ?", cartIDs).Delete(&model.Cart{})
	if result.Error != nil {
		logger.Error("Failed to delete carts", result.Error, logger.Fields{
			"count": len(cartIDs),
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
