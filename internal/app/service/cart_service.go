package service

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/identity"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound = apperrors.NotFound(apperrors.CartItemNotFound, "cart item not found")
	ErrInvalidSelection = apperrors.Validation(apperrors.CartInvalidSelection, "color or size does not belong to the product")
	ErrInvalidQuantity  = apperrors.Validation(apperrors.CartInvalidQuantity, "quantity must be greater than zero")
)

// CartLine is a cart item priced at read time
type CartLine struct {
	model.CartItem
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartSummary struct {
	CartID        uint            `json:"cart_id"`
	Items         []CartLine      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Count         int             `json:"count"`          // distinct lines
	TotalQuantity int             `json:"total_quantity"` // sum of quantities
}

type CartService interface {
	GetOrCreate(ctx context.Context, owner identity.OwnerKey) (*model.Cart, error)
	AddItem(ctx context.Context, owner identity.OwnerKey, productID, colorID, sizeID uint, quantity int) error
	UpdateQuantity(ctx context.Context, owner identity.OwnerKey, itemID uint, quantity int) error
	RemoveItem(ctx context.Context, owner identity.OwnerKey, itemID uint) error
	ListWithTotals(ctx context.Context, owner identity.OwnerKey) (*CartSummary, error)
	Clear(ctx context.Context, owner identity.OwnerKey) error
	MergeAnonymousCart(ctx context.Context, anonymousToken string, userID uint) error
	KeepAlive(ctx context.Context, anonymousToken string) error
	PurgeAbandonedCarts(ctx context.Context, idleFor time.Duration) (int64, error)
}

type cartService struct {
	db          *gorm.DB
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(db *gorm.DB, cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		db:          db,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetOrCreate(ctx context.Context, owner identity.OwnerKey) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, owner.String(), owner.UserIDPtr())
	if err != nil {
		logger.Error("Failed to get or create cart", err, logger.Fields{
			"owner": owner.String(),
		})
		return nil, err
	}
	return cart, nil
}

// AddItem adds quantity of the (product, color, size) selection to the owner's cart.
// Stock is not checked here; it is enforced at checkout and reorder.
func (s *cartService) AddItem(ctx context.Context, owner identity.OwnerKey, productID, colorID, sizeID uint, quantity int) error {
	logger.Info("Adding item to cart", logger.Fields{
		"owner":      owner.String(),
		"product_id": productID,
		"color_id":   colorID,
		"size_id":    sizeID,
		"quantity":   quantity,
	})

	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if productID == 0 || colorID == 0 || sizeID == 0 {
		return apperrors.Validation(apperrors.ValidationRequired, "product_id, color_id and size_id are required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		cart, err := cartRepo.GetOrCreate(ctx, owner.String(), owner.UserIDPtr())
		if err != nil {
			return err
		}

		// Holding the product row keeps its variants stable until the line is written.
		if _, err := productRepo.LockForShare(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Cannot add to cart: product not found", logger.Fields{
					"owner":      owner.String(),
					"product_id": productID,
				})
				return ErrProductNotFound
			}
			return err
		}

		hasColor, err := productRepo.HasColor(ctx, productID, colorID)
		if err != nil {
			return err
		}
		hasSize, err := productRepo.HasSize(ctx, productID, sizeID)
		if err != nil {
			return err
		}
		if !hasColor || !hasSize {
			logger.Warn("Cannot add to cart: invalid selection", logger.Fields{
				"product_id": productID,
				"color_id":   colorID,
				"size_id":    sizeID,
			})
			return ErrInvalidSelection
		}

		if err := cartRepo.AddQuantity(ctx, &model.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			ColorID:   colorID,
			SizeID:    sizeID,
			Quantity:  quantity,
		}); err != nil {
			return err
		}
		return cartRepo.Touch(ctx, cart.ID)
	})
}

// UpdateQuantity sets an item's quantity; zero or less removes the item
func (s *cartService) UpdateQuantity(ctx context.Context, owner identity.OwnerKey, itemID uint, quantity int) error {
	logger.Info("Updating cart item", logger.Fields{
		"owner":        owner.String(),
		"cart_item_id": itemID,
		"quantity":     quantity,
	})

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)

		item, err := s.findOwnedItem(ctx, cartRepo, owner, itemID)
		if err != nil {
			return err
		}

		if quantity <= 0 {
			if err := cartRepo.DeleteItem(ctx, item.ID); err != nil {
				return err
			}
		} else if err := cartRepo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
			return err
		}
		return cartRepo.Touch(ctx, item.CartID)
	})
}

func (s *cartService) RemoveItem(ctx context.Context, owner identity.OwnerKey, itemID uint) error {
	logger.Info("Removing cart item", logger.Fields{
		"owner":        owner.String(),
		"cart_item_id": itemID,
	})

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)

		item, err := s.findOwnedItem(ctx, cartRepo, owner, itemID)
		if err != nil {
			return err
		}
		if err := cartRepo.DeleteItem(ctx, item.ID); err != nil {
			return err
		}
		return cartRepo.Touch(ctx, item.CartID)
	})
}

// findOwnedItem reports an item in someone else's cart as not found
func (s *cartService) findOwnedItem(ctx context.Context, cartRepo repository.CartRepository, owner identity.OwnerKey, itemID uint) (*model.CartItem, error) {
	cart, err := cartRepo.FindByOwnerKey(ctx, owner.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	item, err := cartRepo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cart item not found for owner", logger.Fields{
				"owner":        owner.String(),
				"cart_item_id": itemID,
			})
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// ListWithTotals prices every line with the product's current effective price
func (s *cartService) ListWithTotals(ctx context.Context, owner identity.OwnerKey) (*CartSummary, error) {
	cart, err := s.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	// reads count as activity for the idle-cart sweep
	if err := s.cartRepo.Touch(ctx, cart.ID); err != nil {
		return nil, err
	}

	items, err := s.cartRepo.FindItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{
		CartID:   cart.ID,
		Items:    make([]CartLine, 0, len(items)),
		Subtotal: decimal.Zero,
		Count:    len(items),
	}
	for _, item := range items {
		unit := item.Product.EffectivePrice()
		line := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		summary.Items = append(summary.Items, CartLine{CartItem: item, UnitPrice: unit, LineTotal: line})
		summary.Subtotal = summary.Subtotal.Add(line)
		summary.TotalQuantity += item.Quantity
	}

	logger.Debug("Cart listed", logger.Fields{
		"owner":    owner.String(),
		"count":    summary.Count,
		"subtotal": summary.Subtotal.String(),
	})
	return summary, nil
}

func (s *cartService) Clear(ctx context.Context, owner identity.OwnerKey) error {
	cart, err := s.cartRepo.FindByOwnerKey(ctx, owner.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if err := s.cartRepo.DeleteItemsByCart(ctx, cart.ID); err != nil {
		return err
	}
	if err := s.cartRepo.Touch(ctx, cart.ID); err != nil {
		return err
	}

	logger.Info("Cart cleared", logger.Fields{
		"owner": owner.String(),
	})
	return nil
}

// MergeAnonymousCart moves every line of the anonymous cart into the user's cart,
// summing quantities of identical selections, and deletes the anonymous cart.
func (s *cartService) MergeAnonymousCart(ctx context.Context, anonymousToken string, userID uint) error {
	anonKey := identity.AnonymousOwner(anonymousToken).String()
	userOwner := identity.UserOwner(userID)

	var merged int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)

		anonCart, err := cartRepo.FindByOwnerKey(ctx, anonKey)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		userCart, err := cartRepo.GetOrCreate(ctx, userOwner.String(), userOwner.UserIDPtr())
		if err != nil {
			return err
		}

		items, err := cartRepo.FindItems(ctx, anonCart.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := cartRepo.AddQuantity(ctx, &model.CartItem{
				CartID:    userCart.ID,
				ProductID: item.ProductID,
				ColorID:   item.ColorID,
				SizeID:    item.SizeID,
				Quantity:  item.Quantity,
			}); err != nil {
				return err
			}
		}
		merged = len(items)

		if _, err := cartRepo.DeleteCarts(ctx, []uint{anonCart.ID}); err != nil {
			return err
		}
		return cartRepo.Touch(ctx, userCart.ID)
	})
	if err != nil {
		logger.Error("Failed to merge anonymous cart", err, logger.Fields{
			"user_id": userID,
		})
		return err
	}

	if merged > 0 {
		logger.Info("Anonymous cart merged", logger.Fields{
			"user_id": userID,
			"lines":   merged,
		})
	}
	return nil
}

// KeepAlive marks the anonymous cart as active. It runs whenever the cart
// cookie is refreshed, so a cart lives exactly as long as its cookie.
func (s *cartService) KeepAlive(ctx context.Context, anonymousToken string) error {
	return s.cartRepo.TouchByOwnerKey(ctx, identity.AnonymousOwner(anonymousToken).String())
}

// PurgeAbandonedCarts deletes anonymous carts idle for longer than idleFor.
// Every cookie refresh touches the cart, so with idleFor at least the cookie
// TTL only carts whose cookie has expired are removed.
func (s *cartService) PurgeAbandonedCarts(ctx context.Context, idleFor time.Duration) (int64, error) {
	cutoff := time.Now().Add(-idleFor)

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)

		ids, err := cartRepo.FindAnonymousIdleSince(ctx, cutoff)
		if err != nil {
			return err
		}
		deleted, err = cartRepo.DeleteCarts(ctx, ids)
		return err
	})
	if err != nil {
		logger.Error("Failed to purge abandoned carts", err, logger.Fields{
			"cutoff": cutoff,
		})
		return 0, err
	}

	logger.Info("Abandoned carts purged", logger.Fields{
		"deleted": deleted,
		"cutoff":  cutoff,
	})
	return deleted, nil
}
