package service

import (
	"context"
	"errors"
	"sort"

	"github.com/ikkim/storefront-backend/internal/app/identity"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = apperrors.NotFound(apperrors.OrderNotFound, "order not found")
	ErrOrderNotOwner      = apperrors.Authorization(apperrors.OrderNotOwner, "order belongs to another user")
	ErrInvalidOrderStatus = apperrors.Validation(apperrors.OrderInvalidStatus, "invalid order status")
	ErrEmptyCart          = apperrors.Validation(apperrors.CartEmpty, "cart is empty")
	ErrInsufficientStock  = apperrors.Conflict(apperrors.CartInsufficientStock, "insufficient stock")
	ErrNoShippingAddress  = apperrors.Validation(apperrors.CheckoutAddressMissing, "a shipping address is required")
	ErrNoPaymentMethod    = apperrors.Validation(apperrors.CheckoutPaymentMissing, "a payment method is required")
)

// CheckoutInput picks the address and payment method; nil means the owner's default
type CheckoutInput struct {
	AddressID *uint `json:"address_id"`
	PaymentID *uint `json:"payment_id"`
}

type OrderService interface {
	Checkout(ctx context.Context, userID uint, input CheckoutInput) (*model.Order, error)
	GetUserOrders(ctx context.Context, userID uint) ([]model.Order, error)
	GetOrderByID(ctx context.Context, userID, orderID uint) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uint, status model.OrderStatus) (*model.Order, error)
	Reorder(ctx context.Context, userID, orderID uint) (*ReorderResult, error)
}

type orderService struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	addressRepo repository.AddressRepository
	paymentRepo repository.PaymentRepository
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	addressRepo repository.AddressRepository,
	paymentRepo repository.PaymentRepository,
) OrderService {
	return &orderService{
		db:          db,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		addressRepo: addressRepo,
		paymentRepo: paymentRepo,
	}
}

// Checkout turns the user's cart into an order. Products are locked in id
// order, stock is checked and decremented, prices and the chosen address and
// payment method are snapshotted, and the cart is emptied, all atomically.
func (s *orderService) Checkout(ctx context.Context, userID uint, input CheckoutInput) (*model.Order, error) {
	logger.Info("Checking out cart", logger.Fields{
		"user_id":    userID,
		"address_id": input.AddressID,
		"payment_id": input.PaymentID,
	})

	owner := identity.UserOwner(userID)
	var order *model.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		cart, err := cartRepo.FindByOwnerKey(ctx, owner.String())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmptyCart
			}
			return err
		}
		items, err := cartRepo.FindItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		address, err := s.resolveAddress(ctx, s.addressRepo.WithTx(tx), userID, input.AddressID)
		if err != nil {
			return err
		}
		payment, err := s.resolvePayment(ctx, s.paymentRepo.WithTx(tx), userID, input.PaymentID)
		if err != nil {
			return err
		}

		requested := map[uint]int{}
		for _, item := range items {
			requested[item.ProductID] += item.Quantity
		}
		productIDs := make([]uint, 0, len(requested))
		for id := range requested {
			productIDs = append(productIDs, id)
		}
		sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

		locked := make(map[uint]*model.Product, len(productIDs))
		for _, id := range productIDs {
			product, err := productRepo.LockForUpdate(ctx, id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return err
			}
			if product.Stock < requested[id] {
				logger.Warn("Checkout failed: insufficient stock", logger.Fields{
					"user_id":    userID,
					"product_id": id,
					"requested":  requested[id],
					"available":  product.Stock,
				})
				return ErrInsufficientStock.Withf("insufficient stock for %s: %d requested, %d available",
					product.Name, requested[id], product.Stock)
			}
			locked[id] = product
		}

		order = &model.Order{
			UserID:          userID,
			Status:          model.OrderStatusPending,
			Total:           decimal.Zero,
			ShippingAddress: address.Summary(),
			PaymentSummary:  payment.Summary(),
		}
		for _, item := range items {
			product := locked[item.ProductID]
			price := product.EffectivePrice()
			order.Items = append(order.Items, model.OrderItem{
				ProductID:   product.ID,
				ColorID:     item.ColorID,
				SizeID:      item.SizeID,
				ProductName: product.Name,
				ColorName:   item.Color.Name,
				SizeName:    item.Size.Name,
				Quantity:    item.Quantity,
				Price:       price,
			})
			order.Total = order.Total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		for _, id := range productIDs {
			if err := productRepo.DecrementStock(ctx, id, requested[id]); err != nil {
				return err
			}
		}
		if err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return cartRepo.DeleteItemsByCart(ctx, cart.ID)
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			logger.Error("Checkout failed", err, logger.Fields{
				"user_id": userID,
			})
		}
		return nil, err
	}

	logger.Info("Order placed", logger.Fields{
		"user_id":  userID,
		"order_id": order.ID,
		"total":    order.Total.String(),
		"items":    len(order.Items),
	})
	return order, nil
}

func (s *orderService) resolveAddress(ctx context.Context, repo repository.AddressRepository, userID uint, addressID *uint) (*model.Address, error) {
	var (
		address *model.Address
		err     error
	)
	if addressID != nil {
		address, err = repo.FindByID(ctx, userID, *addressID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
	} else {
		address, err = repo.FindDefault(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoShippingAddress
		}
	}
	return address, err
}

func (s *orderService) resolvePayment(ctx context.Context, repo repository.PaymentRepository, userID uint, paymentID *uint) (*model.Payment, error) {
	var (
		payment *model.Payment
		err     error
	)
	if paymentID != nil {
		payment, err = repo.FindByID(ctx, userID, *paymentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
	} else {
		payment, err = repo.FindDefault(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPaymentMethod
		}
	}
	return payment, err
}

func (s *orderService) GetUserOrders(ctx context.Context, userID uint) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(ctx, userID)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, logger.Fields{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

// GetOrderByID hides other users' orders behind not found
func (s *orderService) GetOrderByID(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.UserID != userID {
		logger.Warn("Order requested by non-owner", logger.Fields{
			"user_id":  userID,
			"order_id": orderID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus.Withf("invalid order status %q", status)
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	logger.Info("Order status updated", logger.Fields{
		"order_id": orderID,
		"status":   status,
	})
	return s.orderRepo.FindByID(ctx, orderID)
}
