package service

import (
	"context"
	"strings"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound    = apperrors.NotFound(apperrors.PaymentNotFound, "payment method not found")
	ErrInvalidPaymentType = apperrors.Validation(apperrors.PaymentInvalidType, "type must be credit_card or bank_transfer")
)

type PaymentInput struct {
	Type          string `json:"type"`
	CardHolder    string `json:"card_holder"`
	CardNumber    string `json:"card_number"`
	CardExpiry    string `json:"card_expiry"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
	IsDefault     *bool  `json:"is_default"`
}

// Validate checks the fields required by the payment type
func (in PaymentInput) Validate() error {
	paymentType := model.PaymentType(strings.TrimSpace(in.Type))
	if strings.TrimSpace(in.Type) == "" {
		return FieldErrors{"type": "is required"}.asError()
	}
	if !paymentType.Valid() {
		return ErrInvalidPaymentType
	}

	fields := FieldErrors{}
	switch paymentType {
	case model.PaymentTypeCreditCard:
		requireNonBlank(fields, "card_holder", in.CardHolder)
		requireNonBlank(fields, "card_number", in.CardNumber)
		requireNonBlank(fields, "card_expiry", in.CardExpiry)
		if _, ok := fields["card_number"]; !ok && len(digitsOnly(in.CardNumber)) < 12 {
			fields["card_number"] = "must contain at least 12 digits"
		}
	case model.PaymentTypeBankTransfer:
		requireNonBlank(fields, "bank_name", in.BankName)
		requireNonBlank(fields, "account_number", in.AccountNumber)
		requireNonBlank(fields, "account_holder", in.AccountHolder)
	}
	return fields.asError()
}

func (in PaymentInput) applyTo(payment *model.Payment) {
	payment.Type = model.PaymentType(strings.TrimSpace(in.Type))
	payment.CardHolder, payment.CardNumber, payment.CardLast4, payment.CardExpiry = "", "", "", ""
	payment.BankName, payment.AccountNumber, payment.AccountHolder = "", "", ""

	switch payment.Type {
	case model.PaymentTypeCreditCard:
		digits := digitsOnly(in.CardNumber)
		payment.CardHolder = strings.TrimSpace(in.CardHolder)
		payment.CardNumber = digits
		payment.CardLast4 = digits[len(digits)-4:]
		payment.CardExpiry = strings.TrimSpace(in.CardExpiry)
	case model.PaymentTypeBankTransfer:
		payment.BankName = strings.TrimSpace(in.BankName)
		payment.AccountNumber = strings.TrimSpace(in.AccountNumber)
		payment.AccountHolder = strings.TrimSpace(in.AccountHolder)
	}
}

// digitsOnly keeps ASCII digits so byte length equals digit count
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type PaymentService interface {
	ListPayments(ctx context.Context, userID uint) ([]model.Payment, error)
	GetDefaultPayment(ctx context.Context, userID uint) (*model.Payment, error)
	CreatePayment(ctx context.Context, userID uint, input PaymentInput) (*model.Payment, error)
	UpdatePayment(ctx context.Context, userID, paymentID uint, input PaymentInput) (*model.Payment, error)
	DeletePayment(ctx context.Context, userID, paymentID uint) error
	SetDefaultPayment(ctx context.Context, userID, paymentID uint) error
}

type paymentService struct {
	defaults *defaultFlagManager[model.Payment, *model.Payment]
}

func NewPaymentService(db *gorm.DB, paymentRepo repository.PaymentRepository) PaymentService {
	return &paymentService{
		defaults: newDefaultFlagManager[model.Payment, *model.Payment](db, paymentRepo, "payment", ErrPaymentNotFound),
	}
}

func (s *paymentService) ListPayments(ctx context.Context, userID uint) ([]model.Payment, error) {
	return s.defaults.List(ctx, userID)
}

func (s *paymentService) GetDefaultPayment(ctx context.Context, userID uint) (*model.Payment, error) {
	return s.defaults.Default(ctx, userID)
}

func (s *paymentService) CreatePayment(ctx context.Context, userID uint, input PaymentInput) (*model.Payment, error) {
	if err := input.Validate(); err != nil {
		logger.Warn("Payment method rejected: invalid input", logger.Fields{
			"user_id": userID,
			"type":    input.Type,
			"error":   err.Error(),
		})
		return nil, err
	}

	payment := &model.Payment{}
	input.applyTo(payment)

	requested := input.IsDefault != nil && *input.IsDefault
	if err := s.defaults.Create(ctx, userID, payment, requested); err != nil {
		logger.Error("Failed to create payment method", err, logger.Fields{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Payment method created", logger.Fields{
		"user_id":    userID,
		"payment_id": payment.ID,
		"type":       payment.Type,
		"is_default": payment.IsDefault,
	})
	return payment, nil
}

func (s *paymentService) UpdatePayment(ctx context.Context, userID, paymentID uint, input PaymentInput) (*model.Payment, error) {
	if err := input.Validate(); err != nil {
		logger.Warn("Payment method update rejected: invalid input", logger.Fields{
			"user_id":    userID,
			"payment_id": paymentID,
		})
		return nil, err
	}

	payment, err := s.defaults.Update(ctx, userID, paymentID, func(p *model.Payment) {
		input.applyTo(p)
	}, input.IsDefault)
	if err != nil {
		return nil, err
	}

	logger.Info("Payment method updated", logger.Fields{
		"user_id":    userID,
		"payment_id": paymentID,
	})
	return payment, nil
}

func (s *paymentService) DeletePayment(ctx context.Context, userID, paymentID uint) error {
	if err := s.defaults.Delete(ctx, userID, paymentID); err != nil {
		return err
	}

	logger.Info("Payment method deleted", logger.Fields{
		"user_id":    userID,
		"payment_id": paymentID,
	})
	return nil
}

func (s *paymentService) SetDefaultPayment(ctx context.Context, userID, paymentID uint) error {
	if err := s.defaults.SetDefault(ctx, userID, paymentID); err != nil {
		return err
	}

	logger.Info("Default payment method set", logger.Fields{
		"user_id":    userID,
		"payment_id": paymentID,
	})
	return nil
}
