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
	ErrAddressNotFound = apperrors.NotFound(apperrors.AddressNotFound, "address not found")
)

type AddressInput struct {
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	District  string `json:"district"`
	Ward      string `json:"ward"`
	IsDefault *bool  `json:"is_default"`
}

// Validate requires every field to be non-blank after trimming
func (in AddressInput) Validate() error {
	fields := FieldErrors{}
	requireNonBlank(fields, "full_name", in.FullName)
	requireNonBlank(fields, "phone", in.Phone)
	requireNonBlank(fields, "address", in.Address)
	requireNonBlank(fields, "city", in.City)
	requireNonBlank(fields, "district", in.District)
	requireNonBlank(fields, "ward", in.Ward)
	return fields.asError()
}

func (in AddressInput) applyTo(address *model.Address) {
	address.FullName = strings.TrimSpace(in.FullName)
	address.Phone = strings.TrimSpace(in.Phone)
	address.Address = strings.TrimSpace(in.Address)
	address.City = strings.TrimSpace(in.City)
	address.District = strings.TrimSpace(in.District)
	address.Ward = strings.TrimSpace(in.Ward)
}

type AddressService interface {
	ListAddresses(ctx context.Context, userID uint) ([]model.Address, error)
	GetDefaultAddress(ctx context.Context, userID uint) (*model.Address, error)
	CreateAddress(ctx context.Context, userID uint, input AddressInput) (*model.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID uint, input AddressInput) (*model.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID uint) error
	SetDefaultAddress(ctx context.Context, userID, addressID uint) error
}

type addressService struct {
	defaults *defaultFlagManager[model.Address, *model.Address]
}

func NewAddressService(db *gorm.DB, addressRepo repository.AddressRepository) AddressService {
	return &addressService{
		defaults: newDefaultFlagManager[model.Address, *model.Address](db, addressRepo, "address", ErrAddressNotFound),
	}
}

func (s *addressService) ListAddresses(ctx context.Context, userID uint) ([]model.Address, error) {
	addresses, err := s.defaults.List(ctx, userID)
	if err != nil {
		logger.Error("Failed to fetch user addresses", err, logger.Fields{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

func (s *addressService) GetDefaultAddress(ctx context.Context, userID uint) (*model.Address, error) {
	return s.defaults.Default(ctx, userID)
}

func (s *addressService) CreateAddress(ctx context.Context, userID uint, input AddressInput) (*model.Address, error) {
	if err := input.Validate(); err != nil {
		logger.Warn("Address rejected: invalid input", logger.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	address := &model.Address{}
	input.applyTo(address)

	requested := input.IsDefault != nil && *input.IsDefault
	if err := s.defaults.Create(ctx, userID, address, requested); err != nil {
		logger.Error("Failed to create address", err, logger.Fields{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Address created", logger.Fields{
		"user_id":    userID,
		"address_id": address.ID,
		"is_default": address.IsDefault,
	})
	return address, nil
}

func (s *addressService) UpdateAddress(ctx context.Context, userID, addressID uint, input AddressInput) (*model.Address, error) {
	if err := input.Validate(); err != nil {
		logger.Warn("Address update rejected: invalid input", logger.Fields{
			"user_id":    userID,
			"address_id": addressID,
			"error":      err.Error(),
		})
		return nil, err
	}

	address, err := s.defaults.Update(ctx, userID, addressID, func(a *model.Address) {
		input.applyTo(a)
	}, input.IsDefault)
	if err != nil {
		return nil, err
	}

	logger.Info("Address updated", logger.Fields{
		"user_id":    userID,
		"address_id": addressID,
		"is_default": address.IsDefault,
	})
	return address, nil
}

func (s *addressService) DeleteAddress(ctx context.Context, userID, addressID uint) error {
	if err := s.defaults.Delete(ctx, userID, addressID); err != nil {
		return err
	}

	logger.Info("Address deleted", logger.Fields{
		"user_id":    userID,
		"address_id": addressID,
	})
	return nil
}

func (s *addressService) SetDefaultAddress(ctx context.Context, userID, addressID uint) error {
	if err := s.defaults.SetDefault(ctx, userID, addressID); err != nil {
		return err
	}

	logger.Info("Default address set", logger.Fields{
		"user_id":    userID,
		"address_id": addressID,
	})
	return nil
}
