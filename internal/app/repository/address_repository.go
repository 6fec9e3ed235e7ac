package repository

import (
	"github.com/ikkim/storefront-backend/internal/app/model"
	"gorm.io/gorm"
)

type AddressRepository = OwnedRepository[model.Address, *model.Address]

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return newOwnedRepository[model.Address, *model.Address](db, "address")
}
