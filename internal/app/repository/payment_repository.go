package repository

import (
	"github.com/ikkim/storefront-backend/internal/app/model"
	"gorm.io/gorm"
)

type PaymentRepository = OwnedRepository[model.Payment, *model.Payment]

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return newOwnedRepository[model.Payment, *model.Payment](db, "payment")
}
