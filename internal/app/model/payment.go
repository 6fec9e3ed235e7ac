package model

import (
	"time"
)

type PaymentType string

const (
	PaymentTypeCreditCard   PaymentType = "credit_card"
	PaymentTypeBankTransfer PaymentType = "bank_transfer"
)

func (t PaymentType) Valid() bool {
	return t == PaymentTypeCreditCard || t == PaymentTypeBankTransfer
}

// Payment is a stored payment method. Deletion is permanent.
type Payment struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uint        `gorm:"not null;index;uniqueIndex:idx_payments_single_default,where:is_default = true" json:"user_id"`
	Type          PaymentType `gorm:"type:varchar(20);not null" json:"type"`
	CardHolder    string      `gorm:"size:100" json:"card_holder,omitempty"`
	CardNumber    string      `gorm:"size:32" json:"-"`
	CardLast4     string      `gorm:"size:4" json:"card_last4,omitempty"`
	CardExpiry    string      `gorm:"size:7" json:"card_expiry,omitempty"` // MM/YY
	BankName      string      `gorm:"size:100" json:"bank_name,omitempty"`
	AccountNumber string      `gorm:"size:50" json:"account_number,omitempty"`
	AccountHolder string      `gorm:"size:100" json:"account_holder,omitempty"`
	IsDefault     bool        `gorm:"not null;default:false" json:"is_default"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) GetID() uint                   { return p.ID }
func (p *Payment) Owner() uint                   { return p.UserID }
func (p *Payment) SetOwner(userID uint)          { p.UserID = userID }
func (p *Payment) DefaultFlag() bool             { return p.IsDefault }
func (p *Payment) SetDefaultFlag(isDefault bool) { p.IsDefault = isDefault }

// Summary is the masked form stored on orders
func (p *Payment) Summary() string {
	if p.Type == PaymentTypeCreditCard {
		return "credit_card **** " + p.CardLast4
	}
	return "bank_transfer " + p.BankName
}
