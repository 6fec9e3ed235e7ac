package model

import (
	"time"
)

// Address is a shipping address. Deletion is permanent.
type Address struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_addresses_single_default,where:is_default = true" json:"user_id"`
	FullName  string    `gorm:"size:100;not null" json:"full_name"`
	Phone     string    `gorm:"size:30;not null" json:"phone"`
	Address   string    `gorm:"type:text;not null" json:"address"`
	City      string    `gorm:"size:100;not null" json:"city"`
	District  string    `gorm:"size:100;not null" json:"district"`
	Ward      string    `gorm:"size:100;not null" json:"ward"`
	IsDefault bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Address) TableName() string {
	return "addresses"
}

func (a *Address) GetID() uint                   { return a.ID }
func (a *Address) Owner() uint                   { return a.UserID }
func (a *Address) SetOwner(userID uint)          { a.UserID = userID }
func (a *Address) DefaultFlag() bool             { return a.IsDefault }
func (a *Address) SetDefaultFlag(isDefault bool) { a.IsDefault = isDefault }

// Summary is the one-line form stored on orders
func (a *Address) Summary() string {
	return a.FullName + ", " + a.Phone + ", " + a.Address + ", " + a.Ward + ", " + a.District + ", " + a.City
}
