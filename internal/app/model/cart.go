package model

import (
	"time"
)

// Cart is keyed by an owner key: "user:<id>" for signed-in shoppers and
// "anon:<token>" for anonymous ones. At most one cart exists per key.
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OwnerKey  string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"-"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"` // nil for anonymous carts
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem is one line of a cart. (cart, product, color, size) is unique, so
// adding the same selection twice grows the quantity of a single line.
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_selection,priority:1" json:"cart_id"`
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_cart_items_selection,priority:2" json:"product_id"`
	ColorID   uint      `gorm:"not null;index;uniqueIndex:idx_cart_items_selection,priority:3" json:"color_id"`
	SizeID    uint      `gorm:"not null;index;uniqueIndex:idx_cart_items_selection,priority:4" json:"size_id"`
	Quantity  int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product"`
	Color   Color   `gorm:"foreignKey:ColorID" json:"color"`
	Size    Size    `gorm:"foreignKey:SizeID" json:"size"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
