package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint                `gorm:"primarykey" json:"id"`
	Name        string              `gorm:"not null" json:"name"`
	Description string              `gorm:"type:text" json:"description"`
	Price       decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price"`
	SalePrice   decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"sale_price"` // null when not on sale
	Stock       int                 `gorm:"not null;default:0" json:"stock"`
	CategoryID  uint                `gorm:"not null;index" json:"category_id"`
	ImageURL    string              `json:"image_url"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	DeletedAt   gorm.DeletedAt      `gorm:"index" json:"-"`

	Category   *Category   `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Colors     []Color     `gorm:"foreignKey:ProductID" json:"colors"`
	Sizes      []Size      `gorm:"foreignKey:ProductID" json:"sizes"`
	Attributes []Attribute `gorm:"many2many:product_attributes" json:"attributes"`
}

func (Product) TableName() string {
	return "products"
}

// EffectivePrice is the sale price when one is set, otherwise the list price
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

type Category struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

// Attribute is shared across products, e.g. Material=Cotton
type Attribute struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Value     string    `gorm:"size:100;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

func (Attribute) TableName() string {
	return "attributes"
}

// ProductAttribute is the join row between products and attributes
type ProductAttribute struct {
	ProductID   uint      `gorm:"primaryKey" json:"product_id"`
	AttributeID uint      `gorm:"primaryKey;index" json:"attribute_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ProductAttribute) TableName() string {
	return "product_attributes"
}
