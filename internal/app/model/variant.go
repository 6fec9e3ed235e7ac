package model

import (
	"time"
)

// Color and Size are owned by exactly one product and replaced as a whole
// whenever the product is edited.

type Color struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_colors_product_name,priority:1" json:"product_id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex:idx_colors_product_name,priority:2" json:"name"`
	Code      string    `gorm:"size:20" json:"code"` // hex, e.g. #FF0000
	CreatedAt time.Time `json:"created_at"`
}

func (Color) TableName() string {
	return "colors"
}

type Size struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_sizes_product_name,priority:1" json:"product_id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex:idx_sizes_product_name,priority:2" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Size) TableName() string {
	return "sizes"
}
