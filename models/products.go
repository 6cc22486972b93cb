package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// DefaultRating is the average shown for a product with no reviews.
var DefaultRating = decimal.NewFromInt(5)

// Palette is the fixed set of colors a product may declare.
var Palette = []string{
	"black", "white", "red", "blue", "green", "yellow",
	"pink", "purple", "orange", "brown", "gray", "beige",
}

// Product represents a product in the catalog.
// Stock is only mutated through the atomic DecrementStock/RestoreStock
// repository operations; AverageRating and NumReviews only through SetRating.
type Product struct {
	ID            uint            `gorm:"primaryKey"`
	Name          string          `gorm:"not null"`
	Description   string
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock         int             `gorm:"not null;default:0"`
	CategoryID    uint            `gorm:"not null"`
	Category      Category        `gorm:"foreignKey:CategoryID"`
	Colors        pq.StringArray  `gorm:"type:text[];not null"`
	Images        []ProductImage  `gorm:"foreignKey:ProductID"`
	AverageRating decimal.Decimal `gorm:"type:decimal(2,1);not null;default:5"`
	NumReviews    int             `gorm:"not null;default:0"`
	Reviews       []Review        `gorm:"foreignKey:ProductID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Product) TableName() string {
	return "products"
}

// HasColor reports whether the product declares the given color.
func (p *Product) HasColor(color string) bool {
	for _, c := range p.Colors {
		if c == color {
			return true
		}
	}
	return false
}

// ValidColors reports whether every color is part of the fixed palette.
func ValidColors(colors []string) bool {
	if len(colors) == 0 {
		return false
	}
	for _, c := range colors {
		found := false
		for _, p := range Palette {
			if c == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ProductImage is a reference to an image held by the asset store.
type ProductImage struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID uint   `gorm:"index;not null"`
	StorageID string `gorm:"not null"`
	URL       string `gorm:"not null"`
	Position  int    `gorm:"not null;default:0"`
}

func (i *ProductImage) TableName() string {
	return "product_images"
}
