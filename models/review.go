package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Review is a user's rating of a product they received in a delivered
// order. At most one review exists per (user, product, order).
type Review struct {
	ID        uint            `gorm:"primaryKey"`
	UserID    uint            `gorm:"index:idx_review_triple,unique;not null"`
	ProductID uint            `gorm:"index:idx_review_triple,unique;not null"`
	OrderID   uint            `gorm:"index:idx_review_triple,unique;not null"`
	Product   Product         `gorm:"foreignKey:ProductID"`
	Order     Order           `gorm:"foreignKey:OrderID"`
	Rating    decimal.Decimal `gorm:"type:decimal(2,1);not null"`
	Comment   string          `gorm:"not null"`
	Images    []ReviewImage   `gorm:"foreignKey:ReviewID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Review) TableName() string {
	return "reviews"
}

// ReviewImage is a reference to an image held by the asset store.
type ReviewImage struct {
	ID        uint   `gorm:"primaryKey"`
	ReviewID  uint   `gorm:"index;not null"`
	StorageID string `gorm:"not null"`
	URL       string `gorm:"not null"`
}

func (i *ReviewImage) TableName() string {
	return "review_images"
}
