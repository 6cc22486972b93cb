package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartAction is one of the quantity mutations a cart line supports.
type CartAction string

const (
	CartActionIncrease CartAction = "increase"
	CartActionDecrease CartAction = "decrease"
	CartActionDelete   CartAction = "delete"
)

// Valid reports whether the action is one of the supported mutations.
func (a CartAction) Valid() bool {
	switch a {
	case CartActionIncrease, CartActionDecrease, CartActionDelete:
		return true
	}
	return false
}

// CartItem is one line of a user's persisted cart. Price is a snapshot of
// the product price at add-time and is never re-read from the product.
type CartItem struct {
	ID        uint            `gorm:"primaryKey"`
	UserID    uint            `gorm:"index:idx_cart_line,unique;not null"`
	ProductID uint            `gorm:"index:idx_cart_line,unique;not null"`
	Color     string          `gorm:"index:idx_cart_line,unique;not null"`
	Quantity  int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *CartItem) TableName() string {
	return "cart_items"
}
