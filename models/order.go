package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

// ErrInvalidTransition is returned for a status change the state machine
// does not allow. Delivered and Cancelled are terminal.
var ErrInvalidTransition = errors.New("invalid order status transition")

// Valid reports whether the status is a known lifecycle state.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows moving from s
// to next. Only Pending orders may be cancelled; a shipped order can no
// longer be called back.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusShipped || next == StatusCancelled
	case StatusShipped:
		return next == StatusDelivered
	}
	return false
}

// PaymentMethod is how an order is paid for.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cashondelivery"
	PaymentCreditCard     PaymentMethod = "creditcard"
)

// Valid reports whether the payment method is supported.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentCreditCard
}

// ShippingAddress is a snapshot of the user's shipping profile taken at
// order time.
type ShippingAddress struct {
	Address    string
	City       string
	PostalCode string
	Country    string
	Phone      string
}

// Order is an immutable record of a checkout. Line items never change
// after creation; only Status and Note do.
type Order struct {
	ID              uint            `gorm:"primaryKey"`
	UserID          uint            `gorm:"index;not null"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaymentMethod   PaymentMethod   `gorm:"not null"`
	PaymentDetails  string
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_"`
	Status          OrderStatus     `gorm:"not null;default:Pending"`
	Note            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (o *Order) TableName() string {
	return "orders"
}

// Contains reports whether the order has a line for the given product.
func (o *Order) Contains(productID uint) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// OrderItem is a line snapshotted from the cart at order time.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"index;not null"`
	ProductID uint            `gorm:"not null"`
	Color     string          `gorm:"not null"`
	Quantity  int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

func (i *OrderItem) TableName() string {
	return "order_items"
}
