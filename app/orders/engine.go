package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/avyhea/storefront/auth"
	"github.com/avyhea/storefront/models"
	"github.com/avyhea/storefront/notify"
	"github.com/shopspring/decimal"
)

// ShippingFee is the flat fee added to every order total.
var ShippingFee = decimal.NewFromInt(50)

// ErrEmptyCart is returned when checkout runs against an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// ErrNoShippingInfo is returned when the user's profile has no shipping
// address to snapshot.
var ErrNoShippingInfo = errors.New("no shipping information on profile")

// CartProvider is the slice of the cart manager the engine consumes.
type CartProvider interface {
	ListItems(userID uint) ([]models.CartItem, error)
	Clear(userID uint) error
}

// StockProvider is the slice of the catalog the engine mutates.
type StockProvider interface {
	DecrementStock(id uint, qty int) error
	RestoreStock(id uint, qty int) error
}

// OrderStore is the order persistence the engine runs on.
type OrderStore interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	List(filters models.OrderFilters) ([]models.Order, error)
	UpdateStatus(id uint, from, to models.OrderStatus, note string) error
	Delete(id uint) error
}

// Engine turns carts into immutable orders and drives the order status
// state machine, keeping product stock consistent on the way.
type Engine struct {
	carts    CartProvider
	catalog  StockProvider
	orders   OrderStore
	notifier notify.Notifier
	log      *slog.Logger
}

func NewEngine(carts CartProvider, catalog StockProvider, orders OrderStore, notifier notify.Notifier, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Engine{
		carts:    carts,
		catalog:  catalog,
		orders:   orders,
		notifier: notifier,
		log:      log,
	}
}

// CreateOrder converts the user's cart into a Pending order. Stock is
// decremented line by line; if any line cannot be satisfied, every
// already-applied decrement is restored and no order is persisted. On
// success the cart is cleared and an order-placed event is published
// (best-effort).
func (e *Engine) CreateOrder(ctx context.Context, user *auth.User, method models.PaymentMethod, paymentDetails string) (*models.Order, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("unknown payment method %q", method)
	}
	if user.Shipping == nil {
		return nil, ErrNoShippingInfo
	}

	items, err := e.carts.ListItems(user.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	decremented := make([]models.CartItem, 0, len(items))
	rollback := func() {
		for _, it := range decremented {
			if err := e.catalog.RestoreStock(it.ProductID, it.Quantity); err != nil {
				e.log.Error("stock rollback failed",
					"product_id", it.ProductID, "quantity", it.Quantity, "err", err)
			}
		}
	}
	for _, it := range items {
		if err := e.catalog.DecrementStock(it.ProductID, it.Quantity); err != nil {
			rollback()
			return nil, err
		}
		decremented = append(decremented, it)
	}

	lines := make([]models.OrderItem, len(items))
	total := decimal.Zero
	for i, it := range items {
		lines[i] = models.OrderItem{
			ProductID: it.ProductID,
			Color:     it.Color,
			Quantity:  it.Quantity,
			Price:     it.Price,
		}
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	order := &models.Order{
		UserID:        user.ID,
		Items:         lines,
		TotalPrice:    total.Add(ShippingFee),
		PaymentMethod: method,
		ShippingAddress: models.ShippingAddress{
			Address:    user.Shipping.Address,
			City:       user.Shipping.City,
			PostalCode: user.Shipping.PostalCode,
			Country:    user.Shipping.Country,
			Phone:      user.Shipping.Phone,
		},
		Status: models.StatusPending,
	}
	if method == models.PaymentCreditCard {
		order.PaymentDetails = paymentDetails
	}

	if err := e.orders.Create(order); err != nil {
		rollback()
		return nil, err
	}

	if err := e.carts.Clear(user.ID); err != nil {
		// The order exists; a stale cart is recoverable, losing the order
		// is not.
		e.log.Error("cart clear failed after order creation", "order_id", order.ID, "err", err)
	}

	if err := e.notifier.OrderPlaced(ctx, notify.OrderEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     string(order.Status),
		TotalPrice: order.TotalPrice.String(),
	}); err != nil {
		e.log.Error("order placed notification failed", "order_id", order.ID, "err", err)
	}

	return order, nil
}

// UpdateStatus moves an order through the state machine. Transitioning to
// Cancelled restores the stock of every line and records the note. The
// status write is conditional on the status the engine read, so a
// concurrent transition from the same state can win at most once and
// stock is restored only by the winner.
func (e *Engine) UpdateStatus(ctx context.Context, orderID uint, newStatus models.OrderStatus, note string) (*models.Order, error) {
	order, err := e.orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(newStatus) {
		return nil, fmt.Errorf("%w: %s to %s", models.ErrInvalidTransition, order.Status, newStatus)
	}
	if newStatus != models.StatusCancelled {
		note = ""
	}

	if err := e.orders.UpdateStatus(orderID, order.Status, newStatus, note); err != nil {
		return nil, err
	}

	if newStatus == models.StatusCancelled {
		for _, it := range order.Items {
			if err := e.catalog.RestoreStock(it.ProductID, it.Quantity); err != nil {
				e.log.Error("stock restore on cancellation failed",
					"order_id", orderID, "product_id", it.ProductID, "err", err)
			}
		}
	}
	order.Status = newStatus
	order.Note = note

	if err := e.notifier.OrderStatusChanged(ctx, notify.OrderEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  string(newStatus),
		Note:    note,
	}); err != nil {
		e.log.Error("status notification failed", "order_id", order.ID, "err", err)
	}

	return order, nil
}

// Delete hard-deletes an order regardless of status. Stock is not
// restored; cancellation is the only operation with that side effect.
func (e *Engine) Delete(orderID uint) error {
	return e.orders.Delete(orderID)
}

// Get returns one order.
func (e *Engine) Get(orderID uint) (*models.Order, error) {
	return e.orders.GetByID(orderID)
}

// List returns orders matching the filter, newest first.
func (e *Engine) List(filters models.OrderFilters) ([]models.Order, error) {
	return e.orders.List(filters)
}
