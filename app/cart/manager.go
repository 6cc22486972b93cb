package cart

import (
	"errors"
	"fmt"

	"github.com/avyhea/storefront/models"
)

// ErrOutOfStock is returned when a product with zero stock is added to
// the cart.
var ErrOutOfStock = errors.New("product is out of stock")

// ErrInvalidColor is returned when the requested color is not one the
// product declares.
var ErrInvalidColor = errors.New("color not available for this product")

// ErrInvalidQuantity is returned when the requested quantity is not
// positive.
var ErrInvalidQuantity = errors.New("quantity must be positive")

// LineStore is the cart persistence the manager runs on.
type LineStore interface {
	FindLine(userID, productID uint, color string) (*models.CartItem, error)
	FindByID(userID, itemID uint) (*models.CartItem, error)
	Insert(item *models.CartItem) error
	SaveQuantity(item *models.CartItem) error
	DeleteLine(userID, itemID uint) error
	ListByUser(userID uint) ([]models.CartItem, error)
	ClearUser(userID uint) error
	CountByUser(userID uint) (int64, error)
}

// ProductGetter supplies the product snapshot the cart validates against.
type ProductGetter interface {
	GetByID(id uint) (*models.Product, error)
}

// Manager enforces the cart rules: one line per (user, product, color),
// add-time price snapshots, and quantity mutations that delete the line
// when it reaches zero.
type Manager struct {
	lines    LineStore
	products ProductGetter
}

func NewManager(lines LineStore, products ProductGetter) *Manager {
	return &Manager{
		lines:    lines,
		products: products,
	}
}

// AddItem puts qty units of a product color into the user's cart. If a
// line for (user, product, color) already exists its quantity is
// incremented instead of inserting a duplicate. The line price is a
// snapshot of the product price at add-time.
func (m *Manager) AddItem(userID, productID uint, color string, qty int) (*models.CartItem, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidQuantity, qty)
	}

	product, err := m.products.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if !product.HasColor(color) {
		return nil, ErrInvalidColor
	}
	if product.Stock == 0 {
		return nil, ErrOutOfStock
	}

	line, err := m.lines.FindLine(userID, productID, color)
	if err == nil {
		line.Quantity += qty
		if err := m.lines.SaveQuantity(line); err != nil {
			return nil, err
		}
		return line, nil
	}
	if !errors.Is(err, models.ErrCartItemNotFound) {
		return nil, err
	}

	line = &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Color:     color,
		Quantity:  qty,
		Price:     product.Price,
	}
	if err := m.lines.Insert(line); err != nil {
		return nil, err
	}
	return line, nil
}

// ChangeQuantity applies one of the three line mutations. Decreasing to
// zero removes the line. A line owned by a different user is reported as
// not found.
func (m *Manager) ChangeQuantity(userID, itemID uint, action models.CartAction) error {
	if !action.Valid() {
		return fmt.Errorf("unknown cart action %q", action)
	}

	line, err := m.lines.FindByID(userID, itemID)
	if err != nil {
		return err
	}

	switch action {
	case models.CartActionIncrease:
		line.Quantity++
		return m.lines.SaveQuantity(line)
	case models.CartActionDecrease:
		line.Quantity--
		if line.Quantity <= 0 {
			return m.lines.DeleteLine(userID, itemID)
		}
		return m.lines.SaveQuantity(line)
	default: // models.CartActionDelete
		return m.lines.DeleteLine(userID, itemID)
	}
}

// ListItems returns the user's cart lines in insertion order.
func (m *Manager) ListItems(userID uint) ([]models.CartItem, error) {
	return m.lines.ListByUser(userID)
}

// Clear removes every line of the user's cart. The order engine calls it
// after a successful checkout.
func (m *Manager) Clear(userID uint) error {
	return m.lines.ClearUser(userID)
}

// Count returns the number of lines in the user's cart.
func (m *Manager) Count(userID uint) (int64, error) {
	return m.lines.CountByUser(userID)
}
