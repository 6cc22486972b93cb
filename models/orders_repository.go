package models

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrOrderNotFound is returned when an order is not found.
var ErrOrderNotFound = errors.New("order not found")

type OrderFilters struct {
	UserID *uint
	Status *OrderStatus
}

type OrdersRepository struct {
	db *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		db: db,
	}
}

func (r *OrdersRepository) Create(order *Order) error {
	return r.db.Create(order).Error
}

func (r *OrdersRepository) GetByID(id uint) (*Order, error) {
	var order Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first, optionally scoped to a user or status.
func (r *OrdersRepository) List(filters OrderFilters) ([]Order, error) {
	query := r.db.Preload("Items")
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var orders []Order
	if err := query.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus writes the new status (and note) only if the order still
// holds the status the caller read. The conditional write guarantees two
// concurrent transitions from the same state cannot both succeed; the
// loser gets ErrInvalidTransition. Line items are never touched.
func (r *OrdersRepository) UpdateStatus(id uint, from, to OrderStatus, note string) error {
	res := r.db.Model(&Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status": to,
			"note":   note,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrOrderNotFound
		}
		return fmt.Errorf("%w: order %d is no longer %s", ErrInvalidTransition, id, from)
	}
	return nil
}

// Delete hard-deletes an order and its line items.
func (r *OrdersRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		return tx.Where("order_id = ?", id).Delete(&OrderItem{}).Error
	})
}
