package models

import (
	"errors"

	"gorm.io/gorm"
)

// ErrCartItemNotFound is returned when a cart line does not exist or does
// not belong to the caller.
var ErrCartItemNotFound = errors.New("cart item not found")

// CartRepository holds the storage primitives for cart lines. The dedup
// and quantity rules live in the cart manager on top of it.
type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{
		db: db,
	}
}

// FindLine looks up the single line for (user, product, color).
func (r *CartRepository) FindLine(userID, productID uint, color string) (*CartItem, error) {
	var item CartItem
	err := r.db.
		Where("user_id = ? AND product_id = ? AND color = ?", userID, productID, color).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByID looks up a line by id, scoped to its owner.
func (r *CartRepository) FindByID(userID, itemID uint) (*CartItem, error) {
	var item CartItem
	err := r.db.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *CartRepository) Insert(item *CartItem) error {
	return r.db.Create(item).Error
}

func (r *CartRepository) SaveQuantity(item *CartItem) error {
	res := r.db.Model(&CartItem{}).
		Where("id = ? AND user_id = ?", item.ID, item.UserID).
		UpdateColumn("quantity", item.Quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *CartRepository) DeleteLine(userID, itemID uint) error {
	res := r.db.Where("id = ? AND user_id = ?", itemID, userID).Delete(&CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// ListByUser returns the user's cart lines in insertion order.
func (r *CartRepository) ListByUser(userID uint) ([]CartItem, error) {
	var items []CartItem
	if err := r.db.Where("user_id = ?", userID).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CartRepository) ClearUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&CartItem{}).Error
}

func (r *CartRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&CartItem{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
