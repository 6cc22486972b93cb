package models

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrReviewNotFound is returned when a review is not found.
var ErrReviewNotFound = errors.New("review not found")

type ReviewFilters struct {
	UserID *uint
}

type ReviewsRepository struct {
	db *gorm.DB
}

func NewReviewsRepository(db *gorm.DB) *ReviewsRepository {
	return &ReviewsRepository{
		db: db,
	}
}

func (r *ReviewsRepository) Create(review *Review) error {
	return r.db.Create(review).Error
}

func (r *ReviewsRepository) GetByID(id uint) (*Review, error) {
	var review Review
	if err := r.db.Preload("Images").First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

// Exists reports whether a review already exists for the triple.
func (r *ReviewsRepository) Exists(userID, productID, orderID uint) (bool, error) {
	var count int64
	err := r.db.Model(&Review{}).
		Where("user_id = ? AND product_id = ? AND order_id = ?", userID, productID, orderID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns reviews with their product and order context resolved,
// optionally scoped to one user.
func (r *ReviewsRepository) List(filters ReviewFilters) ([]Review, error) {
	query := r.db.
		Preload("Images").
		Preload("Product").
		Preload("Order").
		Preload("Order.Items")
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}

	var reviews []Review
	if err := query.Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

// SaveContent updates the mutable review fields (rating and comment).
func (r *ReviewsRepository) SaveContent(review *Review) error {
	res := r.db.Model(&Review{}).Where("id = ?", review.ID).Updates(map[string]any{
		"rating":  review.Rating,
		"comment": review.Comment,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// ReplaceImages swaps the review's image references for a new set.
func (r *ReviewsRepository) ReplaceImages(reviewID uint, images []ReviewImage) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", reviewID).Delete(&ReviewImage{}).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].ReviewID = reviewID
		}
		if len(images) == 0 {
			return nil
		}
		return tx.Create(&images).Error
	})
}

func (r *ReviewsRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&Review{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrReviewNotFound
		}
		return tx.Where("review_id = ?", id).Delete(&ReviewImage{}).Error
	})
}

// RatingsForProduct returns the ratings of every review on the product,
// used to recompute the aggregate from scratch after an edit or delete.
func (r *ReviewsRepository) RatingsForProduct(productID uint) ([]decimal.Decimal, error) {
	var raw []string
	err := r.db.Model(&Review{}).Where("product_id = ?", productID).
		Order("id").Pluck("rating", &raw).Error
	if err != nil {
		return nil, err
	}
	ratings := make([]decimal.Decimal, len(raw))
	for i, s := range raw {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, err
		}
		ratings[i] = d
	}
	return ratings, nil
}
