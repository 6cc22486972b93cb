package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductsPerPage is the fixed catalog page size.
const ProductsPerPage = 8

// ErrProductNotFound is returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

// InsufficientStockError is returned when a stock decrement would drive a
// product's stock negative. It names the product so callers can surface a
// corrective message.
type InsufficientStockError struct {
	ProductID uint
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (available %d, requested %d)",
		e.Name, e.Available, e.Requested)
}

type ProductFilters struct {
	PriceMin  *decimal.Decimal
	PriceMax  *decimal.Decimal
	MinRating *decimal.Decimal
	Page      int
}

type ProductsRepository struct {
	db *gorm.DB
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

func (r *ProductsRepository) GetAllProducts() ([]Product, error) {
	var products []Product
	if err := r.db.
		Preload("Images").
		Preload("Category").
		Order("id").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// GetFilteredProducts returns one page of the filtered catalog plus the
// unfiltered total product count. The price range applies before the
// minimum rating; pagination has a fixed page size of ProductsPerPage.
func (r *ProductsRepository) GetFilteredProducts(filters ProductFilters) ([]Product, int64, error) {
	var totalAll int64
	if err := r.db.Model(&Product{}).Count(&totalAll).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Model(&Product{}).
		Preload("Category").
		Preload("Images")

	// Filter
	if filters.PriceMin != nil && filters.PriceMax != nil {
		query = query.Where("products.price >= ? AND products.price <= ?",
			*filters.PriceMin, *filters.PriceMax)
	}
	if filters.MinRating != nil {
		query = query.Where("products.average_rating >= ?", *filters.MinRating)
	}

	// Apply pagination
	page := filters.Page
	if page < 1 {
		page = 1
	}
	offset := ProductsPerPage * (page - 1)

	var products []Product
	if err := query.Order("id").Offset(offset).Limit(ProductsPerPage).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, totalAll, nil
}

func (r *ProductsRepository) GetByID(id uint) (*Product, error) {
	var product Product
	if err := r.db.
		Preload("Images").
		Preload("Category").
		Preload("Reviews").
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err // Other DB error
	}
	return &product, nil
}

func (r *ProductsRepository) Create(product *Product) error {
	return r.db.Create(product).Error
}

// Update replaces the mutable catalog fields of a product. Stock and the
// rating aggregate are deliberately excluded; they have their own atomic
// operations.
func (r *ProductsRepository) Update(product *Product) error {
	res := r.db.Model(&Product{ID: product.ID}).Updates(map[string]any{
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price,
		"category_id": product.CategoryID,
		"colors":      product.Colors,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ReplaceImages swaps the product's image references for a new set.
func (r *ProductsRepository) ReplaceImages(productID uint, images []ProductImage) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&ProductImage{}).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].ProductID = productID
			images[i].Position = i
		}
		if len(images) == 0 {
			return nil
		}
		return tx.Create(&images).Error
	})
}

// Delete removes a product together with its image references and reviews.
func (r *ProductsRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		if err := tx.Where("product_id = ?", id).Delete(&ProductImage{}).Error; err != nil {
			return err
		}
		var reviewIDs []uint
		if err := tx.Model(&Review{}).Where("product_id = ?", id).Pluck("id", &reviewIDs).Error; err != nil {
			return err
		}
		if len(reviewIDs) > 0 {
			if err := tx.Where("review_id IN ?", reviewIDs).Delete(&ReviewImage{}).Error; err != nil {
				return err
			}
			if err := tx.Where("product_id = ?", id).Delete(&Review{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DecrementStock atomically subtracts qty from the product's stock. The
// conditional update guarantees two concurrent decrements against the last
// unit cannot both succeed.
func (r *ProductsRepository) DecrementStock(id uint, qty int) error {
	res := r.db.Model(&Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var product Product
		if err := r.db.Select("id", "name", "stock").First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		return &InsufficientStockError{
			ProductID: product.ID,
			Name:      product.Name,
			Available: product.Stock,
			Requested: qty,
		}
	}
	return nil
}

// RestoreStock atomically adds qty back to the product's stock. Unlike
// DecrementStock there is no upper bound; well-formed callers only restore
// what they previously decremented.
func (r *ProductsRepository) RestoreStock(id uint, qty int) error {
	res := r.db.Model(&Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// SetRating writes a new rating aggregate only if the review count has not
// moved since the caller read it. It returns false when a concurrent
// aggregate update won the race, in which case the caller re-reads and
// retries.
func (r *ProductsRepository) SetRating(productID uint, rating decimal.Decimal, numReviews, expectedReviews int) (bool, error) {
	res := r.db.Model(&Product{}).
		Where("id = ? AND num_reviews = ?", productID, expectedReviews).
		Updates(map[string]any{
			"average_rating": rating,
			"num_reviews":    numReviews,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
