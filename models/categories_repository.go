package models

import (
	"errors"

	"gorm.io/gorm"
)

// ErrCategoryNotFound is returned when a category is not found.
var ErrCategoryNotFound = errors.New("category not found")

type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{
		db: db,
	}
}

func (r *CategoriesRepository) GetAllCategories() ([]Category, error) {
	var categories []Category
	if err := r.db.Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *CategoriesRepository) GetByID(id uint) (*Category, error) {
	var category Category
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoriesRepository) CreateCategory(category *Category) error {
	return r.db.Create(category).Error
}

// DeleteCascade removes a category with every product in it, the products'
// image references, and the products' reviews with their image references.
// It returns the asset storage IDs that are now orphaned so the caller can
// clean up the asset store; the database side runs in one transaction and
// is idempotent (deleting an absent category is ErrCategoryNotFound, a
// retried partial run simply finds fewer rows).
func (r *CategoriesRepository) DeleteCascade(id uint) ([]string, error) {
	var storageIDs []string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCategoryNotFound
		}

		var productIDs []uint
		if err := tx.Model(&Product{}).Where("category_id = ?", id).Pluck("id", &productIDs).Error; err != nil {
			return err
		}
		if len(productIDs) == 0 {
			return nil
		}

		if err := tx.Model(&ProductImage{}).Where("product_id IN ?", productIDs).
			Pluck("storage_id", &storageIDs).Error; err != nil {
			return err
		}
		var reviewIDs []uint
		if err := tx.Model(&Review{}).Where("product_id IN ?", productIDs).Pluck("id", &reviewIDs).Error; err != nil {
			return err
		}
		if len(reviewIDs) > 0 {
			var reviewStorageIDs []string
			if err := tx.Model(&ReviewImage{}).Where("review_id IN ?", reviewIDs).
				Pluck("storage_id", &reviewStorageIDs).Error; err != nil {
				return err
			}
			storageIDs = append(storageIDs, reviewStorageIDs...)
			if err := tx.Where("review_id IN ?", reviewIDs).Delete(&ReviewImage{}).Error; err != nil {
				return err
			}
			if err := tx.Where("product_id IN ?", productIDs).Delete(&Review{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("product_id IN ?", productIDs).Delete(&ProductImage{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", productIDs).Delete(&Product{}).Error
	})
	if err != nil {
		return nil, err
	}
	return storageIDs, nil
}
