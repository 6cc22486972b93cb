package models

// Category represents a product category.
// Deleting a category cascades to every product in it, including their
// reviews and stored images (see CategoriesRepository.DeleteCascade).
type Category struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string
}

func (c *Category) TableName() string {
	return "categories"
}
