package catalog

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/avyhea/storefront/assets"
	"github.com/avyhea/storefront/auth"
	"github.com/avyhea/storefront/models"
	"github.com/shopspring/decimal"
)

// AdminProvider is the write surface of the product repository.
type AdminProvider interface {
	GetAllProducts() ([]models.Product, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	ReplaceImages(productID uint, images []models.ProductImage) error
	Delete(id uint) error
}

// CategoryGetter checks that a product's category exists before creation.
type CategoryGetter interface {
	GetByID(id uint) (*models.Category, error)
}

// AdminHandler serves the back-office product CRUD, including image
// uploads to the asset store.
type AdminHandler struct {
	repo       AdminProvider
	categories CategoryGetter
	store      assets.Store
	users      auth.Provider
}

func NewAdminHandler(repo AdminProvider, categories CategoryGetter, store assets.Store, users auth.Provider) *AdminHandler {
	return &AdminHandler{
		repo:       repo,
		categories: categories,
		store:      store,
		users:      users,
	}
}

type productInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Category    uint     `json:"category"`
	Colors      []string `json:"colors"`
	Images      []string `json:"images"`
}

func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	list, err := h.repo.GetAllProducts()
	if err != nil {
		http.Error(w, "Failed to retrieve products", http.StatusInternalServerError)
		return
	}

	products := make([]Product, len(list))
	for i := range list {
		products[i] = toProduct(&list[i])
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"products": products,
	})
}

func (h *AdminHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.Name == "" || input.Price < 0 || input.Stock < 0 {
		http.Error(w, "Missing or malformed product fields", http.StatusBadRequest)
		return
	}
	if !models.ValidColors(input.Colors) {
		http.Error(w, "Colors must be a non-empty set from the palette", http.StatusBadRequest)
		return
	}

	if _, err := h.categories.GetByID(input.Category); err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			http.Error(w, "Category not found", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create product", http.StatusInternalServerError)
		return
	}

	images, ok := h.uploadImages(w, input.Images)
	if !ok {
		return
	}

	product := &models.Product{
		Name:          input.Name,
		Description:   input.Description,
		Price:         decimal.NewFromFloat(input.Price),
		Stock:         input.Stock,
		CategoryID:    input.Category,
		Colors:        input.Colors,
		Images:        images,
		AverageRating: models.DefaultRating,
	}
	if err := h.repo.Create(product); err != nil {
		h.deleteImages(images)
		http.Error(w, "Failed to create product", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"product": toProduct(product),
	})
}

func (h *AdminHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	existing, err := h.repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update product", http.StatusInternalServerError)
		return
	}

	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.Name == "" || input.Price < 0 {
		http.Error(w, "Missing or malformed product fields", http.StatusBadRequest)
		return
	}
	if !models.ValidColors(input.Colors) {
		http.Error(w, "Colors must be a non-empty set from the palette", http.StatusBadRequest)
		return
	}
	if input.Category == 0 {
		input.Category = existing.CategoryID
	} else if _, err := h.categories.GetByID(input.Category); err != nil {
		http.Error(w, "Category not found", http.StatusBadRequest)
		return
	}

	// New images replace the stored set; the old assets are destroyed.
	if len(input.Images) > 0 {
		images, ok := h.uploadImages(w, input.Images)
		if !ok {
			return
		}
		if err := h.repo.ReplaceImages(uint(id), images); err != nil {
			h.deleteImages(images)
			http.Error(w, "Failed to update product", http.StatusInternalServerError)
			return
		}
		h.deleteImages(existing.Images)
		existing.Images = images
	}

	existing.Name = input.Name
	existing.Description = input.Description
	existing.Price = decimal.NewFromFloat(input.Price)
	existing.CategoryID = input.Category
	existing.Colors = input.Colors
	if err := h.repo.Update(existing); err != nil {
		http.Error(w, "Failed to update product", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"product": toProduct(existing),
	})
}

func (h *AdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	product, err := h.repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}

	if err := h.repo.Delete(uint(id)); err != nil {
		http.Error(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}
	h.deleteImages(product.Images)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Product deleted",
	})
}

// uploadImages stores each base64 image; on any failure the already
// uploaded ones are removed and the request is aborted.
func (h *AdminHandler) uploadImages(w http.ResponseWriter, encoded []string) ([]models.ProductImage, bool) {
	images := make([]models.ProductImage, 0, len(encoded))
	for i, s := range encoded {
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			h.deleteImages(images)
			http.Error(w, "Invalid image encoding", http.StatusBadRequest)
			return nil, false
		}
		img, err := h.store.Put(data, "products")
		if err != nil {
			h.deleteImages(images)
			http.Error(w, "Image upload failed", http.StatusInternalServerError)
			return nil, false
		}
		images = append(images, models.ProductImage{
			StorageID: img.StorageID,
			URL:       img.URL,
			Position:  i,
		})
	}
	return images, true
}

func (h *AdminHandler) deleteImages(images []models.ProductImage) {
	for _, img := range images {
		h.store.Delete(img.StorageID)
	}
}

func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	user, err := h.users.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	if !user.Admin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}
