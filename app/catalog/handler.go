package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/avyhea/storefront/models"
	"github.com/shopspring/decimal"
)

type Response struct {
	Success               bool      `json:"success"`
	FilteredProductsCount int       `json:"filteredProductsCount"`
	ProductsCount         int64     `json:"productsCount"`
	ResPerPage            int       `json:"resPerPage"`
	Products              []Product `json:"products"`
}

type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Image struct {
	URL string `json:"url"`
}

type Product struct {
	ID            uint     `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	Stock         int      `json:"stock"`
	Colors        []string `json:"colors"`
	AverageRating float64  `json:"averageRating"`
	NumReviews    int      `json:"numReviews"`
	Category      Category `json:"category"`
	Images        []Image  `json:"images"`
}

func toProduct(p *models.Product) Product {
	images := make([]Image, len(p.Images))
	for i, img := range p.Images {
		images[i] = Image{URL: img.URL}
	}
	return Product{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.InexactFloat64(),
		Stock:         p.Stock,
		Colors:        p.Colors,
		AverageRating: p.AverageRating.InexactFloat64(),
		NumReviews:    p.NumReviews,
		Category: Category{
			ID:   p.Category.ID,
			Name: p.Category.Name,
		},
		Images: images,
	}
}

type ProductProvider interface {
	GetFilteredProducts(filters models.ProductFilters) ([]models.Product, int64, error)
	GetByID(id uint) (*models.Product, error)
}

type CatalogHandler struct {
	repo ProductProvider
}

func NewCatalogHandler(r ProductProvider) *CatalogHandler {
	return &CatalogHandler{
		repo: r,
	}
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	filters := models.ProductFilters{Page: 1}

	if pStr := r.URL.Query().Get("page"); pStr != "" {
		if p, err := strconv.Atoi(pStr); err == nil && p >= 1 {
			filters.Page = p
		}
	}

	// Price range arrives as "min-max".
	if priceStr := r.URL.Query().Get("price"); priceStr != "" {
		if parts := strings.SplitN(priceStr, "-", 2); len(parts) == 2 {
			min, errMin := decimal.NewFromString(parts[0])
			max, errMax := decimal.NewFromString(parts[1])
			if errMin == nil && errMax == nil {
				filters.PriceMin = &min
				filters.PriceMax = &max
			}
		}
	}

	if ratingStr := r.URL.Query().Get("rating"); ratingStr != "" {
		if rating, err := decimal.NewFromString(ratingStr); err == nil {
			filters.MinRating = &rating
		}
	}

	res, totalAll, err := h.repo.GetFilteredProducts(filters)
	if err != nil {
		http.Error(w, "failed to get products", http.StatusInternalServerError)
		return
	}

	products := make([]Product, len(res))
	for i := range res {
		products[i] = toProduct(&res[i])
	}

	w.Header().Set("Content-Type", "application/json")
	response := Response{
		Success: true,
		// The filtered count reflects the page actually returned, while
		// ProductsCount is the unfiltered catalog size.
		FilteredProductsCount: len(products),
		ProductsCount:         totalAll,
		ResPerPage:            models.ProductsPerPage,
		Products:              products,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "Failed to retrieve product", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	response := map[string]any{
		"success": true,
		"product": toProduct(product),
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
