package categories

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/avyhea/storefront/assets"
	"github.com/avyhea/storefront/auth"
	"github.com/avyhea/storefront/models"
	"golang.org/x/sync/errgroup"
)

// assetDeleteWorkers bounds the fan-out when a cascade removes many
// stored images at once.
const assetDeleteWorkers = 8

type CategoryResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoryProvider interface {
	GetAllCategories() ([]models.Category, error)
	CreateCategory(category *models.Category) error
	DeleteCascade(id uint) ([]string, error)
}

type CategoryHandler struct {
	repo  CategoryProvider
	store assets.Store
	users auth.Provider
	log   *slog.Logger
}

func NewCategoryHandler(r CategoryProvider, store assets.Store, users auth.Provider, log *slog.Logger) *CategoryHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CategoryHandler{repo: r, store: store, users: users, log: log}
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetAllCategories()
	if err != nil {
		http.Error(w, "failed to fetch categories", http.StatusInternalServerError)
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		response[i] = CategoryResponse{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var input struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if input.Name == "" {
		http.Error(w, "Missing category name", http.StatusBadRequest)
		return
	}

	category := &models.Category{
		Name:        input.Name,
		Description: input.Description,
	}

	if err := h.repo.CreateCategory(category); err != nil {
		http.Error(w, "Failed to create category", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Category created successfully",
	})
}

// HandleDelete removes a category and everything under it: products,
// their reviews, and the stored images of both. The database cascade is
// transactional; asset cleanup afterwards is best-effort and logged.
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}

	storageIDs, err := h.repo.DeleteCascade(uint(id))
	if err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete category", http.StatusInternalServerError)
		return
	}

	var g errgroup.Group
	g.SetLimit(assetDeleteWorkers)
	for _, storageID := range storageIDs {
		storageID := storageID
		g.Go(func() error {
			return h.store.Delete(storageID)
		})
	}
	if err := g.Wait(); err != nil {
		// The rows are gone; orphaned assets only cost storage.
		h.log.Error("asset cleanup after category delete failed", "category_id", id, "err", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

func (h *CategoryHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
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
