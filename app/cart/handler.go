package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avyhea/storefront/auth"
	"github.com/avyhea/storefront/models"
	"github.com/shopspring/decimal"
)

type ItemResponse struct {
	ID        uint    `json:"id"`
	ProductID uint    `json:"productId"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type CartHandler struct {
	manager *Manager
	users   auth.Provider
}

func NewCartHandler(m *Manager, users auth.Provider) *CartHandler {
	return &CartHandler{
		manager: m,
		users:   users,
	}
}

func (h *CartHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		ProductID uint   `json:"productId"`
		Color     string `json:"color"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	if _, err := h.manager.AddItem(user.ID, input.ProductID, input.Color, input.Quantity); err != nil {
		switch {
		case errors.Is(err, models.ErrProductNotFound):
			http.Error(w, "Product not found", http.StatusNotFound)
		case errors.Is(err, ErrInvalidColor):
			http.Error(w, "Color not available for this product", http.StatusBadRequest)
		case errors.Is(err, ErrInvalidQuantity):
			http.Error(w, "Quantity must be positive", http.StatusBadRequest)
		case errors.Is(err, ErrOutOfStock):
			http.Error(w, "Product is out of stock", http.StatusConflict)
		default:
			http.Error(w, "Failed to add item to cart", http.StatusInternalServerError)
		}
		return
	}

	count, err := h.manager.Count(user.ID)
	if err != nil {
		http.Error(w, "Failed to add item to cart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":       true,
		"cartItemCount": count,
	})
}

func (h *CartHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		ItemID uint              `json:"itemId"`
		Action models.CartAction `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if !input.Action.Valid() {
		http.Error(w, "Unknown cart action", http.StatusBadRequest)
		return
	}

	if err := h.manager.ChangeQuantity(user.ID, input.ItemID, input.Action); err != nil {
		if errors.Is(err, models.ErrCartItemNotFound) {
			http.Error(w, "Cart item not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update cart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

func (h *CartHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.manager.ListItems(user.ID)
	if err != nil {
		http.Error(w, "Failed to fetch cart", http.StatusInternalServerError)
		return
	}

	response := make([]ItemResponse, len(items))
	var total decimal.Decimal
	for i, it := range items {
		response[i] = ItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Color:     it.Color,
			Quantity:  it.Quantity,
			Price:     it.Price.InexactFloat64(),
		}
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"items":   response,
		"total":   total.InexactFloat64(),
	})
}
