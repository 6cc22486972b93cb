package orders

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/avyhea/storefront/auth"
	"github.com/avyhea/storefront/models"
)

type ItemResponse struct {
	ProductID uint    `json:"productId"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type OrderResponse struct {
	ID            uint           `json:"id"`
	Status        string         `json:"status"`
	TotalPrice    float64        `json:"totalPrice"`
	PaymentMethod string         `json:"paymentMethod"`
	Note          string         `json:"note,omitempty"`
	Items         []ItemResponse `json:"items"`
}

func toOrderResponse(o *models.Order) OrderResponse {
	items := make([]ItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = ItemResponse{
			ProductID: it.ProductID,
			Color:     it.Color,
			Quantity:  it.Quantity,
			Price:     it.Price.InexactFloat64(),
		}
	}
	return OrderResponse{
		ID:            o.ID,
		Status:        string(o.Status),
		TotalPrice:    o.TotalPrice.InexactFloat64(),
		PaymentMethod: string(o.PaymentMethod),
		Note:          o.Note,
		Items:         items,
	}
}

type OrderHandler struct {
	engine *Engine
	users  auth.Provider
}

func NewOrderHandler(e *Engine, users auth.Provider) *OrderHandler {
	return &OrderHandler{
		engine: e,
		users:  users,
	}
}

func (h *OrderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		PaymentMethod  models.PaymentMethod `json:"paymentMethod"`
		PaymentDetails string               `json:"paymentDetails"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if !input.PaymentMethod.Valid() {
		http.Error(w, "Unknown payment method", http.StatusBadRequest)
		return
	}

	order, err := h.engine.CreateOrder(r.Context(), user, input.PaymentMethod, input.PaymentDetails)
	if err != nil {
		var stockErr *models.InsufficientStockError
		switch {
		case errors.Is(err, ErrEmptyCart):
			http.Error(w, "Cart is empty", http.StatusBadRequest)
		case errors.Is(err, ErrNoShippingInfo):
			http.Error(w, "No shipping information on profile", http.StatusBadRequest)
		case errors.As(err, &stockErr):
			http.Error(w, stockErr.Error(), http.StatusConflict)
		case errors.Is(err, models.ErrProductNotFound):
			http.Error(w, "Product not found", http.StatusNotFound)
		default:
			http.Error(w, "Failed to create order", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"order":   toOrderResponse(order),
	})
}

func (h *OrderHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	list, err := h.engine.List(models.OrderFilters{UserID: &user.ID})
	if err != nil {
		http.Error(w, "Failed to fetch orders", http.StatusInternalServerError)
		return
	}

	response := make([]OrderResponse, len(list))
	for i := range list {
		response[i] = toOrderResponse(&list[i])
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"orders":  response,
	})
}

func (h *OrderHandler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var filters models.OrderFilters
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.OrderStatus(s)
		if !status.Valid() {
			http.Error(w, "Unknown order status", http.StatusBadRequest)
			return
		}
		filters.Status = &status
	}

	list, err := h.engine.List(filters)
	if err != nil {
		http.Error(w, "Failed to fetch orders", http.StatusInternalServerError)
		return
	}

	response := make([]OrderResponse, len(list))
	for i := range list {
		response[i] = toOrderResponse(&list[i])
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"orders":  response,
	})
}

func (h *OrderHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var input struct {
		OrderID uint               `json:"orderId"`
		Status  models.OrderStatus `json:"status"`
		Note    string             `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if !input.Status.Valid() {
		http.Error(w, "Unknown order status", http.StatusBadRequest)
		return
	}

	order, err := h.engine.UpdateStatus(r.Context(), input.OrderID, input.Status, input.Note)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrOrderNotFound):
			http.Error(w, "Order not found", http.StatusNotFound)
		case errors.Is(err, models.ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, "Failed to update order", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"order":   toOrderResponse(order),
	})
}

func (h *OrderHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	if err := h.engine.Delete(uint(id)); err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete order", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

func (h *OrderHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
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
