package reviews

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/avyhea/storefront/auth"
	"github.com/avyhea/storefront/models"
	"github.com/shopspring/decimal"
)

type ImageResponse struct {
	URL string `json:"url"`
}

type ReviewResponse struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	OrderID     uint            `json:"orderId"`
	OrderStatus string          `json:"orderStatus,omitempty"`
	Rating      float64         `json:"rating"`
	Comment     string          `json:"comment"`
	Images      []ImageResponse `json:"images"`
}

func toReviewResponse(rv *models.Review) ReviewResponse {
	images := make([]ImageResponse, len(rv.Images))
	for i, img := range rv.Images {
		images[i] = ImageResponse{URL: img.URL}
	}
	return ReviewResponse{
		ID:          rv.ID,
		ProductID:   rv.ProductID,
		ProductName: rv.Product.Name,
		OrderID:     rv.OrderID,
		OrderStatus: string(rv.Order.Status),
		Rating:      rv.Rating.InexactFloat64(),
		Comment:     rv.Comment,
		Images:      images,
	}
}

type ReviewHandler struct {
	aggregator *Aggregator
	users      auth.Provider
}

func NewReviewHandler(a *Aggregator, users auth.Provider) *ReviewHandler {
	return &ReviewHandler{
		aggregator: a,
		users:      users,
	}
}

// decodeImages converts base64 request images into raw bytes.
func decodeImages(encoded []string) ([][]byte, error) {
	images := make([][]byte, len(encoded))
	for i, s := range encoded {
		data, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, err
		}
		images[i] = data
	}
	return images, nil
}

func (h *ReviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		Product uint     `json:"product"`
		Order   uint     `json:"order"`
		Rating  float64  `json:"rating"`
		Comment string   `json:"comment"`
		Images  []string `json:"images"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.Product == 0 || input.Order == 0 || input.Rating == 0 || input.Comment == "" {
		http.Error(w, "All fields are required, including order ID", http.StatusBadRequest)
		return
	}
	images, err := decodeImages(input.Images)
	if err != nil {
		http.Error(w, "Invalid image encoding", http.StatusBadRequest)
		return
	}

	review, err := h.aggregator.AddReview(user.ID, input.Product, input.Order,
		decimal.NewFromFloat(input.Rating), input.Comment, images)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRating):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrNotEligible):
			http.Error(w, "You can only review products from your delivered orders", http.StatusForbidden)
		case errors.Is(err, ErrDuplicateReview):
			http.Error(w, "You have already reviewed this product for this order", http.StatusConflict)
		case errors.Is(err, models.ErrOrderNotFound), errors.Is(err, models.ErrProductNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, "Failed to add review", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"review":  toReviewResponse(review),
	})
}

func (h *ReviewHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "Invalid review id", http.StatusBadRequest)
		return
	}

	var input struct {
		Rating  float64  `json:"rating"`
		Comment string   `json:"comment"`
		Images  []string `json:"images"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if input.Rating == 0 || input.Comment == "" {
		http.Error(w, "Rating and comment are required", http.StatusBadRequest)
		return
	}
	images, err := decodeImages(input.Images)
	if err != nil {
		http.Error(w, "Invalid image encoding", http.StatusBadRequest)
		return
	}

	if !h.ownsReview(w, user, uint(id)) {
		return
	}

	review, err := h.aggregator.UpdateReview(uint(id), decimal.NewFromFloat(input.Rating), input.Comment, images)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRating):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, models.ErrReviewNotFound):
			http.Error(w, "Review not found", http.StatusNotFound)
		default:
			http.Error(w, "Failed to update review", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"review":  toReviewResponse(review),
	})
}

func (h *ReviewHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		http.Error(w, "Invalid review id", http.StatusBadRequest)
		return
	}

	if !h.ownsReview(w, user, uint(id)) {
		return
	}

	if err := h.aggregator.DeleteReview(uint(id)); err != nil {
		if errors.Is(err, models.ErrReviewNotFound) {
			http.Error(w, "Review not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete review", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true})
}

// HandleListMine returns the caller's reviews; an empty list is a 404,
// matching the storefront's existing contract.
func (h *ReviewHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	reviews, err := h.aggregator.ListReviews(models.ReviewFilters{UserID: &user.ID})
	if err != nil {
		http.Error(w, "Failed to fetch reviews", http.StatusInternalServerError)
		return
	}
	if len(reviews) == 0 {
		http.Error(w, "No reviews found for this user", http.StatusNotFound)
		return
	}

	h.writeList(w, reviews)
}

func (h *ReviewHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !user.Admin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	reviews, err := h.aggregator.ListReviews(models.ReviewFilters{})
	if err != nil {
		http.Error(w, "Failed to fetch reviews", http.StatusInternalServerError)
		return
	}

	h.writeList(w, reviews)
}

func (h *ReviewHandler) writeList(w http.ResponseWriter, reviews []models.Review) {
	response := make([]ReviewResponse, len(reviews))
	for i := range reviews {
		response[i] = toReviewResponse(&reviews[i])
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"reviews": response,
	})
}

// ownsReview rejects edits to someone else's review unless the caller is
// an admin.
func (h *ReviewHandler) ownsReview(w http.ResponseWriter, user *auth.User, reviewID uint) bool {
	review, err := h.aggregator.reviews.GetByID(reviewID)
	if err != nil {
		if errors.Is(err, models.ErrReviewNotFound) {
			http.Error(w, "Review not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to fetch review", http.StatusInternalServerError)
		}
		return false
	}
	if review.UserID != user.ID && !user.Admin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}
