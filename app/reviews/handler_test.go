package reviews

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avyhea/storefront/auth"
	"github.com/avyhea/storefront/models"
	"github.com/stretchr/testify/assert"
)

func stubProvider(user *auth.User) auth.Provider {
	return auth.ProviderFunc(func(r *http.Request) (*auth.User, error) {
		if user == nil {
			return nil, auth.ErrUnauthorized
		}
		return user, nil
	})
}

func TestHandleCreate(t *testing.T) {
	testCases := []struct {
		name       string
		userID     uint
		body       string
		wantStatus int
	}{
		{
			"Creates review",
			10,
			`{"product":1,"order":100,"rating":4,"comment":"good fit"}`,
			http.StatusCreated,
		},
		{
			"Missing order id",
			10,
			`{"product":1,"rating":4,"comment":"good fit"}`,
			http.StatusBadRequest,
		},
		{
			"Missing comment",
			10,
			`{"product":1,"order":100,"rating":4}`,
			http.StatusBadRequest,
		},
		{
			"Off-grid rating",
			10,
			`{"product":1,"order":100,"rating":4.3,"comment":"good"}`,
			http.StatusBadRequest,
		},
		{
			"Not the order's owner",
			12,
			`{"product":1,"order":100,"rating":4,"comment":"good"}`,
			http.StatusForbidden,
		},
		{
			"Order does not exist",
			10,
			`{"product":1,"order":999,"rating":4,"comment":"good"}`,
			http.StatusNotFound,
		},
		{
			"Bad image encoding",
			10,
			`{"product":1,"order":100,"rating":4,"comment":"good","images":["%%%"]}`,
			http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			agg, _, _, _, _ := newTestAggregator()
			handler := NewReviewHandler(agg, stubProvider(&auth.User{ID: tc.userID}))

			req := httptest.NewRequest("POST", "/reviews", strings.NewReader(tc.body))
			res := httptest.NewRecorder()
			handler.HandleCreate(res, req)

			assert.Equal(t, tc.wantStatus, res.Code)
		})
	}

	t.Run("Duplicate review", func(t *testing.T) {
		agg, _, _, _, _ := newTestAggregator()
		handler := NewReviewHandler(agg, stubProvider(&auth.User{ID: 10}))
		body := `{"product":1,"order":100,"rating":4,"comment":"good fit"}`

		res := httptest.NewRecorder()
		handler.HandleCreate(res, httptest.NewRequest("POST", "/reviews", strings.NewReader(body)))
		assert.Equal(t, http.StatusCreated, res.Code)

		res = httptest.NewRecorder()
		handler.HandleCreate(res, httptest.NewRequest("POST", "/reviews", strings.NewReader(body)))
		assert.Equal(t, http.StatusConflict, res.Code)
	})
}

func TestHandleUpdateOwnership(t *testing.T) {
	agg, _, _, _, _ := newTestAggregator()
	_, err := agg.AddReview(10, 1, 100, rating("4"), "good", nil)
	assert.NoError(t, err)

	body := `{"rating":5,"comment":"even better"}`

	t.Run("Someone else's review", func(t *testing.T) {
		handler := NewReviewHandler(agg, stubProvider(&auth.User{ID: 11}))
		req := httptest.NewRequest("PUT", "/reviews/1", strings.NewReader(body))
		req.SetPathValue("id", "1")
		res := httptest.NewRecorder()
		handler.HandleUpdate(res, req)

		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("Owner", func(t *testing.T) {
		handler := NewReviewHandler(agg, stubProvider(&auth.User{ID: 10}))
		req := httptest.NewRequest("PUT", "/reviews/1", strings.NewReader(body))
		req.SetPathValue("id", "1")
		res := httptest.NewRecorder()
		handler.HandleUpdate(res, req)

		assert.Equal(t, http.StatusOK, res.Code)
	})

	t.Run("Admin", func(t *testing.T) {
		handler := NewReviewHandler(agg, stubProvider(&auth.User{ID: 1, Admin: true}))
		req := httptest.NewRequest("PUT", "/reviews/1", strings.NewReader(body))
		req.SetPathValue("id", "1")
		res := httptest.NewRecorder()
		handler.HandleUpdate(res, req)

		assert.Equal(t, http.StatusOK, res.Code)
	})
}

func TestHandleDeleteNotFound(t *testing.T) {
	agg, _, _, _, _ := newTestAggregator()
	handler := NewReviewHandler(agg, stubProvider(&auth.User{ID: 10}))

	req := httptest.NewRequest("DELETE", "/reviews/99", nil)
	req.SetPathValue("id", "99")
	res := httptest.NewRecorder()
	handler.HandleDelete(res, req)

	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestHandleListMine(t *testing.T) {
	agg, store, _, _, _ := newTestAggregator()
	review, err := agg.AddReview(10, 1, 100, rating("4"), "good", nil)
	assert.NoError(t, err)

	// The repository resolves product and order context for display.
	store.reviews[review.ID].Product = models.Product{ID: 1, Name: "Linen Shirt"}
	store.reviews[review.ID].Order = models.Order{ID: 100, Status: models.StatusDelivered}

	t.Run("With reviews", func(t *testing.T) {
		handler := NewReviewHandler(agg, stubProvider(&auth.User{ID: 10}))
		res := httptest.NewRecorder()
		handler.HandleListMine(res, httptest.NewRequest("GET", "/reviews/me", nil))

		assert.Equal(t, http.StatusOK, res.Code)
		var body struct {
			Success bool             `json:"success"`
			Reviews []ReviewResponse `json:"reviews"`
		}
		assert.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		assert.Len(t, body.Reviews, 1)
		assert.Equal(t, "Linen Shirt", body.Reviews[0].ProductName)
		assert.Equal(t, "Delivered", body.Reviews[0].OrderStatus)
	})

	t.Run("No reviews is a 404", func(t *testing.T) {
		handler := NewReviewHandler(agg, stubProvider(&auth.User{ID: 99}))
		res := httptest.NewRecorder()
		handler.HandleListMine(res, httptest.NewRequest("GET", "/reviews/me", nil))

		assert.Equal(t, http.StatusNotFound, res.Code)
	})
}
