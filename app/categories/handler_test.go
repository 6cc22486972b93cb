package categories

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avyhea/storefront/assets"
	"github.com/avyhea/storefront/auth"
	"github.com/avyhea/storefront/models"
	"github.com/stretchr/testify/assert"
)

// --- Mock Repository ---

type MockCategoryRepo struct {
	Categories        []models.Category
	CascadeStorageIDs []string
	CreateErr         error
	ListErr           error
	CascadeErr        error

	lastDeletedID uint
}

func (m *MockCategoryRepo) GetAllCategories() ([]models.Category, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Categories, nil
}

func (m *MockCategoryRepo) CreateCategory(category *models.Category) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	category.ID = uint(len(m.Categories) + 1)
	m.Categories = append(m.Categories, *category)
	return nil
}

func (m *MockCategoryRepo) DeleteCascade(id uint) ([]string, error) {
	m.lastDeletedID = id
	if m.CascadeErr != nil {
		return nil, m.CascadeErr
	}
	return m.CascadeStorageIDs, nil
}

// --- Helpers ---

func adminProvider() auth.Provider {
	return auth.ProviderFunc(func(r *http.Request) (*auth.User, error) {
		return &auth.User{ID: 1, Name: "Admin", Admin: true}, nil
	})
}

func seededStore(t *testing.T, ids ...string) (*assets.Memory, []string) {
	t.Helper()
	store := assets.NewMemory("https://img.test")
	var stored []string
	for range ids {
		img, err := store.Put([]byte("img"), "products")
		assert.NoError(t, err)
		stored = append(stored, img.StorageID)
	}
	return store, stored
}

// --- Tests ---

func TestHandleGetAll(t *testing.T) {
	repo := &MockCategoryRepo{Categories: []models.Category{
		{ID: 1, Name: "Clothing", Description: "Tops and bottoms"},
		{ID: 2, Name: "Accessories"},
	}}
	handler := NewCategoryHandler(repo, assets.NewMemory(""), adminProvider(), nil)

	rec := httptest.NewRecorder()
	handler.HandleGetAll(rec, httptest.NewRequest("GET", "/categories", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp []CategoryResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp, 2)
	assert.Equal(t, "Clothing", resp[0].Name)
	assert.Equal(t, "Tops and bottoms", resp[0].Description)
}

func TestHandleGetAllError(t *testing.T) {
	repo := &MockCategoryRepo{ListErr: errors.New("db down")}
	handler := NewCategoryHandler(repo, assets.NewMemory(""), adminProvider(), nil)

	rec := httptest.NewRecorder()
	handler.HandleGetAll(rec, httptest.NewRequest("GET", "/categories", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleCreate(t *testing.T) {
	testCases := []struct {
		name               string
		body               string
		repo               *MockCategoryRepo
		expectedStatusCode int
	}{
		{
			name:               "Success",
			body:               `{"name":"Shoes","description":"Footwear"}`,
			repo:               &MockCategoryRepo{},
			expectedStatusCode: http.StatusCreated,
		},
		{
			name:               "Missing name",
			body:               `{"description":"Footwear"}`,
			repo:               &MockCategoryRepo{},
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:               "Invalid JSON",
			body:               `{"name":`,
			repo:               &MockCategoryRepo{},
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:               "Repository error",
			body:               `{"name":"Shoes"}`,
			repo:               &MockCategoryRepo{CreateErr: errors.New("db down")},
			expectedStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewCategoryHandler(tc.repo, assets.NewMemory(""), adminProvider(), nil)
			req := httptest.NewRequest("POST", "/admin/categories", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			handler.HandleCreate(rec, req)

			assert.Equal(t, tc.expectedStatusCode, rec.Code)
		})
	}
}

func TestHandleDeleteCascadesAssets(t *testing.T) {
	store, stored := seededStore(t, "a", "b", "c")
	repo := &MockCategoryRepo{CascadeStorageIDs: stored}
	handler := NewCategoryHandler(repo, store, adminProvider(), nil)

	req := httptest.NewRequest("DELETE", "/admin/categories/7", nil)
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()

	handler.HandleDelete(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), repo.lastDeletedID)
	assert.Equal(t, 0, store.Len(), "every orphaned asset should be removed")
}

func TestHandleDeleteNotFound(t *testing.T) {
	repo := &MockCategoryRepo{CascadeErr: models.ErrCategoryNotFound}
	handler := NewCategoryHandler(repo, assets.NewMemory(""), adminProvider(), nil)

	req := httptest.NewRequest("DELETE", "/admin/categories/7", nil)
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()

	handler.HandleDelete(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminEndpointsRejectNonAdmins(t *testing.T) {
	repo := &MockCategoryRepo{}
	shopper := auth.ProviderFunc(func(r *http.Request) (*auth.User, error) {
		return &auth.User{ID: 2, Name: "Shopper"}, nil
	})
	handler := NewCategoryHandler(repo, assets.NewMemory(""), shopper, nil)

	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, httptest.NewRequest("POST", "/admin/categories", strings.NewReader(`{"name":"X"}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest("DELETE", "/admin/categories/1", nil)
	req.SetPathValue("id", "1")
	rec = httptest.NewRecorder()
	handler.HandleDelete(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
