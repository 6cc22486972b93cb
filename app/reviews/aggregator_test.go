package reviews

import (
	"errors"
	"testing"

	"github.com/avyhea/storefront/assets"
	"github.com/avyhea/storefront/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// --- Fakes ---

type fakeReviewStore struct {
	nextID  uint
	reviews map[uint]*models.Review
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{reviews: map[uint]*models.Review{}}
}

func (f *fakeReviewStore) Create(review *models.Review) error {
	f.nextID++
	review.ID = f.nextID
	cp := *review
	f.reviews[review.ID] = &cp
	return nil
}

func (f *fakeReviewStore) GetByID(id uint) (*models.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, models.ErrReviewNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReviewStore) Exists(userID, productID, orderID uint) (bool, error) {
	for _, r := range f.reviews {
		if r.UserID == userID && r.ProductID == productID && r.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviewStore) List(filters models.ReviewFilters) ([]models.Review, error) {
	var out []models.Review
	for _, r := range f.reviews {
		if filters.UserID != nil && r.UserID != *filters.UserID {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReviewStore) SaveContent(review *models.Review) error {
	r, ok := f.reviews[review.ID]
	if !ok {
		return models.ErrReviewNotFound
	}
	r.Rating = review.Rating
	r.Comment = review.Comment
	return nil
}

func (f *fakeReviewStore) ReplaceImages(reviewID uint, images []models.ReviewImage) error {
	r, ok := f.reviews[reviewID]
	if !ok {
		return models.ErrReviewNotFound
	}
	r.Images = images
	return nil
}

func (f *fakeReviewStore) Delete(id uint) error {
	if _, ok := f.reviews[id]; !ok {
		return models.ErrReviewNotFound
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeReviewStore) RatingsForProduct(productID uint) ([]decimal.Decimal, error) {
	var out []decimal.Decimal
	for _, r := range f.reviews {
		if r.ProductID == productID {
			out = append(out, r.Rating)
		}
	}
	return out, nil
}

// fakeCatalog honors the conditional write of the rating aggregate the
// same way the repository does in SQL. With contended set, every write
// loses the race.
type fakeCatalog struct {
	products  map[uint]*models.Product
	contended bool
}

func (f *fakeCatalog) GetByID(id uint) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCatalog) SetRating(productID uint, rating decimal.Decimal, numReviews, expectedReviews int) (bool, error) {
	p, ok := f.products[productID]
	if !ok {
		return false, models.ErrProductNotFound
	}
	if f.contended || p.NumReviews != expectedReviews {
		return false, nil
	}
	p.AverageRating = rating
	p.NumReviews = numReviews
	return true, nil
}

type fakeOrders struct {
	orders map[uint]*models.Order
}

func (f *fakeOrders) GetByID(id uint) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return o, nil
}

// failingStore rejects the Nth upload.
type failingStore struct {
	inner  *assets.Memory
	puts   int
	failOn int
}

func (s *failingStore) Put(data []byte, folder string) (assets.Image, error) {
	s.puts++
	if s.puts == s.failOn {
		return assets.Image{}, errors.New("storage unavailable")
	}
	return s.inner.Put(data, folder)
}

func (s *failingStore) Delete(storageID string) error {
	return s.inner.Delete(storageID)
}

func deliveredOrder(id, userID uint, productIDs ...uint) *models.Order {
	items := make([]models.OrderItem, len(productIDs))
	for i, pid := range productIDs {
		items[i] = models.OrderItem{ProductID: pid, Quantity: 1}
	}
	return &models.Order{ID: id, UserID: userID, Status: models.StatusDelivered, Items: items}
}

func newTestAggregator() (*Aggregator, *fakeReviewStore, *fakeCatalog, *fakeOrders, *assets.Memory) {
	store := newFakeReviewStore()
	catalog := &fakeCatalog{products: map[uint]*models.Product{
		1: {ID: 1, Name: "Linen Shirt", AverageRating: models.DefaultRating, NumReviews: 0},
	}}
	orders := &fakeOrders{orders: map[uint]*models.Order{
		100: deliveredOrder(100, 10, 1),
		101: deliveredOrder(101, 11, 1),
	}}
	images := assets.NewMemory("http://assets.test")
	agg := NewAggregator(store, catalog, orders, images, nil, nil)
	return agg, store, catalog, orders, images
}

func rating(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- Tests ---

func TestAddReviewFoldsIntoAggregate(t *testing.T) {
	agg, _, catalog, _, _ := newTestAggregator()

	// No reviews yet: the product sits at the default rating of 5.
	p, _ := catalog.GetByID(1)
	assert.True(t, p.AverageRating.Equal(rating("5")))
	assert.Equal(t, 0, p.NumReviews)

	_, err := agg.AddReview(10, 1, 100, rating("4"), "good fit", nil)
	assert.NoError(t, err)
	p, _ = catalog.GetByID(1)
	assert.Equal(t, 1, p.NumReviews)
	assert.True(t, p.AverageRating.Equal(rating("4")), "got %s", p.AverageRating)

	_, err = agg.AddReview(11, 1, 101, rating("2"), "color faded", nil)
	assert.NoError(t, err)
	p, _ = catalog.GetByID(1)
	assert.Equal(t, 2, p.NumReviews)
	assert.True(t, p.AverageRating.Equal(rating("3")), "got %s", p.AverageRating)
}

func TestAddReviewRejectsDuplicateTriple(t *testing.T) {
	agg, _, catalog, _, _ := newTestAggregator()

	_, err := agg.AddReview(10, 1, 100, rating("4"), "good fit", nil)
	assert.NoError(t, err)

	_, err = agg.AddReview(10, 1, 100, rating("1"), "changed my mind", nil)
	assert.ErrorIs(t, err, ErrDuplicateReview)

	p, _ := catalog.GetByID(1)
	assert.Equal(t, 1, p.NumReviews, "rejected duplicate must not move the aggregate")
	assert.True(t, p.AverageRating.Equal(rating("4")))
}

func TestAddReviewEligibility(t *testing.T) {
	agg, _, _, orders, _ := newTestAggregator()
	orders.orders[102] = &models.Order{ID: 102, UserID: 10, Status: models.StatusShipped,
		Items: []models.OrderItem{{ProductID: 1, Quantity: 1}}}
	orders.orders[103] = deliveredOrder(103, 10, 2)

	testCases := []struct {
		name    string
		userID  uint
		orderID uint
		wantErr error
	}{
		{"Order owned by someone else", 11, 100, ErrNotEligible},
		{"Order not delivered", 10, 102, ErrNotEligible},
		{"Product not in the order", 10, 103, ErrNotEligible},
		{"Order does not exist", 10, 999, models.ErrOrderNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := agg.AddReview(tc.userID, 1, tc.orderID, rating("4"), "nice", nil)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidRating(t *testing.T) {
	assert.True(t, ValidRating(rating("0.5")))
	assert.True(t, ValidRating(rating("3.5")))
	assert.True(t, ValidRating(rating("5")))
	assert.False(t, ValidRating(rating("0")))
	assert.False(t, ValidRating(rating("5.5")))
	assert.False(t, ValidRating(rating("3.7")))
	assert.False(t, ValidRating(rating("-1")))
}

func TestAddReviewFiltersComment(t *testing.T) {
	agg, store, _, _, _ := newTestAggregator()

	review, err := agg.AddReview(10, 1, 100, rating("4"), "Great, but shipping was bullshit!", nil)
	assert.NoError(t, err)
	assert.Equal(t, "great but shipping was ********", review.Comment)

	saved, err := store.GetByID(review.ID)
	assert.NoError(t, err)
	assert.Equal(t, review.Comment, saved.Comment)
}

func TestAddReviewStoresImages(t *testing.T) {
	agg, _, _, _, images := newTestAggregator()

	review, err := agg.AddReview(10, 1, 100, rating("4"), "nice", [][]byte{[]byte("a"), []byte("b")})
	assert.NoError(t, err)
	assert.Len(t, review.Images, 2)
	assert.Equal(t, 2, images.Len())
	for _, img := range review.Images {
		assert.True(t, images.Has(img.StorageID))
	}
}

func TestAddReviewAbortsOnUploadFailure(t *testing.T) {
	store := newFakeReviewStore()
	catalog := &fakeCatalog{products: map[uint]*models.Product{
		1: {ID: 1, AverageRating: models.DefaultRating},
	}}
	orders := &fakeOrders{orders: map[uint]*models.Order{100: deliveredOrder(100, 10, 1)}}
	images := &failingStore{inner: assets.NewMemory("http://assets.test"), failOn: 2}
	agg := NewAggregator(store, catalog, orders, images, nil, nil)

	_, err := agg.AddReview(10, 1, 100, rating("4"), "nice", [][]byte{[]byte("a"), []byte("b")})
	assert.Error(t, err)
	assert.Empty(t, store.reviews, "no review persisted on upload failure")
	assert.Equal(t, 0, images.inner.Len(), "partial uploads cleaned up")

	p, _ := catalog.GetByID(1)
	assert.Equal(t, 0, p.NumReviews)
}

func TestAddReviewRollsBackWhenAggregateFails(t *testing.T) {
	agg, store, catalog, _, images := newTestAggregator()
	catalog.contended = true

	_, err := agg.AddReview(10, 1, 100, rating("4"), "good fit", [][]byte{[]byte("a")})
	assert.Error(t, err)
	assert.Empty(t, store.reviews, "review must not survive a failed aggregate update")
	assert.Equal(t, 0, images.Len(), "uploaded images cleaned up")

	// The user can retry once the contention clears; the failed attempt
	// must not read as a duplicate.
	catalog.contended = false
	review, err := agg.AddReview(10, 1, 100, rating("4"), "good fit", nil)
	assert.NoError(t, err)
	assert.NotNil(t, review)

	p, _ := catalog.GetByID(1)
	assert.Equal(t, 1, p.NumReviews)
}

func TestUpdateReviewRecomputesAggregate(t *testing.T) {
	agg, _, catalog, _, _ := newTestAggregator()

	review, err := agg.AddReview(10, 1, 100, rating("4"), "good", nil)
	assert.NoError(t, err)
	_, err = agg.AddReview(11, 1, 101, rating("2"), "meh", nil)
	assert.NoError(t, err)

	updated, err := agg.UpdateReview(review.ID, rating("5"), "even better after a wash", nil)
	assert.NoError(t, err)
	assert.True(t, updated.Rating.Equal(rating("5")))

	p, _ := catalog.GetByID(1)
	assert.Equal(t, 2, p.NumReviews)
	assert.True(t, p.AverageRating.Equal(rating("3.5")), "got %s", p.AverageRating)
}

func TestUpdateReviewSwapsImages(t *testing.T) {
	agg, _, _, _, images := newTestAggregator()

	review, err := agg.AddReview(10, 1, 100, rating("4"), "good", [][]byte{[]byte("old")})
	assert.NoError(t, err)
	oldID := review.Images[0].StorageID

	updated, err := agg.UpdateReview(review.ID, rating("4"), "good", [][]byte{[]byte("new")})
	assert.NoError(t, err)
	assert.Len(t, updated.Images, 1)
	assert.False(t, images.Has(oldID), "replaced image destroyed")
	assert.True(t, images.Has(updated.Images[0].StorageID))
}

func TestDeleteReviewRecomputesAggregate(t *testing.T) {
	agg, _, catalog, _, images := newTestAggregator()

	first, err := agg.AddReview(10, 1, 100, rating("4"), "good", [][]byte{[]byte("a")})
	assert.NoError(t, err)
	second, err := agg.AddReview(11, 1, 101, rating("2"), "meh", nil)
	assert.NoError(t, err)

	assert.NoError(t, agg.DeleteReview(first.ID))
	p, _ := catalog.GetByID(1)
	assert.Equal(t, 1, p.NumReviews)
	assert.True(t, p.AverageRating.Equal(rating("2")), "got %s", p.AverageRating)
	assert.Equal(t, 0, images.Len(), "deleted review's images destroyed")

	// Deleting the last review returns the product to the default rating.
	assert.NoError(t, agg.DeleteReview(second.ID))
	p, _ = catalog.GetByID(1)
	assert.Equal(t, 0, p.NumReviews)
	assert.True(t, p.AverageRating.Equal(models.DefaultRating))
}

func TestDeleteReviewNotFound(t *testing.T) {
	agg, _, _, _, _ := newTestAggregator()
	assert.ErrorIs(t, agg.DeleteReview(999), models.ErrReviewNotFound)
}
