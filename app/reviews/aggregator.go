package reviews

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/avyhea/storefront/assets"
	"github.com/avyhea/storefront/models"
	"github.com/shopspring/decimal"
)

// ErrDuplicateReview is returned when the (user, product, order) triple is
// already reviewed.
var ErrDuplicateReview = errors.New("product already reviewed for this order")

// ErrNotEligible is returned when the order does not entitle the user to
// review the product: wrong owner, not delivered, or the product is not in
// the order.
var ErrNotEligible = errors.New("order does not allow reviewing this product")

// ErrInvalidRating is returned for ratings outside 0.5-5 or off the
// half-point grid.
var ErrInvalidRating = errors.New("rating must be between 0.5 and 5 in half-point steps")

// maxAggregateRetries bounds the compare-and-swap loop on the product's
// rating aggregate under concurrent reviews.
const maxAggregateRetries = 5

// ReviewStore is the review persistence the aggregator runs on.
type ReviewStore interface {
	Create(review *models.Review) error
	GetByID(id uint) (*models.Review, error)
	Exists(userID, productID, orderID uint) (bool, error)
	List(filters models.ReviewFilters) ([]models.Review, error)
	SaveContent(review *models.Review) error
	ReplaceImages(reviewID uint, images []models.ReviewImage) error
	Delete(id uint) error
	RatingsForProduct(productID uint) ([]decimal.Decimal, error)
}

// ProductProvider is the slice of the catalog the aggregator reads and
// updates.
type ProductProvider interface {
	GetByID(id uint) (*models.Product, error)
	SetRating(productID uint, rating decimal.Decimal, numReviews, expectedReviews int) (bool, error)
}

// OrderProvider resolves orders for the eligibility check.
type OrderProvider interface {
	GetByID(id uint) (*models.Order, error)
}

// Aggregator records reviews and keeps each product's average rating and
// review count consistent with them.
type Aggregator struct {
	reviews  ReviewStore
	products ProductProvider
	orders   OrderProvider
	store    assets.Store
	filter   *Filter
	log      *slog.Logger
}

func NewAggregator(reviews ReviewStore, products ProductProvider, orders OrderProvider, store assets.Store, filter *Filter, log *slog.Logger) *Aggregator {
	if filter == nil {
		filter = NewFilter()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{
		reviews:  reviews,
		products: products,
		orders:   orders,
		store:    store,
		filter:   filter,
		log:      log,
	}
}

// ValidRating reports whether the rating is on the half-point grid
// between 0.5 and 5.
func ValidRating(rating decimal.Decimal) bool {
	if rating.LessThan(decimal.NewFromFloat(0.5)) || rating.GreaterThan(decimal.NewFromInt(5)) {
		return false
	}
	return rating.Mul(decimal.NewFromInt(2)).IsInteger()
}

// AddReview records a review and folds its rating into the product
// aggregate as (avg*n + rating)/(n+1), rounded to one decimal. The
// eligibility rule is enforced here, not trusted from the client: the
// order must belong to the user, be Delivered, and contain the product.
func (a *Aggregator) AddReview(userID, productID, orderID uint, rating decimal.Decimal, comment string, images [][]byte) (*models.Review, error) {
	if !ValidRating(rating) {
		return nil, ErrInvalidRating
	}
	if comment == "" {
		return nil, fmt.Errorf("comment is required")
	}

	order, err := a.orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID || order.Status != models.StatusDelivered || !order.Contains(productID) {
		return nil, ErrNotEligible
	}

	exists, err := a.reviews.Exists(userID, productID, orderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	if _, err := a.products.GetByID(productID); err != nil {
		return nil, err
	}

	stored, err := a.uploadAll(images)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: productID,
		OrderID:   orderID,
		Rating:    rating,
		Comment:   a.filter.Clean(comment),
		Images:    stored,
	}
	if err := a.reviews.Create(review); err != nil {
		a.deleteAll(stored)
		return nil, err
	}

	if err := a.foldIntoAggregate(productID, rating); err != nil {
		// Without the aggregate update the review must not survive either;
		// a half-applied write would block the user's retry as a duplicate.
		if derr := a.reviews.Delete(review.ID); derr != nil {
			a.log.Error("review rollback failed", "review_id", review.ID, "err", derr)
		}
		a.deleteAll(stored)
		return nil, err
	}
	return review, nil
}

// UpdateReview replaces the rating and comment in place, swaps the stored
// images when a new set is supplied, and recomputes the product average
// from the remaining ratings. The recompute deliberately also runs for
// rating edits, keeping the aggregate the true mean.
func (a *Aggregator) UpdateReview(reviewID uint, rating decimal.Decimal, comment string, images [][]byte) (*models.Review, error) {
	if !ValidRating(rating) {
		return nil, ErrInvalidRating
	}
	if comment == "" {
		return nil, fmt.Errorf("comment is required")
	}

	review, err := a.reviews.GetByID(reviewID)
	if err != nil {
		return nil, err
	}

	if len(images) > 0 {
		stored, err := a.uploadAll(images)
		if err != nil {
			return nil, err
		}
		old := review.Images
		if err := a.reviews.ReplaceImages(reviewID, stored); err != nil {
			a.deleteAll(stored)
			return nil, err
		}
		a.deleteAll(old)
		review.Images = stored
	}

	review.Rating = rating
	review.Comment = a.filter.Clean(comment)
	if err := a.reviews.SaveContent(review); err != nil {
		return nil, err
	}

	if err := a.recomputeAggregate(review.ProductID); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes the review, its stored images, and recomputes the
// product aggregate strictly from the remaining reviews (default 5 when
// none remain).
func (a *Aggregator) DeleteReview(reviewID uint) error {
	review, err := a.reviews.GetByID(reviewID)
	if err != nil {
		return err
	}

	if err := a.reviews.Delete(reviewID); err != nil {
		return err
	}
	a.deleteAll(review.Images)

	return a.recomputeAggregate(review.ProductID)
}

// ListReviews returns reviews with product and order context resolved.
func (a *Aggregator) ListReviews(filters models.ReviewFilters) ([]models.Review, error) {
	return a.reviews.List(filters)
}

// foldIntoAggregate applies the incremental mean update for one new
// rating, retrying when a concurrent review moved the count.
func (a *Aggregator) foldIntoAggregate(productID uint, rating decimal.Decimal) error {
	for i := 0; i < maxAggregateRetries; i++ {
		product, err := a.products.GetByID(productID)
		if err != nil {
			return err
		}
		n := product.NumReviews
		avg := rating
		if n > 0 {
			count := decimal.NewFromInt(int64(n))
			avg = product.AverageRating.Mul(count).Add(rating).Div(count.Add(decimal.NewFromInt(1)))
		}
		ok, err := a.products.SetRating(productID, avg.Round(1), n+1, n)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("rating aggregate for product %d under contention", productID)
}

// recomputeAggregate rebuilds the aggregate from every remaining rating.
func (a *Aggregator) recomputeAggregate(productID uint) error {
	for i := 0; i < maxAggregateRetries; i++ {
		product, err := a.products.GetByID(productID)
		if err != nil {
			return err
		}
		ratings, err := a.reviews.RatingsForProduct(productID)
		if err != nil {
			return err
		}
		avg := models.DefaultRating
		if len(ratings) > 0 {
			sum := decimal.Zero
			for _, r := range ratings {
				sum = sum.Add(r)
			}
			avg = sum.Div(decimal.NewFromInt(int64(len(ratings)))).Round(1)
		}
		ok, err := a.products.SetRating(productID, avg, len(ratings), product.NumReviews)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("rating aggregate for product %d under contention", productID)
}

func (a *Aggregator) uploadAll(images [][]byte) ([]models.ReviewImage, error) {
	stored := make([]models.ReviewImage, 0, len(images))
	for _, data := range images {
		img, err := a.store.Put(data, "reviews")
		if err != nil {
			// Abort the whole write; an orphaned half-set is worse than a
			// failed request.
			a.deleteAll(stored)
			return nil, fmt.Errorf("image upload failed: %w", err)
		}
		stored = append(stored, models.ReviewImage{StorageID: img.StorageID, URL: img.URL})
	}
	return stored, nil
}

func (a *Aggregator) deleteAll(images []models.ReviewImage) {
	for _, img := range images {
		if err := a.store.Delete(img.StorageID); err != nil {
			a.log.Error("review image cleanup failed", "storage_id", img.StorageID, "err", err)
		}
	}
}
