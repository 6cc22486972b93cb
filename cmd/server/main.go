package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avyhea/storefront/app/cart"
	"github.com/avyhea/storefront/app/catalog"
	"github.com/avyhea/storefront/app/categories"
	"github.com/avyhea/storefront/app/orders"
	"github.com/avyhea/storefront/app/reviews"
	"github.com/avyhea/storefront/assets"
	"github.com/avyhea/storefront/auth"
	"github.com/avyhea/storefront/models"
	"github.com/avyhea/storefront/notify"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file, using environment")
	}

	if err := run(log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	db, err := gorm.Open(postgres.Open(os.Getenv("DATABASE_URL")), &gorm.Config{})
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.ProductImage{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
		&models.ReviewImage{},
	); err != nil {
		return err
	}

	store, err := assets.NewDisk(envOr("ASSET_DIR", "data/assets"), envOr("ASSET_BASE_URL", "/assets"))
	if err != nil {
		return err
	}

	var notifier notify.Notifier = notify.Noop{}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		k := notify.NewKafka(strings.Split(brokers, ","), envOr("KAFKA_TOPIC", "storefront.orders"))
		defer k.Close()
		notifier = k
	}

	users := auth.HeaderProvider{}

	productsRepo := models.NewProductsRepository(db)
	categoriesRepo := models.NewCategoriesRepository(db)
	cartRepo := models.NewCartRepository(db)
	ordersRepo := models.NewOrdersRepository(db)
	reviewsRepo := models.NewReviewsRepository(db)

	cartManager := cart.NewManager(cartRepo, productsRepo)
	orderEngine := orders.NewEngine(cartManager, productsRepo, ordersRepo, notifier, log)
	reviewAggregator := reviews.NewAggregator(reviewsRepo, productsRepo, ordersRepo, store, reviews.NewFilter(), log)

	catalogHandler := catalog.NewCatalogHandler(productsRepo)
	adminHandler := catalog.NewAdminHandler(productsRepo, categoriesRepo, store, users)
	categoryHandler := categories.NewCategoryHandler(categoriesRepo, store, users, log)
	cartHandler := cart.NewCartHandler(cartManager, users)
	orderHandler := orders.NewOrderHandler(orderEngine, users)
	reviewHandler := reviews.NewReviewHandler(reviewAggregator, users)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /catalog", catalogHandler.HandleGet)
	mux.HandleFunc("GET /catalog/{id}", catalogHandler.HandleGetProduct)
	mux.HandleFunc("GET /admin/products", adminHandler.HandleList)
	mux.HandleFunc("POST /admin/products", adminHandler.HandleCreate)
	mux.HandleFunc("PUT /admin/products/{id}", adminHandler.HandleUpdate)
	mux.HandleFunc("DELETE /admin/products/{id}", adminHandler.HandleDelete)

	mux.HandleFunc("GET /categories", categoryHandler.HandleGetAll)
	mux.HandleFunc("POST /admin/categories", categoryHandler.HandleCreate)
	mux.HandleFunc("DELETE /admin/categories/{id}", categoryHandler.HandleDelete)

	mux.HandleFunc("GET /cart", cartHandler.HandleList)
	mux.HandleFunc("POST /cart/add", cartHandler.HandleAdd)
	mux.HandleFunc("PUT /cart/update", cartHandler.HandleUpdate)

	mux.HandleFunc("POST /orders/create", orderHandler.HandleCreate)
	mux.HandleFunc("GET /orders", orderHandler.HandleListMine)
	mux.HandleFunc("GET /admin/orders", orderHandler.HandleAdminList)
	mux.HandleFunc("PUT /admin/orders/update", orderHandler.HandleUpdateStatus)
	mux.HandleFunc("DELETE /admin/orders/delete/{id}", orderHandler.HandleDelete)

	mux.HandleFunc("POST /reviews", reviewHandler.HandleCreate)
	mux.HandleFunc("PUT /reviews/{id}", reviewHandler.HandleUpdate)
	mux.HandleFunc("DELETE /reviews/{id}", reviewHandler.HandleDelete)
	mux.HandleFunc("GET /reviews", reviewHandler.HandleListAll)
	mux.HandleFunc("GET /reviews/me", reviewHandler.HandleListMine)

	server := &http.Server{
		Addr:    ":" + envOr("PORT", "8080"),
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server stopped")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
