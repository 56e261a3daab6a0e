package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/smartecommerce/storefront/internal/cart"
	"github.com/smartecommerce/storefront/internal/catalog"
	"github.com/smartecommerce/storefront/internal/checkout"
	"github.com/smartecommerce/storefront/internal/config"
	"github.com/smartecommerce/storefront/internal/httpx"
	kafkax "github.com/smartecommerce/storefront/internal/kafka"
	"github.com/smartecommerce/storefront/internal/notify"
	"github.com/smartecommerce/storefront/internal/orders"
	"github.com/smartecommerce/storefront/internal/postgres"
	"github.com/smartecommerce/storefront/internal/redisx"
	"github.com/smartecommerce/storefront/internal/shipping"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PgMaxConns)
	if err != nil {
		slog.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	placedProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	placedProd.Start(ctx)
	statusProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatus, 1024)
	statusProd.Start(ctx)

	orderStore := &orders.PgStore{DB: db}
	lifecycle := orders.NewService(orderStore, cfg.RestockOnCancel)
	checkoutSvc := checkout.NewService(&checkout.PgStore{DB: db})

	categories := &catalog.Categories{DB: db}

	router := httpx.NewRouter()
	(&httpx.CartHandler{Carts: &cart.Repo{DB: db}}).Register(router)
	(&httpx.ProductsHandler{Repo: &catalog.Repo{DB: db}, Categories: categories}).Register(router)
	(&httpx.CategoriesHandler{Repo: categories}).Register(router)
	(&httpx.ShippingHandler{Store: &shipping.Store{DB: db}}).Register(router)
	(&httpx.CheckoutHandler{
		Checkout: checkoutSvc,
		Producer: placedProd,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}).Register(router)
	(&httpx.NotificationsHandler{Store: &notify.Store{DB: db}}).Register(router)
	(&httpx.OrdersHandler{
		Store:     orderStore,
		Lifecycle: lifecycle,
		Producer:  statusProd,
		Redis:     rdb,
		Service:   cfg.ServiceName,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		slog.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")

	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(shutdownCtx)

	placedProd.Close()
	statusProd.Close()
	cancel()
	placedProd.WaitClosed()
	statusProd.WaitClosed()
}
