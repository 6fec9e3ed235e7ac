package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/identity"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/internal/scheduler"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Storefront Backend Server", logger.Fields{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Revoked-token store. Without redis, logout cannot revoke bearer tokens.
	var (
		revocations middleware.TokenRevocationChecker
		revoker     controller.TokenRevoker
	)
	if cfg.Redis.Enabled {
		client, err := redis.Connect(context.Background(), &cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Error("Failed to close redis connection", err)
			}
		}()
		tokens := redis.NewTokenStore(client)
		revocations, revoker = tokens, tokens
	} else {
		logger.Warn("Redis disabled, token revocation is off")
	}

	conn := db.GetDB()

	// Initialize repositories
	productRepo := repository.NewProductRepository(conn)
	categoryRepo := repository.NewCategoryRepository(conn)
	cartRepo := repository.NewCartRepository(conn)
	orderRepo := repository.NewOrderRepository(conn)
	addressRepo := repository.NewAddressRepository(conn)
	paymentRepo := repository.NewPaymentRepository(conn)

	// Initialize services
	productService := service.NewProductService(conn, productRepo, categoryRepo, cartRepo)
	cartService := service.NewCartService(conn, cartRepo, productRepo)
	orderService := service.NewOrderService(conn, orderRepo, cartRepo, productRepo, addressRepo, paymentRepo)
	addressService := service.NewAddressService(conn, addressRepo)
	paymentService := service.NewPaymentService(conn, paymentRepo)

	// Initialize controllers
	authController := controller.NewAuthController(revoker)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService)
	orderController := controller.NewOrderController(orderService)
	addressController := controller.NewAddressController(addressService)
	paymentController := controller.NewPaymentController(paymentService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, revocations)
	cartIdentity := middleware.NewCartIdentityMiddleware(identity.NewResolver(), cartService, cfg.Cart)

	// Abandoned anonymous carts
	var sweeper *scheduler.CartSweepScheduler
	if cfg.Scheduler.CartSweepEnabled {
		sweeper = scheduler.NewCartSweepScheduler(cartService, cfg.Scheduler.CartSweepSchedule, cfg.Cart.TokenTTL)
		if err := sweeper.Start(); err != nil {
			logger.Fatal("Failed to start cart sweep scheduler", err)
		}
	}

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		cartController,
		orderController,
		addressController,
		paymentController,
		authMiddleware,
		cartIdentity,
		cfg,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", logger.Fields{
			"address": server.Addr,
			"pid":     os.Getpid(),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shut down", err)
	}
	if sweeper != nil {
		sweeper.Stop()
	}

	logger.Info("Server stopped successfully")
}
