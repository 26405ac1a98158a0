package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/velomart/cart-service/internal/api/handlers"
	"github.com/velomart/cart-service/internal/api/middleware"
	"github.com/velomart/cart-service/internal/cache"
	"github.com/velomart/cart-service/internal/catalog"
	"github.com/velomart/cart-service/internal/config"
	"github.com/velomart/cart-service/internal/health"
	"github.com/velomart/cart-service/internal/metrics"
	repository "github.com/velomart/cart-service/internal/repositories"
	service "github.com/velomart/cart-service/internal/services"
	"github.com/velomart/cart-service/internal/store"
	"github.com/velomart/cart-service/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// Tracing
	shutdownTracing, err := telemetry.Init(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Redis backs both the cart store and the catalog cache when enabled.
	var redisClient *redis.Client

	var productCache cache.Cache

	var cartStore store.Store

	if cfg.RedisConnect.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConnect.Addr,
			Password: cfg.RedisConnect.Password,
			DB:       cfg.RedisConnect.DB,
		})

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			slog.Error("Failed to reach redis", slog.String("error", err.Error()))
			os.Exit(1)
		}

		productCache = cache.NewRedisCache(redisClient, &cfg.Cache)
		cartStore = store.NewRedisStore(redisClient, cfg.Session.TTL)

		slog.Info("Using redis cart store", slog.String("addr", cfg.RedisConnect.Addr))
	} else {
		cartStore = store.NewMemoryStore()

		slog.Info("Using in-memory cart store; carts will not survive a restart")
	}

	defer func() {
		if err := cartStore.Close(); err != nil {
			slog.Error("Error closing cart store", slog.String("error", err.Error()))
		}
	}()

	// Upstream catalog client (always needed: proxy reads + order submit)
	catalogClient := catalog.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, productCache, cfg.Cache.DefaultTTL)

	// Product source for add-to-cart
	var products service.ProductSource = catalogClient

	if cfg.ProductSource == "database" {
		db, err := repository.NewPostgres(cfg)
		if err != nil {
			slog.Error("Error accessing the database", slog.String("error", err.Error()))
			os.Exit(1)
		}

		defer func() {
			if err := db.Close(); err != nil {
				slog.Error("Error closing database connection", slog.String("error", err.Error()))
			}
		}()

		products = repository.NewProductRepo(db)

		slog.Info("Resolving products from the database")
	}

	cartService := service.NewCartService(cartStore, products)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutService := service.NewCheckoutService(cartStore, catalogClient)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	productHandler := handlers.NewProductHandler(catalogClient)
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey))

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("Failed to create health handler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup router. Both historical route families are served by the same
	// store and service.
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("GET /api/cart/guest", cartHandler.GetCart())
	routerMux.HandleFunc("DELETE /api/cart/guest", cartHandler.ClearCart())
	routerMux.HandleFunc("POST /api/cart/items", cartHandler.AddItem())
	routerMux.HandleFunc("GET /api/guest/cart", cartHandler.GetCart())
	routerMux.HandleFunc("PATCH /api/guest/cart", cartHandler.UpdateItem())
	routerMux.HandleFunc("DELETE /api/guest/cart", cartHandler.ClearCart())
	routerMux.HandleFunc("POST /api/guest/cart/add", cartHandler.AddItem())
	routerMux.HandleFunc("POST /api/checkout", authMiddleware.Optional(checkoutHandler.Checkout()))
	routerMux.HandleFunc("GET /api/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/products/{id}", productHandler.GetProduct())
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "cart-service")

	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("Server is starting", slog.String("address", cfg.Addr), slog.String("env", cfg.Env))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("Failed to start server", slog.String("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("Shutdown signal received, stopping the server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown encountered an issue", slog.String("error", err.Error()))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("Tracing shutdown encountered an issue", slog.String("error", err.Error()))
	}

	slog.Info("Server shut down gracefully")
}
