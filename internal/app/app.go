package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"go-shop-backend/internal/cache"
	"go-shop-backend/internal/config"
	"go-shop-backend/internal/credstore"
	"go-shop-backend/internal/database"
	"go-shop-backend/internal/event"
	"go-shop-backend/internal/handler"
	"go-shop-backend/internal/media"
	"go-shop-backend/internal/middleware"
	"go-shop-backend/internal/payment"
	"go-shop-backend/internal/repository"
	"go-shop-backend/internal/router"
	"go-shop-backend/internal/service"
	"go-shop-backend/internal/token"
)

const featuredCacheTTL = time.Hour

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	slog.Info("database ready")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	creds := credstore.NewRedisStore(redisClient)
	productCache := cache.NewProductCache(redisClient, featuredCacheTTL)
	slog.Info("redis ready")

	issuer, err := token.NewIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	var uploader media.Uploader = media.NoopUploader{}
	if cfg.CloudinaryURL != "" {
		cloudinaryUploader, uploaderErr := media.NewCloudinaryUploader(cfg.CloudinaryURL)
		if uploaderErr != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize media uploader: %w", uploaderErr)
		}
		uploader = cloudinaryUploader
	} else {
		slog.Warn("CLOUDINARY_URL not set, product images will not be uploaded")
	}

	provider := payment.NewStripeProvider(cfg.StripeSecretKey)
	bus := event.NewBus()

	authService := service.NewAuthService(userRepo, issuer, creds)
	productService := service.NewProductService(productRepo, productCache, uploader, bus)
	couponService := service.NewCouponService(couponRepo, bus)
	checkoutService := service.NewCheckoutService(orderRepo, couponService, provider, bus, cfg.ClientURL)
	analyticsService := service.NewAnalyticsService(userRepo, productRepo, orderRepo)

	authMiddleware := middleware.NewAuthMiddleware(issuer, authService)
	authHandler := handler.NewAuthHandler(authService, cfg.Production())
	productHandler := handler.NewProductHandler(productService)
	couponHandler := handler.NewCouponHandler(couponService)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)

	events, unsubscribe := bus.Subscribe()
	go logEvents(events)

	appRouter := router.New(
		cfg,
		authMiddleware,
		authHandler,
		productHandler,
		couponHandler,
		checkoutHandler,
		analyticsHandler,
	)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			unsubscribe,
			func() {
				if closeErr := redisClient.Close(); closeErr != nil {
					slog.Warn("failed to close redis client", "error", closeErr)
				}
			},
			func() {
				db.Close()
			},
		},
	}, nil
}

// logEvents drains the domain event feed into the structured log so order
// and coupon activity is visible without a separate consumer.
func logEvents(events <-chan event.Event) {
	for e := range events {
		slog.Info("domain event", "type", string(e.Type), "actor_id", e.ActorID, "payload", e.Payload)
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
