package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-shop-backend/internal/config"
	"go-shop-backend/internal/handler"
	"go-shop-backend/internal/middleware"
	"go-shop-backend/internal/model"
)

func New(
	cfg *config.Config,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	productHandler *handler.ProductHandler,
	couponHandler *handler.CouponHandler,
	checkoutHandler *handler.CheckoutHandler,
	analyticsHandler *handler.AnalyticsHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/signup", authHandler.Signup)
			auth.Post("/login", authHandler.Login)
			auth.Post("/refresh", authHandler.Refresh)
			auth.Post("/logout", authHandler.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/profile", authHandler.Profile)
		})

		api.Route("/products", func(products chi.Router) {
			products.Get("/featured", productHandler.Featured)
			products.Get("/recommended", productHandler.Recommended)
			products.Get("/category/{category}", productHandler.ByCategory)

			products.With(authMiddleware.RequireAuth, authMiddleware.RequireRole(model.RoleAdmin)).Get("/", productHandler.List)
			products.With(authMiddleware.RequireAuth, authMiddleware.RequireRole(model.RoleAdmin)).Post("/", productHandler.Create)
			products.With(authMiddleware.RequireAuth, authMiddleware.RequireRole(model.RoleAdmin)).Patch("/{id}", productHandler.ToggleFeatured)
			products.With(authMiddleware.RequireAuth, authMiddleware.RequireRole(model.RoleAdmin)).Delete("/{id}", productHandler.Delete)
		})

		api.Route("/coupons", func(coupons chi.Router) {
			coupons.Use(authMiddleware.RequireAuth)
			coupons.Get("/", couponHandler.Active)
			coupons.Post("/validate", couponHandler.Validate)
		})

		api.Route("/checkout", func(checkout chi.Router) {
			checkout.Use(authMiddleware.RequireAuth)
			checkout.Post("/", checkoutHandler.Create)
			checkout.Post("/confirm", checkoutHandler.Confirm)
		})

		api.With(authMiddleware.RequireAuth).Get("/orders", checkoutHandler.ListOrders)

		api.Route("/analytics", func(analytics chi.Router) {
			analytics.Use(authMiddleware.RequireAuth, authMiddleware.RequireRole(model.RoleAdmin))
			analytics.Get("/", analyticsHandler.Overview)
			analytics.Get("/daily-sales", analyticsHandler.DailySales)
		})
	})

	return r
}
