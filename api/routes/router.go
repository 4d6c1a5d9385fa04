package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/northwindlabs/storefront/api/controllers"
	"github.com/northwindlabs/storefront/api/middleware"
	authsvc "github.com/northwindlabs/storefront/internal/auth"
	cartsvc "github.com/northwindlabs/storefront/internal/cart"
	"github.com/northwindlabs/storefront/internal/catalog"
	checkoutsvc "github.com/northwindlabs/storefront/internal/checkout"
	"github.com/northwindlabs/storefront/internal/notifications"
	"github.com/northwindlabs/storefront/internal/orders"
	"github.com/northwindlabs/storefront/internal/users"
	"github.com/northwindlabs/storefront/internal/wishlist"
	"github.com/northwindlabs/storefront/pkg/auth/session"
	"github.com/northwindlabs/storefront/pkg/config"
	"github.com/northwindlabs/storefront/pkg/db"
	"github.com/northwindlabs/storefront/pkg/enums"
	"github.com/northwindlabs/storefront/pkg/logger"
	"github.com/northwindlabs/storefront/pkg/metrics"
	"github.com/northwindlabs/storefront/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	Sessions       session.AccessSessionChecker
	Auth           authsvc.Service
	Catalog        catalog.Service
	CartEngine     *cartsvc.Engine
	Checkout       checkoutsvc.Service
	Orders         orders.Service
	Users          users.Service
	Wishlist       wishlist.Service
	Notifications  notifications.Service
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.CORS),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.GuestToken(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog surface.
		r.Get("/products", controllers.ListProducts(deps.Catalog, logg))
		r.Get("/products/{productId}", controllers.GetProduct(deps.Catalog, logg))
		r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))

		// Cart routes serve both guests and signed-in shoppers; a bearer
		// token is honored when present, a guest token otherwise.
		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))
			r.Get("/", controllers.CartFetch(deps.CartEngine, logg))
			r.Delete("/", controllers.CartClear(deps.CartEngine, logg))
			r.Post("/items", controllers.CartAddItem(deps.CartEngine, logg))
			r.Patch("/items/{lineId}", controllers.CartUpdateItem(deps.CartEngine, logg))
			r.Delete("/items/{lineId}", controllers.CartRemoveItem(deps.CartEngine, logg))
			r.Post("/buy-now", controllers.CartBuyNow(deps.CartEngine, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Get("/me", controllers.Me(deps.Users, logg))
			r.Patch("/me", controllers.UpdateMe(deps.Users, logg))

			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(deps.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.GetWishlist(deps.Wishlist, logg))
				r.Post("/", controllers.AddWishlistItem(deps.Wishlist, logg))
				r.Delete("/{productId}", controllers.RemoveWishlistItem(deps.Wishlist, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Get("/unread-count", controllers.UnreadNotificationCount(deps.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Catalog, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Catalog, logg))
		})
		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateCategory(deps.Catalog, logg))
			r.Patch("/{categoryId}", controllers.AdminUpdateCategory(deps.Catalog, logg))
			r.Delete("/{categoryId}", controllers.AdminDeleteCategory(deps.Catalog, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
			r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminListUsers(deps.Users, logg))
			r.Patch("/{userId}/active", controllers.AdminSetUserActive(deps.Users, logg))
		})
	})

	return r
}
