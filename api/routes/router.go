package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/quickbite-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/quickbite-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/quickbite-backend/api/controllers/orders"
	"github.com/angelmondragon/quickbite-backend/api/middleware"
	"github.com/angelmondragon/quickbite-backend/internal/cart"
	"github.com/angelmondragon/quickbite-backend/internal/orders"
	"github.com/angelmondragon/quickbite-backend/pkg/config"
	"github.com/angelmondragon/quickbite-backend/pkg/db"
	"github.com/angelmondragon/quickbite-backend/pkg/enums"
	"github.com/angelmondragon/quickbite-backend/pkg/logger"
	"github.com/angelmondragon/quickbite-backend/pkg/redis"
)

type redisStore interface {
	redis.IdempotencyStore
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisStore,
	metricsHandler http.Handler,
	cartService cart.Service,
	ordersService orders.Service,
	sweeper controllers.SweepRunner,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisClient,
		}))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	// Carts are keyed by an opaque session id and need no principal.
	r.Route("/api/v1/carts/{sessionId}", func(r chi.Router) {
		r.Get("/", cartcontrollers.CartFetch(cartService, logg))
		r.Delete("/", cartcontrollers.CartClear(cartService, logg))
		r.Post("/items", cartcontrollers.CartAddItem(cartService, logg))
		r.Patch("/items/{lineItemId}", cartcontrollers.CartUpdateItem(cartService, logg))
		r.Delete("/items/{lineItemId}", cartcontrollers.CartRemoveItem(cartService, logg))
		r.Post("/quote", cartcontrollers.CartQuote(cartService, logg))
		r.Get("/validation", cartcontrollers.CartValidate(cartService, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.With(middleware.RequireRole(logg, enums.ActorRoleCustomer)).Post("/", ordercontrollers.CreateOrder(ordersService, logg))
		r.Get("/by-number/{orderNumber}", ordercontrollers.DetailByNumber(ordersService, logg))
		r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
		r.Post("/{orderId}/cancel", ordercontrollers.CancelOrder(ordersService, logg))
		r.With(middleware.RequireRole(logg, enums.ActorRolePartner, enums.ActorRoleCourier, enums.ActorRoleAdmin)).
			Post("/{orderId}/sub-orders/{partnerId}/status", ordercontrollers.UpdateSubOrderStatus(ordersService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Post("/discount", ordercontrollers.AdminApplyDiscount(ordersService, logg))
			r.Post("/paid", ordercontrollers.AdminMarkPaid(ordersService, logg))
			r.Post("/refund", ordercontrollers.AdminRefund(ordersService, logg))
		})
		r.Post("/sweeps", controllers.AdminRunSweep(sweeper, logg))
	})

	return r
}
