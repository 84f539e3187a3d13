package routes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"

	"github.com/angelmondragon/backoffice-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/backoffice-backend/api/controllers/orders"
	quotecontrollers "github.com/angelmondragon/backoffice-backend/api/controllers/quotes"
	receiptcontrollers "github.com/angelmondragon/backoffice-backend/api/controllers/receipts"
	"github.com/angelmondragon/backoffice-backend/api/middleware"
	"github.com/angelmondragon/backoffice-backend/internal/auth"
	"github.com/angelmondragon/backoffice-backend/internal/configurations"
	"github.com/angelmondragon/backoffice-backend/internal/orders"
	"github.com/angelmondragon/backoffice-backend/internal/products"
	"github.com/angelmondragon/backoffice-backend/internal/quotes"
	"github.com/angelmondragon/backoffice-backend/internal/receipts"
	"github.com/angelmondragon/backoffice-backend/internal/reports"
	"github.com/angelmondragon/backoffice-backend/internal/uploads"
	"github.com/angelmondragon/backoffice-backend/internal/users"
	"github.com/angelmondragon/backoffice-backend/pkg/auth/session"
	"github.com/angelmondragon/backoffice-backend/pkg/config"
	"github.com/angelmondragon/backoffice-backend/pkg/logger"
	"github.com/angelmondragon/backoffice-backend/pkg/metrics"
)

// Dependencies carries everything the router hands to middleware and controllers.
type Dependencies struct {
	DB    controllers.Pinger
	Redis controllers.Pinger

	Sessions       session.AccessSessionChecker
	LoginLimiter   middleware.AuthRateLimitStore
	RateLimitStore limiter.Store
	Idempotency    middleware.IdempotencyStore

	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth           auth.Service
	Users          users.Service
	Products       products.Service
	Quotes         quotes.Service
	Orders         orders.Service
	Receipts       receipts.Service
	Configurations *configurations.Service
	Logos          *uploads.LogoService
	Reports        reports.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) (http.Handler, error) {
	rateLimit, err := middleware.RateLimit(cfg.RateLimit.Rate, deps.RateLimitStore, logg)
	if err != nil {
		return nil, fmt.Errorf("configure rate limit: %w", err)
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	var logos controllers.LogoUploader
	if deps.Logos != nil {
		logos = deps.Logos
	}

	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["database"] = deps.DB
	}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	prefix := "/" + strings.Trim(cfg.Uploads.PublicPrefix, "/")
	if prefix != "/" && cfg.Uploads.Dir != "" {
		r.Handle(prefix+"/*", http.StripPrefix(prefix, staticFiles(http.Dir(cfg.Uploads.Dir))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.LoginLimiter, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
				r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
				r.Get("/me", controllers.AuthMe(deps.Auth, logg))
			})
		})

		once := middleware.Idempotency(deps.Idempotency, middleware.DocumentIdempotencyTTL, logg)
		onceConvert := middleware.Idempotency(deps.Idempotency, middleware.ConversionIdempotencyTTL, logg)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(rateLimit)

			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", quotecontrollers.List(deps.Quotes, logg))
				r.With(once).Post("/", quotecontrollers.Create(deps.Quotes, logg))
				r.Get("/{id}", quotecontrollers.Detail(deps.Quotes, logg))
				r.Put("/{id}", quotecontrollers.Update(deps.Quotes, logg))
				r.Delete("/{id}", quotecontrollers.Delete(deps.Quotes, logg))
				r.With(onceConvert).Post("/{id}/convert", quotecontrollers.Convert(deps.Quotes, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.With(once).Post("/", ordercontrollers.Create(deps.Orders, logg))
				r.Get("/{id}", ordercontrollers.Detail(deps.Orders, logg))
				r.Put("/{id}", ordercontrollers.Update(deps.Orders, logg))
				r.Delete("/{id}", ordercontrollers.Delete(deps.Orders, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(deps.Products, logg))
				r.Post("/", controllers.ProductCreate(deps.Products, logg))
				r.Get("/categories", controllers.ProductCategories(deps.Products, logg))
				r.Get("/{id}", controllers.ProductDetail(deps.Products, logg))
				r.Put("/{id}", controllers.ProductUpdate(deps.Products, logg))
				r.Delete("/{id}", controllers.ProductDelete(deps.Products, logg))
			})

			r.Route("/receipts", func(r chi.Router) {
				r.Get("/", receiptcontrollers.List(deps.Receipts, logg))
				r.With(once).Post("/", receiptcontrollers.Create(deps.Receipts, logg))
				r.With(once).Post("/number", receiptcontrollers.ReserveNumber(deps.Receipts, logg))
				r.Get("/{id}", receiptcontrollers.Detail(deps.Receipts, logg))
				r.Put("/{id}", receiptcontrollers.Update(deps.Receipts, logg))
				r.Delete("/{id}", receiptcontrollers.Delete(deps.Receipts, logg))
				r.Get("/{id}/print", receiptcontrollers.Print(deps.Receipts, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.UserList(deps.Users, logg))
				r.Post("/", controllers.UserCreate(deps.Users, logg))
				r.Get("/{id}", controllers.UserDetail(deps.Users, logg))
				r.Put("/{id}", controllers.UserUpdate(deps.Users, logg))
				r.Delete("/{id}", controllers.UserDelete(deps.Users, logg))
			})

			r.Route("/configurations", func(r chi.Router) {
				r.Get("/", controllers.ConfigurationList(deps.Configurations, logg))
				r.Post("/", controllers.ConfigurationUpsert(deps.Configurations, logg))
				r.Get("/{key}", controllers.ConfigurationDetail(deps.Configurations, logg))
				r.Delete("/{key}", controllers.ConfigurationDelete(deps.Configurations, logg))
			})

			r.Post("/upload/logo", controllers.UploadLogo(logos, logg))

			r.Route("/reports", func(r chi.Router) {
				r.Get("/top-products", controllers.ReportTopProducts(deps.Reports, logg))
				r.Get("/dashboard", controllers.ReportDashboard(deps.Reports, logg))
			})
		})
	})

	return r, nil
}

// staticFiles serves uploaded files without exposing directory listings.
func staticFiles(root http.FileSystem) http.Handler {
	files := http.FileServer(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
