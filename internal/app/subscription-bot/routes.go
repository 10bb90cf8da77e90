package subscriptionbot

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация swagger-спецификации.
	_ "github.com/magabrotheeeer/subscription-bot/docs"
	"github.com/magabrotheeeer/subscription-bot/internal/config"
	"github.com/magabrotheeeer/subscription-bot/internal/http/handlers/admin/paymentview"
	"github.com/magabrotheeeer/subscription-bot/internal/http/handlers/admin/quotareset"
	"github.com/magabrotheeeer/subscription-bot/internal/http/handlers/admin/userview"
	"github.com/magabrotheeeer/subscription-bot/internal/http/handlers/callback"
	"github.com/magabrotheeeer/subscription-bot/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-bot/internal/http/handlers/webhook"
	"github.com/magabrotheeeer/subscription-bot/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/async"
	"github.com/magabrotheeeer/subscription-bot/internal/metrics"
	"github.com/magabrotheeeer/subscription-bot/internal/services/admin"
)

// Deps — всё, что нужно маршрутам.
type Deps struct {
	Logger      *slog.Logger
	Config      *config.Config
	Funnel      webhook.Service
	Reconciler  callback.Reconciler
	Admin       *admin.Service
	Dedup       webhook.Deduplicator
	Health      health.Checker
	TokenParser middlewarectx.TokenParser
	Dispatcher  async.Dispatcher
	Metrics     *metrics.Metrics
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	// Внешние вызовы платформы и шлюза, без аутентификации
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(d.Logger, d.Config.HTTPServer.RateLimit, d.Config.HTTPServer.RateBurst))

		r.Get("/webhook", webhook.NewVerify(d.Logger, d.Config.Messenger.VerifyToken).ServeHTTP)
		r.Post("/webhook", webhook.NewEvents(d.Logger, d.Funnel, d.Dedup, d.Dispatcher, d.Metrics,
			d.Config.Messenger.AppSecret).ServeHTTP)

		cb := callback.New(d.Logger, d.Reconciler, d.Dispatcher)
		r.Post("/payments/callback", cb.ServeHTTP)
		r.Put("/payments/callback", cb.ServeHTTP)
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middlewarectx.AdminOnly(d.TokenParser, d.Logger))
		r.Get("/payments/{reference}", paymentview.New(d.Logger, d.Admin).ServeHTTP)
		r.Get("/users/{identity}", userview.New(d.Logger, d.Admin).ServeHTTP)
		r.Post("/users/{identity}/quota/reset", quotareset.New(d.Logger, d.Admin).ServeHTTP)
	})

	r.Get("/healthz", health.New(d.Logger, d.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
