// Package subscriptionbot собирает HTTP-приложение бота: вебхук мессенджера,
// колбэк платёжного шлюза и административное API.
package subscriptionbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-bot/internal/assistant"
	"github.com/magabrotheeeer/subscription-bot/internal/cache"
	"github.com/magabrotheeeer/subscription-bot/internal/config"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/async"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/messenger"
	"github.com/magabrotheeeer/subscription-bot/internal/metrics"
	"github.com/magabrotheeeer/subscription-bot/internal/migrations"
	"github.com/magabrotheeeer/subscription-bot/internal/momo"
	"github.com/magabrotheeeer/subscription-bot/internal/quota"
	"github.com/magabrotheeeer/subscription-bot/internal/rabbitmq"
	"github.com/magabrotheeeer/subscription-bot/internal/services/admin"
	"github.com/magabrotheeeer/subscription-bot/internal/services/funnel"
	"github.com/magabrotheeeer/subscription-bot/internal/services/payment"
	"github.com/magabrotheeeer/subscription-bot/internal/storage/repository"
	"github.com/magabrotheeeer/subscription-bot/internal/subscription"
)

const (
	deliveryDirect = "direct"
	deliveryQueue  = "queue"
)

// Outbound — канал исходящих сообщений: прямой HTTP или очередь.
type Outbound interface {
	funnel.Sender
	payment.Notifier
}

// App представляет HTTP-приложение бота.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	runner *async.Runner
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилища, применяет миграции и собирает сервисы.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		runner: async.NewRunner(cfg.HTTPServer.ProcessingTimeout, logger),
	}

	outbound, err := app.outbound(cfg)
	if err != nil {
		app.close()
		return nil, err
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	plans := subscription.NewCatalog(cfg.Plans, cfg.Gateway.Currency)
	tracker := quota.New(cfg.Quota.TrialDailyLimit, plans, loc)
	gateway := momo.NewClient(cfg.Gateway, cacheRedis)

	settler := payment.NewSettler(db, outbound, plans, loc, m, logger)
	orchestrator := payment.NewOrchestrator(db, gateway, settler, plans, m, logger)
	reconciler := payment.NewReconciler(settler, m, logger, payment.DefaultResolvers(db)...)

	funnelService := funnel.New(funnel.Deps{
		Repo:      db,
		Sender:    outbound,
		Assistant: assistant.NewClient(cfg.Assistant),
		Payments:  orchestrator,
		Quota:     tracker,
		Plans:     plans,
		Location:  loc,
		Metrics:   m,
	}, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Logger:      logger,
		Config:      cfg,
		Funnel:      funnelService,
		Reconciler:  reconciler,
		Admin:       admin.New(db, gateway, tracker, logger),
		Dedup:       cache.NewDeduplicator(cacheRedis, cfg.RedisConnection.DedupTTL),
		Health:      db,
		TokenParser: jwt.NewJWTMaker(cfg.Admin.JWTSecretKey, cfg.Admin.TokenTTL),
		Dispatcher:  app.runner,
		Metrics:     m,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// outbound выбирает способ доставки исходящих сообщений.
func (a *App) outbound(cfg *config.Config) (Outbound, error) {
	switch cfg.Messenger.Delivery {
	case deliveryDirect, "":
		return messenger.NewClient(cfg.Messenger), nil
	case deliveryQueue:
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		a.conn, a.ch = conn, ch
		return messenger.NewQueuePublisher(rabbitmq.NewPublisher(ch, rabbitmq.OutboundRoutingKey)), nil
	default:
		return nil, fmt.Errorf("unknown messenger delivery %q", cfg.Messenger.Delivery)
	}
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
// После остановки сервера дожидается фоновой обработки событий.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if werr := a.runner.Wait(timeoutCtx); werr != nil {
			a.logger.Warn("background tasks did not finish", sl.Err(werr))
		}
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
