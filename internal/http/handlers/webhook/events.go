package webhook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-bot/internal/http/response"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/async"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/messenger"
	"github.com/magabrotheeeer/subscription-bot/internal/metrics"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
)

// maxBodyBytes — предел размера тела вебхука.
const maxBodyBytes = 1 << 20

// Service обрабатывает одно событие пользователя.
type Service interface {
	HandleEvent(ctx context.Context, ev models.InboundEvent) error
}

// Deduplicator отсекает повторные доставки.
type Deduplicator interface {
	FirstSeen(ctx context.Context, key string) (bool, error)
}

// EventsHandler принимает события. Ответ 200 уходит до любой обработки,
// сами события обрабатываются в фоне, каждое отдельно.
type EventsHandler struct {
	log       *slog.Logger
	service   Service
	dedup     Deduplicator
	async     async.Dispatcher
	metrics   *metrics.Metrics
	appSecret string
	validate  *validator.Validate
}

// NewEvents создает новый экземпляр EventsHandler. Пустой appSecret отключает проверку подписи.
func NewEvents(log *slog.Logger, service Service, dedup Deduplicator, dispatcher async.Dispatcher,
	m *metrics.Metrics, appSecret string) *EventsHandler {
	return &EventsHandler{
		log:       log,
		service:   service,
		dedup:     dedup,
		async:     dispatcher,
		metrics:   m,
		appSecret: appSecret,
		validate:  validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Приём событий мессенджера
// @Description Проверяет подпись X-Hub-Signature-256, сразу отвечает 200 и обрабатывает события в фоне
// @Tags Webhook
// @Accept json
// @Produce json
// @Param X-Hub-Signature-256 header string false "sha256=<hex>"
// @Param request body messenger.WebhookPayload true "События"
// @Success 200 {object} response.Response "EVENT_RECEIVED"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Router /webhook [post]
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook.events"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read body"))
		return
	}

	if h.appSecret != "" && !messenger.VerifySignature(h.appSecret, body, r.Header.Get(messenger.HeaderSignature)) {
		log.Warn("invalid or missing webhook signature")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	events, err := messenger.ParseEvents(body)
	if err != nil {
		log.Error("failed to parse webhook payload", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payload"))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData("EVENT_RECEIVED"))

	for _, ev := range events {
		h.async.Go("webhook event", func(ctx context.Context) error {
			return h.process(ctx, ev)
		})
	}
}

// process проверяет и обрабатывает одно событие.
func (h *EventsHandler) process(ctx context.Context, ev models.InboundEvent) error {
	const op = "handlers.webhook.process"
	log := h.log.With(slog.String("op", op), slog.String("user", ev.SenderIdentity))

	if err := h.validate.Struct(ev); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			log.Warn("invalid event dropped", slog.String("reason", response.ValidationError(verrs).Error))
		} else {
			log.Warn("invalid event dropped", sl.Err(err))
		}
		h.metrics.Event("invalid")
		return nil
	}

	if key := ev.DedupKey(); key != "" {
		first, err := h.dedup.FirstSeen(ctx, key)
		switch {
		case err != nil:
			log.Warn("dedup check failed, processing anyway", sl.Err(err))
		case !first:
			log.Info("duplicate delivery skipped", slog.String("mid", key))
			h.metrics.Duplicate()
			return nil
		}
	}

	if err := h.service.HandleEvent(ctx, ev); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
