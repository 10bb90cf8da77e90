// Package callback принимает уведомления платёжного шлюза о результате оплаты.
package callback

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-bot/internal/http/response"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/async"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/momo"
)

const maxBodyBytes = 1 << 20

// Reconciler сводит колбэк к состоянию платежа и пользователя.
type Reconciler interface {
	Reconcile(ctx context.Context, body []byte, header http.Header) error
}

// Handler — обработчик колбэка. Шлюз получает 200 до начала сверки,
// ошибки сверки остаются в логах.
type Handler struct {
	log        *slog.Logger
	reconciler Reconciler
	async      async.Dispatcher
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, reconciler Reconciler, dispatcher async.Dispatcher) *Handler {
	return &Handler{
		log:        log,
		reconciler: reconciler,
		async:      dispatcher,
	}
}

// ServeHTTP godoc
// @Summary Колбэк платёжного шлюза
// @Description Принимает итог requesttopay. Ответ 200 отправляется сразу, сверка выполняется в фоне
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Reference-Id header string false "referenceId платежа"
// @Param request body momo.Transaction true "Тело колбэка"
// @Success 200 {object} response.Response "Колбэк принят"
// @Router /payments/callback [post]
// @Router /payments/callback [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.callback"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	header := r.Header.Clone()

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.StatusOKWithData("CALLBACK_RECEIVED"))

	// без тела нет статуса платежа, сверять нечего
	if err != nil {
		log.Error("failed to read callback body, dropping", sl.Err(err),
			slog.String("reference", header.Get(momo.HeaderReferenceID)))
		return
	}
	log.Debug("payment callback accepted", slog.String("reference", header.Get(momo.HeaderReferenceID)))
	h.async.Go("payment callback", func(ctx context.Context) error {
		return h.reconciler.Reconcile(ctx, body, header)
	})
}
