// Package webhook обрабатывает вебхук мессенджера: подтверждение подписки
// и приём событий пользователей.
package webhook

import (
	"crypto/subtle"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-bot/internal/http/response"
)

// VerifyHandler отвечает на проверочный GET-запрос платформы.
type VerifyHandler struct {
	log         *slog.Logger
	verifyToken string
}

// NewVerify создает новый экземпляр VerifyHandler.
func NewVerify(log *slog.Logger, verifyToken string) *VerifyHandler {
	return &VerifyHandler{log: log, verifyToken: verifyToken}
}

// ServeHTTP godoc
// @Summary Подтверждение вебхука
// @Description Возвращает hub.challenge, если hub.verify_token совпадает с настроенным
// @Tags Webhook
// @Produce plain
// @Param hub.mode query string true "subscribe"
// @Param hub.verify_token query string true "Токен проверки"
// @Param hub.challenge query string true "Строка, которую нужно вернуть"
// @Success 200 {string} string "challenge"
// @Failure 403 {object} response.ErrorResponse "Неверный токен"
// @Router /webhook [get]
func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook.verify"
	log := h.log.With(slog.String("op", op))

	q := r.URL.Query()
	token := q.Get("hub.verify_token")
	if q.Get("hub.mode") != "subscribe" || h.verifyToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) != 1 {
		log.Warn("webhook verification failed", slog.String("mode", q.Get("hub.mode")))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("verification failed"))
		return
	}

	log.Info("webhook verified")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, q.Get("hub.challenge"))
}
