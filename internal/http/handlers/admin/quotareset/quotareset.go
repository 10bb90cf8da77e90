// Package quotareset обнуляет дневную квоту пользователя по запросу оператора.
package quotareset

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-bot/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-bot/internal/http/response"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/services/admin"
	"github.com/magabrotheeeer/subscription-bot/internal/storage/repository"
)

// Service описывает сброс квоты.
type Service interface {
	ResetQuota(ctx context.Context, identity string) (*admin.UserView, error)
}

// Handler — обработчик POST /api/v1/admin/users/{identity}/quota/reset.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сброс дневной квоты
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param identity path string true "Идентификатор отправителя"
// @Success 200 {object} response.Response{data=admin.UserView}
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Пользователь изменён параллельно"
// @Router /api/v1/admin/users/{identity}/quota/reset [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.quotareset"
	operator, _ := r.Context().Value(middlewarectx.Operator).(string)
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("operator", operator),
	)

	view, err := h.service.ResetQuota(r.Context(), chi.URLParam(r, "identity"))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	case errors.Is(err, repository.ErrConflict):
		log.Warn("quota reset conflicted with a concurrent update")
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("user was modified concurrently, retry"))
		return
	case err != nil:
		log.Error("failed to reset quota", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not reset quota"))
		return
	}

	log.Info("quota reset", slog.String("user", view.Identity))
	render.JSON(w, r, response.StatusOKWithData(view))
}
