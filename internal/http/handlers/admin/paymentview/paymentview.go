// Package paymentview отдаёт оператору платёжный запрос вместе с текущим
// статусом из платёжного шлюза.
package paymentview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-bot/internal/http/response"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/services/admin"
	"github.com/magabrotheeeer/subscription-bot/internal/storage/repository"
)

// Service описывает получение платежа.
type Service interface {
	Payment(ctx context.Context, referenceID string) (*admin.PaymentView, error)
}

// Handler — обработчик GET /api/v1/admin/payments/{reference}.
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
// @Summary Платёж по referenceId
// @Description Сохранённый платёжный запрос и живой статус из шлюза
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param reference path string true "referenceId"
// @Success 200 {object} response.Response{data=admin.PaymentView}
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/admin/payments/{reference} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.paymentview"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	reference := chi.URLParam(r, "reference")
	if reference == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("reference is required"))
		return
	}

	view, err := h.service.Payment(r.Context(), reference)
	if errors.Is(err, repository.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("payment not found"))
		return
	}
	if err != nil {
		log.Error("failed to load payment", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load payment"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(view))
}
