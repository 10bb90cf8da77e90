package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/metrics"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/momo"
	"github.com/magabrotheeeer/subscription-bot/internal/storage/repository"
)

// Resolver пытается определить referenceId по колбэку.
// ok == false означает, что этот способ не подошёл и нужно пробовать следующий.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, cb *momo.Callback) (reference string, ok bool, err error)
}

// Reconciler сопоставляет колбэк с платежом и передаёт итог в Settler.
type Reconciler struct {
	resolvers []Resolver
	settler   *Settler
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// NewReconciler создаёт Reconciler с резолверами в порядке приоритета.
func NewReconciler(settler *Settler, m *metrics.Metrics, log *slog.Logger, resolvers ...Resolver) *Reconciler {
	return &Reconciler{
		resolvers: resolvers,
		settler:   settler,
		metrics:   m,
		log:       log,
	}
}

// DefaultResolvers — стандартная цепочка: ссылка из тела или заголовка,
// платёжный запрос по externalId, живая сессия пользователя по externalId.
func DefaultResolvers(repo Repository) []Resolver {
	return []Resolver{
		ReferenceResolver{},
		PaymentRequestResolver{repo: repo},
		SessionResolver{repo: repo},
	}
}

// Reconcile разбирает тело колбэка и сводит его.
func (r *Reconciler) Reconcile(ctx context.Context, body []byte, header http.Header) error {
	const op = "payment.Reconcile"
	cb, err := momo.ParseCallback(body, header)
	if err != nil {
		r.metrics.Callback("", "malformed")
		return fmt.Errorf("%s: %w", op, err)
	}
	return r.ReconcileCallback(ctx, cb)
}

// ReconcileCallback проходит цепочку резолверов. Если ссылку найти не удалось,
// колбэк логируется и отбрасывается без ошибки.
func (r *Reconciler) ReconcileCallback(ctx context.Context, cb *momo.Callback) error {
	const op = "payment.ReconcileCallback"
	log := r.log.With(slog.String("op", op), slog.String("external_id", cb.ExternalID), slog.String("status", cb.Status))

	reference := ""
	for _, res := range r.resolvers {
		ref, ok, err := res.Resolve(ctx, cb)
		if err != nil {
			log.Error("resolver failed", slog.String("resolver", res.Name()), sl.Err(err))
			continue
		}
		if ok {
			log.Debug("callback resolved", slog.String("resolver", res.Name()), slog.String("reference", ref))
			reference = ref
			break
		}
	}
	if reference == "" {
		log.Warn("callback could not be correlated, dropping")
		r.metrics.Callback(cb.Status, "uncorrelated")
		return nil
	}

	status := models.PaymentStatus(cb.Status)
	if status == "" {
		status = models.PaymentUnknown
	}
	if err := r.settler.Settle(ctx, reference, Outcome{Status: status, Reason: cb.ReasonText(), Raw: cb.Raw}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReferenceResolver берёт referenceId из тела или заголовка X-Reference-Id.
type ReferenceResolver struct{}

// Name возвращает имя резолвера.
func (ReferenceResolver) Name() string { return "reference" }

// Resolve возвращает ссылку, если она есть в колбэке.
func (ReferenceResolver) Resolve(_ context.Context, cb *momo.Callback) (string, bool, error) {
	return cb.ReferenceID, cb.ReferenceID != "", nil
}

// PaymentRequestResolver ищет сохранённый платёжный запрос по externalId.
type PaymentRequestResolver struct {
	repo Repository
}

// Name возвращает имя резолвера.
func (PaymentRequestResolver) Name() string { return "payment_request" }

// Resolve возвращает referenceId последнего запроса с этим externalId.
func (p PaymentRequestResolver) Resolve(ctx context.Context, cb *momo.Callback) (string, bool, error) {
	if cb.ExternalID == "" {
		return "", false, nil
	}
	req, err := p.repo.FindPaymentRequestByExternalID(ctx, cb.ExternalID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return req.ReferenceID, true, nil
}

// SessionResolver ищет пользователя, чья живая сессия ссылается на externalId.
type SessionResolver struct {
	repo Repository
}

// Name возвращает имя резолвера.
func (SessionResolver) Name() string { return "session" }

// Resolve возвращает ссылку из платёжной сессии пользователя.
func (s SessionResolver) Resolve(ctx context.Context, cb *momo.Callback) (string, bool, error) {
	if cb.ExternalID == "" {
		return "", false, nil
	}
	u, err := s.repo.FindUserByPaymentExternalID(ctx, cb.ExternalID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if u.PaymentSession == nil || u.PaymentSession.Reference == "" {
		return "", false, nil
	}
	return u.PaymentSession.Reference, true, nil
}
