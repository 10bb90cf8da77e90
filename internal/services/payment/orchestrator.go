package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-bot/internal/lib/phone"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/metrics"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/momo"
	"github.com/magabrotheeeer/subscription-bot/internal/subscription"
)

// Orchestrator запускает оплату выбранного плана.
type Orchestrator struct {
	repo    Repository
	gateway Gateway
	settler *Settler
	plans   *subscription.Catalog
	metrics *metrics.Metrics
	log     *slog.Logger
	now     clock
}

// NewOrchestrator создаёт Orchestrator.
func NewOrchestrator(repo Repository, gateway Gateway, settler *Settler, plans *subscription.Catalog,
	m *metrics.Metrics, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		repo:    repo,
		gateway: gateway,
		settler: settler,
		plans:   plans,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Initiate отправляет запрос на списание с номера u.PaymentMobileNumber.
// Если шлюз ответил отказом, состояние не меняется и Success == false.
// Если шлюз недоступен, состояние тоже не меняется, но возвращается ошибка.
// При успехе пользователь переходит в awaiting_payment и u обновляется на месте.
// Если песочница сразу провела платёж, дальше работает тот же Settler, что и для колбэков.
func (o *Orchestrator) Initiate(ctx context.Context, u *models.User, planType models.PlanType) (*Result, error) {
	const op = "payment.Initiate"
	log := o.log.With(slog.String("op", op), slog.String("user", u.Identity), slog.String("plan", string(planType)))

	if u.PaymentSession != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionActive)
	}
	plan, ok := o.plans.Get(planType)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownPlan)
	}
	if u.PaymentMobileNumber == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoPaymentNumber)
	}

	reference := uuid.NewString()
	submitted, err := o.gateway.Submit(ctx, momo.SubmitRequest{
		ReferenceID:  reference,
		PhoneNumber:  u.PaymentMobileNumber,
		Amount:       plan.Amount,
		PayerMessage: plan.Name + " subscription",
	})
	var apiErr *momo.APIError
	switch {
	case errors.As(err, &apiErr):
		log.Error("gateway rejected payment request", sl.Err(err), slog.String("phone", phone.Mask(u.PaymentMobileNumber)))
		o.metrics.Initiation(string(planType), "rejected")
		return &Result{Success: false}, nil
	case err != nil:
		o.metrics.Initiation(string(planType), "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req := &models.PaymentRequest{
		ReferenceID: reference,
		ExternalID:  submitted.ExternalID,
		Owner:       u.Identity,
		PlanType:    planType,
		Amount:      plan.Amount,
		Currency:    plan.Currency,
		PhoneNumber: u.PaymentMobileNumber,
		Status:      models.PaymentPending,
	}
	if err := o.repo.CreatePaymentRequest(ctx, req); err != nil {
		o.metrics.Initiation(string(planType), "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	from := u.Stage
	session := models.PaymentSession{Reference: reference, ExternalID: submitted.ExternalID}
	u.PaymentSession = &session
	u.Stage = models.StageAwaitingPayment
	u.LastSelectedPlanType = models.PlanNone
	if err := o.repo.UpdateUser(ctx, u); err != nil {
		o.metrics.Initiation(string(planType), "error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	o.metrics.StageTransition(string(from), string(u.Stage))
	o.metrics.Initiation(string(planType), "submitted")
	log.Info("payment request submitted", slog.String("reference", reference))

	res := &Result{Success: true, Session: session}
	if !submitted.Completed {
		return res, nil
	}

	res.BypassTriggered = true
	log.Info("sandbox completed payment immediately", slog.String("reference", reference))
	if err := o.settler.Settle(ctx, reference, Outcome{Status: models.PaymentSuccessful}); err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	fresh, err := o.repo.GetUser(ctx, u.Identity)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	*u = *fresh
	return res, nil
}
