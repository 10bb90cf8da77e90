package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/metrics"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/storage/repository"
	"github.com/magabrotheeeer/subscription-bot/internal/subscription"
)

// Settler применяет итог платежа. Это единственное место, где подписка
// активируется или платёж отклоняется: его вызывают и колбэки, и песочница.
type Settler struct {
	repo     Repository
	notifier Notifier
	plans    *subscription.Catalog
	loc      *time.Location
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      clock
}

// NewSettler создаёт Settler. loc задаёт часовой пояс дат в уведомлениях.
func NewSettler(repo Repository, notifier Notifier, plans *subscription.Catalog, loc *time.Location,
	m *metrics.Metrics, log *slog.Logger) *Settler {
	return &Settler{
		repo:     repo,
		notifier: notifier,
		plans:    plans,
		loc:      loc,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// Settle записывает статус платежа reference и, если он терминальный,
// меняет состояние пользователя и уведомляет его.
// Повторный терминальный статус ничего не меняет.
func (s *Settler) Settle(ctx context.Context, reference string, out Outcome) error {
	const op = "payment.Settle"
	log := s.log.With(slog.String("op", op), slog.String("reference", reference), slog.String("status", string(out.Status)))

	req, err := s.repo.GetPaymentRequest(ctx, reference)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("unknown payment reference, dropping")
		s.metrics.Callback(string(out.Status), "unknown_reference")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	plan, ok := s.plans.Get(req.PlanType)
	if !ok && out.Status == models.PaymentSuccessful {
		return fmt.Errorf("%s: %w: %s", op, ErrUnknownPlan, req.PlanType)
	}

	if !out.Status.Terminal() {
		applied, err := s.repo.UpdatePaymentStatus(ctx, reference, out.Status, out.Reason, out.Raw)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !applied {
			s.duplicate(log, req, out)
			return nil
		}
		log.Info("non-terminal payment status recorded")
		s.metrics.Callback(string(out.Status), "recorded")
		return nil
	}
	if req.Status.Terminal() {
		s.duplicate(log, req, out)
		return nil
	}

	// статус платежа и пользователь пишутся одной транзакцией:
	// при ошибке запрос остаётся незавершённым и повторный колбэк применится
	var (
		u      *models.User
		notice string
	)
	for attempt := 1; ; attempt++ {
		u, err = s.resolveUser(ctx, req)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		from := u.Stage
		notice = s.apply(u, req, plan, out)
		applied, err := s.repo.SettlePayment(ctx, reference, out.Status, out.Reason, out.Raw, u)
		if err == nil {
			if !applied {
				s.duplicate(log, req, out)
				return nil
			}
			s.metrics.StageTransition(string(from), string(u.Stage))
			break
		}
		if !errors.Is(err, repository.ErrConflict) || attempt == maxWriteAttempts {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.metrics.Conflict()
		log.Warn("user modified concurrently, retrying", slog.Int("attempt", attempt))
	}

	s.metrics.Callback(string(out.Status), "applied")
	log.Info("payment settled", slog.String("user", u.Identity), slog.String("stage", string(u.Stage)))

	if err := s.notifier.SendText(ctx, u.Identity, notice); err != nil {
		log.Error("failed to notify user", sl.Err(err))
	}
	return nil
}

func (s *Settler) duplicate(log *slog.Logger, req *models.PaymentRequest, out Outcome) {
	log.Info("payment already settled, ignoring repeated callback", slog.String("current", string(req.Status)))
	s.metrics.Callback(string(out.Status), "duplicate")
}

// resolveUser ищет пользователя с живой сессией этого платежа, иначе владельца запроса.
func (s *Settler) resolveUser(ctx context.Context, req *models.PaymentRequest) (*models.User, error) {
	u, err := s.repo.FindUserByPaymentReference(ctx, req.ReferenceID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.repo.GetUser(ctx, req.Owner)
}

// apply меняет пользователя согласно терминальному исходу и возвращает текст уведомления.
func (s *Settler) apply(u *models.User, req *models.PaymentRequest, plan subscription.Plan, out Outcome) string {
	now := s.now()
	ownsSession := u.PaymentSession != nil && u.PaymentSession.Reference == req.ReferenceID

	if out.Status == models.PaymentSuccessful {
		expiry := now.Add(plan.Duration)
		u.Subscription = models.Subscription{
			PlanType:   req.PlanType,
			Status:     models.SubscriptionActive,
			Amount:     req.Amount,
			ExpiryDate: &expiry,
		}
		u.ClearPaymentSession()
		u.Stage = models.StageSubscribed
		return successNotice(plan, req, expiry.In(s.loc))
	}

	// неудача касается состояния, только если пользователь ждёт именно этот платёж
	if ownsSession || (u.Stage == models.StageAwaitingPayment && u.PaymentSession == nil) {
		u.ClearPaymentSession()
		if u.Subscription.IsActive(now) {
			u.Stage = models.StageSubscribed
		} else {
			u.Stage = models.StageTrial
		}
	}
	return failureNotice(out.Reason)
}

func successNotice(plan subscription.Plan, req *models.PaymentRequest, expiry time.Time) string {
	return fmt.Sprintf("✅ Payment received! Your %s plan is now active.\n\n"+
		"Price: %s\nDaily messages: %d\nValid until: %s",
		plan.Name, subscription.FormatAmount(req.Amount, req.Currency), plan.DailyLimit,
		expiry.Format("Mon, 02 Jan 2006 15:04 MST"))
}

func failureNotice(reason string) string {
	text := "❌ Your payment could not be completed."
	if reason != "" {
		text += "\nReason: " + reason
	}
	return text + "\n\nYou can keep chatting on your trial or choose a plan again to retry."
}
