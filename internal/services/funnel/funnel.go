// Package funnel ведёт пользователя по стадиям воронки: онбординг,
// пробный период, выбор плана, оплата и работа по подписке.
package funnel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-bot/internal/command"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/metrics"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/quota"
	"github.com/magabrotheeeer/subscription-bot/internal/services/payment"
	"github.com/magabrotheeeer/subscription-bot/internal/storage/repository"
	"github.com/magabrotheeeer/subscription-bot/internal/subscription"
)

// Repository — операции хранилища пользователей.
type Repository interface {
	GetOrCreateUser(ctx context.Context, identity string, now time.Time) (*models.User, bool, error)
	UpdateUser(ctx context.Context, u *models.User) error
	FindTrialUserByNumber(ctx context.Context, number, excludeIdentity string) (*models.User, error)
}

// Sender отправляет сообщения пользователю.
type Sender interface {
	SendText(ctx context.Context, recipientID, text string) error
	SendButtons(ctx context.Context, recipientID, text string, buttons []models.Button) error
}

// Assistant генерирует ответ на вопрос пользователя.
type Assistant interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Payments запускает оплату плана.
type Payments interface {
	Initiate(ctx context.Context, u *models.User, planType models.PlanType) (*payment.Result, error)
}

// Service обрабатывает входящие события мессенджера.
type Service struct {
	repo      Repository
	sender    Sender
	assistant Assistant
	payments  Payments
	quota     *quota.Tracker
	plans     *subscription.Catalog
	loc       *time.Location
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

// Deps — зависимости Service.
type Deps struct {
	Repo      Repository
	Sender    Sender
	Assistant Assistant
	Payments  Payments
	Quota     *quota.Tracker
	Plans     *subscription.Catalog
	Location  *time.Location
	Metrics   *metrics.Metrics
}

// New создаёт Service.
func New(d Deps, log *slog.Logger) *Service {
	return &Service{
		repo:      d.Repo,
		sender:    d.Sender,
		assistant: d.Assistant,
		payments:  d.Payments,
		quota:     d.Quota,
		plans:     d.Plans,
		loc:       d.Location,
		metrics:   d.Metrics,
		log:       log,
		now:       time.Now,
	}
}

// turn — состояние обработки одного события.
type turn struct {
	u     *models.User
	now   time.Time
	from  models.Stage
	dirty bool
	log   *slog.Logger
}

// HandleEvent обрабатывает одно входящее событие целиком: загрузка
// пользователя, команды, постбэки или текст по текущей стадии.
// Ошибки хранилища возвращаются, пользователь при этом получает извинение.
func (s *Service) HandleEvent(ctx context.Context, ev models.InboundEvent) error {
	const op = "funnel.HandleEvent"
	log := s.log.With(slog.String("op", op), slog.String("user", ev.SenderIdentity))
	now := s.now()

	u, created, err := s.repo.GetOrCreateUser(ctx, ev.SenderIdentity, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if created {
		log.Info("new user, sending onboarding")
		s.metrics.Event("new_user")
		return s.sendOnboarding(ctx, u.Identity)
	}

	t := &turn{u: u, now: now, from: u.Stage, log: log}
	s.expireLapsed(t)
	if s.quota.Refresh(u, now) {
		t.dirty = true
	}

	err = s.dispatch(ctx, t, ev)
	if err != nil {
		log.Error("failed to handle event", slog.String("stage", string(u.Stage)), sl.Err(err))
		if sendErr := s.sender.SendText(ctx, u.Identity, msgGenericError); sendErr != nil {
			log.Error("failed to send apology", sl.Err(sendErr))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	// ленивые изменения (сброс счётчиков, истечение) сохраняем, даже если ветка ничего не писала
	if t.dirty {
		if err := s.save(ctx, t); err != nil {
			log.Warn("failed to persist lazy updates", sl.Err(err))
		}
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, t *turn, ev models.InboundEvent) error {
	if ev.Postback != nil {
		s.metrics.Event("postback")
		return s.handlePostback(ctx, t, ev.Postback.Payload)
	}

	s.metrics.Event("message")
	text := ""
	if ev.Message != nil {
		text = ev.Message.Text
	}
	if kind, ok := command.Recognize(text); ok {
		s.metrics.Command(kind.String())
		s.runCommand(ctx, t, kind)
		return nil
	}
	if !t.u.HasConsent() || t.u.Stage == models.StageInitial {
		return s.sendOnboarding(ctx, t.u.Identity)
	}
	return s.handleText(ctx, t, text)
}

// expireLapsed помечает истёкшую подписку при обращении.
func (s *Service) expireLapsed(t *turn) {
	if !t.u.Subscription.HasLapsed(t.now) {
		return
	}
	t.u.Subscription.Status = models.SubscriptionExpired
	if t.u.Stage == models.StageSubscribed {
		t.u.Stage = models.StageSubscriptionExpired
	}
	t.dirty = true
	t.log.Info("subscription expired", slog.String("plan", string(t.u.Subscription.PlanType)))
}

// save записывает пользователя с проверкой версии.
func (s *Service) save(ctx context.Context, t *turn) error {
	err := s.repo.UpdateUser(ctx, t.u)
	if errors.Is(err, repository.ErrConflict) {
		s.metrics.Conflict()
		t.log.Warn("stale user write rejected", slog.Int("version", t.u.Version))
	}
	if err != nil {
		return err
	}
	t.dirty = false
	if t.from != t.u.Stage {
		s.metrics.StageTransition(string(t.from), string(t.u.Stage))
		t.from = t.u.Stage
	}
	return nil
}

func (s *Service) sendOnboarding(ctx context.Context, identity string) error {
	return s.sender.SendButtons(ctx, identity, msgOnboarding, []models.Button{
		{Title: "I agree", Payload: PayloadAgree},
	})
}

// planButtons — кнопки выбора плана.
func (s *Service) planButtons() []models.Button {
	buttons := make([]models.Button, 0, 2)
	for _, p := range s.plans.All() {
		buttons = append(buttons, models.Button{
			Title:   fmt.Sprintf("%s · %s", p.Name, p.Price()),
			Payload: subscribePayload(p.Type),
		})
	}
	return buttons
}

// sendPlanOffer отправляет текст с кнопками выбора плана.
func (s *Service) sendPlanOffer(ctx context.Context, identity, text string) error {
	return s.sender.SendButtons(ctx, identity, text, s.planButtons())
}
