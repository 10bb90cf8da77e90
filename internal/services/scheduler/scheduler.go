// Package services содержит планировщик напоминаний об окончании подписки.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/subscription"
)

// SubscriptionRepository — выборка подписок, срок которых подходит к концу.
type SubscriptionRepository interface {
	FindSubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.User, error)
	MarkExpiryReminded(ctx context.Context, identity string, expiry time.Time) (bool, error)
}

// Sender ставит сообщение с кнопками в очередь доставки.
type Sender interface {
	SendButtons(ctx context.Context, recipientID, text string, buttons []models.Button) error
}

// SchedulerService рассылает напоминания о скором окончании подписки.
type SchedulerService struct {
	repo   SubscriptionRepository
	sender Sender
	plans  *subscription.Catalog
	loc    *time.Location
	window time.Duration
	log    *slog.Logger
	now    func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
// window — за сколько до окончания подписки отправлять напоминание.
func NewSchedulerService(repo SubscriptionRepository, sender Sender, plans *subscription.Catalog,
	loc *time.Location, window time.Duration, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:   repo,
		sender: sender,
		plans:  plans,
		loc:    loc,
		window: window,
		log:    log,
		now:    time.Now,
	}
}

// RemindExpiringSubscriptions запускает проверку сразу и затем каждые interval,
// пока не отменён ctx.
func (s *SchedulerService) RemindExpiringSubscriptions(ctx context.Context, interval time.Duration) {
	s.runRemindExpiringSubscriptions(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runRemindExpiringSubscriptions(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// runRemindExpiringSubscriptions отправляет напоминания и возвращает их число.
// Напоминание о конкретном сроке уходит не больше одного раза.
func (s *SchedulerService) runRemindExpiringSubscriptions(ctx context.Context) int {
	const op = "services.SchedulerService.runRemindExpiringSubscriptions"
	log := s.log.With(slog.String("op", op))

	now := s.now()
	users, err := s.repo.FindSubscriptionsExpiringBetween(ctx, now, now.Add(s.window))
	if err != nil {
		log.Error("failed to find expiring subscriptions", sl.Err(err))
		return 0
	}
	if len(users) == 0 {
		log.Debug("no expiring subscriptions found")
		return 0
	}
	log.Info("found expiring subscriptions", slog.Int("count", len(users)))

	sent := 0
	for _, u := range users {
		if u.Subscription.ExpiryDate == nil {
			continue
		}
		expiry := *u.Subscription.ExpiryDate

		claimed, err := s.repo.MarkExpiryReminded(ctx, u.Identity, expiry)
		if err != nil {
			log.Error("failed to mark reminder", slog.String("user", u.Identity), sl.Err(err))
			continue
		}
		if !claimed {
			continue
		}
		if err := s.sender.SendButtons(ctx, u.Identity, s.reminderText(u, expiry), s.renewButtons(u)); err != nil {
			log.Error("failed to publish reminder", slog.String("user", u.Identity), sl.Err(err))
			continue
		}
		sent++
	}
	log.Info("expiry reminders sent", slog.Int("sent", sent))
	return sent
}

func (s *SchedulerService) reminderText(u *models.User, expiry time.Time) string {
	name := string(u.Subscription.PlanType)
	if p, ok := s.plans.Get(u.Subscription.PlanType); ok {
		name = p.Name
	}
	return fmt.Sprintf("⏰ Your %s subscription ends on %s. Renew now to keep chatting without interruption.",
		name, expiry.In(s.loc).Format("Mon, 02 Jan 2006 15:04 MST"))
}

// renewButtons ставит текущий план первым.
func (s *SchedulerService) renewButtons(u *models.User) []models.Button {
	var current, others []models.Button
	for _, p := range s.plans.All() {
		b := models.Button{Title: fmt.Sprintf("%s · %s", p.Name, p.Price()), Payload: renewPayload(p.Type)}
		if p.Type == u.Subscription.PlanType {
			current = append(current, b)
		} else {
			others = append(others, b)
		}
	}
	return append(current, others...)
}

func renewPayload(p models.PlanType) string {
	if p == models.PlanMonthly {
		return "SUBSCRIBE_MONTHLY"
	}
	return "SUBSCRIBE_WEEKLY"
}
