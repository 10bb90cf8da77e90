package funnel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/subscription-bot/internal/lib/phone"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/services/payment"
	"github.com/magabrotheeeer/subscription-bot/internal/storage/repository"
)

// handleText выбирает поведение по стадии пользователя.
func (s *Service) handleText(ctx context.Context, t *turn, text string) error {
	switch t.u.Stage {
	case models.StageAwaitingPhone:
		return s.onTrialNumber(ctx, t, text)
	case models.StageAwaitingPhoneForPayment:
		return s.onPaymentNumber(ctx, t, text)
	case models.StageAwaitingPayment:
		return s.sender.SendText(ctx, t.u.Identity, msgPaymentInProgress)
	case models.StageSubscriptionExpired:
		return s.sendPlanOffer(ctx, t.u.Identity, s.expiredNotice(t.u))
	default:
		return s.answer(ctx, t, text)
	}
}

// onTrialNumber привязывает номер к пробному периоду.
func (s *Service) onTrialNumber(ctx context.Context, t *turn, text string) error {
	number, err := phone.Normalize(text)
	if err != nil {
		return s.sender.SendText(ctx, t.u.Identity, msgInvalidNumber)
	}

	owner, err := s.repo.FindTrialUserByNumber(ctx, number, t.u.Identity)
	switch {
	case err == nil:
		t.log.Info("trial number already used by another account",
			slog.String("phone", phone.Mask(number)), slog.String("owner", owner.Identity))
		buttons := append([]models.Button{{Title: "Use another number", Payload: PayloadRetryNumber}}, s.planButtons()...)
		return s.sender.SendButtons(ctx, t.u.Identity, msgTrialNumberUsed, buttons)
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	t.u.TrialMobileNumber = number
	t.u.HasUsedTrial = true
	t.u.Stage = models.StageTrial
	if err := s.save(ctx, t); err != nil {
		return err
	}
	usage := s.quota.Usage(t.u, t.now)
	return s.sender.SendText(ctx, t.u.Identity, fmt.Sprintf(msgTrialActivated, usage.Limit))
}

// onPaymentNumber привязывает номер для оплаты и запускает платёж.
// Без выбранного плана номер сохраняется, но платёж не запускается.
func (s *Service) onPaymentNumber(ctx context.Context, t *turn, text string) error {
	number, err := phone.Normalize(text)
	if err != nil {
		return s.sender.SendText(ctx, t.u.Identity, msgInvalidNumber)
	}

	t.u.PaymentMobileNumber = number
	if err := s.save(ctx, t); err != nil {
		return err
	}

	plan, ok := s.plans.Get(t.u.LastSelectedPlanType)
	if !ok {
		return s.sendPlanOffer(ctx, t.u.Identity, msgChoosePlanFirst)
	}

	res, err := s.payments.Initiate(ctx, t.u, plan.Type)
	switch {
	case errors.Is(err, payment.ErrSessionActive):
		return s.sender.SendText(ctx, t.u.Identity, msgPaymentInProgress)
	case err != nil:
		return err
	}
	// Initiate сам сохраняет пользователя и фиксирует переход
	t.from = t.u.Stage

	if !res.Success {
		return s.sender.SendText(ctx, t.u.Identity, msgPaymentNotStarted)
	}
	if res.BypassTriggered {
		// подтверждение уже отправлено тем же путём, что и для колбэков
		return nil
	}
	return s.sender.SendText(ctx, t.u.Identity,
		fmt.Sprintf(msgPaymentRequested, plan.Price(), phone.Local(number)))
}

// answer — общий путь с квотой: счётчик сохраняется до обращения к ассистенту.
func (s *Service) answer(ctx context.Context, t *turn, text string) error {
	if strings.TrimSpace(text) == "" {
		return s.sender.SendText(ctx, t.u.Identity, msgTextOnly)
	}

	d := s.quota.CheckAndConsume(t.u, t.now)
	if !d.Allowed {
		tier := string(t.u.Subscription.PlanType)
		if d.Trial {
			tier = "trial"
		}
		s.metrics.QuotaDenied(tier)
		t.log.Info("daily quota exhausted", slog.String("tier", tier), slog.Int("limit", d.Limit))
		if d.OfferSubscription {
			return s.sendPlanOffer(ctx, t.u.Identity, fmt.Sprintf(msgTrialLimitReached, d.Limit))
		}
		return s.sender.SendText(ctx, t.u.Identity, fmt.Sprintf(msgDailyLimitReached, d.Limit))
	}
	if err := s.save(ctx, t); err != nil {
		return err
	}

	reply, err := s.assistant.Generate(ctx, text)
	if err != nil {
		s.metrics.AssistantCall("error")
		t.log.Error("assistant failed", sl.Err(err))
		return s.sender.SendText(ctx, t.u.Identity, msgAssistantApology)
	}
	s.metrics.AssistantCall("ok")
	return s.sender.SendText(ctx, t.u.Identity, reply)
}

func (s *Service) expiredNotice(u *models.User) string {
	name := "Your"
	if p, ok := s.plans.Get(u.Subscription.PlanType); ok {
		name = "Your " + p.Name
	}
	return fmt.Sprintf(msgSubscriptionExpired, name)
}
