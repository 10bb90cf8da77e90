package funnel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subscription-bot/internal/models"
)

// Полезные нагрузки кнопок.
const (
	PayloadGetStarted      = "GET_STARTED"
	PayloadAgree           = "I_AGREE"
	PayloadSubscribeWeekly = "SUBSCRIBE_WEEKLY"
	PayloadSubscribeMonth  = "SUBSCRIBE_MONTHLY"
	PayloadRetryNumber     = "RETRY_NUMBER"
)

func subscribePayload(p models.PlanType) string {
	if p == models.PlanMonthly {
		return PayloadSubscribeMonth
	}
	return PayloadSubscribeWeekly
}

func (s *Service) handlePostback(ctx context.Context, t *turn, payload string) error {
	switch payload {
	case PayloadGetStarted:
		return s.sendOnboarding(ctx, t.u.Identity)
	case PayloadAgree:
		return s.onAgree(ctx, t)
	}

	if !t.u.HasConsent() {
		return s.sendOnboarding(ctx, t.u.Identity)
	}

	switch payload {
	case PayloadSubscribeWeekly:
		return s.onSubscribe(ctx, t, models.PlanWeekly)
	case PayloadSubscribeMonth:
		return s.onSubscribe(ctx, t, models.PlanMonthly)
	case PayloadRetryNumber:
		return s.onRetryNumber(ctx, t)
	default:
		t.log.Warn("unknown postback payload", slog.String("payload", payload))
		return s.sender.SendText(ctx, t.u.Identity, msgHelpHint)
	}
}

// onAgree фиксирует согласие и переводит initial → awaiting_phone.
func (s *Service) onAgree(ctx context.Context, t *turn) error {
	if t.u.HasConsent() && t.u.Stage != models.StageInitial {
		return s.sender.SendText(ctx, t.u.Identity, msgAlreadyAgreed)
	}
	if !t.u.HasConsent() {
		at := t.now
		t.u.ConsentGrantedAt = &at
	}
	if t.u.Stage == models.StageInitial {
		t.u.Stage = models.StageAwaitingPhone
	}
	if err := s.save(ctx, t); err != nil {
		return err
	}
	if t.u.Stage != models.StageAwaitingPhone {
		return s.sender.SendText(ctx, t.u.Identity, msgAlreadyAgreed)
	}
	return s.sender.SendText(ctx, t.u.Identity, fmt.Sprintf(msgAskTrialNumber, s.quota.Usage(t.u, t.now).Limit))
}

// onSubscribe запоминает план и просит номер для оплаты.
func (s *Service) onSubscribe(ctx context.Context, t *turn, planType models.PlanType) error {
	if t.u.Stage == models.StageAwaitingPayment {
		return s.sender.SendText(ctx, t.u.Identity, msgPaymentInProgress)
	}
	plan, ok := s.plans.Get(planType)
	if !ok {
		return s.sendPlanOffer(ctx, t.u.Identity, msgChoosePlanFirst)
	}

	t.u.LastSelectedPlanType = planType
	t.u.PaymentMobileNumber = ""
	t.u.Stage = models.StageAwaitingPhoneForPayment
	if err := s.save(ctx, t); err != nil {
		return err
	}
	return s.sender.SendText(ctx, t.u.Identity, fmt.Sprintf(msgAskPaymentNumber, plan.Name, plan.Price()))
}

// onRetryNumber сбрасывает номер активной стадии сбора номера.
func (s *Service) onRetryNumber(ctx context.Context, t *turn) error {
	var prompt string
	switch t.u.Stage {
	case models.StageAwaitingPhone:
		t.u.TrialMobileNumber = ""
		prompt = msgAskAnotherNumber
	case models.StageAwaitingPhoneForPayment:
		t.u.PaymentMobileNumber = ""
		prompt = msgAskAnotherPaymentNumber
	default:
		return s.sender.SendText(ctx, t.u.Identity, msgHelpHint)
	}
	if err := s.save(ctx, t); err != nil {
		return err
	}
	return s.sender.SendText(ctx, t.u.Identity, prompt)
}
