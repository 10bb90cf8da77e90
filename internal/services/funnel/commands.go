package funnel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/subscription-bot/internal/command"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
)

// runCommand выполняет команду. Ошибка обработчика сообщается пользователю
// и дальше не передаётся.
func (s *Service) runCommand(ctx context.Context, t *turn, kind command.Kind) {
	var err error
	switch kind {
	case command.Start:
		err = s.cmdStart(ctx, t)
	case command.Cancel:
		err = s.cmdCancel(ctx, t)
	case command.Help:
		err = s.sender.SendText(ctx, t.u.Identity, msgHelp)
	case command.Status:
		err = s.sender.SendText(ctx, t.u.Identity, s.statusText(t))
	case command.ResetMe:
		err = s.cmdResetMe(ctx, t)
	}
	if err == nil {
		return
	}

	t.log.Error("command failed", slog.String("command", kind.String()), sl.Err(err))
	if sendErr := s.sender.SendText(ctx, t.u.Identity, fmt.Sprintf(msgCommandFailed, kind)); sendErr != nil {
		t.log.Error("failed to report command failure", sl.Err(sendErr))
	}
}

func (s *Service) cmdStart(ctx context.Context, t *turn) error {
	t.u.ResetAll()
	if err := s.save(ctx, t); err != nil {
		return err
	}
	return s.sendOnboarding(ctx, t.u.Identity)
}

func (s *Service) cmdCancel(ctx context.Context, t *turn) error {
	var reply string
	switch t.u.Stage {
	case models.StageAwaitingPayment:
		// запрос в шлюзе остаётся; поздний SUCCESSFUL всё равно активирует подписку
		t.u.ClearPaymentSession()
		if t.u.Subscription.IsActive(t.now) {
			t.u.Stage = models.StageSubscribed
		} else {
			t.u.Stage = models.StageTrial
		}
		reply = msgPaymentCancelled
	case models.StageAwaitingPhone:
		t.u.TrialMobileNumber = ""
		t.u.Stage = models.StageInitial
		reply = msgRegistrationCancelled
	case models.StageAwaitingPhoneForPayment:
		t.u.PaymentMobileNumber = ""
		t.u.LastSelectedPlanType = models.PlanNone
		t.u.Stage = t.u.RestingStage(t.now)
		reply = msgPlanSelectionCancelled
	default:
		return s.sender.SendText(ctx, t.u.Identity, msgNothingToCancel)
	}
	if err := s.save(ctx, t); err != nil {
		return err
	}
	return s.sender.SendText(ctx, t.u.Identity, reply)
}

func (s *Service) cmdResetMe(ctx context.Context, t *turn) error {
	s.quota.Reset(t.u, t.now)
	if err := s.save(ctx, t); err != nil {
		return err
	}
	return s.sender.SendText(ctx, t.u.Identity, msgCountersReset)
}

func (s *Service) statusText(t *turn) string {
	u := t.u
	usage := s.quota.Usage(u, t.now)

	var b strings.Builder
	b.WriteString("📊 Your status\n\n")
	fmt.Fprintf(&b, "Stage: %s\n", stageLabel(u.Stage))
	if usage.Trial {
		fmt.Fprintf(&b, "Free messages today: %d of %d\n", usage.Used, usage.Limit)
	} else {
		fmt.Fprintf(&b, "Messages today: %d of %d\n", usage.Used, usage.Limit)
	}

	switch {
	case u.Subscription.PlanType == models.PlanNone:
		b.WriteString("Subscription: none")
	case u.Subscription.ExpiryDate == nil:
		fmt.Fprintf(&b, "Subscription: %s (%s)", u.Subscription.PlanType, u.Subscription.Status)
	default:
		fmt.Fprintf(&b, "Subscription: %s (%s), until %s", u.Subscription.PlanType, u.Subscription.Status,
			u.Subscription.ExpiryDate.In(s.loc).Format("Mon, 02 Jan 2006 15:04 MST"))
	}
	return b.String()
}

func stageLabel(st models.Stage) string {
	switch st {
	case models.StageInitial:
		return "not started"
	case models.StageAwaitingPhone:
		return "waiting for your phone number"
	case models.StageAwaitingPhoneForPayment:
		return "waiting for the payment number"
	case models.StageTrial:
		return "free trial"
	case models.StageAwaitingPayment:
		return "payment in progress"
	case models.StageSubscribed:
		return "subscribed"
	case models.StageSubscriptionExpired:
		return "subscription expired"
	}
	return string(st)
}
