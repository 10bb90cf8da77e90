// Package admin — диагностика для операторов: платёж с живым статусом шлюза,
// состояние пользователя и сброс дневной квоты.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-bot/internal/lib/phone"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/momo"
	"github.com/magabrotheeeer/subscription-bot/internal/quota"
)

// Repository — операции хранилища для диагностики.
type Repository interface {
	GetUser(ctx context.Context, identity string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	GetPaymentRequest(ctx context.Context, referenceID string) (*models.PaymentRequest, error)
}

// Gateway запрашивает у шлюза текущий статус платежа.
type Gateway interface {
	GetStatus(ctx context.Context, referenceID string) (*momo.Transaction, error)
}

// GatewayView — статус платежа по данным шлюза.
type GatewayView struct {
	Status                 string `json:"status"`
	Reason                 string `json:"reason,omitempty"`
	FinancialTransactionID string `json:"financial_transaction_id,omitempty"`
}

// PaymentView — платёжный запрос для оператора. Номер телефона замаскирован.
type PaymentView struct {
	ReferenceID  string       `json:"reference_id"`
	ExternalID   string       `json:"external_id"`
	Owner        string       `json:"owner"`
	PlanType     string       `json:"plan_type"`
	Amount       int64        `json:"amount"`
	Currency     string       `json:"currency"`
	PhoneNumber  string       `json:"phone_number"`
	Status       string       `json:"status"`
	Reason       string       `json:"reason,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Gateway      *GatewayView `json:"gateway,omitempty"`
	GatewayError string       `json:"gateway_error,omitempty"`
}

// UserView — состояние пользователя для оператора.
type UserView struct {
	Identity            string     `json:"identity"`
	Stage               string     `json:"stage"`
	Consent             bool       `json:"consent"`
	TrialMobileNumber   string     `json:"trial_mobile_number,omitempty"`
	PaymentMobileNumber string     `json:"payment_mobile_number,omitempty"`
	HasUsedTrial        bool       `json:"has_used_trial"`
	MessagesUsedToday   int        `json:"messages_used_today"`
	DailyLimit          int        `json:"daily_limit"`
	SelectedPlan        string     `json:"selected_plan,omitempty"`
	SubscriptionPlan    string     `json:"subscription_plan"`
	SubscriptionStatus  string     `json:"subscription_status"`
	SubscriptionExpiry  *time.Time `json:"subscription_expiry,omitempty"`
	PaymentReference    string     `json:"payment_reference,omitempty"`
	Version             int        `json:"version"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Service — операции диагностики.
type Service struct {
	repo    Repository
	gateway Gateway
	quota   *quota.Tracker
	log     *slog.Logger
	now     func() time.Time
}

// New создаёт Service.
func New(repo Repository, gateway Gateway, tracker *quota.Tracker, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		quota:   tracker,
		log:     log,
		now:     time.Now,
	}
}

// Payment возвращает платёжный запрос вместе со статусом из шлюза.
// Ошибка шлюза не мешает вернуть сохранённые данные.
func (s *Service) Payment(ctx context.Context, referenceID string) (*PaymentView, error) {
	const op = "admin.Payment"
	log := s.log.With(slog.String("op", op), slog.String("reference", referenceID))

	p, err := s.repo.GetPaymentRequest(ctx, referenceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	view := &PaymentView{
		ReferenceID: p.ReferenceID,
		ExternalID:  p.ExternalID,
		Owner:       p.Owner,
		PlanType:    string(p.PlanType),
		Amount:      p.Amount,
		Currency:    p.Currency,
		PhoneNumber: phone.Mask(p.PhoneNumber),
		Status:      string(p.Status),
		Reason:      p.Reason,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}

	tx, err := s.gateway.GetStatus(ctx, referenceID)
	if err != nil {
		log.Warn("gateway status lookup failed", sl.Err(err))
		view.GatewayError = err.Error()
		return view, nil
	}
	view.Gateway = &GatewayView{
		Status:                 tx.Status,
		Reason:                 tx.ReasonText(),
		FinancialTransactionID: tx.FinancialTransactionID,
	}
	return view, nil
}

// User возвращает состояние пользователя.
func (s *Service) User(ctx context.Context, identity string) (*UserView, error) {
	const op = "admin.User"

	u, err := s.repo.GetUser(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.view(u), nil
}

// ResetQuota обнуляет счётчики текущих суток. Запись с устаревшей версией
// возвращает repository.ErrConflict.
func (s *Service) ResetQuota(ctx context.Context, identity string) (*UserView, error) {
	const op = "admin.ResetQuota"

	u, err := s.repo.GetUser(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.quota.Reset(u, s.now())
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("quota reset by operator", slog.String("op", op), slog.String("user", identity))
	return s.view(u), nil
}

func (s *Service) view(u *models.User) *UserView {
	usage := s.quota.Usage(u, s.now())
	v := &UserView{
		Identity:            u.Identity,
		Stage:               string(u.Stage),
		Consent:             u.HasConsent(),
		TrialMobileNumber:   phone.Mask(u.TrialMobileNumber),
		PaymentMobileNumber: phone.Mask(u.PaymentMobileNumber),
		HasUsedTrial:        u.HasUsedTrial,
		MessagesUsedToday:   usage.Used,
		DailyLimit:          usage.Limit,
		SubscriptionPlan:    string(u.Subscription.PlanType),
		SubscriptionStatus:  string(u.Subscription.Status),
		SubscriptionExpiry:  u.Subscription.ExpiryDate,
		Version:             u.Version,
		UpdatedAt:           u.UpdatedAt,
	}
	if u.LastSelectedPlanType != models.PlanNone {
		v.SelectedPlan = string(u.LastSelectedPlanType)
	}
	if u.PaymentSession != nil {
		v.PaymentReference = u.PaymentSession.Reference
	}
	return v
}
