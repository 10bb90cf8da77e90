// Package models содержит доменные структуры бота подписок: пользователя,
// его стадию в воронке, подписку, платёжную сессию и платёжные запросы.
package models

import "time"

// PlanType — тип тарифного плана.
type PlanType string

const (
	PlanNone    PlanType = "none"
	PlanWeekly  PlanType = "weekly"
	PlanMonthly PlanType = "monthly"
)

// ParsePlanType разбирает тип плана; пустое значение означает PlanNone.
func ParsePlanType(raw string) (PlanType, bool) {
	switch PlanType(raw) {
	case PlanWeekly:
		return PlanWeekly, true
	case PlanMonthly:
		return PlanMonthly, true
	case PlanNone, "":
		return PlanNone, true
	}
	return PlanNone, false
}

// SubscriptionStatus — статус оплаченной подписки.
type SubscriptionStatus string

const (
	SubscriptionNone    SubscriptionStatus = "none"
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// Subscription описывает текущую подписку пользователя.
// Истечение проверяется лениво, при обращении.
type Subscription struct {
	PlanType   PlanType
	Status     SubscriptionStatus
	Amount     int64
	ExpiryDate *time.Time
}

// IsActive сообщает, действует ли подписка на момент now.
func (s Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionActive && s.ExpiryDate != nil && s.ExpiryDate.After(now)
}

// HasLapsed сообщает, что подписка помечена активной, но срок уже вышел.
func (s Subscription) HasLapsed(now time.Time) bool {
	return s.Status == SubscriptionActive && (s.ExpiryDate == nil || !s.ExpiryDate.After(now))
}

// PaymentSession связывает пользователя с ожидающим платежом.
type PaymentSession struct {
	Reference  string
	ExternalID string
}

// User представляет конечного пользователя мессенджера.
type User struct {
	Identity               string     // Внешний идентификатор отправителя
	Stage                  Stage      // Текущая стадия воронки
	ConsentGrantedAt       *time.Time // Время принятия условий
	TrialMobileNumber      string     // Номер, к которому привязан пробный период
	PaymentMobileNumber    string     // Номер, с которого списывается оплата
	HasUsedTrial           bool
	TrialMessagesUsedToday int
	DailyMessageCount      int
	CountersResetAt        *time.Time // Когда счётчики последний раз обнулялись
	LastSelectedPlanType   PlanType   // План, выбранный до ввода номера для оплаты
	Subscription           Subscription
	PaymentSession         *PaymentSession
	ExpiryRemindedFor      *time.Time // Срок подписки, о котором уже напомнили
	Version                int        // Счётчик для оптимистичной блокировки
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NewUser создаёт пользователя при первом контакте.
func NewUser(identity string, now time.Time) *User {
	return &User{
		Identity:             identity,
		Stage:                StageInitial,
		LastSelectedPlanType: PlanNone,
		Subscription: Subscription{
			PlanType: PlanNone,
			Status:   SubscriptionNone,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasConsent сообщает, принял ли пользователь условия.
func (u *User) HasConsent() bool {
	return u.ConsentGrantedAt != nil
}

// ClearPaymentSession сбрасывает ссылку на ожидающий платёж.
func (u *User) ClearPaymentSession() {
	u.PaymentSession = nil
}

// ResetAll возвращает пользователя в исходное состояние (команда start).
// Счётчики дневной квоты сохраняются.
func (u *User) ResetAll() {
	u.Stage = StageInitial
	u.ConsentGrantedAt = nil
	u.TrialMobileNumber = ""
	u.PaymentMobileNumber = ""
	u.HasUsedTrial = false
	u.LastSelectedPlanType = PlanNone
	u.Subscription = Subscription{PlanType: PlanNone, Status: SubscriptionNone}
	u.PaymentSession = nil
	u.ExpiryRemindedFor = nil
}

// RestingStage возвращает стадию, в которую пользователь возвращается
// после отмены сбора номера для оплаты.
func (u *User) RestingStage(now time.Time) Stage {
	switch {
	case u.Subscription.IsActive(now):
		return StageSubscribed
	case u.Subscription.PlanType != PlanNone:
		return StageSubscriptionExpired
	case u.HasUsedTrial:
		return StageTrial
	default:
		return StageAwaitingPhone
	}
}
