// Package quota ведёт дневные счётчики сообщений для пробного периода и подписки.
//
// Счётчики обнуляются лениво: при каждом чтении отметка последнего сброса
// сравнивается с текущими местными сутками.
package quota

import (
	"time"

	"github.com/magabrotheeeer/subscription-bot/internal/lib/localday"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/subscription"
)

// Decision — результат проверки квоты.
type Decision struct {
	Allowed           bool
	Used              int
	Limit             int
	Remaining         int
	Trial             bool
	OfferSubscription bool // пробный лимит исчерпан, нужно предложить подписку
}

// Tracker проверяет и расходует дневную квоту пользователя.
type Tracker struct {
	trialLimit int
	plans      *subscription.Catalog
	loc        *time.Location
}

// New создаёт Tracker.
func New(trialLimit int, plans *subscription.Catalog, loc *time.Location) *Tracker {
	return &Tracker{
		trialLimit: trialLimit,
		plans:      plans,
		loc:        loc,
	}
}

// Refresh обнуляет счётчики, если с момента прошлого сброса начались новые
// местные сутки. Возвращает true, если пользователь изменён.
func (t *Tracker) Refresh(u *models.User, now time.Time) bool {
	if !localday.NeedsReset(u.CountersResetAt, now, t.loc) {
		return false
	}
	t.Reset(u, now)
	return true
}

// Reset безусловно обнуляет счётчики текущих суток.
func (t *Tracker) Reset(u *models.User, now time.Time) {
	u.TrialMessagesUsedToday = 0
	u.DailyMessageCount = 0
	ts := now
	u.CountersResetAt = &ts
}

// Usage возвращает состояние квоты без расхода.
func (t *Tracker) Usage(u *models.User, now time.Time) Decision {
	t.Refresh(u, now)
	used, limit, trial := t.counter(u, now)
	d := Decision{
		Used:  used,
		Limit: limit,
		Trial: trial,
	}
	d.Remaining = max(limit-used, 0)
	d.Allowed = used < limit
	return d
}

// CheckAndConsume проверяет лимит и при наличии остатка расходует одно сообщение.
// При отказе счётчики не меняются.
func (t *Tracker) CheckAndConsume(u *models.User, now time.Time) Decision {
	d := t.Usage(u, now)
	if !d.Allowed {
		d.OfferSubscription = d.Trial
		return d
	}
	if d.Trial {
		u.TrialMessagesUsedToday++
	} else {
		u.DailyMessageCount++
	}
	d.Used++
	d.Remaining = max(d.Limit-d.Used, 0)
	return d
}

// counter возвращает использованное, лимит и признак пробного тарифа.
// Лимит подписки действует только пока подписка активна.
func (t *Tracker) counter(u *models.User, now time.Time) (int, int, bool) {
	if u.Subscription.PlanType != models.PlanNone && u.Subscription.IsActive(now) {
		plan, ok := t.plans.Get(u.Subscription.PlanType)
		if !ok {
			return u.DailyMessageCount, 0, false
		}
		return u.DailyMessageCount, plan.DailyLimit, false
	}
	return u.TrialMessagesUsedToday, t.trialLimit, true
}
