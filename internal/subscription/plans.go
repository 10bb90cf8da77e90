// Package subscription содержит таблицу тарифных планов бота.
package subscription

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-bot/internal/config"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
)

// Plan описывает тарифный план: цену, длительность и дневной лимит сообщений.
type Plan struct {
	Type       models.PlanType
	Name       string
	Amount     int64
	Currency   string
	Duration   time.Duration
	DailyLimit int
}

// Price возвращает цену в виде "50 ETB".
func (p Plan) Price() string {
	return FormatAmount(p.Amount, p.Currency)
}

// FormatAmount форматирует сумму с валютой.
func FormatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%d %s", amount, currency)
}

// Catalog — неизменяемая таблица планов.
type Catalog struct {
	plans map[models.PlanType]Plan
	order []models.PlanType
}

// NewCatalog строит таблицу планов из конфига.
func NewCatalog(cfg config.Plans, currency string) *Catalog {
	build := func(t models.PlanType, p config.Plan) Plan {
		return Plan{
			Type:       t,
			Name:       p.Name,
			Amount:     p.Amount,
			Currency:   currency,
			Duration:   time.Duration(p.DurationDays) * 24 * time.Hour,
			DailyLimit: p.DailyLimit,
		}
	}
	return &Catalog{
		plans: map[models.PlanType]Plan{
			models.PlanWeekly:  build(models.PlanWeekly, cfg.Weekly),
			models.PlanMonthly: build(models.PlanMonthly, cfg.Monthly),
		},
		order: []models.PlanType{models.PlanWeekly, models.PlanMonthly},
	}
}

// Get возвращает план по типу.
func (c *Catalog) Get(t models.PlanType) (Plan, bool) {
	p, ok := c.plans[t]
	return p, ok
}

// All возвращает планы в порядке показа пользователю.
func (c *Catalog) All() []Plan {
	res := make([]Plan, 0, len(c.order))
	for _, t := range c.order {
		res = append(res, c.plans[t])
	}
	return res
}
