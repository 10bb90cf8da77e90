package models

import "fmt"

// Stage — позиция пользователя в воронке онбординга, оплаты и использования.
type Stage string

const (
	StageInitial                 Stage = "initial"
	StageAwaitingPhone           Stage = "awaiting_phone"
	StageAwaitingPhoneForPayment Stage = "awaiting_phone_for_payment"
	StageTrial                   Stage = "trial"
	StageAwaitingPayment         Stage = "awaiting_payment"
	StageSubscribed              Stage = "subscribed"
	StageSubscriptionExpired     Stage = "subscription_expired"
)

// Stages возвращает полный закрытый набор стадий.
func Stages() []Stage {
	return []Stage{
		StageInitial,
		StageAwaitingPhone,
		StageAwaitingPhoneForPayment,
		StageTrial,
		StageAwaitingPayment,
		StageSubscribed,
		StageSubscriptionExpired,
	}
}

// Valid сообщает, входит ли стадия в закрытый набор.
func (s Stage) Valid() bool {
	for _, st := range Stages() {
		if s == st {
			return true
		}
	}
	return false
}

// ParseStage разбирает значение стадии на границе хранилища.
// Любое значение вне набора считается ошибкой, включая выведенные из оборота.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q", raw)
	}
	return s, nil
}
