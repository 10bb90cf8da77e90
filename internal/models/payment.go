package models

import "time"

// PaymentStatus — статус платёжного запроса. Терминальные значения
// совпадают с тем, что присылает шлюз.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentSuccessful PaymentStatus = "SUCCESSFUL"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentUnknown    PaymentStatus = "unknown"
)

// Terminal сообщает, является ли статус окончательным.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSuccessful || s == PaymentFailed
}

// PaymentRequest — долговременная запись для сопоставления колбэков шлюза.
// Никогда не удаляется; меняются только поля итогового статуса.
type PaymentRequest struct {
	ReferenceID string // Ключ корреляции, генерируется при инициации
	ExternalID  string // Вторичный ключ, который шлюз может вернуть вместо ReferenceID
	Owner       string // Identity пользователя
	PlanType    PlanType
	Amount      int64
	Currency    string
	PhoneNumber string
	Status      PaymentStatus
	Reason      string
	RawCallback []byte // Исходный колбэк для аудита
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
