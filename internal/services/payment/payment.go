// Package payment запускает оплату подписки и сводит асинхронные
// колбэки шлюза к изменению состояния пользователя.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/momo"
)

var (
	// ErrSessionActive — у пользователя уже есть ожидающий платёж.
	ErrSessionActive = errors.New("payment session already active")
	// ErrUnknownPlan — план отсутствует в таблице тарифов.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrNoPaymentNumber — не указан номер для списания.
	ErrNoPaymentNumber = errors.New("payment mobile number is not set")
)

// maxWriteAttempts — сколько раз перечитывать пользователя при конфликте версий.
const maxWriteAttempts = 3

// Repository — операции хранилища, нужные платёжному контуру.
type Repository interface {
	GetUser(ctx context.Context, identity string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	FindUserByPaymentReference(ctx context.Context, reference string) (*models.User, error)
	FindUserByPaymentExternalID(ctx context.Context, externalID string) (*models.User, error)
	CreatePaymentRequest(ctx context.Context, req *models.PaymentRequest) error
	GetPaymentRequest(ctx context.Context, referenceID string) (*models.PaymentRequest, error)
	FindPaymentRequestByExternalID(ctx context.Context, externalID string) (*models.PaymentRequest, error)
	UpdatePaymentStatus(ctx context.Context, referenceID string, status models.PaymentStatus, reason string, raw []byte) (bool, error)
	SettlePayment(ctx context.Context, referenceID string, status models.PaymentStatus, reason string, raw []byte, u *models.User) (bool, error)
}

// Gateway — платёжный шлюз.
type Gateway interface {
	Submit(ctx context.Context, req momo.SubmitRequest) (*momo.SubmitResult, error)
}

// Notifier отправляет пользователю текст.
type Notifier interface {
	SendText(ctx context.Context, recipientID, text string) error
}

// Outcome — итог платежа, пришедший из колбэка или из песочницы.
type Outcome struct {
	Status models.PaymentStatus
	Reason string
	Raw    []byte
}

// Result — результат инициации платежа.
type Result struct {
	Success         bool
	Session         models.PaymentSession
	BypassTriggered bool
}

type clock func() time.Time
