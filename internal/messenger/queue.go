package messenger

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/subscription-bot/internal/models"
)

// Publisher публикует сообщение в очередь.
type Publisher interface {
	Publish(message any) error
}

// QueuePublisher ставит исходящие сообщения в очередь вместо прямой отправки.
// Доставку выполняет отдельный процесс отправителя.
type QueuePublisher struct {
	pub Publisher
}

// NewQueuePublisher создаёт QueuePublisher.
func NewQueuePublisher(pub Publisher) *QueuePublisher {
	return &QueuePublisher{pub: pub}
}

// SendText ставит в очередь простой текст.
func (q *QueuePublisher) SendText(ctx context.Context, recipientID, text string) error {
	return q.Deliver(ctx, models.OutboundMessage{Recipient: recipientID, Text: text})
}

// SendButtons ставит в очередь текст с кнопками.
func (q *QueuePublisher) SendButtons(ctx context.Context, recipientID, text string, buttons []models.Button) error {
	return q.Deliver(ctx, models.OutboundMessage{Recipient: recipientID, Text: text, Buttons: buttons})
}

// Deliver ставит в очередь готовое сообщение.
func (q *QueuePublisher) Deliver(ctx context.Context, msg models.OutboundMessage) error {
	const op = "messenger.QueuePublisher.Deliver"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(msg.Buttons) > MaxButtons {
		return fmt.Errorf("%s: %d buttons exceed limit of %d", op, len(msg.Buttons), MaxButtons)
	}
	if err := q.pub.Publish(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
