// Package services содержит обработчик очереди исходящих сообщений.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/messenger"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
	"github.com/magabrotheeeer/subscription-bot/internal/rabbitmq"
)

// Deliverer доставляет готовое сообщение пользователю.
type Deliverer interface {
	Deliver(ctx context.Context, msg models.OutboundMessage) error
}

// SenderService забирает сообщения из очереди и доставляет их через Send API.
type SenderService struct {
	deliverer Deliverer
	timeout   time.Duration
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(deliverer Deliverer, timeout time.Duration, log *slog.Logger) *SenderService {
	return &SenderService{
		deliverer: deliverer,
		timeout:   timeout,
		log:       log,
	}
}

// HandleOutbound обрабатывает одно сообщение очереди. Некорректные сообщения
// и отказы Send API отбрасываются, остальные ошибки возвращают сообщение в очередь.
func (s *SenderService) HandleOutbound(body []byte) error {
	const op = "services.SenderService.HandleOutbound"

	var msg models.OutboundMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		s.log.Error("failed to unmarshal message body", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrDrop, err)
	}
	if msg.Recipient == "" || (msg.Text == "" && len(msg.Buttons) == 0) {
		s.log.Warn("empty outbound message dropped", slog.String("op", op))
		return fmt.Errorf("%s: %w: empty message", op, rabbitmq.ErrDrop)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.deliverer.Deliver(ctx, msg); err != nil {
		if errors.Is(err, messenger.ErrRejected) {
			return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrDrop, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("message delivered", slog.String("op", op), slog.String("recipient", msg.Recipient))
	return nil
}
