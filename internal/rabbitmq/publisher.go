package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// PublishMessage публикует сообщение в RabbitMQ в виде JSON.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует сообщения в одну очередь через обменник.
type Publisher struct {
	ch         *amqp.Channel
	routingKey string
}

// NewPublisher создаёт Publisher для ключа маршрутизации routingKey.
func NewPublisher(ch *amqp.Channel, routingKey string) *Publisher {
	return &Publisher{ch: ch, routingKey: routingKey}
}

// Publish отправляет message в очередь.
func (p *Publisher) Publish(message any) error {
	return PublishMessage(p.ch, Exchange, p.routingKey, message)
}
