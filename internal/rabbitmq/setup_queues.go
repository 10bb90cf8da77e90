package rabbitmq

// QueueConfig связывает очередь с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Очередь исходящих сообщений мессенджера.
const (
	OutboundQueue      = "notifications.outbound"
	OutboundRoutingKey = "outbound"
)

// GetNotificationQueues возвращает очереди, которые объявляют бот и отправитель.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: OutboundQueue, RoutingKey: OutboundRoutingKey},
	}
}
