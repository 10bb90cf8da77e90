package models

// InboundEvent — входящее событие от мессенджера.
type InboundEvent struct {
	SenderIdentity string          `validate:"required,max=128"`
	Message        *InboundMessage `validate:"required_without=Postback"`
	Postback       *Postback       `validate:"required_without=Message"`
}

// InboundMessage — текстовое сообщение.
type InboundMessage struct {
	MID  string
	Text string `validate:"max=4096"`
}

// Postback — нажатие на кнопку.
type Postback struct {
	MID     string
	Payload string `validate:"required,max=1000"`
}

// DedupKey возвращает ключ для отбрасывания повторных доставок.
// Пустая строка — событие без идентификатора.
func (e InboundEvent) DedupKey() string {
	switch {
	case e.Message != nil && e.Message.MID != "":
		return e.Message.MID
	case e.Postback != nil && e.Postback.MID != "":
		return e.Postback.MID
	}
	return ""
}

// Button — кнопка с полезной нагрузкой postback.
type Button struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// OutboundMessage — исходящее сообщение в очереди уведомлений.
type OutboundMessage struct {
	Recipient string   `json:"recipient"`
	Text      string   `json:"text"`
	Buttons   []Button `json:"buttons,omitempty"`
}
