package messenger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/subscription-bot/internal/models"
)

// HeaderSignature — заголовок с HMAC-SHA256 подписью тела вебхука.
const HeaderSignature = "X-Hub-Signature-256"

// WebhookPayload — тело POST-запроса вебхука.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry — пачка событий одной страницы.
type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging"`
}

// Participant — отправитель или получатель события.
type Participant struct {
	ID string `json:"id"`
}

// Messaging — одно событие от пользователя.
type Messaging struct {
	Sender    Participant `json:"sender"`
	Recipient Participant `json:"recipient"`
	Timestamp int64       `json:"timestamp"`
	Message   *struct {
		MID    string `json:"mid"`
		Text   string `json:"text"`
		IsEcho bool   `json:"is_echo"`
	} `json:"message,omitempty"`
	Postback *struct {
		MID     string `json:"mid"`
		Title   string `json:"title"`
		Payload string `json:"payload"`
	} `json:"postback,omitempty"`
}

// ParseEvents разбирает тело вебхука в доменные события.
// Эхо собственных сообщений и события без отправителя пропускаются.
func ParseEvents(body []byte) ([]models.InboundEvent, error) {
	const op = "messenger.ParseEvents"

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if payload.Object != "" && payload.Object != "page" {
		return nil, fmt.Errorf("%s: unexpected object %q", op, payload.Object)
	}

	var events []models.InboundEvent
	for _, entry := range payload.Entry {
		for _, m := range entry.Messaging {
			if m.Sender.ID == "" {
				continue
			}
			ev := models.InboundEvent{SenderIdentity: m.Sender.ID}
			switch {
			case m.Postback != nil:
				ev.Postback = &models.Postback{MID: m.Postback.MID, Payload: m.Postback.Payload}
			case m.Message != nil && !m.Message.IsEcho:
				ev.Message = &models.InboundMessage{MID: m.Message.MID, Text: m.Message.Text}
			default:
				continue
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

// VerifySignature сверяет подпись sha256=<hex> с HMAC тела на секрете приложения.
func VerifySignature(appSecret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign возвращает значение заголовка подписи для тела.
func Sign(appSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
