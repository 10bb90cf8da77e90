// Package messenger — работа с платформой обмена сообщениями: отправка
// через Send API, разбор и проверка подписи входящих вебхуков.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/magabrotheeeer/subscription-bot/internal/config"
	"github.com/magabrotheeeer/subscription-bot/internal/models"
)

// MaxButtons — ограничение платформы на число кнопок в шаблоне.
const MaxButtons = 3

// ErrRejected — Send API отклонил сообщение с ответом 4xx, повтор не поможет.
var ErrRejected = errors.New("message rejected by send api")

// Client отправляет сообщения через Send API.
type Client struct {
	apiURL     string
	pageToken  string
	httpClient *http.Client
}

// NewClient создаёт клиент Send API.
func NewClient(cfg config.Messenger) *Client {
	return &Client{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		pageToken:  cfg.PageToken,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type recipient struct {
	ID string `json:"id"`
}

type postbackButton struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

type templatePayload struct {
	TemplateType string           `json:"template_type"`
	Text         string           `json:"text"`
	Buttons      []postbackButton `json:"buttons"`
}

type attachment struct {
	Type    string          `json:"type"`
	Payload templatePayload `json:"payload"`
}

type message struct {
	Text       string      `json:"text,omitempty"`
	Attachment *attachment `json:"attachment,omitempty"`
}

type sendRequest struct {
	Recipient     recipient `json:"recipient"`
	MessagingType string    `json:"messaging_type"`
	Message       message   `json:"message"`
}

// SendText отправляет простой текст.
func (c *Client) SendText(ctx context.Context, recipientID, text string) error {
	return c.Deliver(ctx, models.OutboundMessage{Recipient: recipientID, Text: text})
}

// SendButtons отправляет текст с кнопками-постбэками.
func (c *Client) SendButtons(ctx context.Context, recipientID, text string, buttons []models.Button) error {
	return c.Deliver(ctx, models.OutboundMessage{Recipient: recipientID, Text: text, Buttons: buttons})
}

// Deliver отправляет готовое исходящее сообщение.
func (c *Client) Deliver(ctx context.Context, msg models.OutboundMessage) error {
	const op = "messenger.Deliver"

	if msg.Recipient == "" {
		return fmt.Errorf("%s: empty recipient", op)
	}
	if len(msg.Buttons) > MaxButtons {
		return fmt.Errorf("%s: %d buttons exceed limit of %d", op, len(msg.Buttons), MaxButtons)
	}

	req := sendRequest{
		Recipient:     recipient{ID: msg.Recipient},
		MessagingType: "RESPONSE",
	}
	if len(msg.Buttons) == 0 {
		req.Message.Text = msg.Text
	} else {
		buttons := make([]postbackButton, 0, len(msg.Buttons))
		for _, b := range msg.Buttons {
			buttons = append(buttons, postbackButton{Type: "postback", Title: b.Title, Payload: b.Payload})
		}
		req.Message.Attachment = &attachment{
			Type: "template",
			Payload: templatePayload{
				TemplateType: "button",
				Text:         msg.Text,
				Buttons:      buttons,
			},
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	endpoint := c.apiURL + "/me/messages?access_token=" + url.QueryEscape(c.pageToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("%s: %w: %d %s", op, ErrRejected, resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return fmt.Errorf("%s: send api responded %d: %s", op, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
