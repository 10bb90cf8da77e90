// Package assistant получает ответы модели через OpenAI-совместимый
// эндпоинт chat/completions.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/magabrotheeeer/subscription-bot/internal/config"
)

const defaultSystemPrompt = "You are a helpful assistant. Answer concisely."

// ErrEmptyAnswer возвращается, когда модель не вернула текста.
var ErrEmptyAnswer = errors.New("empty answer")

// Client вызывает модель.
type Client struct {
	baseURL      string
	apiKey       string
	model        string
	systemPrompt string
	maxTokens    int
	httpClient   *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewClient создаёт клиент модели.
func NewClient(cfg config.Assistant) *Client {
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		systemPrompt: prompt,
		maxTokens:    cfg.MaxTokens,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Generate возвращает ответ модели на prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "assistant.Generate"

	if c.apiKey == "" {
		return "", fmt.Errorf("%s: api key not set", op)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("%s: api error (%d): %s", op, resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("%s: api error (%d): %s", op, resp.StatusCode, string(respBody))
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyAnswer)
	}
	answer := strings.TrimSpace(chat.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyAnswer)
	}
	return answer, nil
}
