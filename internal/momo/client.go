// Package momo — клиент коллекций мобильного платёжного шлюза:
// получение токена, requesttopay и запрос статуса.
package momo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/subscription-bot/internal/config"
)

// HeaderReferenceID — заголовок с ключом корреляции платежа.
const HeaderReferenceID = "X-Reference-Id"

const tokenCacheKey = "momo:token:"

// ErrNotFound возвращается, когда шлюз не знает referenceId.
var ErrNotFound = errors.New("transaction not found")

// APIError — неуспешный ответ шлюза.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway responded %d: %s", e.StatusCode, e.Body)
}

// TokenStore хранит токен доступа между процессами.
type TokenStore interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// SubmitRequest — параметры запроса на списание.
type SubmitRequest struct {
	ReferenceID  string
	PhoneNumber  string
	Amount       int64
	PayerMessage string
}

// SubmitResult — ответ на принятый запрос.
// Completed == true означает, что песочница считает платёж уже проведённым.
type SubmitResult struct {
	ExternalID string
	Completed  bool
}

// Client обращается к API коллекций.
type Client struct {
	cfg        config.Gateway
	httpClient *http.Client
	tokens     TokenStore
}

// NewClient создаёт клиент шлюза. tokens может быть nil: тогда токен запрашивается на каждый вызов.
func NewClient(cfg config.Gateway, tokens TokenStore) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
	}
}

// Submit отправляет requesttopay на номер плательщика. externalId генерируется клиентом.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	const op = "momo.Submit"

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	externalID := uuid.NewString()
	body := requestToPayBody{
		Amount:       strconv.FormatInt(req.Amount, 10),
		Currency:     c.cfg.Currency,
		ExternalID:   externalID,
		Payer:        Party{PartyIDType: "MSISDN", PartyID: req.PhoneNumber},
		PayerMessage: req.PayerMessage,
		PayeeNote:    req.PayerMessage,
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/collection/v1_0/requesttopay", body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set(HeaderReferenceID, req.ReferenceID)
	httpReq.Header.Set("X-Target-Environment", c.cfg.TargetEnvironment)
	if c.cfg.CallbackURL != "" {
		httpReq.Header.Set("X-Callback-Url", c.cfg.CallbackURL)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%s: %w", op, readAPIError(resp))
	}
	return &SubmitResult{
		ExternalID: externalID,
		Completed:  c.cfg.SandboxAutoComplete,
	}, nil
}

// GetStatus возвращает текущее состояние платежа. Используется только для диагностики.
func (c *Client) GetStatus(ctx context.Context, referenceID string) (*Transaction, error) {
	const op = "momo.GetStatus"

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	httpReq, err := c.newRequest(ctx, http.MethodGet, "/collection/v1_0/requesttopay/"+referenceID, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-Target-Environment", c.cfg.TargetEnvironment)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w", op, readAPIError(resp))
	}

	var tx Transaction
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if tx.ReferenceID == "" {
		tx.ReferenceID = referenceID
	}
	return &tx, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	const op = "momo.accessToken"
	key := tokenCacheKey + c.cfg.APIUser

	if c.tokens != nil {
		var cached string
		found, err := c.tokens.Get(ctx, key, &cached)
		if err == nil && found && cached != "" {
			return cached, nil
		}
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/collection/token/", nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	httpReq.SetBasicAuth(c.cfg.APIUser, c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: %w", op, readAPIError(resp))
	}
	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%s: empty access token", op)
	}

	// токен кэшируется с запасом в минуту до истечения
	if ttl := time.Duration(tr.ExpiresIn)*time.Second - time.Minute; c.tokens != nil && ttl > 0 {
		_ = c.tokens.Set(ctx, key, tr.AccessToken, ttl)
	}
	return tr.AccessToken, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.SubscriptionKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
