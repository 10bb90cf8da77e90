package momo

import (
	"bytes"
	"encoding/json"
)

// Party — плательщик в терминах шлюза.
type Party struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

// requestToPayBody — тело запроса requesttopay.
type requestToPayBody struct {
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	ExternalID   string `json:"externalId"`
	Payer        Party  `json:"payer"`
	PayerMessage string `json:"payerMessage"`
	PayeeNote    string `json:"payeeNote"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Reason — причина отказа. Шлюз присылает её строкой или объектом {code, message}.
type Reason struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// UnmarshalJSON принимает оба формата причины.
func (r *Reason) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Reason{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Reason{Message: s}
		return nil
	}
	type plain Reason
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Reason(p)
	return nil
}

// String возвращает человекочитаемую причину.
func (r Reason) String() string {
	switch {
	case r.Message != "" && r.Code != "":
		return r.Code + ": " + r.Message
	case r.Message != "":
		return r.Message
	default:
		return r.Code
	}
}

// Transaction — состояние платежа: ответ GetStatus и тело колбэка.
type Transaction struct {
	ReferenceID            string  `json:"referenceId,omitempty"`
	FinancialTransactionID string  `json:"financialTransactionId,omitempty"`
	ExternalID             string  `json:"externalId,omitempty"`
	Amount                 string  `json:"amount,omitempty"`
	Currency               string  `json:"currency,omitempty"`
	Payer                  Party   `json:"payer"`
	PayerMessage           string  `json:"payerMessage,omitempty"`
	PayeeNote              string  `json:"payeeNote,omitempty"`
	Status                 string  `json:"status"`
	Reason                 *Reason `json:"reason,omitempty"`
}

// ReasonText возвращает причину или пустую строку.
func (t Transaction) ReasonText() string {
	if t.Reason == nil {
		return ""
	}
	return t.Reason.String()
}
