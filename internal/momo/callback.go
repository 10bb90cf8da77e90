package momo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Callback — разобранное уведомление шлюза.
type Callback struct {
	Transaction
	Raw []byte
}

// ParseCallback разбирает тело колбэка. Ссылка из заголовка X-Reference-Id
// равноправна ссылке из тела и заполняет её, если в теле пусто.
func ParseCallback(body []byte, header http.Header) (*Callback, error) {
	const op = "momo.ParseCallback"

	var tx Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tx.ReferenceID = strings.TrimSpace(tx.ReferenceID)
	if tx.ReferenceID == "" && header != nil {
		tx.ReferenceID = strings.TrimSpace(header.Get(HeaderReferenceID))
	}
	tx.ExternalID = strings.TrimSpace(tx.ExternalID)
	tx.Status = strings.ToUpper(strings.TrimSpace(tx.Status))

	return &Callback{Transaction: tx, Raw: body}, nil
}
