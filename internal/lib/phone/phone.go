// Package phone нормализует и проверяет номера мобильных телефонов.
package phone

import (
	"errors"
	"strings"
)

// ErrInvalid возвращается для строк, не похожих на мобильный номер.
var ErrInvalid = errors.New("invalid mobile number")

const (
	countryCode     = "251"
	subscriberLen   = 9
	trunkPrefix     = "0"
	internationalPx = "+"
)

// Normalize приводит номер к формату MSISDN (251XXXXXXXXX).
// Принимаются 09XXXXXXXX, 07XXXXXXXX, 9XXXXXXXX, 2519XXXXXXXX и +2519XXXXXXXX,
// допускаются пробелы, дефисы и скобки.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return "", ErrInvalid
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, countryCode) && len(digits) == len(countryCode)+subscriberLen:
		digits = digits[len(countryCode):]
	case strings.HasPrefix(digits, trunkPrefix) && len(digits) == subscriberLen+1:
		digits = digits[1:]
	}

	if len(digits) != subscriberLen || (digits[0] != '9' && digits[0] != '7') {
		return "", ErrInvalid
	}
	return countryCode + digits, nil
}

// Mask скрывает середину номера для логов и сообщений.
func Mask(msisdn string) string {
	if len(msisdn) < 7 {
		return msisdn
	}
	return msisdn[:len(msisdn)-7] + strings.Repeat("*", 4) + msisdn[len(msisdn)-3:]
}

// Local возвращает номер в привычном местном виде (09XXXXXXXX).
func Local(msisdn string) string {
	if strings.HasPrefix(msisdn, countryCode) {
		return trunkPrefix + msisdn[len(countryCode):]
	}
	return strings.TrimPrefix(msisdn, internationalPx)
}
