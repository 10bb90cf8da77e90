// Package command распознаёт зарезервированные команды во входящем тексте.
package command

import "strings"

// Kind — вид команды.
type Kind int

const (
	None Kind = iota
	Start
	Cancel
	Help
	Status
	ResetMe
)

// String возвращает ключевое слово команды.
func (k Kind) String() string {
	switch k {
	case Start:
		return "start"
	case Cancel:
		return "cancel"
	case Help:
		return "help"
	case Status:
		return "status"
	case ResetMe:
		return "resetme"
	default:
		return "none"
	}
}

// порядок важен: первое совпадение побеждает
var keywords = []Kind{Start, Cancel, Help, Status, ResetMe}

// Recognize возвращает команду, если обрезанный текст в нижнем регистре
// совпадает с ключевым словом или начинается с "<ключевое слово> ".
func Recognize(raw string) (Kind, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return None, false
	}
	for _, k := range keywords {
		kw := k.String()
		if text == kw || strings.HasPrefix(text, kw+" ") {
			return k, true
		}
	}
	return None, false
}
