package orders

import (
	"errors"
	"strings"
)

// DefaultCountryCode is assumed for bare 10-digit numbers.
const DefaultCountryCode = "1"

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone converts raw into E.164. An empty input yields an empty
// result and no error.
func NormalizePhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	var b strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case strings.HasPrefix(trimmed, "+") && len(digits) >= 8 && len(digits) <= 15:
		return "+" + digits, nil
	case len(digits) == 10:
		return "+" + DefaultCountryCode + digits, nil
	case len(digits) == 11 && strings.HasPrefix(digits, DefaultCountryCode):
		return "+" + digits, nil
	default:
		return "", ErrInvalidPhone
	}
}
