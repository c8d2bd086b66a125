// internal/phone/phone.go
package phone

import (
	"errors"
	"strings"
)

var ErrMalformed = errors.New("malformed phone number")

// Normalize strips separators and rewrites a South African number into the
// 27-prefixed international form. "082 123 4567", "+27821234567" and
// "27821234567" all normalize to "27821234567".
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '+':
			// separators and the plus sign are dropped
		default:
			return "", ErrMalformed
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10 && digits[0] == '0':
		return "27" + digits[1:], nil
	case len(digits) == 11 && strings.HasPrefix(digits, "27"):
		return digits, nil
	case len(digits) == 9:
		return "27" + digits, nil
	default:
		return "", ErrMalformed
	}
}
