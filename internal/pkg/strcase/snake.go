package strcase

import (
	"strings"
	"unicode"
)

// Snake converts a Go identifier to snake_case, keeping acronyms intact
// (userID -> user_id, OTPCode -> otp_code).
func Snake(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextIsLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
