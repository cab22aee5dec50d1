package httpx

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const bearerScheme = "bearer"

// BearerToken strips a case-insensitive "Bearer" scheme and the whitespace
// run after it from an Authorization header value. Values without the
// scheme, without whitespace after it, or with nothing left are rejected
// rather than passed through.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerScheme) {
		return "", false
	}
	if !strings.EqualFold(header[:len(bearerScheme)], bearerScheme) {
		return "", false
	}

	rest := header[len(bearerScheme):]
	if r, _ := utf8.DecodeRuneInString(rest); !unicode.IsSpace(r) {
		return "", false
	}

	token := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if token == "" {
		return "", false
	}
	return token, true
}
