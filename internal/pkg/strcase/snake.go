package strcase

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// words splits s at '_', '-', spaces and case boundaries. An initialism
// stays one word: "HTTPServer" is "HTTP", "Server".
func words(s string) []string {
	var (
		out []string
		cur []rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || nextLower {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()

	return out
}

// ToLowerSnake converts field names such as "userID" to "user_id".
func ToLowerSnake(s string) string {
	return strings.ToLower(strings.Join(words(s), "_"))
}

// ToLowerCamel converts config keys such as "from_address" to
// "fromAddress", the form templates see.
func ToLowerCamel(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i, w := range words(s) {
		w = strings.ToLower(w)
		if i > 0 {
			r, size := utf8.DecodeRuneInString(w)
			b.WriteRune(unicode.ToUpper(r))
			w = w[size:]
		}
		b.WriteString(w)
	}

	return b.String()
}
