package instrument

import (
	"encoding/json"
	"log/slog"
	"net/mail"
	"strings"
)

const masked = "***"

// Masker hides secrets and shortens email addresses in log payloads. Keys
// match regardless of case, underscores and hyphens, so "smtp_password"
// also covers "smtpPassword".
type Masker struct {
	secret map[string]struct{}
	email  map[string]struct{}
}

// NewMasker masks the values of secretFields entirely and the values of
// emailFields with MaskEmail.
func NewMasker(secretFields, emailFields []string) *Masker {
	return &Masker{secret: keySet(secretFields), email: keySet(emailFields)}
}

func keySet(fields []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if k := normalizeKey(f); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

func normalizeKey(k string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.ToLower(k))
}

// Empty reports whether the masker would leave everything untouched.
func (m *Masker) Empty() bool {
	return m == nil || (len(m.secret) == 0 && len(m.email) == 0)
}

// Value returns v with the configured fields masked. Maps, slices and JSON
// text are walked recursively.
func (m *Masker) Value(key string, v any) any {
	k := normalizeKey(key)
	if _, ok := m.secret[k]; ok {
		return masked
	}
	if _, ok := m.email[k]; ok {
		if s, isStr := v.(string); isStr {
			return MaskEmail(s)
		}
	}

	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k2, v2 := range val {
			out[k2] = m.Value(k2, v2)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k2, v2 := range val {
			out[k2] = m.Value(k2, v2)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v2 := range val {
			out[i] = m.Value(key, v2)
		}
		return out
	case string:
		if s, ok := m.JSONText([]byte(val)); ok {
			return s
		}
	case []byte:
		if s, ok := m.JSONText(val); ok {
			return s
		}
	}
	return v
}

// JSON decodes payload and masks it. ok is false when payload is not a
// JSON object or array.
func (m *Masker) JSON(payload []byte) (any, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return nil, false
	}
	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, false
	}
	return m.Value("", body), true
}

// JSONText is JSON re-encoded as text.
func (m *Masker) JSONText(payload []byte) (string, bool) {
	body, ok := m.JSON(payload)
	if !ok {
		return "", false
	}
	out, err := json.Marshal(body)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// Attr masks a log attribute.
func (m *Masker) Attr(a slog.Attr) slog.Attr {
	k := normalizeKey(a.Key)
	if _, ok := m.secret[k]; ok {
		return slog.String(a.Key, masked)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = m.Attr(ga)
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindString:
		a.Value = slog.AnyValue(m.Value(a.Key, a.Value.String()))
	case slog.KindAny:
		if v := a.Value.Any(); v != nil {
			a.Value = slog.AnyValue(m.Value(a.Key, v))
		}
	}
	return a
}

// MaskEmail keeps the first letter of the local part and the domain of
// every address in a comma separated list: "ana@example.com" becomes
// "a**@example.com". Text that does not parse as addresses is masked
// whole.
func MaskEmail(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	list, err := mail.ParseAddressList(s)
	if err != nil {
		return masked
	}

	out := make([]string, len(list))
	for i, a := range list {
		local, domain, _ := strings.Cut(a.Address, "@")
		if len(local) > 1 {
			local = local[:1] + strings.Repeat("*", len(local)-1)
		}
		out[i] = local + "@" + domain
	}
	return strings.Join(out, ", ")
}
