package generator

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/osteele/liquid"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultDateLayout is used by formatDate when no layout is given.
const DefaultDateLayout = "2006-01-02"

func registerFilters(e *liquid.Engine) {
	// {{ order.placedAt | formatDate: "02 Jan 2006" }}
	e.RegisterFilter("formatDate", func(value any, layout func(string) string) string {
		return FormatDate(value, layout(DefaultDateLayout))
	})

	// {{ order.total | formatMoney: order.currencyCode, languageCode }}
	e.RegisterFilter("formatMoney", func(amount any, code func(string) string, locale func(string) string) string {
		return FormatMoney(amount, code(""), locale(""))
	})
}

// FormatDate formats value with a Go reference layout. value may be a
// time.Time, an RFC 3339 or date-only string, or unix seconds. Values that
// cannot be read as a time are printed as is.
func FormatDate(value any, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}

	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.Format(layout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format(layout)
	case string:
		for _, l := range []string{time.RFC3339, DefaultDateLayout} {
			if t, err := time.Parse(l, strings.TrimSpace(v)); err == nil {
				return t.Format(layout)
			}
		}
		return v
	}

	if secs, ok := toFloat(value); ok {
		return time.Unix(int64(secs), 0).UTC().Format(layout)
	}
	return fmt.Sprint(value)
}

// FormatMoney divides a minor-unit amount by 100. When both an ISO 4217
// currency code and a locale are supplied the result is formatted for that
// locale, otherwise it is a plain two-decimal number.
func FormatMoney(amount any, currencyCode, locale string) string {
	minor, ok := toFloat(amount)
	if !ok {
		return fmt.Sprint(amount)
	}
	major := minor / 100

	if currencyCode == "" || locale == "" {
		return strconv.FormatFloat(major, 'f', 2, 64)
	}

	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return strconv.FormatFloat(major, 'f', 2, 64)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return strconv.FormatFloat(major, 'f', 2, 64)
	}

	return message.NewPrinter(tag).Sprint(currency.Symbol(unit.Amount(major)))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
