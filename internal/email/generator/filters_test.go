package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.March, 4, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  any
		layout string
		want   string
	}{
		{name: "Time", value: at, layout: "02 Jan 2006", want: "04 Mar 2026"},
		{name: "TimePointer", value: &at, want: "2026-03-04"},
		{name: "RFC3339String", value: "2026-03-04T10:30:00Z", layout: "15:04", want: "10:30"},
		{name: "DateString", value: "2026-03-04", layout: "Jan 2", want: "Mar 4"},
		{name: "UnixSeconds", value: int64(0), want: "1970-01-01"},
		{name: "Nil", value: nil, want: ""},
		{name: "Unparseable", value: "soon", want: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatDate(tt.value, tt.layout))
		})
	}
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	t.Run("PlainDecimal", func(t *testing.T) {
		assert.Equal(t, "12.50", FormatMoney(1250, "", ""))
		assert.Equal(t, "12.50", FormatMoney(float64(1250), "USD", ""))
		assert.Equal(t, "0.05", FormatMoney("5", "", "en"))
	})

	t.Run("CurrencyAndLocale", func(t *testing.T) {
		got := FormatMoney(int64(1250), "USD", "en")
		assert.Contains(t, got, "$")
		assert.Contains(t, got, "12.50")
	})

	t.Run("InvalidCurrencyFallsBack", func(t *testing.T) {
		assert.Equal(t, "12.50", FormatMoney(1250, "NOPE", "en"))
	})

	t.Run("NotANumber", func(t *testing.T) {
		assert.Equal(t, "free", FormatMoney("free", "", ""))
	})
}
