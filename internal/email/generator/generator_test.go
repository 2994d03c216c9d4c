package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderView struct {
	Code  string `json:"code"`
	Total int64  `json:"total"`
}

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()

	t.Run("RendersFromSubjectAndBody", func(t *testing.T) {
		t.Parallel()

		// Arrange
		g := New()
		vars := map[string]any{
			"fromAddress": `"Mailbite" <noreply@shop.test>`,
			"order":       map[string]any{"code": "ABC123"},
			"name":        "Ana",
			"token":       "t0k",
		}
		body := "Hi {{ name }},\n\n" +
			"[!button|Verify](https://shop.test/verify?token={{ token }})\n\n" +
			"See [our shop](https://shop.test) for details."

		// Act
		got, err := g.Generate(t.Context(), "{{ fromAddress }}", "Order confirmation for #{{ order.code }}", body, vars)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, `"Mailbite" <noreply@shop.test>`, got.From)
		assert.Equal(t, "Order confirmation for #ABC123", got.Subject)
		assert.Contains(t, got.Body, `class="btn"`)
		assert.Contains(t, got.Body, "https://shop.test/verify?token=t0k")
		assert.Contains(t, got.Body, "<html>")
		assert.Contains(t, got.Text, "Hi Ana,")
		assert.Contains(t, got.Text, "our shop (https://shop.test)")
		assert.NotContains(t, got.Text, "verify?token")
	})

	t.Run("FrontMatterPreheaderAndLayout", func(t *testing.T) {
		t.Parallel()

		// Arrange
		g := New()
		body := "---\npreheader: Your code is {{ token }}\nsubject: ignored\n---\nHello"

		// Act
		withLayout, err := g.Generate(t.Context(), "a@shop.test", "Code", body, map[string]any{"token": "42"})
		require.NoError(t, err)
		bare, err := g.Generate(t.Context(), "a@shop.test", "Code", "---\nlayout: none\n---\nHello", nil)

		// Assert
		require.NoError(t, err)
		assert.Contains(t, withLayout.Body, "Your code is 42")
		assert.Equal(t, "Code", withLayout.Subject)
		assert.NotContains(t, withLayout.Text, "preheader")
		assert.NotContains(t, bare.Body, "<html>")
		assert.Contains(t, bare.Body, "<p>Hello</p>")
	})

	t.Run("LeadingHorizontalRuleIsBody", func(t *testing.T) {
		t.Parallel()

		// Act
		got, err := New().Generate(t.Context(), "a@shop.test", "s", "---\n\nThanks for your order, {{ name }}!", map[string]any{"name": "Ana"})

		// Assert
		require.NoError(t, err)
		assert.Contains(t, got.Body, "<hr")
		assert.Contains(t, got.Text, "Thanks for your order, Ana!")
	})

	t.Run("VarsCannotInjectFrontMatter", func(t *testing.T) {
		t.Parallel()

		// Arrange
		vars := map[string]any{"note": "---\nlayout: none\n---"}

		// Act
		got, err := New().Generate(t.Context(), "a@shop.test", "s", "{{ note }}\nHello", vars)

		// Assert
		require.NoError(t, err)
		assert.Contains(t, got.Body, "<html>")
	})

	t.Run("CustomAndUnknownLayout", func(t *testing.T) {
		t.Parallel()

		// Arrange
		g := New(WithLayouts(map[string]string{"plain": "<main>{{ .Content }}</main>"}))

		// Act
		custom, err := g.Generate(t.Context(), "a@shop.test", "s", "---\nlayout: plain\n---\nHi", nil)
		require.NoError(t, err)
		_, unknownErr := g.Generate(t.Context(), "a@shop.test", "s", "---\nlayout: fancy\n---\nHi", nil)

		// Assert
		assert.True(t, strings.HasPrefix(custom.Body, "<main><p>Hi</p>"))
		assert.ErrorIs(t, unknownErr, ErrUnknownLayout)
	})

	t.Run("InlinesPartials", func(t *testing.T) {
		t.Parallel()

		// Arrange
		g := New(WithPartials(map[string]string{
			"footer":    "Thanks, {{ shopName }}. {% render 'signature' %}",
			"signature": "The team",
		}))

		// Act
		got, err := g.Generate(t.Context(), "a@shop.test", "s", "Hi\n\n{% include 'footer' %}", map[string]any{"shopName": "Mailbite"})
		require.NoError(t, err)
		_, missingErr := g.Generate(t.Context(), "a@shop.test", "s", "{% include 'header' %}", nil)

		// Assert
		assert.Contains(t, got.Text, "Thanks, Mailbite. The team")
		assert.ErrorIs(t, missingErr, ErrUnknownPartial)
	})

	t.Run("SelfIncludingPartialFails", func(t *testing.T) {
		t.Parallel()

		// Arrange
		g := New(WithPartials(map[string]string{"loop": "x {% include 'loop' %}"}))

		// Act
		_, err := g.Generate(t.Context(), "a@shop.test", "s", "{% include 'loop' %}", nil)

		// Assert
		assert.ErrorIs(t, err, ErrRender)
	})

	t.Run("SanitizesBody", func(t *testing.T) {
		t.Parallel()

		// Act
		got, err := New().Generate(t.Context(), "a@shop.test", "s", "<script>alert(1)</script>\n\nHello {{ name }}", map[string]any{"name": "<b>Ana</b>"})

		// Assert
		require.NoError(t, err)
		assert.NotContains(t, got.Body, "<script>")
		assert.Contains(t, got.Text, "Hello Ana")
	})

	t.Run("StructAccessIsOptIn", func(t *testing.T) {
		t.Parallel()

		// Arrange
		vars := map[string]any{"order": orderView{Code: "ABC", Total: 1250}}
		const subject = "[{{ order.code }}][{{ order.Code }}]"

		// Act
		plain, err := New().Generate(t.Context(), "a@shop.test", subject, "x", vars)
		require.NoError(t, err)
		live, err := New(WithStructAccess(true)).Generate(t.Context(), "a@shop.test", subject, "x", vars)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "[ABC][]", plain.Subject)
		assert.Equal(t, "[][ABC]", live.Subject)
	})

	t.Run("FiltersInTemplates", func(t *testing.T) {
		t.Parallel()

		// Arrange
		vars := map[string]any{"placedAt": "2026-03-04T10:00:00Z", "total": 1250}

		// Act
		got, err := New().Generate(t.Context(), "a@shop.test",
			"{{ placedAt | formatDate }} / {{ placedAt | formatDate: \"Jan 2006\" }} / {{ total | formatMoney }}", "x", vars)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "2026-03-04 / Mar 2026 / 12.50", got.Subject)
	})

	t.Run("RendersTablesWithAlignment", func(t *testing.T) {
		t.Parallel()

		// Arrange
		g := New()
		body := "| Product | Qty |\n| --- | ---: |\n{% for l in lines -%}\n| {{ l.name }} | {{ l.qty }} |\n{% endfor %}"
		vars := map[string]any{"lines": []map[string]any{{"name": "Cup", "qty": 2}, {"name": "Beans", "qty": 1}}}

		// Act
		got, err := g.Generate(t.Context(), "a@shop.test", "Order", body, vars)

		// Assert
		require.NoError(t, err)
		assert.Contains(t, got.Body, "<table>")
		assert.Contains(t, got.Body, `<td align="right">2</td>`)
		assert.Contains(t, got.Body, "<td>Beans</td>")
	})

	t.Run("BadTemplateSyntax", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := New().Generate(t.Context(), "a@shop.test", "{% if %}", "x", nil)

		// Assert
		assert.ErrorIs(t, err, ErrRender)
	})
}
