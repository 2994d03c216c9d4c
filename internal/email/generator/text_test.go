package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	t.Parallel()

	t.Run("LinksButtonsAndImages", func(t *testing.T) {
		t.Parallel()

		// Arrange
		in := `<p>Hello <b>Ana</b></p>` +
			`<p>Visit <a href="https://shop.test">our shop</a> today.</p>` +
			`<p><a class="btn" href="https://shop.test/verify">Verify</a></p>` +
			`<img src="logo.png">`

		// Act
		got := HTMLToText(in, DefaultTextWidth)

		// Assert
		assert.Equal(t, "Hello Ana\n\nVisit our shop (https://shop.test) today.\n\n[image]", got)
	})

	t.Run("LinkSameAsText", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Write to help@shop.test", HTMLToText(`Write to <a href="mailto:help@shop.test">help@shop.test</a>`, 0))
	})

	t.Run("Lists", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "- One\n- Two", HTMLToText(`<ul><li>One</li><li>Two</li></ul>`, 0))
	})

	t.Run("SkipsHeadAndStyle", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Body", HTMLToText(`<style>p{color:red}</style><p>Body</p>`, 0))
	})

	t.Run("Wrapping", func(t *testing.T) {
		t.Parallel()

		// Arrange
		in := "<p>" + strings.Repeat("word ", 30) + "</p>"

		// Act
		wrapped := HTMLToText(in, 20)
		unwrapped := HTMLToText(in, 0)

		// Assert
		for _, line := range strings.Split(wrapped, "\n") {
			assert.LessOrEqual(t, len(line), 20)
		}
		assert.Greater(t, strings.Count(wrapped, "\n"), 1)
		assert.NotContains(t, unwrapped, "\n")
	})
}
