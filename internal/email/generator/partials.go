package generator

import (
	"fmt"
	"regexp"
)

// maxPartialDepth bounds nested includes so a partial including itself
// cannot loop forever.
const maxPartialDepth = 8

var partialTag = regexp.MustCompile(`\{%-?\s*(?:include|render)\s+['"]([^'"]+)['"]\s*-?%\}`)

func (g *Generator) inlinePartials(source string) (string, error) {
	for depth := 0; ; depth++ {
		if !partialTag.MatchString(source) {
			return source, nil
		}
		if depth == maxPartialDepth {
			return "", fmt.Errorf("%w: partials nested deeper than %d", ErrRender, maxPartialDepth)
		}

		var missing string
		source = partialTag.ReplaceAllStringFunc(source, func(tag string) string {
			name := partialTag.FindStringSubmatch(tag)[1]
			content, ok := g.opts.partials[name]
			if !ok && missing == "" {
				missing = name
			}
			return content
		})
		if missing != "" {
			return "", fmt.Errorf("%w: %s", ErrUnknownPartial, missing)
		}
	}
}
