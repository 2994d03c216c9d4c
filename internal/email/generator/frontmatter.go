package generator

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidFrontMatter = errors.New("generator: invalid front matter")

const fmDelimiter = "---"

type document struct {
	Metadata map[string]any
	Body     string
}

// parseFrontMatter splits an optional YAML header from the body. The header
// is only recognized when the first line is "---" and a later line is "---";
// anything else, a leading horizontal rule included, is body. Only "layout"
// and "preheader" are interpreted; the subject always comes from the handler
// configuration.
func parseFrontMatter(s string) (document, error) {
	plain := document{Metadata: map[string]any{}, Body: s}

	first, rest, ok := strings.Cut(strings.TrimLeft(s, "\r\n"), "\n")
	if !ok || !isDelimiter(first) {
		return plain, nil
	}

	offset := 0
	for _, line := range strings.SplitAfter(rest, "\n") {
		if !isDelimiter(line) {
			offset += len(line)
			continue
		}

		header := rest[:offset]
		meta := map[string]any{}
		if strings.TrimSpace(header) != "" {
			if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
				return document{}, fmt.Errorf("%w: %w", ErrInvalidFrontMatter, err)
			}
		}
		return document{Metadata: meta, Body: rest[offset+len(line):]}, nil
	}

	return plain, nil
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r\n") == fmDelimiter
}

func (d document) layout() string {
	if s, ok := d.Metadata["layout"].(string); ok && s != "" {
		return s
	}
	return defaultLayoutName
}

func (d document) preheader() string {
	s, _ := d.Metadata["preheader"].(string)
	return s
}
