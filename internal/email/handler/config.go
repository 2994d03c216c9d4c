package handler

// DefaultCode in a TemplateConfig channel or language matches any value.
const DefaultCode = "default"

// TemplateConfig overrides the subject and template file for a channel and
// language.
type TemplateConfig struct {
	ChannelCode  string
	LanguageCode string
	TemplateFile string
	Subject      string
}

func (c TemplateConfig) channelMatches(channelCode string) bool {
	return c.ChannelCode == channelCode || c.ChannelCode == DefaultCode
}

// BestConfiguration picks the most specific template config. An exact
// language match wins over a "default" language entry; within each tier an
// exact channel beats a "default" channel, then registration order decides.
func (h *Handler[E, V]) BestConfiguration(channelCode, languageCode string) (TemplateConfig, bool) {
	for _, lang := range []string{languageCode, DefaultCode} {
		var wildcard *TemplateConfig
		for i := range h.templates {
			c := &h.templates[i]
			if c.LanguageCode != lang || !c.channelMatches(channelCode) {
				continue
			}
			if c.ChannelCode == channelCode {
				return *c, true
			}
			if wildcard == nil {
				wildcard = c
			}
		}
		if wildcard != nil {
			return *wildcard, true
		}
	}
	return TemplateConfig{}, false
}
