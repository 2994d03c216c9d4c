package event

const (
	DefaultChannelCode  = "__default_channel__"
	DefaultLanguageCode = "en"
)

// APIType names the API surface a request arrived through.
type APIType string

const (
	APITypeShop  APIType = "shop"
	APITypeAdmin APIType = "admin"
)

// RequestContext is the plain-data request scope an event was raised in.
type RequestContext struct {
	ChannelCode  string  `json:"channelCode"`
	ChannelToken string  `json:"channelToken,omitempty"`
	LanguageCode string  `json:"languageCode"`
	ActiveUserID int64   `json:"activeUserId,omitempty"`
	IsAuthorized bool    `json:"isAuthorized"`
	APIType      APIType `json:"apiType"`
}

// DefaultRequestContext is used when an event is raised outside a request.
func DefaultRequestContext() RequestContext {
	return RequestContext{
		ChannelCode:  DefaultChannelCode,
		LanguageCode: DefaultLanguageCode,
		APIType:      APITypeAdmin,
	}
}

// Normalize fills empty channel and language codes with defaults.
func (rc RequestContext) Normalize() RequestContext {
	if rc.ChannelCode == "" {
		rc.ChannelCode = DefaultChannelCode
	}
	if rc.LanguageCode == "" {
		rc.LanguageCode = DefaultLanguageCode
	}
	return rc
}
