package sender

import (
	"context"
	"strings"

	"github.com/shandysiswandi/mailbite/internal/shared/event"
)

// TransportResolver picks the transport for an email from the request
// context it was produced in.
type TransportResolver func(ctx context.Context, rc event.RequestContext) (Transport, error)

// Static always returns t.
func Static(t Transport) TransportResolver {
	return func(context.Context, event.RequestContext) (Transport, error) {
		return t, nil
	}
}

// ByChannel returns the transport configured for the request channel, or
// def when the channel has none. Channel codes match case-insensitively
// since config keys arrive lowercased.
func ByChannel(def Transport, channels map[string]Transport) TransportResolver {
	byCode := make(map[string]Transport, len(channels))
	for code, t := range channels {
		byCode[strings.ToLower(code)] = t
	}

	return func(_ context.Context, rc event.RequestContext) (Transport, error) {
		if t, ok := byCode[strings.ToLower(rc.ChannelCode)]; ok {
			return t, nil
		}
		return def, nil
	}
}
