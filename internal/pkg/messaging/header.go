package messaging

import (
	"context"

	"go.opentelemetry.io/otel"
)

// HeaderCorrelationID carries the request correlation id across a broker hop.
const HeaderCorrelationID = "cID"

// HeaderValue returns the first header value stored under key.
func HeaderValue(headers []Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// headerCarrier adapts a header list to propagation.TextMapCarrier.
type headerCarrier struct{ headers *[]Header }

func (c headerCarrier) Get(key string) string { return HeaderValue(*c.headers, key) }

func (c headerCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, len(*c.headers))
	for i, h := range *c.headers {
		keys[i] = h.Key
	}
	return keys
}

// InjectTrace adds the span context of ctx (traceparent, baggage) to
// headers using the global propagator.
func InjectTrace(ctx context.Context, headers []Header) []Header {
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{headers: &headers})
	return headers
}

// ExtractTrace returns ctx carrying the remote span context found in
// headers, if any.
func ExtractTrace(ctx context.Context, headers []Header) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, headerCarrier{headers: &headers})
}
