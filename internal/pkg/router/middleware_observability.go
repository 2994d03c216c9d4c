package router

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/mailbite/internal/pkg/config"
	"github.com/shandysiswandi/mailbite/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

// maskedBody renders a JSON or form body for the access log. Other media
// types, such as rendered emails and raw messages, are omitted.
func maskedBody(m *instrument.Masker, contentType string, body []byte, truncated bool) any {
	if len(body) == 0 {
		return nil
	}

	var out any
	mt, _, _ := mime.ParseMediaType(contentType) //nolint:errcheck // empty media type is omitted below
	switch mt {
	case "application/json":
		v, ok := m.JSON(body)
		if !ok {
			v = string(body)
		}
		out = v
	case "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return "<malformed form omitted>"
		}
		fields := make(map[string]any, len(form))
		for k, vs := range form {
			fields[k] = m.Value(k, strings.Join(vs, ","))
		}
		out = fields
	default:
		return "<" + contentType + " body omitted>"
	}

	if truncated {
		return map[string]any{"body": out, "truncated": true}
	}
	return out
}

func maskedHeaders(m *instrument.Masker, h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for k, vs := range h {
		if strings.EqualFold(k, "Authorization") {
			out[k] = "***"
			continue
		}
		out[k] = m.Value(k, strings.Join(vs, ", "))
	}
	return out
}

// peekBody reads up to maxLoggedBodyBytes of the request body and puts
// them back in front of the rest.
func peekBody(r *http.Request) ([]byte, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes+1)) //nolint:errcheck // logging only
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), r.Body))
	if len(head) > maxLoggedBodyBytes {
		return head[:maxLoggedBodyBytes], true
	}
	return head, false
}

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newHTTPMetrics(meter metric.Meter) httpMetrics {
	var m httpMetrics
	var err error
	if m.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received")); err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	if m.duration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}
	return m
}

func (m httpMetrics) record(ctx context.Context, elapsed time.Duration, attrs ...attribute.KeyValue) {
	opt := metric.WithAttributes(attrs...)
	if m.requests != nil {
		m.requests.Add(ctx, 1, opt)
	}
	if m.duration != nil {
		m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, opt)
	}
}

// middlewareObservability wraps each request in a span, records request
// metrics and writes masked request and response access logs. Keys listed
// in "instrument.log_mask_fields" are hidden and addresses under
// "instrument.log_email_fields" are shortened.
func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	var masker *instrument.Masker
	if cfg != nil {
		masker = instrument.NewMasker(cfg.GetArray("instrument.log_mask_fields"), cfg.GetArray("instrument.log_email_fields"))
	} else {
		masker = instrument.NewMasker(nil, nil)
	}
	tracer := ins.Tracer("http.server")
	metrics := newHTTPMetrics(ins.Meter("http.server"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := matchedRoutePath(r)

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
				),
			)
			defer span.End()

			reqBody, reqTruncated := peekBody(r)
			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"headers", maskedHeaders(masker, r.Header),
				"body", maskedBody(masker, r.Header.Get("Content-Type"), reqBody, reqTruncated),
			)

			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			elapsed := time.Since(start)
			status := rec.Status()
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}
			metrics.record(ctx, elapsed, attrs...)

			span.SetAttributes(attrs...)
			span.SetAttributes(
				semconv.NetworkProtocolVersionKey.String(r.Proto),
				semconv.ServerAddressKey.String(r.Host),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.response_content_length", rec.written),
			)
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			switch {
			case status >= http.StatusInternalServerError && rec.err != nil:
				span.SetStatus(codes.Error, rec.err.Error())
			case status >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(status))
			default:
				span.SetStatus(codes.Ok, "")
			}

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.written,
				"latency_ms", elapsed.Milliseconds(),
				"body", maskedBody(masker, rec.Header().Get("Content-Type"), rec.body.Bytes(), rec.truncated),
			)
		})
	}
}
