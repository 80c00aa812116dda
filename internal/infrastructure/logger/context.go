package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey struct{}

// requestScope is what the HTTP middleware learns about a request before
// the handlers run.
type requestScope struct {
	requestID string
	userEmail string
}

func scopeOf(ctx context.Context) requestScope {
	s, _ := ctx.Value(ctxKey{}).(requestScope)
	return s
}

// WithRequestID records the request ID on ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	s := scopeOf(ctx)
	s.requestID = requestID
	return context.WithValue(ctx, ctxKey{}, s)
}

// WithUserEmail records the authenticated caller on ctx.
func WithUserEmail(ctx context.Context, email string) context.Context {
	s := scopeOf(ctx)
	s.userEmail = email
	return context.WithValue(ctx, ctxKey{}, s)
}

func GetRequestID(ctx context.Context) string { return scopeOf(ctx).requestID }

func GetUserEmail(ctx context.Context) string { return scopeOf(ctx).userEmail }

// GetTraceID is the trace ID of the span active in ctx, or "".
func GetTraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// Enrich returns l with the trace, request and caller fields found in ctx.
func Enrich(ctx context.Context, l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	s := scopeOf(ctx)
	if s.requestID != "" {
		fields = append(fields, zap.String("request_id", s.requestID))
	}
	if s.userEmail != "" {
		fields = append(fields, zap.String("user_email", s.userEmail))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
