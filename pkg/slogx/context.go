package slogx

import (
	"context"
	"log/slog"
	"sync"
)

type ctxKey struct{}

type attrsKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// requestAttrs collects attributes that downstream handlers learn about a
// request, emitted on the final http_request line.
type requestAttrs struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

// AddRequestAttrs records attrs for the access log line of the current
// request. It is a no-op outside HTTPMiddleware.
func AddRequestAttrs(ctx context.Context, attrs ...slog.Attr) {
	ra, ok := ctx.Value(attrsKey{}).(*requestAttrs)
	if !ok {
		return
	}
	ra.mu.Lock()
	ra.attrs = append(ra.attrs, attrs...)
	ra.mu.Unlock()
}
