package slogx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabauth/pkg/idx"
)

// RequestIDHeader carries the correlation id in and out of the service.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 64

// HTTPMiddleware logs requests and attaches a contextual logger into request context.
func HTTPMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			reqID := requestID(r.Header.Get(RequestIDHeader))
			w.Header().Set(RequestIDHeader, reqID)

			logger := base.With(
				"req_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			ra := &requestAttrs{}
			ctx := WithContext(r.Context(), logger)
			ctx = context.WithValue(ctx, attrsKey{}, ra)
			r = r.WithContext(ctx)

			next.ServeHTTP(rw, r)

			ra.mu.Lock()
			attrs := append([]slog.Attr{
				slog.Int("status", rw.status),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("user_agent", r.UserAgent()),
			}, ra.attrs...)
			ra.mu.Unlock()

			logger.LogAttrs(ctx, slog.LevelInfo, "http_request", attrs...)
		})
	}
}

// requestID keeps a caller supplied id when it is short and printable,
// otherwise mints a fresh ULID.
func requestID(in string) string {
	if in == "" || len(in) > maxRequestIDLength {
		return idx.New().String()
	}
	for _, c := range in {
		if c < 0x21 || c > 0x7e {
			return idx.New().String()
		}
	}
	return in
}

type responseWriter struct {
	http.ResponseWriter

	status      int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
