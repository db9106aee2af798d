package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type correlationKey struct{}

const correlationHeader = "X-Correlation-ID"

// CorrelationID tags each request with an id, echoes it in the response
// header, and logs one completion line with status and duration. Ids sent
// by the client are kept so worker-published events can share them.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := WithCorrelationID(r.Context(), id)
		w.Header().Set(correlationHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		slog.InfoContext(ctx, "request handled",
			"method", r.Method,
			"path", r.URL.Path, // #nosec G706 -- parsed by net/http
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationFromContext reports the request's id, if one was attached.
func CorrelationFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationKey{}).(string)
	return id, ok && id != ""
}

// GetCorrelationID is CorrelationFromContext with a placeholder for
// contexts outside a request, so response envelopes always carry a value.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := CorrelationFromContext(ctx); ok {
		return id
	}
	return "unknown"
}
