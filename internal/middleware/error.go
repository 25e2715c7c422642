package middleware

import (
	"net/http"

	logpkg "github.com/benvon/tasklist/internal/logger"
	"github.com/benvon/tasklist/internal/request"
	"go.uber.org/zap"
)

// ErrorResponse is the error envelope shared with the handlers
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ErrorHandler turns a handler panic into a 500 envelope. A panic after the
// response has started only gets logged; the partial body is left as is.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				fields := []zap.Field{
					zap.Any("panic", v),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.Bool("response_started", rec.wroteHeader),
					zap.Stack("stack"),
				}
				if id, ok := request.UserID(r); ok {
					fields = append(fields, zap.String("user_id", logpkg.SanitizeUserID(id.String())))
				}
				logger.Error("handler_panic", fields...)

				if !rec.wroteHeader {
					respondError(w, http.StatusInternalServerError, "An unexpected error occurred")
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
