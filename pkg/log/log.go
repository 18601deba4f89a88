package log

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/google/uuid"
)

type LoggerContextKey struct{}

const (
	LogKeyUri              = "uri"
	LogKeyRemoteAddr       = "remote-addr"
	LogKeyMethod           = "method"
	LogKeyRequestId        = "request-id"
	LogKeyResponseCode     = "response-code"
	LogKeyDuration         = "duration"
	LogKeyResponseBodySize = "response-body-size"
)

// New creates the process logger. One-shot runs stay silent unless
// development logging is requested.
func New(development, server bool) (*zap.Logger, error) {
	var logcfg zap.Config
	switch {
	case development:
		logcfg = zap.NewDevelopmentConfig()
	case server:
		logcfg = zap.NewProductionConfig()
	default:
		return zap.NewNop(), nil
	}
	logcfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	return logcfg.Build()
}

type LoggingMiddleware struct {
	Logger *zap.Logger
}

func (l *LoggingMiddleware) PrepareLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := uuid.New()
		logger := l.Logger.With(zap.String(LogKeyRequestId, requestId.String()))
		r = r.WithContext(WithLogger(r.Context(), logger))

		next.ServeHTTP(w, r)
	})
}

func (l *LoggingMiddleware) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := GetLoggerFromContext(r.Context())

		logger.With(zap.String(LogKeyMethod, r.Method), zap.String(LogKeyUri, r.RequestURI), zap.String(LogKeyRemoteAddr, r.RemoteAddr)).Info("incoming request")

		rw := NewLogResponseWriter(w)
		start := time.Now()
		next.ServeHTTP(rw, r)

		logger.With(zap.Int(LogKeyResponseCode, rw.statusCode), zap.Duration(LogKeyDuration, time.Since(start)), zap.Int(LogKeyResponseBodySize, rw.size)).Info("finished request")
	})
}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey{}, logger)
}

// GetLoggerFromContext falls back to a nop logger outside of the middleware.
func GetLoggerFromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerContextKey{}).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

type LogResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func NewLogResponseWriter(w http.ResponseWriter) *LogResponseWriter {
	return &LogResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *LogResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *LogResponseWriter) Write(body []byte) (int, error) {
	n, err := w.ResponseWriter.Write(body)
	w.size += n
	return n, err
}
