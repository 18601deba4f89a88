package http

import (
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// HandleHTTPError is a utility function which logs an error and then returns it back to the client
func HandleHTTPError(msg string, wrappedErr error, httpStatus int, logger *zap.Logger, w http.ResponseWriter) {
	logger.Error(msg, zap.Error(wrappedErr))
	if wrappedErr != nil {
		msg = fmt.Sprintf("%s: %s", msg, wrappedErr.Error())
	}
	http.Error(w, msg, httpStatus)
}

// ReadBody reads the request body, rejecting bodies above maxContentLength bytes.
func ReadBody(r *http.Request, maxContentLength int) ([]byte, error) {
	if r.ContentLength > int64(maxContentLength) {
		return nil, fmt.Errorf("content length of %d exceeds maximum content length of %d", r.ContentLength, maxContentLength)
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, int64(maxContentLength)+1))
	if err != nil {
		return nil, fmt.Errorf("unable to read request body: %w", err)
	}
	if len(data) > maxContentLength {
		return nil, fmt.Errorf("request body exceeds maximum content length of %d", maxContentLength)
	}
	return data, nil
}

func ReadUserIP(r *http.Request) string {
	IPAddress := r.Header.Get("X-Real-Ip")
	if IPAddress == "" {
		IPAddress = r.Header.Get("X-Forwarded-For")
	}
	if IPAddress == "" {
		IPAddress = r.RemoteAddr
	}
	return IPAddress
}
