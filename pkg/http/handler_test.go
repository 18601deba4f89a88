package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/open-component-model/audio-decode/pkg/encoding"
	"github.com/open-component-model/audio-decode/pkg/log"
)

func newRouter() *mux.Router {
	return newLoggedRouter(zap.NewNop())
}

func newLoggedRouter(logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Methods(http.MethodPost).Path(DecodePath).Handler(CreateDecodeHandler(DecodeOptions{MaxContentLength: 64}, encoding.CreateResponseBuilders()))
	r.Methods(http.MethodGet).Path(HealthPath).HandlerFunc(HealthHandler)
	lm := log.LoggingMiddleware{Logger: logger}
	r.Use(lm.PrepareLogger)
	r.Use(lm.LogRequests)
	return r
}

func post(t *testing.T, target, accept, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(ContentType, encoding.MediaTypeJSON)
	if accept != "" {
		req.Header.Set(AcceptHeader, accept)
	}
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, req)
	return rec
}

func TestDecodeRaw(t *testing.T) {
	for _, accept := range []string{"", "*/*", "audio/wav", encoding.MediaTypeOctetStream} {
		rec := post(t, DecodePath, accept, `{"audio":"aGVsbG8="}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "hello", rec.Body.String())
		assert.Equal(t, "audio/wav", rec.Header().Get(ContentType))
	}
}

func TestDecodeQueryOverrides(t *testing.T) {
	rec := post(t, DecodePath+"?mimeType=audio/mpeg&encoding=hex", "audio/mpeg", `{"audio":"68656c6c6f"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, "audio/mpeg", rec.Header().Get(ContentType))
}

func TestDecodeSummary(t *testing.T) {
	rec := post(t, DecodePath, encoding.MediaTypeJSON, `{"audio":"aGVsbG8="}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var s encoding.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, 5, s.Size)
	assert.Equal(t, "audio/wav", s.MimeType)
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]struct {
		target string
		accept string
		body   string
		code   int
	}{
		"bad accept":    {accept: "text/html", body: `{"audio":"aGVsbG8="}`, code: http.StatusBadRequest},
		"invalid json":  {body: `{"audio"`, code: http.StatusBadRequest},
		"missing field": {body: `{"other":"aGVsbG8="}`, code: http.StatusBadRequest},
		"too large":     {body: `{"audio":"` + strings.Repeat("A", 100) + `"}`, code: http.StatusBadRequest},
		"invalid data":  {body: `{"audio":"!!!!"}`, code: http.StatusUnprocessableEntity},
		"bad encoding":  {target: DecodePath + "?encoding=rot13", body: `{"audio":"aGVsbG8="}`, code: http.StatusBadRequest},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			target := c.target
			if target == "" {
				target = DecodePath
			}
			rec := post(t, target, c.accept, c.body)
			assert.Equal(t, c.code, rec.Code, rec.Body.String())
		})
	}
}

func TestDecodeFailureLoggedOnce(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	req := httptest.NewRequest(http.MethodPost, DecodePath, strings.NewReader(`{"audio":"!!!!"}`))
	rec := httptest.NewRecorder()
	newLoggedRouter(zap.New(core)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot decode audio data")
	assert.Equal(t, 1, logs.Len())
}

func TestMissingFieldMessage(t *testing.T) {
	rec := post(t, DecodePath, "", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"audio"`)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadBodyUnknownLength(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, DecodePath, strings.NewReader(strings.Repeat("x", 10)))
	req.ContentLength = -1
	_, err := ReadBody(req, 5)
	assert.Error(t, err)

	req = httptest.NewRequest(http.MethodPost, DecodePath, strings.NewReader("abc"))
	req.ContentLength = -1
	data, err := ReadBody(req, 5)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestReadUserIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	assert.Equal(t, "10.0.0.1", ReadUserIP(req))
	req.Header.Set("X-Real-Ip", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", ReadUserIP(req))
}
