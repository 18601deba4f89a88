package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/open-component-model/audio-decode/pkg/decoder"
	"github.com/open-component-model/audio-decode/pkg/encoding"
	"github.com/open-component-model/audio-decode/pkg/input"
	"github.com/open-component-model/audio-decode/pkg/log"
)

// DecodeOptions configures the defaults of a DecodeHandler.
type DecodeOptions struct {
	Field            string
	MimeType         string
	Encoding         string
	MaxContentLength int
}

func CreateDecodeHandler(opts DecodeOptions, responseBuilders map[string]encoding.ResponseBuilder) http.Handler {
	if opts.Field == "" {
		opts.Field = input.DefaultField
	}
	if opts.MimeType == "" {
		opts.MimeType = encoding.MediaTypeWAV
	}
	if opts.Encoding == "" {
		opts.Encoding = encoding.Base64
	}
	return &DecodeHandler{
		opts:             opts,
		responseBuilders: responseBuilders,
	}
}

// DecodeHandler decodes the payload field of a posted JSON document and
// answers with the audio bytes or a summary, depending on Accept.
type DecodeHandler struct {
	opts             DecodeOptions
	responseBuilders map[string]encoding.ResponseBuilder
}

func (h *DecodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.GetLoggerFromContext(r.Context())
	logger.Info("request", zap.String("client", ReadUserIP(r)), zap.String("query", r.URL.RawQuery))

	mimeType := r.URL.Query().Get(MimeTypeQuery)
	if mimeType == "" {
		mimeType = h.opts.MimeType
	}
	enc := r.URL.Query().Get(EncodingQuery)
	if enc == "" {
		enc = h.opts.Encoding
	}
	if _, err := encoding.GetDecoder(enc); err != nil {
		HandleHTTPError("invalid "+EncodingQuery+" query", err, http.StatusBadRequest, logger, w)
		return
	}

	builder, err := encoding.SelectResponseBuilder(h.responseBuilders, r.Header.Get(AcceptHeader), mimeType)
	if err != nil {
		HandleHTTPError("invalid "+AcceptHeader+" header", err, http.StatusBadRequest, logger, w)
		return
	}

	body, err := ReadBody(r, h.opts.MaxContentLength)
	if err != nil {
		HandleHTTPError("invalid request content", err, http.StatusBadRequest, logger, w)
		return
	}
	payload, err := input.Parse(body, h.opts.Field)
	if err != nil {
		HandleHTTPError("invalid request content", err, http.StatusBadRequest, logger, w)
		return
	}

	res := decoder.New(logger, nil).Decode(r.Context(), decoder.Request{
		Data:     payload,
		MimeType: mimeType,
		Encoding: enc,
	})
	if !res.Success {
		// already logged by the decoder
		http.Error(w, "unable to decode: "+res.Error, http.StatusUnprocessableEntity)
		return
	}

	respBody, contentType, err := builder.BuildResponse(res.Data, res.MimeType)
	if err != nil {
		HandleHTTPError("unable to build response body", err, http.StatusInternalServerError, logger, w)
		return
	}

	w.Header().Set(ContentType, contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(respBody); err != nil {
		logger.Error("unable to write response body", zap.Error(err))
		return
	}
}

// HealthHandler answers 200 once the server accepts requests.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		log.GetLoggerFromContext(r.Context()).Error("unable to write health response", zap.Error(err))
	}
}

