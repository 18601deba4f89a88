package encoding

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

func init() {
	RegisterDecoder(Gzip, gzipDecoder{})
}

// gzipDecoder handles base64 text carrying a gzip compressed payload.
type gzipDecoder struct{}

func (d gzipDecoder) Decode(data []byte) ([]byte, error) {
	compressed, err := base64Decoder{}.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer r.Close()
	data, err = io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return data, nil
}
