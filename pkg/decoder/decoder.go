// Package decoder turns an encoded audio payload into bytes and optionally
// stores them in a file.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/open-component-model/audio-decode/pkg/encoding"
)

// Request describes a single decode operation.
type Request struct {
	// Data is the encoded payload.
	Data string
	// OutputPath is resolved against the working directory. Empty skips writing.
	OutputPath string
	// MimeType is advisory only, it defaults to audio/wav.
	MimeType string
	// Encoding selects the payload decoder, it defaults to base64.
	Encoding string
}

// Result is the outcome of Decode. On success Data, Size and MimeType are set,
// Path only if the data was written. On failure only Error is set.
type Result struct {
	Success  bool
	Data     []byte
	Size     int
	Path     string
	MimeType string
	Error    string

	err error
}

// Err returns the failure as an error, nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	return errors.New(r.Error)
}

type Decoder struct {
	logger *zap.Logger
	out    io.Writer
}

// New creates a Decoder logging to logger and printing status lines to out.
func New(logger *zap.Logger, out io.Writer) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Decoder{logger: logger, out: out}
}

// Decode never fails with an error, failures are recovered into the Result.
func (d *Decoder) Decode(ctx context.Context, req Request) Result {
	if req.MimeType == "" {
		req.MimeType = encoding.MediaTypeWAV
	}
	if req.Encoding == "" {
		req.Encoding = encoding.Base64
	}

	data, path, err := d.decode(ctx, req)
	if err != nil {
		d.logger.Error("decode failed", zap.String("encoding", req.Encoding), zap.Error(err))
		fmt.Fprintf(d.out, "decode failed: %s\n", err)
		return Result{Error: err.Error(), err: err}
	}

	fmt.Fprintf(d.out, "audio data:\n")
	fmt.Fprintf(d.out, "- size: %d bytes\n", len(data))
	fmt.Fprintf(d.out, "- mime type: %s\n", req.MimeType)
	d.logger.Info("decoded audio data", zap.Int("size", len(data)), zap.String("mimeType", req.MimeType), zap.String("path", path))

	return Result{
		Success:  true,
		Data:     data,
		Size:     len(data),
		Path:     path,
		MimeType: req.MimeType,
	}
}

func (d *Decoder) decode(ctx context.Context, req Request) ([]byte, string, error) {
	dec, err := encoding.GetDecoder(req.Encoding)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	data, err := dec.Decode([]byte(req.Data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if req.OutputPath == "" {
		return data, "", nil
	}

	path, err := filepath.Abs(req.OutputPath)
	if err != nil {
		return nil, "", fmt.Errorf("%w: resolve %q: %w", ErrWrite, req.OutputPath, err)
	}
	if err := writeFile(path, data); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	fmt.Fprintf(d.out, "saved audio file: %s\n", path)
	return data, path, nil
}

func writeFile(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %q: %w", path, cerr)
		}
	}()
	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}
