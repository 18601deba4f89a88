package decoder

import "errors"

var (
	// ErrParse reports an input document that is missing or not valid JSON.
	ErrParse = errors.New("cannot parse input")
	// ErrMissingField reports a document without the payload field.
	ErrMissingField = errors.New("missing field")
	ErrDecode       = errors.New("cannot decode audio data")
	ErrWrite        = errors.New("cannot write audio file")
)
