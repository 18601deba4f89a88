// Package input extracts the encoded audio payload from a JSON document.
package input

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/open-component-model/audio-decode/pkg/decoder"
)

const (
	// DefaultPath is read when no input file is given.
	DefaultPath  = "./response.json"
	DefaultField = "audio"
	// Stdin as path reads the document from standard input.
	Stdin = "-"
)

var stdin io.Reader = os.Stdin

// Load reads the JSON document at path and returns its text field.
func Load(path, field string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == Stdin {
		data, err = io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("%w: cannot read data from stdin: %w", decoder.ErrParse, err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: cannot read input file %q: %w", decoder.ErrParse, path, err)
		}
	}
	return Parse(data, field)
}

// Parse extracts field from a JSON object. Other fields are ignored.
func Parse(data []byte, field string) (string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("%w: invalid JSON: %w", decoder.ErrParse, err)
	}
	raw, ok := doc[field]
	if !ok {
		return "", fmt.Errorf("%w: JSON document has no %q field", decoder.ErrMissingField, field)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: field %q is not a string", decoder.ErrMissingField, field)
	}
	if value == "" {
		return "", fmt.Errorf("%w: field %q is empty", decoder.ErrMissingField, field)
	}
	return value, nil
}
