package encoding

import (
	"encoding/hex"
	"strings"
)

func init() {
	RegisterDecoder(Hex, hexDecoder{})
}

type hexDecoder struct{}

func (d hexDecoder) Decode(data []byte) ([]byte, error) {
	return hex.DecodeString(strings.TrimSpace(string(data)))
}
