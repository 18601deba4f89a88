package encoding

import (
	"encoding/base64"
	"strings"
)

func init() {
	RegisterDecoder(Base64, base64Decoder{})
}

// base64Decoder accepts standard and URL-safe alphabets, with or without
// padding. Line breaks are ignored.
type base64Decoder struct{}

func (d base64Decoder) Decode(data []byte) ([]byte, error) {
	s := strings.NewReplacer("\r", "", "\n", "").Replace(string(data))
	if strings.ContainsAny(s, "-_") {
		s = strings.NewReplacer("-", "+", "_", "/").Replace(s)
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
