package encoding

const (
	// Supported payload encodings
	Base64 = "base64"
	Gzip   = "gzip"
	Hex    = "hex"
	Raw    = "raw"

	// MediaTypeWAV is the default MIME hint for decoded payloads.
	MediaTypeWAV = "audio/wav"
	// MediaTypeOctetStream returns the decoded bytes as they are.
	MediaTypeOctetStream = "application/octet-stream"
	// MediaTypeJSON returns a size/mime summary instead of the bytes.
	MediaTypeJSON = "application/json"
	MediaTypeAny  = "*/*"
)
