package http

const (
	// Http Header Keys
	AcceptHeader = "Accept"
	ContentType  = "Content-Type"

	// Http Query Parameter Keys
	MimeTypeQuery = "mimeType"
	EncodingQuery = "encoding"

	// Routes
	DecodePath = "/decode"
	HealthPath = "/healthz"
)
