package encoding

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ResponseBuilder renders decoded audio for an HTTP response. It returns the
// body and the content type to announce.
type ResponseBuilder interface {
	BuildResponse(data []byte, mimeType string) ([]byte, string, error)
}

// CreateResponseBuilders returns the builders keyed by the Accept values
// they serve. The MIME hint itself is accepted as well, see SelectResponseBuilder.
func CreateResponseBuilders() map[string]ResponseBuilder {
	responseBuilders := map[string]ResponseBuilder{}

	raw := &RawResponseBuilder{}
	responseBuilders[""] = raw
	responseBuilders[MediaTypeAny] = raw
	responseBuilders[MediaTypeOctetStream] = raw
	responseBuilders[MediaTypeJSON] = &SummaryResponseBuilder{}

	return responseBuilders
}

// SelectResponseBuilder picks the builder for an Accept header value.
func SelectResponseBuilder(builders map[string]ResponseBuilder, accept, mimeType string) (ResponseBuilder, error) {
	if b, ok := builders[accept]; ok {
		return b, nil
	}
	if accept == mimeType {
		return builders[MediaTypeOctetStream], nil
	}
	keys := []string{mimeType}
	for k := range builders {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return nil, fmt.Errorf("unsupported accept value %q. possible values: %q", accept, keys)
}

////////////////////////////////////////////////////////////////////////////////

type RawResponseBuilder struct {
}

func (b *RawResponseBuilder) BuildResponse(data []byte, mimeType string) ([]byte, string, error) {
	return data, mimeType, nil
}

////////////////////////////////////////////////////////////////////////////////

// Summary is the JSON body answered for application/json.
type Summary struct {
	Size     int    `json:"size"`
	MimeType string `json:"mimeType"`
}

type SummaryResponseBuilder struct {
}

func (b *SummaryResponseBuilder) BuildResponse(data []byte, mimeType string) ([]byte, string, error) {
	body, err := json.Marshal(Summary{Size: len(data), MimeType: mimeType})
	if err != nil {
		return nil, "", fmt.Errorf("unable to marshal summary: %w", err)
	}
	return body, MediaTypeJSON, nil
}
