package encoding

func init() {
	RegisterDecoder(Raw, rawDecoder{})
}

// rawDecoder takes the payload text verbatim.
type rawDecoder struct{}

func (d rawDecoder) Decode(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
