package oktajwt

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// Header carries the fields extracted from the first segment of a compact
// serialized token, before any signature verification. Recomputed per call,
// never trusted beyond key selection.
type Header struct {
	KeyID     string `json:"kid"`
	Algorithm string `json:"alg"`
	Type      string `json:"typ,omitempty"`
}

// DecodeSegment JWT specific base64url encoding with padding stripped
func DecodeSegment(seg string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(seg)
}

// EncodeSegment returns JWT specific base64url encoding with padding stripped
func EncodeSegment(seg []byte) string {
	return base64.RawURLEncoding.EncodeToString(seg)
}

// DecodeHeader extracts the key id and algorithm from a compact serialized
// token without verifying the signature. The returned values select the
// verification key only; nothing else in the token is trusted yet.
func DecodeHeader(token string) (*Header, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errors.Mark(errors.Errorf("compact JWS must have 3 segments, got %d", len(parts)), ErrMalformedToken)
	}

	raw, err := DecodeSegment(parts[0])
	if err != nil {
		return nil, errors.Mark(errors.WithMessage(err, "unable to decode header segment"), ErrMalformedToken)
	}

	var hdr Header
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return nil, errors.Mark(errors.WithMessage(err, "unable to unmarshal header"), ErrMalformedToken)
	}
	if hdr.KeyID == "" {
		return nil, errors.Mark(errors.New("no key id found"), ErrMalformedToken)
	}
	return &hdr, nil
}
