package oktajwt

import (
	"context"
	"crypto"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	jose "github.com/go-jose/go-jose/v3"
)

// DefaultKeysPath is appended to the issuer to derive the keys endpoint.
const DefaultKeysPath = "/v1/keys"

// JWK describes one key retrieved from upstream. Immutable once fetched.
type JWK struct {
	// Kty identifies the cryptographic algorithm family used with the key,
	// such as "RSA" or "EC".
	Kty string `json:"kty"`
	// Alg identifies the algorithm intended for use with the key. Defaults
	// to RS256 when absent.
	Alg string `json:"alg,omitempty"`
	// Kid is used to match a specific key during key rollover; unique
	// within a set.
	Kid string `json:"kid"`
	// Use indicates whether the key is for signing or encryption.
	Use string `json:"use,omitempty"`

	// E is the RSA public exponent.
	E string `json:"e,omitempty"`
	// N is the RSA modulus.
	N string `json:"n,omitempty"`

	// Crv names the elliptic curve for EC keys.
	Crv string `json:"crv,omitempty"`
	// X is the EC x coordinate.
	X string `json:"x,omitempty"`
	// Y is the EC y coordinate.
	Y string `json:"y,omitempty"`
}

// Algorithms supported for verification.
var supportedAlgorithms = map[string]bool{
	"RS256": true,
	"RS384": true,
	"RS512": true,
	"ES256": true,
	"ES384": true,
	"ES512": true,
}

// VerificationKey converts the key material into a public key the crypto
// primitive can consume, and returns the effective algorithm.
func (k *JWK) VerificationKey() (crypto.PublicKey, string, error) {
	alg := k.Alg
	if alg == "" {
		alg = "RS256"
	}
	if !supportedAlgorithms[alg] {
		return nil, "", errors.Mark(errors.Errorf("algorithm %q is not supported", alg), ErrUnsupportedAlgorithm)
	}

	raw, err := json.Marshal(k)
	if err != nil {
		return nil, "", errors.Mark(errors.WithStack(err), ErrKeySetParse)
	}
	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(raw); err != nil {
		return nil, "", errors.Mark(errors.WithMessagef(err, "unusable key material for kid %q", k.Kid), ErrKeySetParse)
	}
	if !jwk.Valid() {
		return nil, "", errors.Mark(errors.Errorf("unusable key material for kid %q", k.Kid), ErrKeySetParse)
	}
	return jwk.Key, alg, nil
}

// KeySet is one snapshot of the issuer's published keys, unique by kid.
// Snapshots are replaced wholesale on refresh, never mutated key by key.
type KeySet struct {
	// FetchedAt is the time the snapshot was retrieved.
	FetchedAt time.Time

	keys map[string]*JWK
}

type keysResponse struct {
	Keys []JWK `json:"keys"`
}

// ParseKeySet builds a KeySet from a keys endpoint response body.
func ParseKeySet(body []byte) (*KeySet, error) {
	var res keysResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, errors.Mark(errors.WithMessage(err, "unable to unmarshal key set"), ErrKeySetParse)
	}

	set := &KeySet{
		FetchedAt: time.Now(),
		keys:      map[string]*JWK{},
	}
	for i := range res.Keys {
		key := res.Keys[i]
		set.keys[key.Kid] = &key
	}
	return set, nil
}

// WhereID attempts to retrieve a key by given id. Absence is a normal
// outcome, not an error.
func (s *KeySet) WhereID(kid string) (*JWK, bool) {
	key, ok := s.keys[kid]
	return key, ok
}

// Len returns the number of keys in the snapshot.
func (s *KeySet) Len() int {
	return len(s.keys)
}

// Keys returns the keys of the snapshot.
func (s *KeySet) Keys() []*JWK {
	list := make([]*JWK, 0, len(s.keys))
	for _, key := range s.keys {
		list = append(list, key)
	}
	return list
}

// FetchKeySet retrieves the current key set from the given keys endpoint
// through the fetcher. There is no retry; the caller decides whether to
// retry the whole operation.
func FetchKeySet(ctx context.Context, fetcher Fetcher, url string) (*KeySet, error) {
	body, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, errors.Mark(err, ErrKeySetFetch)
	}

	set, err := ParseKeySet(body)
	if err != nil {
		return nil, err
	}
	logger.KV(xlog.DEBUG, "url", url, "keys", set.Len())
	return set, nil
}
