package oktajwt

import (
	"github.com/cockroachdb/errors"
)

// Verification failure classes. Each error returned from Verify wraps one of
// these, so callers can distinguish bad-token failures from infrastructure
// failures with errors.Is and map them to different HTTP statuses.
var (
	// ErrMalformedToken means the compact serialization is structurally
	// invalid: wrong segment count, bad base64url, bad header JSON, or a
	// missing kid.
	ErrMalformedToken = errors.New("malformed token")

	// ErrKeySetFetch means the keys endpoint could not be reached or
	// returned a non-2xx response.
	ErrKeySetFetch = errors.New("unable to fetch key set")

	// ErrKeySetParse means the keys endpoint response is not a valid JWKS
	// document, or a matched key carries unusable material.
	ErrKeySetParse = errors.New("unable to parse key set")

	// ErrKeyNotFound means no key in the fetched set matches the token kid.
	ErrKeyNotFound = errors.New("no matching key found")

	// ErrUnsupportedAlgorithm means the matched key declares an algorithm
	// outside the supported RSA/ECDSA families.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrSignatureInvalid means the token signature does not verify against
	// the matched key.
	ErrSignatureInvalid = errors.New("invalid signature")

	// ErrTokenExpired means exp is more than the configured leeway in the past.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenNotYetValid means nbf is more than the configured leeway in
	// the future.
	ErrTokenNotYetValid = errors.New("token not yet valid")

	// ErrInvalidIssuer means the iss claim does not match the configured issuer.
	ErrInvalidIssuer = errors.New("invalid issuer")

	// ErrInvalidAudience means the aud claim does not intersect the
	// acceptable audience set.
	ErrInvalidAudience = errors.New("invalid audience")

	// ErrInvalidClientID means the cid claim does not match the expected
	// client ID.
	ErrInvalidClientID = errors.New("invalid client id")

	// ErrClaimsDeserialization means the verified payload cannot be coerced
	// into the caller's claims schema.
	ErrClaimsDeserialization = errors.New("unable to deserialize claims")
)
