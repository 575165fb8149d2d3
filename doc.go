// Package oktajwt verifies access and ID tokens issued by an Okta
// authorization server.
//
// The verifier resolves the signing key for a token from the issuer's
// published JWKS endpoint, checks the signature, and applies a configurable
// claims validation policy:
//   - Key resolution by `kid` against the issuer's key set
//   - Signature verification for RSA and ECDSA keys
//   - Issuer, audience, expiration, not-before and client-id checks with
//     configurable leeway
//   - Claims surfaced through a caller-supplied schema
//
// Key set retrieval goes through a pluggable Fetcher; the caching fetcher
// honors standard HTTP cache directives so that repeated verifications do
// not hit the network on every call.
package oktajwt
