package oktajwt

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/golang-jwt/jwt/v5"
)

var logger = xlog.NewPackageLogger("github.com/06chaynes/okta-jwt-verifier", "oktajwt")

// Verifier verifies tokens issued by a single issuer. Configure it with the
// chainable policy methods before the first Verify call; after that the
// policy is read-only and concurrent Verify calls are safe.
type Verifier struct {
	issuer  string
	keysURL string
	fetcher Fetcher
	cfg     VerifyConfig
}

// New returns a Verifier for the given issuer with the default policy.
// The issuer must be a well formed http(s) URL; keys are not fetched until
// the first Verify call.
func New(issuer string) (*Verifier, error) {
	issuer = strings.TrimSuffix(issuer, "/")
	u, err := url.Parse(issuer)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid issuer %q", issuer)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, errors.Errorf("invalid issuer %q", issuer)
	}

	return &Verifier{
		issuer:  issuer,
		keysURL: issuer + DefaultKeysPath,
		fetcher: &HTTPFetcher{},
		cfg:     DefaultVerifyConfig(),
	}, nil
}

// Issuer returns the configured issuer.
func (v *Verifier) Issuer() string {
	return v.issuer
}

// Leeway sets the clock skew tolerance for time based claims.
func (v *Verifier) Leeway(d time.Duration) *Verifier {
	v.cfg.Leeway = d
	return v
}

// Audience replaces the acceptable audience set.
func (v *Verifier) Audience(aud ...string) *Verifier {
	v.cfg.Audiences = aud
	return v
}

// AddAudience adds one audience to the acceptable set.
func (v *Verifier) AddAudience(aud string) *Verifier {
	v.cfg.Audiences = append(v.cfg.Audiences, aud)
	return v
}

// ClientID sets the expected cid claim.
func (v *Verifier) ClientID(cid string) *Verifier {
	v.cfg.ClientID = cid
	return v
}

// ValidateAud toggles the audience check. On by default.
func (v *Verifier) ValidateAud(on bool) *Verifier {
	v.cfg.ValidateAudience = on
	return v
}

// ValidateExp toggles the expiration check. On by default.
func (v *Verifier) ValidateExp(on bool) *Verifier {
	v.cfg.ValidateExpiry = on
	return v
}

// ValidateNbf toggles the not-before check. Off by default.
func (v *Verifier) ValidateNbf(on bool) *Verifier {
	v.cfg.ValidateNotBefore = on
	return v
}

// KeysURL overrides the derived {issuer}/v1/keys endpoint.
func (v *Verifier) KeysURL(url string) *Verifier {
	v.keysURL = url
	return v
}

// WithFetcher replaces the capability used to retrieve key sets, typically
// with a CachingFetcher.
func (v *Verifier) WithFetcher(f Fetcher) *Verifier {
	v.fetcher = f
	return v
}

// Verify checks the token signature against the issuer's published keys and
// applies the claims validation policy. On success it returns the decoded
// claims. The key set is fetched on every call; enable a caching fetcher to
// skip the network when cache directives allow it.
func (v *Verifier) Verify(ctx context.Context, token string) (Claims, error) {
	hdr, err := DecodeHeader(token)
	if err != nil {
		return nil, err
	}

	keySet, err := FetchKeySet(ctx, v.fetcher, v.keysURL)
	if err != nil {
		return nil, err
	}

	key, ok := keySet.WhereID(hdr.KeyID)
	if !ok {
		return nil, errors.Mark(errors.Errorf("no key found for kid %q", hdr.KeyID), ErrKeyNotFound)
	}

	pub, alg, err := key.VerificationKey()
	if err != nil {
		return nil, err
	}

	claims, err := decodeVerified(token, pub, alg)
	if err != nil {
		return nil, err
	}

	if err := v.cfg.validate(claims, v.issuer, time.Now()); err != nil {
		logger.KV(xlog.DEBUG, "reason", "claims_rejected", "kid", hdr.KeyID, "err", err.Error())
		return nil, err
	}
	return claims, nil
}

// decodeVerified verifies the signature and decodes the payload in one step;
// the payload is never surfaced before the signature check passes.
func decodeVerified(token string, pub any, alg string) (Claims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{alg}),
		jwt.WithoutClaimsValidation(),
		jwt.WithJSONNumber(),
	)

	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return pub, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, errors.Mark(err, ErrMalformedToken)
		}
		return nil, errors.Mark(err, ErrSignatureInvalid)
	}
	return Claims(claims), nil
}

// VerifyAs verifies the token and coerces the claims into the caller's
// schema T.
func VerifyAs[T any](ctx context.Context, v *Verifier, token string) (*T, error) {
	claims, err := v.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	var out T
	if err := claims.To(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
