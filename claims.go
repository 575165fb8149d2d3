package oktajwt

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

// DefaultLeeway is the clock skew tolerance applied to time based claims.
const DefaultLeeway = 120 * time.Second

// Claims provides generic claims on map
type Claims map[string]interface{}

// DefaultClaims describes the registered claims inside a decoded Okta access
// token.
type DefaultClaims struct {
	// Issuer is the unique identifier of the authorization server.
	Issuer string `json:"iss"`
	// Subject of the token.
	Subject string `json:"sub"`
	// Scopes granted to this access token.
	Scopes []string `json:"scp"`
	// ClientID of the client that requested the access token.
	ClientID string `json:"cid"`
	// UserID is a unique identifier for the user, empty when no user is
	// bound to the token.
	UserID string `json:"uid"`
	// Expiry of the token in Unix time, seconds.
	Expiry int64 `json:"exp"`
	// IssuedAt is the time the token was issued in Unix time, seconds.
	IssuedAt int64 `json:"iat"`
}

// To converts the claims to the value pointed to by val.
func (c Claims) To(val interface{}) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Mark(errors.WithStack(err), ErrClaimsDeserialization)
	}

	d := json.NewDecoder(bytes.NewReader(raw))
	if err := d.Decode(val); err != nil {
		return errors.Mark(errors.WithStack(err), ErrClaimsDeserialization)
	}
	return nil
}

// Marshal returns JSON encoded string
func (c Claims) Marshal() string {
	raw, _ := json.Marshal(c)
	return string(raw)
}

// String will return the named claim as a string,
// if the underlying type is not a string,
// it will try and co-oerce it to a string.
func (c Claims) String(k string) string {
	v := c[k]
	if v == nil {
		return ""
	}
	switch tv := v.(type) {
	case string:
		return tv
	default:
		return xlog.EscapedString(v)
	}
}

// Strings will return the named claim as a list of strings. A single string
// value is returned as a one element list, matching the aud claim encoding.
func (c Claims) Strings(k string) []string {
	switch tv := c[k].(type) {
	case string:
		return []string{tv}
	case []string:
		return tv
	case []interface{}:
		var list []string
		for _, v := range tv {
			if s, ok := v.(string); ok {
				list = append(list, s)
			}
		}
		return list
	default:
		return nil
	}
}

// Time will return the named claim as Time
func (c Claims) Time(k string) *time.Time {
	v := c[k]
	if v == nil {
		return nil
	}
	switch tv := v.(type) {
	case time.Time:
		return &tv
	case *time.Time:
		return tv
	case int64:
		t := time.Unix(tv, 0)
		return &t
	case float64:
		t := time.Unix(int64(tv), 0)
		return &t
	case json.Number:
		unix, err := tv.Int64()
		if err != nil {
			return nil
		}
		t := time.Unix(unix, 0)
		return &t
	case string:
		unix, err := strconv.ParseInt(tv, 10, 64)
		if err != nil {
			return nil
		}
		t := time.Unix(unix, 0)
		return &t
	default:
		return nil
	}
}

// VerifyConfig expresses the claims validation policy applied after the
// signature check. The zero value disables every gated check; use
// DefaultVerifyConfig for the default policy.
type VerifyConfig struct {
	// Leeway is the clock skew tolerance for exp and nbf checks.
	Leeway time.Duration
	// Audiences is the acceptable audience set; the aud claim must
	// intersect it when ValidateAudience is on.
	Audiences []string
	// ClientID, when set, must exactly match the cid claim.
	ClientID string
	// ValidateAudience gates the audience check.
	ValidateAudience bool
	// ValidateExpiry gates the expiration check.
	ValidateExpiry bool
	// ValidateNotBefore gates the not-before check.
	ValidateNotBefore bool
}

// DefaultVerifyConfig returns the default policy: 120s leeway, audience and
// expiration checks on, not-before check off.
func DefaultVerifyConfig() VerifyConfig {
	return VerifyConfig{
		Leeway:           DefaultLeeway,
		ValidateAudience: true,
		ValidateExpiry:   true,
	}
}

// validate applies the policy checks in canonical order: issuer, audience,
// expiration, not-before, client-id. The first failing check is returned.
func (cfg *VerifyConfig) validate(claims Claims, issuer string, now time.Time) error {
	if iss, ok := claims["iss"]; ok {
		if iss != issuer {
			return errors.Mark(errors.Errorf("issuer %q does not match %q", claims.String("iss"), issuer), ErrInvalidIssuer)
		}
	}

	if cfg.ValidateAudience {
		if err := cfg.validateAudience(claims); err != nil {
			return err
		}
	}

	if cfg.ValidateExpiry {
		exp := claims.Time("exp")
		if exp == nil {
			return errors.Mark(errors.New("exp claim is missing"), ErrTokenExpired)
		}
		if now.After(exp.Add(cfg.Leeway)) {
			return errors.Mark(errors.Errorf("token expired at %s", exp.UTC().Format(time.RFC3339)), ErrTokenExpired)
		}
	}

	if cfg.ValidateNotBefore {
		nbf := claims.Time("nbf")
		if nbf == nil {
			return errors.Mark(errors.New("nbf claim is missing"), ErrTokenNotYetValid)
		}
		if now.Before(nbf.Add(-cfg.Leeway)) {
			return errors.Mark(errors.Errorf("token not valid before %s", nbf.UTC().Format(time.RFC3339)), ErrTokenNotYetValid)
		}
	}

	if cfg.ClientID != "" {
		if cid := claims.String("cid"); cid != cfg.ClientID {
			return errors.Mark(errors.Errorf("client id %q does not match %q", cid, cfg.ClientID), ErrInvalidClientID)
		}
	}

	return nil
}

func (cfg *VerifyConfig) validateAudience(claims Claims) error {
	aud := claims.Strings("aud")
	for _, a := range aud {
		for _, want := range cfg.Audiences {
			if a == want {
				return nil
			}
		}
	}
	return errors.Mark(errors.Errorf("audience %v not in acceptable set %v", aud, cfg.Audiences), ErrInvalidAudience)
}
