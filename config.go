package oktajwt

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config provides verifier configuration, loadable from a JSON or YAML file.
type Config struct {
	// Issuer is the authorization server URL; also checked against the iss
	// claim.
	Issuer string `json:"issuer" yaml:"issuer"`
	// KeysURL overrides the derived {issuer}/v1/keys endpoint.
	KeysURL string `json:"keys_url" yaml:"keys_url"`
	// Leeway is the clock skew tolerance in seconds; DefaultLeeway when 0.
	Leeway int64 `json:"leeway" yaml:"leeway"`
	// Audiences is the acceptable audience set.
	Audiences []string `json:"audiences" yaml:"audiences"`
	// ClientID is the expected cid claim, if any.
	ClientID string `json:"client_id" yaml:"client_id"`
	// ValidateAud toggles the audience check; on when unset.
	ValidateAud *bool `json:"validate_aud" yaml:"validate_aud"`
	// ValidateExp toggles the expiration check; on when unset.
	ValidateExp *bool `json:"validate_exp" yaml:"validate_exp"`
	// ValidateNbf toggles the not-before check; off when unset.
	ValidateNbf *bool `json:"validate_nbf" yaml:"validate_nbf"`
	// CacheDir enables the disk backed caching fetcher rooted there.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`
}

// LoadConfig returns configuration loaded from a file, JSON or YAML by
// extension.
func LoadConfig(file string) (*Config, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to read file")
	}

	var config Config
	if strings.HasSuffix(file, ".json") {
		err = json.Unmarshal(raw, &config)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to unmarshal JSON: %q", file)
		}
	} else {
		err = yaml.Unmarshal(raw, &config)
		if err != nil {
			return nil, errors.WithMessagef(err, "unable to unmarshal YAML: %q", file)
		}
	}

	if config.Issuer == "" {
		return nil, errors.Errorf("missing issuer: %q", file)
	}
	return &config, nil
}

// NewFromConfig builds a Verifier from configuration.
func NewFromConfig(cfg *Config) (*Verifier, error) {
	v, err := New(cfg.Issuer)
	if err != nil {
		return nil, err
	}

	if cfg.KeysURL != "" {
		v.KeysURL(cfg.KeysURL)
	}
	if cfg.Leeway > 0 {
		v.Leeway(time.Duration(cfg.Leeway) * time.Second)
	}
	if len(cfg.Audiences) > 0 {
		v.Audience(cfg.Audiences...)
	}
	if cfg.ClientID != "" {
		v.ClientID(cfg.ClientID)
	}
	if cfg.ValidateAud != nil {
		v.ValidateAud(*cfg.ValidateAud)
	}
	if cfg.ValidateExp != nil {
		v.ValidateExp(*cfg.ValidateExp)
	}
	if cfg.ValidateNbf != nil {
		v.ValidateNbf(*cfg.ValidateNbf)
	}

	if cfg.CacheDir != "" {
		store, err := NewDiskStore(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		v.WithFetcher(&CachingFetcher{Client: http.DefaultClient, Store: store})
	}
	return v, nil
}
