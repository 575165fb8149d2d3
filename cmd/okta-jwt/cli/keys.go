package cli

import (
	"strings"

	"github.com/cockroachdb/errors"

	oktajwt "github.com/06chaynes/okta-jwt-verifier"
)

// KeysCmd fetches and prints the issuer's key set
type KeysCmd struct {
	Issuer  string `help:"issuer URL; overrides the config file"`
	KeysURL string `help:"override the derived {issuer}/v1/keys endpoint"`
}

// Run the command
func (a *KeysCmd) Run(ctx *Cli) error {
	cfg, err := ctx.Config()
	if err != nil {
		return err
	}

	if a.Issuer != "" {
		cfg.Issuer = a.Issuer
	}
	if a.KeysURL != "" {
		cfg.KeysURL = a.KeysURL
	}

	url := cfg.KeysURL
	if url == "" {
		if cfg.Issuer == "" {
			return errors.Errorf("use --issuer flag or --cfg file to specify the issuer")
		}
		url = strings.TrimSuffix(cfg.Issuer, "/") + oktajwt.DefaultKeysPath
	}

	set, err := oktajwt.FetchKeySet(ctx.Context(), &oktajwt.HTTPFetcher{}, url)
	if err != nil {
		return err
	}
	return ctx.WriteJSON(map[string]interface{}{"keys": set.Keys()})
}
