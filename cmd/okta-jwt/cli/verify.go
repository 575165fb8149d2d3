package cli

import (
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	oktajwt "github.com/06chaynes/okta-jwt-verifier"
)

// VerifyCmd verifies a token and prints its claims
type VerifyCmd struct {
	Token    string   `arg:"" optional:"" help:"token to verify; read from stdin when omitted"`
	Issuer   string   `help:"issuer URL; overrides the config file"`
	KeysURL  string   `help:"override the derived {issuer}/v1/keys endpoint"`
	Audience []string `help:"acceptable audience, may be repeated"`
	ClientID string   `help:"expected client id"`
	Leeway   int64    `help:"clock skew tolerance in seconds"`

	ValidateAud *bool `help:"toggle the audience check"`
	ValidateExp *bool `help:"toggle the expiration check"`
	ValidateNbf *bool `help:"toggle the not-before check"`

	Cache    bool   `help:"cache key set responses in memory, honoring HTTP cache directives"`
	CacheDir string `help:"cache key set responses under this directory" type:"path"`
}

// Run the command
func (a *VerifyCmd) Run(ctx *Cli) error {
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
	if len(a.Audience) > 0 {
		cfg.Audiences = a.Audience
	}
	if a.ClientID != "" {
		cfg.ClientID = a.ClientID
	}
	if a.Leeway > 0 {
		cfg.Leeway = a.Leeway
	}
	if a.ValidateAud != nil {
		cfg.ValidateAud = a.ValidateAud
	}
	if a.ValidateExp != nil {
		cfg.ValidateExp = a.ValidateExp
	}
	if a.ValidateNbf != nil {
		cfg.ValidateNbf = a.ValidateNbf
	}
	if a.CacheDir != "" {
		cfg.CacheDir = a.CacheDir
	}

	if cfg.Issuer == "" {
		return errors.Errorf("use --issuer flag or --cfg file to specify the issuer")
	}

	verifier, err := oktajwt.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	if a.Cache && cfg.CacheDir == "" {
		verifier.WithFetcher(oktajwt.NewCachingFetcher(http.DefaultClient))
	}

	token := a.Token
	if token == "" {
		raw, err := io.ReadAll(ctx.Reader())
		if err != nil {
			return errors.WithMessage(err, "unable to read token")
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return errors.Errorf("no token provided")
	}

	claims, err := verifier.Verify(ctx.Context(), token)
	if err != nil {
		return err
	}
	return ctx.WriteJSON(claims)
}
