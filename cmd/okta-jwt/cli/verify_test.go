package cli

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v3"
	"github.com/golang-jwt/jwt/v5"
)

const testIssuer = "https://issuer.example.com/oauth2/default"

type tokenFixture struct {
	priv *rsa.PrivateKey
	srv  *httptest.Server
}

func (s *testSuite) newTokenFixture() *tokenFixture {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	s.Require().NoError(err)

	doc, err := json.Marshal(map[string]interface{}{
		"keys": []jose.JSONWebKey{
			{Key: priv.Public(), KeyID: "key1", Algorithm: "RS256", Use: "sig"},
		},
	})
	s.Require().NoError(err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	}))
	s.T().Cleanup(srv.Close)

	return &tokenFixture{priv: priv, srv: srv}
}

func (f *tokenFixture) sign(s *testSuite, claims jwt.MapClaims) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "key1"
	signed, err := tok.SignedString(f.priv)
	s.Require().NoError(err)
	return signed
}

func (s *testSuite) TestVerifyCmd() {
	fx := s.newTokenFixture()
	now := time.Now()
	token := fx.sign(s, jwt.MapClaims{
		"iss": testIssuer,
		"sub": "00u1a2b3c4",
		"aud": "api://default",
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	})

	cmd := VerifyCmd{
		Token:    token,
		Issuer:   testIssuer,
		KeysURL:  fx.srv.URL,
		Audience: []string{"api://default"},
	}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText(`"sub": "00u1a2b3c4"`, `"aud": "api://default"`)
}

func (s *testSuite) TestVerifyCmd_TokenFromStdin() {
	fx := s.newTokenFixture()
	now := time.Now()
	token := fx.sign(s, jwt.MapClaims{
		"iss": testIssuer,
		"sub": "00u1a2b3c4",
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	})
	s.ctl.WithReader(strings.NewReader(token + "\n"))

	off := false
	cmd := VerifyCmd{
		Issuer:      testIssuer,
		KeysURL:     fx.srv.URL,
		ValidateAud: &off,
	}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText(`"sub": "00u1a2b3c4"`)
}

func (s *testSuite) TestVerifyCmd_Expired() {
	fx := s.newTokenFixture()
	now := time.Now()
	token := fx.sign(s, jwt.MapClaims{
		"iss": testIssuer,
		"exp": now.Add(-time.Hour).Unix(),
		"iat": now.Add(-2 * time.Hour).Unix(),
	})

	off := false
	cmd := VerifyCmd{
		Token:       token,
		Issuer:      testIssuer,
		KeysURL:     fx.srv.URL,
		ValidateAud: &off,
	}
	err := cmd.Run(s.ctl)
	s.Require().Error(err)
	s.Contains(err.Error(), "token expired")
}

func (s *testSuite) TestVerifyCmd_NoIssuer() {
	cmd := VerifyCmd{Token: "a.b.c"}
	err := cmd.Run(s.ctl)
	s.Require().Error(err)
	s.Equal("use --issuer flag or --cfg file to specify the issuer", err.Error())
}

func (s *testSuite) TestVerifyCmd_NoToken() {
	cmd := VerifyCmd{Issuer: testIssuer}
	s.ctl.WithReader(strings.NewReader(""))
	err := cmd.Run(s.ctl)
	s.Require().Error(err)
	s.Equal("no token provided", err.Error())
}
