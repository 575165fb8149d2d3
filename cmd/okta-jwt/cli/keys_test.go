package cli

func (s *testSuite) TestKeysCmd() {
	fx := s.newTokenFixture()

	cmd := KeysCmd{KeysURL: fx.srv.URL}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText(`"kid": "key1"`, `"kty": "RSA"`)
}

func (s *testSuite) TestKeysCmd_NoIssuer() {
	cmd := KeysCmd{}
	err := cmd.Run(s.ctl)
	s.Require().Error(err)
	s.Equal("use --issuer flag or --cfg file to specify the issuer", err.Error())
}

func (s *testSuite) TestKeysCmd_DerivedEndpoint() {
	fx := s.newTokenFixture()

	// the keys endpoint is derived from the issuer
	cmd := KeysCmd{Issuer: fx.srv.URL}
	err := cmd.Run(s.ctl)
	s.Require().NoError(err)
	s.HasText(`"kid": "key1"`)
}