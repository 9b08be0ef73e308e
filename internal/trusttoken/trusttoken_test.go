package trusttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fedgate/internal/credcrypto"
)

type CodecSuite struct {
	suite.Suite
	cipher *credcrypto.Cipher
	now    time.Time
}

func TestCodecSuite(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}

func (s *CodecSuite) SetupTest() {
	cipher, err := credcrypto.New("federation-secret")
	s.Require().NoError(err)
	s.cipher = cipher
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *CodecSuite) codecAt(offset time.Duration) *Codec {
	at := s.now.Add(offset)
	return New("federation-secret", s.cipher, WithClock(func() time.Time { return at }))
}

func (s *CodecSuite) TestRoundTrip() {
	codec := s.codecAt(0)

	token, err := codec.Issue("alice", "p@ssw0rd", map[string]string{"displayName": "Alice"})
	s.Require().NoError(err)

	s.True(codec.Verify(token))

	uid, password, options, err := codec.Decode(token)
	s.Require().NoError(err)
	s.Equal("alice", uid)
	s.Equal("p@ssw0rd", password)
	s.Equal("Alice", options["displayName"])
}

func (s *CodecSuite) TestTokenNeverCarriesPlaintextPassword() {
	codec := s.codecAt(0)

	token, err := codec.Issue("alice", "hunter2-plaintext", nil)
	s.Require().NoError(err)
	s.NotContains(token, "hunter2-plaintext")
}

func (s *CodecSuite) TestExpiry() {
	issuer := s.codecAt(0)
	token, err := issuer.Issue("alice", "pw", nil)
	s.Require().NoError(err)

	s.Run("valid just inside the window", func() {
		s.True(s.codecAt(Lifetime - time.Second).Verify(token))
	})

	s.Run("untrusted once the window passes", func() {
		s.False(s.codecAt(Lifetime + time.Second).Verify(token))
	})
}

func (s *CodecSuite) TestForeignSecret() {
	otherCipher, err := credcrypto.New("other-secret")
	s.Require().NoError(err)
	foreign := New("other-secret", otherCipher, WithClock(func() time.Time { return s.now }))

	token, err := foreign.Issue("alice", "pw", nil)
	s.Require().NoError(err)

	s.False(s.codecAt(0).Verify(token))
}

func (s *CodecSuite) TestMalformedTokensAreUntrusted() {
	codec := s.codecAt(0)

	for _, token := range []string{
		"",
		"garbage",
		"a.b.c",
		"eyJhbGciOiJub25lIn0.eyJ1aWQiOiJhbGljZSJ9.",
	} {
		s.False(codec.Verify(token), "token %q must be untrusted", token)
	}
}

func (s *CodecSuite) TestDecodeRejectsInvalid() {
	codec := s.codecAt(0)
	_, _, _, err := codec.Decode("garbage")
	s.Error(err)
}
