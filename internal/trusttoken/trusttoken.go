// Package trusttoken implements the signed inter-node trust token. A valid
// token proves the attempt was already routed by a federation node and
// carries the encrypted credential so the owning node can finish the login
// without asking the user again.
package trusttoken

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fedgate/internal/credcrypto"
)

// Lifetime is the replay window for inter-node tokens. Anything older is
// simply untrusted.
const Lifetime = 300 * time.Second

// Claims is the wire shape of a trust token.
type Claims struct {
	UID      string `json:"uid"`
	Password string `json:"password"` // ciphertext, see credcrypto
	Options  string `json:"options"`  // compact JSON of extra identity metadata
	jwt.RegisteredClaims
}

// Codec signs, verifies, and decodes trust tokens under the shared secret.
type Codec struct {
	signingKey []byte
	cipher     *credcrypto.Cipher
	clock      func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock sets the time source, for expiry tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Codec) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New builds a Codec. The same shared secret drives both the HMAC signature
// and the credential cipher, mirroring the node-side configuration surface.
func New(sharedSecret string, cipher *credcrypto.Cipher, opts ...Option) *Codec {
	c := &Codec{
		signingKey: []byte(sharedSecret),
		cipher:     cipher,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue creates a signed trust token for uid, expiring after Lifetime.
// The password is encrypted before it enters the claims; options are
// serialized to compact JSON.
func (c *Codec) Issue(uid, password string, options map[string]string) (string, error) {
	encrypted, err := c.cipher.Encrypt(password)
	if err != nil {
		return "", fmt.Errorf("encrypt credential: %w", err)
	}

	if options == nil {
		options = map[string]string{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("serialize options: %w", err)
	}

	now := c.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UID:      uid,
		Password: encrypted,
		Options:  string(optionsJSON),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(Lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})

	return token.SignedString(c.signingKey)
}

// Verify reports whether token is a currently valid trust token signed with
// the shared secret. Malformed, expired, and foreign tokens are all equally
// "not trusted"; no error ever escapes. Finer-grained reporting would hand
// probes an oracle on the secret and validity window.
func (c *Codec) Verify(token string) bool {
	if token == "" {
		return false
	}
	_, err := c.parse(token)
	return err == nil
}

// Decode validates token and returns the uid, decrypted password, and
// options. This is the target-node side of the handshake.
func (c *Codec) Decode(token string) (uid, password string, options map[string]string, err error) {
	claims, err := c.parse(token)
	if err != nil {
		return "", "", nil, fmt.Errorf("invalid trust token")
	}

	password, err = c.cipher.Decrypt(claims.Password)
	if err != nil {
		return "", "", nil, fmt.Errorf("invalid trust token")
	}

	options = map[string]string{}
	if claims.Options != "" {
		if err := json.Unmarshal([]byte(claims.Options), &options); err != nil {
			return "", "", nil, fmt.Errorf("invalid trust token")
		}
	}
	return claims.UID, password, options, nil
}

func (c *Codec) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return c.signingKey, nil
	}, jwt.WithTimeFunc(c.clock), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
