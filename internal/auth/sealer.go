package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"
)

const (
	sealIssuer    = "marlow"
	credentialKey = "credential"
)

// ErrInvalidSeal is returned when a sealed value cannot be opened with the current key.
var ErrInvalidSeal = errors.New("auth: sealed value is invalid or was sealed with another key")

// Sealer encrypts secrets into PASETO v4.local tokens.
type Sealer struct {
	key paseto.V4SymmetricKey
	now func() time.Time
}

// NewSealer creates a sealer from a 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("sealing key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	sk, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}
	return &Sealer{key: sk, now: time.Now}, nil
}

// Seal encrypts secret.
func (s *Sealer) Seal(secret string) string {
	token := paseto.NewToken()
	token.SetIssuer(sealIssuer)
	token.SetIssuedAt(s.now())
	token.SetString(credentialKey, secret)
	return token.V4Encrypt(s.key, nil)
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.IssuedBy(sealIssuer))

	token, err := parser.ParseV4Local(s.key, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSeal, err)
	}
	secret, err := token.GetString(credentialKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSeal, err)
	}
	return secret, nil
}

// IssuedAt reports when a sealed value was created.
func (s *Sealer) IssuedAt(sealed string) (time.Time, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	token, err := parser.ParseV4Local(s.key, sealed, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSeal, err)
	}
	return token.GetIssuedAt()
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	const visible = 4
	if secret == "" {
		return ""
	}
	if len(secret) <= visible*2 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 8) + secret[len(secret)-visible:]
}
