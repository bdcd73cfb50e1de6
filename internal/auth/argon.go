package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Memory      = 64 * 1024
	argon2Iterations  = 3
	argon2Parallelism = 4
	argon2SaltLength  = 16

	// Bounds hashing cost for absurd inputs.
	maxPassphraseLength = 1024

	saltFileName = "secret.salt"
)

// DeriveKey derives the sealing key from a passphrase with Argon2id. The
// salt is generated once and kept in <dataPath>/secret.salt, so the same
// passphrase yields the same key across restarts.
func DeriveKey(passphrase, dataPath string) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase cannot be empty")
	}
	if len(passphrase) > maxPassphraseLength {
		return nil, errors.New("passphrase exceeds maximum length")
	}

	salt, err := loadOrGenerateSalt(dataPath)
	if err != nil {
		return nil, err
	}

	return argon2.IDKey(
		[]byte(passphrase),
		salt,
		argon2Iterations,
		argon2Memory,
		argon2Parallelism,
		keyLength,
	), nil
}

func loadOrGenerateSalt(dataPath string) ([]byte, error) {
	//#nosec G304 -- Salt path is derived from the configured data path
	if raw, err := os.ReadFile(filepath.Join(dataPath, saltFileName)); err == nil {
		salt, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil || len(salt) != argon2SaltLength {
			return nil, fmt.Errorf("invalid salt file %s", saltFileName)
		}
		return salt, nil
	}

	salt := make([]byte, argon2SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := writeSecretFile(dataPath, saltFileName, hex.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("failed to save salt: %w", err)
	}
	return salt, nil
}
