// Package auth protects the completion credential at rest.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PASETO v4 requires a 256-bit (32-byte) symmetric key.
	keyLength = 32
	// Expected hex-encoded length (32 bytes = 64 hex characters).
	keyHexLength = 64

	keyFileName = "secret.key"
)

// LoadOrGenerateKey loads or generates the symmetric key that seals the
// stored credential. The key lives in <dataPath>/secret.key as hex.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	keyPath := filepath.Join(dataPath, keyFileName)

	//#nosec G304 -- Key path is derived from the configured data path
	if keyBytes, err := os.ReadFile(keyPath); err == nil {
		return decodeHexKey(strings.TrimSpace(string(keyBytes)))
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate secret key: %w", err)
	}

	if err := writeSecretFile(dataPath, keyFileName, hex.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("failed to save secret key: %w", err)
	}

	return key, nil
}

func decodeHexKey(keyHex string) ([]byte, error) {
	if len(keyHex) != keyHexLength {
		return nil, fmt.Errorf("invalid secret key length: expected %d hex chars, got %d", keyHexLength, len(keyHex))
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid secret key format: not valid hex: %w", err)
	}
	return key, nil
}

// writeSecretFile writes contents to dir/name readable by the owner only.
func writeSecretFile(dir, name, contents string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o600)
}
