// Package id generates short prefixed identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// alphabet omits look-alike characters so IDs survive being read aloud or retyped.
const alphabet = "23456789abcdefghjkmnpqrstuvwxyz"

const length = 12

// Generate returns prefix-<nanoid>, e.g. "gen-4kq9xw2mtb7r".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics when the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
