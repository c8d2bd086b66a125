// internal/member/password.go
package member

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Changing them invalidates every stored credential,
// so they are fixed here rather than configurable.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// hashPassword derives an Argon2id key from the password under a fresh
// random salt. Both the key and the salt come back base64-encoded for the
// credentials table.
func hashPassword(password string) (string, string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", "", err
	}

	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return base64.StdEncoding.EncodeToString(key),
		base64.StdEncoding.EncodeToString(salt),
		nil
}

// verifyPassword re-derives the key under the stored salt and compares in
// constant time.
func verifyPassword(password, salt, hash string) (bool, error) {
	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	rawHash, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}

	key := argon2.IDKey([]byte(password), rawSalt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return subtle.ConstantTimeCompare(key, rawHash) == 1, nil
}
