package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrPasswordMismatch reports a failed credential comparison. Callers must
// collapse it into the same generic rejection as an unknown account.
var ErrPasswordMismatch = errors.New("password mismatch")

// Argon2id parameters per OWASP guidance; the time cost is configurable.
const (
	hashMemoryKiB   = 64 * 1024
	hashParallelism = 1
	hashSaltLength  = 16
	hashKeyLength   = 32
)

// HashPassword derives an argon2id hash in the standard encoded form
// $argon2id$v=19$m=...,t=...,p=...$salt$hash.
func HashPassword(password string, timeCost int) (string, error) {
	if timeCost <= 0 {
		timeCost = 3
	}
	salt := make([]byte, hashSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, uint32(timeCost), hashMemoryKiB, hashParallelism, hashKeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, hashMemoryKiB, timeCost, hashParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// ComparePassword rederives the hash from the stored parameters and
// compares in constant time. Returns ErrPasswordMismatch when the password
// does not match or the stored hash is not parseable.
func ComparePassword(encodedHash, password string) error {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ErrPasswordMismatch
	}

	var memory, timeCost uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &parallelism); err != nil {
		return ErrPasswordMismatch
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return ErrPasswordMismatch
	}
	stored, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return ErrPasswordMismatch
	}

	derived := argon2.IDKey([]byte(password), salt, timeCost, memory, parallelism, uint32(len(stored)))
	if subtle.ConstantTimeCompare(stored, derived) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
