// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// Digest prefixes written by bcrypt implementations, including the bcryptjs
// digests carried over from the first version of the mobile backend.
var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way digest of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the digest.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid digest.
	Verify(password, digest string) (bool, error)

	// NeedsUpgrade returns true if the digest should be re-hashed with the current algorithm.
	NeedsUpgrade(digest string) bool
}

// Argon2idHasher implements PasswordHasher using argon2id.
// Legacy bcrypt digests are accepted by Verify and flagged by NeedsUpgrade.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// PHC string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// Verify checks if the password matches the digest.
func (h *Argon2idHasher) Verify(password, digest string) (bool, error) {
	if isBcrypt(digest) {
		return verifyBcrypt(password, digest)
	}

	d, err := parseArgon2Digest(digest)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), d.salt, d.time, d.memory, d.threads, uint32(len(d.key)))
	return subtle.ConstantTimeCompare(computed, d.key) == 1, nil
}

// argon2Digest is a decoded PHC argon2id string.
type argon2Digest struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

// parseArgon2Digest decodes $argon2id$v=19$m=<m>,t=<t>,p=<p>$<salt>$<key>.
func parseArgon2Digest(digest string) (*argon2Digest, error) {
	fields := strings.Split(digest, "$")
	if len(fields) != 6 || fields[0] != "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}
	algorithm, versionField, params, saltField, keyField := fields[1], fields[2], fields[3], fields[4], fields[5]

	if algorithm != "argon2id" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", algorithm)
	}

	var version int
	if _, err := fmt.Sscanf(versionField, "v=%d", &version); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").With("field", "version").Wrap(err)
	}
	if version != argon2.Version {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported argon2 version: %d", version)
	}

	var (
		d       argon2Digest
		threads uint32
	)
	if _, err := fmt.Sscanf(params, "m=%d,t=%d,p=%d", &d.memory, &d.time, &threads); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").With("field", "params").Wrap(err)
	}
	if threads == 0 || threads > 255 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d out of range", threads)
	}
	d.threads = uint8(threads)

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(saltField); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").With("field", "salt").Wrap(err)
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(keyField); err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").With("field", "key").Wrap(err)
	}
	if len(d.key) == 0 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("empty hash key")
	}
	return &d, nil
}

// NeedsUpgrade returns true if the digest is not argon2id (e.g., bcrypt).
func (h *Argon2idHasher) NeedsUpgrade(digest string) bool {
	return !strings.HasPrefix(digest, "$argon2id$")
}

func isBcrypt(digest string) bool {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(digest, prefix) {
			return true
		}
	}
	return false
}

// verifyBcrypt wraps bcrypt's comparison, which is itself constant time.
func verifyBcrypt(password, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("AUTH_INVALID_HASH").With("algorithm", "bcrypt").Wrap(err)
	}
}

// Compile-time interface check.
var _ PasswordHasher = (*Argon2idHasher)(nil)
