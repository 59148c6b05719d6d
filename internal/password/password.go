// Package password hashes and verifies user passwords.
//
// Two schemes exist. SHA256 is the legacy scheme: an unsalted, single-pass,
// deterministic hex digest. It is kept so stored hashes stay compatible, but
// it is weak for password storage (identical passwords share a hash and it is
// cheap to brute force). Argon2ID produces salted, memory-hard PHC strings and
// is the scheme to switch to. Verify accepts either format, so the scheme can
// be changed without locking existing users out; hashes are not upgraded.
package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Hasher turns a plaintext password into its stored form and checks it later.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

// New returns the hasher for scheme ("sha256" or "argon2id").
func New(scheme string) (Hasher, error) {
	switch scheme {
	case "sha256":
		return SHA256{}, nil
	case "argon2id":
		return Argon2ID{}, nil
	default:
		return nil, fmt.Errorf("unknown password hash scheme %q", scheme)
	}
}

// SHA256 hashes with a bare SHA-256 digest. Deterministic and weak.
type SHA256 struct{}

func (SHA256) Hash(password string) (string, error) {
	return sha256Hex(password), nil
}

func (SHA256) Verify(password, encodedHash string) bool {
	return verify(password, encodedHash)
}

func sha256Hex(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Argon2id parameters - tuned for security vs performance balance
// Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16

	argon2Prefix = "$argon2id$"
)

// Argon2ID hashes with salted argon2id and encodes the result in PHC format.
type Argon2ID struct{}

func (Argon2ID) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// Encode as: $argon2id$v=19$m=65536,t=3,p=4$salt$hash
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func (Argon2ID) Verify(password, encodedHash string) bool {
	return verify(password, encodedHash)
}

// verify dispatches on the stored format.
func verify(password, encodedHash string) bool {
	if strings.HasPrefix(encodedHash, argon2Prefix) {
		return verifyArgon2ID(password, encodedHash)
	}
	return subtle.ConstantTimeCompare([]byte(sha256Hex(password)), []byte(encodedHash)) == 1
}

func verifyArgon2ID(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(want)))

	return subtle.ConstantTimeCompare(want, got) == 1
}
