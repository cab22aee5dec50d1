package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Argon2id parameters for newly hashed passwords.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

var (
	ErrMismatch        = errors.New("cryptox: password does not match")
	ErrUnsupportedHash = errors.New("cryptox: unsupported hash format")
)

// PasswordHasher produces peppered Argon2id PHC strings. It also accepts
// bcrypt hashes ($2a$, $2b$, $2y$) so records imported from older
// deployments keep working; those were never peppered.
type PasswordHasher struct {
	pepper string
	dummy  []byte
}

func NewPasswordHasher(pepper string) *PasswordHasher {
	salt := make([]byte, saltLength)
	_, _ = rand.Read(salt)
	return &PasswordHasher{pepper: pepper, dummy: salt}
}

// Hash returns "$argon2id$v=19$m=..,t=..,p=..$salt$hash".
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password+h.pepper), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify returns nil on a match, ErrMismatch on a wrong password and a
// wrapped ErrUnsupportedHash when encoded cannot be parsed.
func (h *PasswordHasher) Verify(password, encoded string) error {
	if isBcrypt(encoded) {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return ErrMismatch
		default:
			return fmt.Errorf("%w: %w", ErrUnsupportedHash, err)
		}
	}

	p, err := parsePHC(encoded)
	if err != nil {
		return err
	}

	computed := argon2.IDKey([]byte(password+h.pepper), p.salt, p.iterations, p.memory, p.parallelism,
		uint32(len(p.key))) // #nosec G115 - key length comes from our own encoder
	if subtle.ConstantTimeCompare(computed, p.key) == 1 {
		return nil
	}
	return ErrMismatch
}

// VerifyDummy spends the same effort as Verify against a throwaway salt.
// Callers use it when the account does not exist so lookups for unknown
// and known usernames cost the same.
func (h *PasswordHasher) VerifyDummy(password string) {
	_ = argon2.IDKey([]byte(password+h.pepper), h.dummy, iterations, memory, parallelism, keyLength)
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

type phc struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parsePHC(encoded string) (phc, error) {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", salt, hash]
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" || parts[2] != "v=19" {
		return phc{}, ErrUnsupportedHash
	}

	var p phc
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return phc{}, fmt.Errorf("%w: parameters: %w", ErrUnsupportedHash, err)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return phc{}, fmt.Errorf("%w: salt: %w", ErrUnsupportedHash, err)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return phc{}, fmt.Errorf("%w: hash: %w", ErrUnsupportedHash, err)
	}
	if len(p.key) == 0 {
		return phc{}, ErrUnsupportedHash
	}
	return p, nil
}
