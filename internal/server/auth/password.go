package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"

	"github.com/skydexapp/skydex/internal/common"
)

const (
	pbkdf2Iterations = 100000
	pbkdf2KeyLen     = 32
	saltSize         = 16
)

// HashPassword derives a hex-encoded PBKDF2-HMAC-SHA256 digest.
func HashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	return hex.EncodeToString(key)
}

// VerifyPassword compares in constant time.
func VerifyPassword(password, salt, passwordHash string) bool {
	derived := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(derived), []byte(passwordHash)) == 1
}

// NewSalt returns a fresh random hex salt.
func NewSalt() (string, error) {
	return common.MakeRandHexString(saltSize)
}
