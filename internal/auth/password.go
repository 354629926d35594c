package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2-HMAC-SHA256 parameters. Changing any of these invalidates every
// stored credential.
const (
	pbkdf2Iterations = 100_000
	hashLen          = 32 // derived key length, bytes

	// SaltSize is the per-credential salt length in bytes.
	SaltSize = 16

	// TokenSize is the session token length in random bytes. Tokens are
	// transmitted hex-encoded, so the wire form is twice this.
	TokenSize = 32
)

// GenerateSalt returns SaltSize bytes from the system CSPRNG.
//
// It panics if the entropy source fails; nothing sensible can continue
// without it.
func GenerateSalt() [SaltSize]byte {
	var salt [SaltSize]byte
	mustRead(salt[:])
	return salt
}

// GenerateToken returns a fresh hex-encoded session token.
func GenerateToken() string {
	var b [TokenSize]byte
	mustRead(b[:])
	return hex.EncodeToString(b[:])
}

func mustRead(b []byte) {
	if _, err := rand.Read(b); err != nil {
		panic("auth: reading system entropy: " + err.Error())
	}
}

// DerivePasswordHash returns the hex-encoded PBKDF2-HMAC-SHA256 digest of
// password under salt. Output is always 64 hex characters.
func DerivePasswordHash(password string, salt []byte) string {
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, hashLen, sha256.New)
	return hex.EncodeToString(key)
}

// ConstantTimeEquals reports whether a and b are equal. Lengths are not
// secret and a length mismatch returns false at once; otherwise the
// comparison time does not depend on where the inputs differ.
func ConstantTimeEquals(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
