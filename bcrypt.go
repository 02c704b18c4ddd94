package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// legacyPBKDF2Iterations is the iteration count assumed when a legacy
// digest omits it, matching the Werkzeug default of the era the original
// records were provisioned under.
const legacyPBKDF2Iterations = 260000

// HashPassword will generate a password hash using the current scheme
// (bcrypt). Legacy schemes are verify-only; they are never used for new
// hashes.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}

// VerifyPassword reports whether the cleartext password matches the stored
// digest. It returns false, never an error, for empty, malformed, or
// unsupported digests, so a stakeholder without a password set simply can
// not authenticate.
func VerifyPassword(password, digest string) bool {
	if password == "" || digest == "" {
		return false
	}

	switch {
	case strings.HasPrefix(digest, "$2a$"),
		strings.HasPrefix(digest, "$2b$"),
		strings.HasPrefix(digest, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	case strings.HasPrefix(digest, "pbkdf2:"):
		return verifyLegacyPBKDF2(password, digest)
	default:
		return false
	}
}

// verifyLegacyPBKDF2 validates Werkzeug-style digests of the form
// pbkdf2:sha256:<iterations>$<salt>$<hex>. The iteration segment is
// optional in very old records.
func verifyLegacyPBKDF2(password, digest string) bool {
	parts := strings.SplitN(digest, "$", 3)
	if len(parts) != 3 {
		return false
	}

	method, salt, want := parts[0], parts[1], parts[2]

	spec := strings.Split(method, ":")
	if len(spec) < 2 || spec[0] != "pbkdf2" || spec[1] != "sha256" {
		return false
	}

	iterations := legacyPBKDF2Iterations
	if len(spec) >= 3 {
		n, err := strconv.Atoi(spec[2])
		if err != nil || n <= 0 {
			return false
		}
		iterations = n
	}

	wantRaw, err := hex.DecodeString(want)
	if err != nil || len(wantRaw) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(wantRaw), sha256.New)
	return subtle.ConstantTimeCompare(got, wantRaw) == 1
}

// RandomPasswordHash is a throwaway hash, used when provisioning a record
// that has no password yet.
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}

var (
	dummyDigestOnce sync.Once
	dummyDigestVal  string
)

// dummyDigest is a real bcrypt digest of a value nobody knows. The
// authenticator verifies against it when the email does not resolve to a
// record, so the unknown-email path costs the same as a wrong password.
func dummyDigest() string {
	dummyDigestOnce.Do(func() {
		dummyDigestVal = RandomPasswordHash()
	})
	return dummyDigestVal
}
