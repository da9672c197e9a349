package account

import (
	"crypto/subtle"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/crypto/bcrypt"
)

// Hasher produces and verifies password digests. New digests are bcrypt; legacy digests (a
// 32-bit checksum rendered in decimal) are still accepted so they can be upgraded on login.
type Hasher struct {
	cost int
}

func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return Hasher{cost: cost}
}

func (h Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches digest, and whether digest is a legacy checksum that
// should be replaced.
func (h Hasher) Verify(digest, password string) (ok, legacy bool) {
	if isBcrypt(digest) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil, false
	}

	want := legacyDigest(password)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(want)) == 1, true
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2")
}

// legacyDigest is h = h*31 + c over UTF-16 code units with 32-bit wraparound.
func legacyDigest(password string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(password)) {
		h = h*31 + int32(c)
	}
	return strconv.FormatInt(int64(h), 10)
}
