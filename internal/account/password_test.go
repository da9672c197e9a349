package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLegacyDigest(t *testing.T) {
	tests := map[string]string{
		"":                             "0",
		"abcd":                         "2987074",
		"été":                          "227742",
		"motdepasse":                   "-1147511999",
		"correct horse battery staple": "1237976533",
	}

	for password, want := range tests {
		assert.Equal(t, want, legacyDigest(password), password)
	}
}

func TestHasher_Verify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("secret")
	require.NoError(t, err)

	tests := map[string]struct {
		digest     string
		password   string
		wantOK     bool
		wantLegacy bool
	}{
		"bcrypt match":    {digest: digest, password: "secret", wantOK: true},
		"bcrypt mismatch": {digest: digest, password: "Secret"},
		"legacy match":    {digest: "2987074", password: "abcd", wantOK: true, wantLegacy: true},
		"legacy mismatch": {digest: "2987074", password: "abce", wantLegacy: true},
		"empty digest":    {digest: "", password: "", wantLegacy: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ok, legacy := h.Verify(tt.digest, tt.password)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantLegacy, legacy)
		})
	}
}
