package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nutricare/server/internal/apperr"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"Abcd123!", true},
		{"Ünïcödé1€", true},
		{"Abc12!", false},      // too short
		{"abcd123!", false},    // no upper
		{"ABCD123!", false},    // no lower
		{"Abcdefg!", false},    // no digit
		{"Abcd1234", false},    // no special
		{"Abcd 123!", false},   // whitespace
		{"Abcd123!\t", false},  // whitespace

		{"Abcd123!" + strings.Repeat("a", 64), true},  // 72 bytes
		{"Abcd123!" + strings.Repeat("a", 65), false}, // 73 bytes
		{"Abcd123!" + strings.Repeat("é", 33), false}, // 41 runes, 74 bytes
	}

	for _, tt := range tests {
		name := tt.password
		if len(name) > 20 {
			name = name[:8] + "_long"
		}
		t.Run(name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Abcd123!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Abcd123!", hash)

	ok, err := CheckPassword(hash, "Abcd123!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "Abcd123?")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("not-a-hash", "Abcd123!")
	assert.Error(t, err)
}
