package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	SetPepper("test-pepper")

	for _, pw := range []string{"longenough1", "P@ssw0rd!#$%^&*()", strings.Repeat("a", 100), "   spaces   "} {
		t.Run(pw, func(t *testing.T) {
			hash, err := HashPassword(pw)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
			require.Len(t, strings.Split(hash, "$"), 6)

			require.NoError(t, VerifyPassword(pw, hash))
			require.ErrorIs(t, VerifyPassword(pw+"x", hash), ErrMismatch)
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	SetPepper("test-pepper")

	a, err := HashPassword("longenough1")
	require.NoError(t, err)
	b, err := HashPassword("longenough1")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyPassword_PepperChange(t *testing.T) {
	SetPepper("pepper-one")
	hash, err := HashPassword("longenough1")
	require.NoError(t, err)

	SetPepper("pepper-two")
	t.Cleanup(func() { SetPepper("test-pepper") })
	require.ErrorIs(t, VerifyPassword("longenough1", hash), ErrMismatch)
}

func TestVerifyPassword_InvalidHashFormat(t *testing.T) {
	for _, bad := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!!$aGFzaA",
	} {
		require.ErrorIs(t, VerifyPassword("pw", bad), ErrMalformedHash, bad)
	}
}

func TestGetPepperGeneratesOnce(t *testing.T) {
	SetPepper("")
	t.Cleanup(func() { SetPepper("test-pepper") })

	first := GetPepper()
	require.NotEmpty(t, first)
	require.Equal(t, first, GetPepper())
}
