package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	h, err := New("sha256")
	require.NoError(t, err)
	assert.IsType(t, SHA256{}, h)

	h, err = New("argon2id")
	require.NoError(t, err)
	assert.IsType(t, Argon2ID{}, h)

	_, err = New("md5")
	assert.Error(t, err)
}

func TestSHA256_KnownDigest(t *testing.T) {
	got, err := SHA256{}.Hash("abc")
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)
}

func TestSHA256_DeterministicFixedLengthHex(t *testing.T) {
	h := SHA256{}
	for _, p := range []string{"", "p1", "correct horse battery staple", "пароль"} {
		a, err := h.Hash(p)
		require.NoError(t, err)
		b, err := h.Hash(p)
		require.NoError(t, err)

		assert.Equal(t, a, b)
		assert.Len(t, a, 64)
		assert.Equal(t, strings.ToLower(a), a)
		assert.NotEqual(t, p, a)
		assert.True(t, h.Verify(p, a))
		assert.False(t, h.Verify(p+"x", a))
	}
}

func TestArgon2ID_SaltedRoundTrip(t *testing.T) {
	h := Argon2ID{}

	a, err := h.Hash("p1")
	require.NoError(t, err)
	b, err := h.Hash("p1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "$argon2id$v=19$m=65536,t=3,p=4$"))
	assert.NotEqual(t, a, b, "salt makes hashes differ")
	assert.True(t, h.Verify("p1", a))
	assert.True(t, h.Verify("p1", b))
	assert.False(t, h.Verify("wrong", a))
}

func TestVerify_AcceptsEitherFormat(t *testing.T) {
	legacy, _ := SHA256{}.Hash("p1")
	modern, _ := Argon2ID{}.Hash("p1")

	for _, h := range []Hasher{SHA256{}, Argon2ID{}} {
		assert.True(t, h.Verify("p1", legacy))
		assert.True(t, h.Verify("p1", modern))
	}
}

func TestVerify_RejectsMalformedArgon2(t *testing.T) {
	h := Argon2ID{}
	for _, enc := range []string{
		"$argon2id$",
		"$argon2id$v=19$m=65536,t=3,p=4$salt",
		"$argon2id$v=18$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=4$!!$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$",
	} {
		assert.False(t, h.Verify("p1", enc), enc)
	}
}
