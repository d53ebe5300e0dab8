package pqc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyContainerRoundTrip(t *testing.T) {
	rng := NewPrngFromSeed([]byte("keycontainer-round-trip-seed"))
	var kem Kem
	kp, err := kem.Generate(KyberK3, rng)
	require.NoError(t, err)

	for _, key := range []*AsymmetricKey{kp.Public, kp.Private} {
		b, err := SerializeKey(key)
		require.NoError(t, err)
		require.Equal(t, 7+len(key.Bytes()), len(b))

		got, err := DeserializeKey(b)
		require.NoError(t, err)
		require.Equal(t, key.Primitive(), got.Primitive())
		require.Equal(t, key.Class(), got.Class())
		require.Equal(t, key.Parameters(), got.Parameters())
		require.Equal(t, key.Bytes(), got.Bytes())
	}
}

func TestKeyContainerLayout(t *testing.T) {
	rng := NewPrngFromSeed([]byte("keycontainer-layout-seed"))
	var kem Kem
	kp, err := kem.Generate(KyberK2, rng)
	require.NoError(t, err)

	b, err := SerializeKey(kp.Public)
	require.NoError(t, err)
	require.Equal(t, byte(PrimitiveKyber), b[0])
	require.Equal(t, byte(ClassPublic), b[1])
	require.Equal(t, byte(KyberK2), b[2])
	n := getUint32LE(b[3:7])
	require.Equal(t, uint32(len(kp.Public.Bytes())), n)
}

func TestKeyContainerRejectsTruncatedLength(t *testing.T) {
	rng := NewPrngFromSeed([]byte("keycontainer-truncated-seed"))
	var kem Kem
	kp, err := kem.Generate(KyberK2, rng)
	require.NoError(t, err)

	b, err := SerializeKey(kp.Public)
	require.NoError(t, err)
	_, err = DeserializeKey(b[:len(b)-1])
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestKeyContainerRejectsShortHeader(t *testing.T) {
	_, err := DeserializeKey([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidKey)
}
