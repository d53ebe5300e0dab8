package pqc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecureKeyRoundTrip(t *testing.T) {
	rng := NewPrngFromSeed([]byte("securekey-round-trip-seed"))
	var kem Kem
	kp, err := kem.Generate(KyberK2, rng)
	require.NoError(t, err)

	salt := []byte("caller-supplied-salt")
	sealed, err := NewSecureKey(kp.Private, salt, PolicyBalanced)
	require.NoError(t, err)
	require.NotEqual(t, kp.Private.Bytes(), sealed.sealed, "sealed buffer must not equal plaintext")

	recovered, err := sealed.SecurePolynomial(salt, PolicyBalanced)
	require.NoError(t, err)
	require.Equal(t, kp.Private.Bytes(), recovered.Bytes())
	require.Equal(t, kp.Private.Primitive(), recovered.Primitive())
	require.Equal(t, kp.Private.Class(), recovered.Class())
	require.Equal(t, kp.Private.Parameters(), recovered.Parameters())
}

func TestSecureKeyWrongSaltFails(t *testing.T) {
	rng := NewPrngFromSeed([]byte("securekey-wrong-salt-seed"))
	var kem Kem
	kp, err := kem.Generate(KyberK2, rng)
	require.NoError(t, err)

	sealed, err := NewSecureKey(kp.Private, []byte("salt-a"), PolicyFast)
	require.NoError(t, err)

	_, err = sealed.SecurePolynomial([]byte("salt-b"), PolicyFast)
	require.Error(t, err)
}

func TestSecureKeyZeroisesOnDrop(t *testing.T) {
	rng := NewPrngFromSeed([]byte("securekey-zero-seed"))
	var kem Kem
	kp, err := kem.Generate(KyberK2, rng)
	require.NoError(t, err)

	sealed, err := NewSecureKey(kp.Private, []byte("salt"), PolicyStrong)
	require.NoError(t, err)
	sealed.Zero()

	allZero := true
	for _, b := range sealed.sealed {
		if b != 0 {
			allZero = false
			break
		}
	}
	require.True(t, allZero)
}
