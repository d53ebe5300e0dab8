package pqc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKemRoundTripAllParameterSets(t *testing.T) {
	sets := []ParameterSet{
		KyberK2, KyberK3, KyberK4,
		NtruPrimeP653, NtruPrimeP761, NtruPrimeP857,
		McElieceN6960T119,
	}
	var kem Kem
	for _, ps := range sets {
		ps := ps
		t.Run(ps.Primitive().String(), func(t *testing.T) {
			rng := NewPrngFromSeed([]byte("kem-round-trip-seed-" + ps.Primitive().String()))
			kp, err := kem.Generate(ps, rng)
			require.NoError(t, err)
			require.Len(t, kp.Public.Bytes(), ps.PublicKeyLen())
			require.Len(t, kp.Private.Bytes(), ps.PrivateKeyLen())

			ct, ss1, err := kem.Encapsulate(ps, kp.Public, rng)
			require.NoError(t, err)
			require.Len(t, ct, ps.CiphertextLen())
			require.Len(t, ss1, ps.SharedSecretLen())

			ss2, err := kem.Decapsulate(ps, kp.Private, ct)
			require.NoError(t, err)
			require.Equal(t, ss1, ss2)
		})
	}
}

func TestKemDecapsulateImplicitRejection(t *testing.T) {
	rng := NewPrngFromSeed([]byte("kem-implicit-rejection-seed"))
	var kem Kem
	kp, err := kem.Generate(KyberK2, rng)
	require.NoError(t, err)

	ct, ss1, err := kem.Encapsulate(KyberK2, kp.Public, rng)
	require.NoError(t, err)

	corrupted := append([]byte{}, ct...)
	corrupted[0] ^= 0xff

	ss2, err := kem.Decapsulate(KyberK2, kp.Private, corrupted)
	require.NoError(t, err, "implicit rejection must never surface as an error")
	require.Len(t, ss2, len(ss1))
	require.NotEqual(t, ss1, ss2)
}

func TestKemRejectsMismatchedKey(t *testing.T) {
	rng := NewPrngFromSeed([]byte("kem-mismatch-seed"))
	var kem Kem
	kp2, err := kem.Generate(KyberK2, rng)
	require.NoError(t, err)
	kp3, err := kem.Generate(KyberK3, rng)
	require.NoError(t, err)

	_, _, err = kem.Encapsulate(KyberK3, kp2.Public, rng)
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = kem.Decapsulate(KyberK2, kp3.Private, make([]byte, KyberK2.CiphertextLen()))
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestKemRejectsNonKemPrimitive(t *testing.T) {
	rng := NewPrngFromSeed([]byte("kem-wrong-primitive-seed"))
	var kem Kem
	_, err := kem.Generate(SphincsS128, rng)
	require.ErrorIs(t, err, ErrInvalidParameter)
}
