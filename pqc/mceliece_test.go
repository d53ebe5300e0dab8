package pqc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMcElieceConfirmationMACRejectsTamperedTag covers spec.md §4.8's
// confirmation MAC: corrupting only the MAC suffix (leaving the received
// word that the Goppa decoder operates on untouched) must still fall back
// to implicit rejection rather than accepting a forged ciphertext.
func TestMcElieceConfirmationMACRejectsTamperedTag(t *testing.T) {
	rng := NewPrngFromSeed([]byte("mceliece-mac-tamper-seed"))
	var kem Kem
	kp, err := kem.Generate(McElieceN6960T119, rng)
	require.NoError(t, err)

	ct, ss1, err := kem.Encapsulate(McElieceN6960T119, kp.Public, rng)
	require.NoError(t, err)

	tampered := append([]byte{}, ct...)
	tampered[len(tampered)-1] ^= 0xff // flip all 8 bits of the last MAC byte

	ss2, err := kem.Decapsulate(McElieceN6960T119, kp.Private, tampered)
	require.NoError(t, err, "a forged MAC must implicitly reject, not error")
	require.NotEqual(t, ss1, ss2)
}

func TestMcElieceCiphertextCarriesReceivedWordAndMAC(t *testing.T) {
	rng := NewPrngFromSeed([]byte("mceliece-layout-seed"))
	var kem Kem
	kp, err := kem.Generate(McElieceN6960T119, rng)
	require.NoError(t, err)

	ct, _, err := kem.Encapsulate(McElieceN6960T119, kp.Public, rng)
	require.NoError(t, err)
	require.Len(t, ct, mcN/8+32)
}
