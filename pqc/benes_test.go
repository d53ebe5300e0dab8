package pqc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func permuteBits(v []byte, perm []uint16) []byte {
	out := make([]byte, len(v))
	for i, dest := range perm {
		if getBit(v, i) != 0 {
			setBit(out, int(dest), 1)
		}
	}
	return out
}

func TestBenesIdentityPermutation(t *testing.T) {
	perm := make([]uint16, benesWires)
	for i := range perm {
		perm[i] = uint16(i)
	}
	cb := synthesizeControlBits(perm)

	v := make([]byte, benesWires/8)
	for i := 0; i < benesWires; i += 3 {
		setBit(v, i, 1)
	}
	orig := append([]byte{}, v...)
	applyBenes(v, cb)
	require.Equal(t, orig, v)
}

func TestBenesSingleTransposition(t *testing.T) {
	perm := make([]uint16, benesWires)
	for i := range perm {
		perm[i] = uint16(i)
	}
	perm[0], perm[1] = perm[1], perm[0]
	cb := synthesizeControlBits(perm)

	v := make([]byte, benesWires/8)
	setBit(v, 0, 1)
	want := permuteBits(v, perm)

	applyBenes(v, cb)
	require.Equal(t, want, v)
}

func TestGetSetBitRoundTrip(t *testing.T) {
	v := make([]byte, 2)
	setBit(v, 3, 1)
	setBit(v, 12, 1)
	require.Equal(t, byte(1), getBit(v, 3))
	require.Equal(t, byte(1), getBit(v, 12))
	require.Equal(t, byte(0), getBit(v, 4))
	setBit(v, 3, 0)
	require.Equal(t, byte(0), getBit(v, 3))
}
