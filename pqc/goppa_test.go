package pqc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// toyGoppaKey builds a small (n=15, t=2) binary Goppa code for decoder
// testing: g(x) = x^2 + 3, support = {1, ..., 15}. Both were chosen so
// g(L_i) != 0 for every support element.
func toyGoppaKey() *goppaKey {
	l := make([]gfElem, 15)
	for i := range l {
		l[i] = gfElem(i + 1)
	}
	return &goppaKey{
		g: []gfElem{3, 0, 1},
		l: l,
		t: 2,
		n: 15,
	}
}

func TestGoppaDecodeRecoversWeightTErrors(t *testing.T) {
	gk := toyGoppaKey()
	r := make([]byte, 2)
	setBit(r, 2, 1)
	setBit(r, 9, 1)

	e, ok := gk.decode(r)
	require.True(t, ok)
	require.Equal(t, byte(1), getBit(e, 2))
	require.Equal(t, byte(1), getBit(e, 9))
	for i := 0; i < gk.n; i++ {
		if i != 2 && i != 9 {
			require.Equal(t, byte(0), getBit(e, i), "position %d", i)
		}
	}
}

func TestGoppaDecodeFailsOverWeight(t *testing.T) {
	gk := toyGoppaKey()
	r := make([]byte, 2)
	setBit(r, 1, 1)
	setBit(r, 5, 1)
	setBit(r, 11, 1) // weight 3 > t=2

	_, ok := gk.decode(r)
	require.False(t, ok)
}

func TestGoppaSyndromeZeroForZeroWord(t *testing.T) {
	gk := toyGoppaKey()
	s := gk.syndrome(make([]byte, 2))
	for _, v := range s {
		require.Equal(t, gfElem(0), v)
	}
}
