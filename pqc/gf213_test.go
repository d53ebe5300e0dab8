package pqc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGF213MultiplicativeGroupOrder(t *testing.T) {
	// Every nonzero element must satisfy a^(2^13-1) = 1 — the defining
	// property of a degree-13 binary field, broken if the reduction
	// polynomial is wrong (it silently stops being a field and gfInv stops
	// inverting correctly).
	for _, a := range []gfElem{1, 2, 3, 17, 255, 4096, 8191} {
		acc := gfElem(1)
		for i := 0; i < gf213Mod-1; i++ {
			acc = gfMul(acc, a)
		}
		require.Equal(t, gfElem(1), acc, "a=%d", a)
	}
}

func TestGF213Inverse(t *testing.T) {
	for _, a := range []gfElem{1, 2, 3, 17, 255, 4096, 8191} {
		inv := gfInv(a)
		require.Equal(t, gfElem(1), gfMul(a, inv), "a=%d", a)
	}
	require.Equal(t, gfElem(0), gfInv(0))
}

func TestGF213AddIsItsOwnInverse(t *testing.T) {
	a, b := gfElem(1234), gfElem(5678)
	require.Equal(t, a, gfAdd(gfAdd(a, b), b))
}

func TestGF213EvalMatchesHorner(t *testing.T) {
	coeffs := []gfElem{1, 2, 3} // 1 + 2x + 3x^2
	x := gfElem(5)
	want := gfAdd(gfAdd(1, gfMul(2, x)), gfMul(3, gfMul(x, x)))
	require.Equal(t, want, gfEval(coeffs, x))
}
