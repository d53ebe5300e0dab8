package pqc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingNTTRoundTrip(t *testing.T) {
	for _, rp := range []*ringParams{kyberRing, dilithiumRing} {
		var p Poly
		for i := range p.Coeffs {
			p.Coeffs[i] = int32(i*7+3) % rp.q
		}
		orig := p
		rp.NTT(&p)
		rp.InvNTT(&p)
		require.Equal(t, orig.Coeffs, p.Coeffs)
	}
}

func TestRingMultiplyDistributesOverAdd(t *testing.T) {
	rp := kyberRing
	var a, b, c Poly
	for i := range a.Coeffs {
		a.Coeffs[i] = int32(i) % rp.q
		b.Coeffs[i] = int32(2*i+1) % rp.q
		c.Coeffs[i] = int32(3*i+5) % rp.q
	}
	lhs := rp.Multiply(&a, rp.Add(&b, &c))
	rhs := rp.Add(rp.Multiply(&a, &b), rp.Multiply(&a, &c))
	require.Equal(t, rhs.Coeffs, lhs.Coeffs)
}

// schoolbookMultiply computes f*g mod (x^256+1, q) directly, without going
// through the NTT, as an independent reference for Multiply.
func schoolbookMultiply(rp *ringParams, f, g *Poly) *Poly {
	var r Poly
	for i := 0; i < RingN; i++ {
		if f.Coeffs[i] == 0 {
			continue
		}
		for j := 0; j < RingN; j++ {
			prod := int64(f.Coeffs[i]) * int64(g.Coeffs[j])
			k := i + j
			if k >= RingN {
				k -= RingN
				prod = -prod
			}
			r.Coeffs[k] = rp.reduce(int32((int64(r.Coeffs[k]) + prod) % int64(rp.q)))
		}
	}
	return &r
}

func TestRingMultiplyMatchesSchoolbookConvolution(t *testing.T) {
	for _, rp := range []*ringParams{kyberRing, dilithiumRing} {
		// x * x = x^2: the minimal case that catches a base-multiplication
		// or pointwise-product mixup.
		var x Poly
		x.Coeffs[1] = 1
		got := rp.Multiply(&x, &x)
		var want Poly
		want.Coeffs[2] = 1
		require.Equal(t, want.Coeffs, got.Coeffs, "x*x")

		// (1+x)*(1-x) = 1-x^2
		var a, b Poly
		a.Coeffs[0], a.Coeffs[1] = 1, 1
		b.Coeffs[0], b.Coeffs[1] = 1, rp.reduce(-1)
		got = rp.Multiply(&a, &b)
		var want2 Poly
		want2.Coeffs[0] = 1
		want2.Coeffs[2] = rp.reduce(-1)
		require.Equal(t, want2.Coeffs, got.Coeffs, "(1+x)*(1-x)")

		// wraparound: x^255 * x = -1 (since x^256 == -1 mod x^256+1)
		var x255 Poly
		x255.Coeffs[255] = 1
		got = rp.Multiply(&x255, &x)
		var want3 Poly
		want3.Coeffs[0] = rp.reduce(-1)
		require.Equal(t, want3.Coeffs, got.Coeffs, "x^255*x wraps to -1")

		// dense pseudo-random polynomials, checked against the independent
		// schoolbook convolution.
		var f, g Poly
		for i := range f.Coeffs {
			f.Coeffs[i] = int32(i*17+11) % rp.q
			g.Coeffs[i] = int32(i*13+5) % rp.q
		}
		viaNTT := rp.Multiply(&f, &g)
		viaSchoolbook := schoolbookMultiply(rp, &f, &g)
		require.Equal(t, viaSchoolbook.Coeffs, viaNTT.Coeffs, "dense schoolbook cross-check")
	}
}

func TestSampleUniformStaysInRange(t *testing.T) {
	xof := NewShake128XOF([]byte("sample-uniform-seed"))
	p := kyberRing.SampleUniform(xof)
	for _, c := range p.Coeffs {
		require.GreaterOrEqual(t, c, int32(0))
		require.Less(t, c, kyberRing.q)
	}
}

func TestSampleCBDBounded(t *testing.T) {
	buf := make([]byte, 2*3*RingN/8)
	for i := range buf {
		buf[i] = byte(i * 37)
	}
	p := SampleCBD(buf, 3)
	for _, c := range p.Coeffs {
		require.GreaterOrEqual(t, c, int32(-3))
		require.LessOrEqual(t, c, int32(3))
	}
}
