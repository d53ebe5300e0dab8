package pqc

// ring.go implements the generic Z_q[x]/(x^n+1) ring arithmetic shared by
// Kyber and Dilithium (spec.md §2 "RingQ", §4.3): coefficient add/sub,
// negacyclic NTT/inverse-NTT, and the rejection-sampling uniform generator
// driven by the sponge. Both schemes use n=256; they differ only in q and
// the primitive root of unity the NTT twiddle factors are derived from, so
// a single parameterised implementation serves both — grounded on the
// structure of the teacher's kyber_ntt.go (real NTT code, not the stub
// paths elsewhere in that file) and on Yawning-kyber's poly.go/indcpa.go
// (CC0), generalised from a hardcoded q=3329 to an arbitrary prime modulus.
const RingN = 256

// ringParams bundles a modulus with its precomputed forward NTT twiddle
// factors, laid out in bit-reversed order exactly like the teacher's
// kyberZetas table.
//
// Whether x^n+1 splits all the way into n linear factors depends on q:
// Kyber's q=3329 only has a primitive 256th root of unity, so the negacyclic
// NTT is incomplete — it stops at 128 degree-2 factors, and multiplying in
// the transformed domain needs the degree-2 base multiplication (baseZetas)
// rather than a flat coefficient-wise product. Dilithium's q=8380417 has a
// primitive 512th root of unity, so its NTT is complete (256 linear
// factors) and the pointwise product alone is the ring product.
type ringParams struct {
	q         int32
	zetas     []int32 // forward, bit-reversed order; len 128 (incomplete) or 256 (complete)
	baseZetas []int32 // incomplete only: per-pair twiddle for the degree-2 base multiplication
	nInv      int32   // n^{-1} mod q (complete) or (n/2)^{-1} mod q (incomplete), applied once at the end of invNTT
	complete  bool    // true: x^n+1 splits into n linear factors (Dilithium); false: n/2 quadratics (Kyber)
}

func modPow(base, exp, mod int64) int64 {
	base %= mod
	if base < 0 {
		base += mod
	}
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result = (result * base) % mod
		}
		base = (base * base) % mod
		exp >>= 1
	}
	return result
}

func modInverse(a, mod int64) int64 {
	return modPow(a, mod-2, mod)
}

func bitRevN(x, bits int) int {
	r := 0
	for i := 0; i < bits; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}

func bitRev7(x int) int { return bitRevN(x, 7) }
func bitRev8(x int) int { return bitRevN(x, 8) }

// newRingParams derives the zeta table from a primitive 2n-th root of unity
// mod q (17 for Kyber's q=3329, 1753 for Dilithium's q=8380417 — the
// standard constants named in FIPS 203/204).
//
// complete=false (Kyber): zetas[i] = root^(bitrev7(i)) for i in [0,127],
// matching the 7-layer merge NTT that stops at degree-2 factors; baseZetas
// holds the degree-2 base-multiplication twiddle root^(2*bitrev7(i)+1) for
// each of the 128 resulting (x^2-baseZetas[i]) factors.
//
// complete=true (Dilithium): zetas[i] = root^(bitrev8(i)) for i in [0,255],
// an 8-layer merge NTT that splits all the way to linear factors, so no
// base multiplication is needed.
func newRingParams(q int32, root int32, complete bool) *ringParams {
	rp := &ringParams{q: q, complete: complete}
	if complete {
		rp.zetas = make([]int32, 256)
		for i := 0; i < 256; i++ {
			rp.zetas[i] = int32(modPow(int64(root), int64(bitRev8(i)), int64(q)))
		}
	} else {
		rp.zetas = make([]int32, 128)
		rp.baseZetas = make([]int32, 128)
		for i := 0; i < 128; i++ {
			e := bitRev7(i)
			rp.zetas[i] = int32(modPow(int64(root), int64(e), int64(q)))
			rp.baseZetas[i] = int32(modPow(int64(root), int64(2*e+1), int64(q)))
		}
	}
	if complete {
		rp.nInv = int32(modInverse(int64(RingN), int64(q)))
	} else {
		rp.nInv = int32(modInverse(int64(RingN/2), int64(q)))
	}
	return rp
}

var kyberRing = newRingParams(3329, 17, false)
var dilithiumRing = newRingParams(8380417, 1753, true)

// Poly is a length-256 vector of coefficients reduced mod q. Representation
// (NTT domain vs normal) is a property of the call contract, not a runtime
// flag (spec.md §3): callers must track which domain a Poly is in.
type Poly struct {
	Coeffs [RingN]int32
}

func (rp *ringParams) reduce(x int32) int32 {
	r := x % rp.q
	if r < 0 {
		r += rp.q
	}
	return r
}

// Add returns p+q coefficient-wise mod q.
func (rp *ringParams) Add(p, q *Poly) *Poly {
	var r Poly
	for i := 0; i < RingN; i++ {
		r.Coeffs[i] = rp.reduce(p.Coeffs[i] + q.Coeffs[i])
	}
	return &r
}

// Sub returns p-q coefficient-wise mod q.
func (rp *ringParams) Sub(p, q *Poly) *Poly {
	var r Poly
	for i := 0; i < RingN; i++ {
		r.Coeffs[i] = rp.reduce(p.Coeffs[i] - q.Coeffs[i])
	}
	return &r
}

// Neg returns -p coefficient-wise mod q.
func (rp *ringParams) Neg(p *Poly) *Poly {
	var r Poly
	for i := 0; i < RingN; i++ {
		r.Coeffs[i] = rp.reduce(-p.Coeffs[i])
	}
	return &r
}

// minLength is the shortest butterfly block the forward NTT merges down to:
// 1 for a complete split (every factor linear), 2 for an incomplete one
// (factors stop at degree 2 and need base multiplication).
func (rp *ringParams) minLength() int {
	if rp.complete {
		return 1
	}
	return 2
}

// NTT computes the forward negacyclic number-theoretic transform in place,
// Cooley-Tukey decimation-in-time: input in normal order, output in
// bit-reversed order (spec.md §4.3). Stops at minLength() butterfly blocks.
func (rp *ringParams) NTT(p *Poly) {
	k := 1
	min := rp.minLength()
	for length := 128; length >= min; length /= 2 {
		for start := 0; start < RingN; start += 2 * length {
			zeta := int64(rp.zetas[k])
			k++
			for j := start; j < start+length; j++ {
				t := int32((zeta * int64(p.Coeffs[j+length])) % int64(rp.q))
				p.Coeffs[j+length] = rp.reduce(p.Coeffs[j] - t)
				p.Coeffs[j] = rp.reduce(p.Coeffs[j] + t)
			}
		}
	}
}

// InvNTT computes the inverse transform in place: input in bit-reversed
// order, output in normal order, multiplying by nInv at the end
// (spec.md §4.3): n^{-1} mod q for the 8-layer complete transform, (n/2)^{-1}
// mod q for the 7-layer incomplete one.
func (rp *ringParams) InvNTT(p *Poly) {
	min := rp.minLength()
	k := len(rp.zetas) - 1
	for length := min; length <= 128; length *= 2 {
		for start := 0; start < RingN; start += 2 * length {
			zeta := int64(rp.zetas[k])
			k--
			for j := start; j < start+length; j++ {
				t := p.Coeffs[j]
				p.Coeffs[j] = rp.reduce(t + p.Coeffs[j+length])
				diff := rp.reduce(p.Coeffs[j+length] - t)
				p.Coeffs[j+length] = int32((zeta * int64(diff)) % int64(rp.q))
				if p.Coeffs[j+length] < 0 {
					p.Coeffs[j+length] += rp.q
				}
			}
		}
	}
	for i := range p.Coeffs {
		p.Coeffs[i] = int32((int64(p.Coeffs[i]) * int64(rp.nInv)) % int64(rp.q))
	}
}

// MulNTT returns the product of two NTT-domain polynomials, interpreted
// according to how far x^n+1 was split (spec.md §4.3).
//
// Complete split (Dilithium): every NTT slot is an independent linear
// factor, so the product is the flat coefficient-wise product.
//
// Incomplete split (Kyber): each adjacent coefficient pair (a0,a1) holds
// the degree-1 polynomial a0+a1*x modulo the factor (x^2-baseZetas[i]), so
// the product of two such polynomials needs the base-case multiplication
// (a0+a1x)(b0+b1x) mod (x^2-z) = (a0*b0+a1*b1*z) + (a0*b1+a1*b0)*x.
func (rp *ringParams) MulNTT(a, b *Poly) *Poly {
	var r Poly
	q := int64(rp.q)
	if rp.complete {
		for i := 0; i < RingN; i++ {
			v := (int64(a.Coeffs[i]) * int64(b.Coeffs[i])) % q
			r.Coeffs[i] = rp.reduce(int32(v))
		}
		return &r
	}
	for i := 0; i < RingN/2; i++ {
		a0, a1 := int64(a.Coeffs[2*i]), int64(a.Coeffs[2*i+1])
		b0, b1 := int64(b.Coeffs[2*i]), int64(b.Coeffs[2*i+1])
		z := int64(rp.baseZetas[i])
		r0 := (a0*b0 + ((a1*b1)%q)*z) % q
		r1 := (a0*b1 + a1*b0) % q
		r.Coeffs[2*i] = rp.reduce(int32(r0))
		r.Coeffs[2*i+1] = rp.reduce(int32(r1))
	}
	return &r
}

// Multiply returns f*g reduced mod (x^n+1, q) by round-tripping through
// the NTT domain — the path spec.md §4.3 specifies for Kyber/Dilithium.
func (rp *ringParams) Multiply(f, g *Poly) *Poly {
	ff := *f
	gg := *g
	rp.NTT(&ff)
	rp.NTT(&gg)
	prod := rp.MulNTT(&ff, &gg)
	rp.InvNTT(prod)
	return prod
}

// SampleUniform performs rejection sampling against an XOF stream: pull 3
// bytes at a time, interpret as two 12-bit integers, accept each value
// strictly less than q, until RingN coefficients are collected (spec.md
// §4.3). The acceptance rate — and hence how many XOF bytes are consumed —
// is a public quantity, never a secret one.
func (rp *ringParams) SampleUniform(xof *ShakeXOF) *Poly {
	var p Poly
	var buf [3]byte
	ctr := 0
	for ctr < RingN {
		_, _ = xof.Read(buf[:])
		d1 := int32(buf[0]) | (int32(buf[1]&0x0f) << 8)
		d2 := (int32(buf[1]) >> 4) | (int32(buf[2]) << 4)
		if d1 < rp.q && ctr < RingN {
			p.Coeffs[ctr] = d1
			ctr++
		}
		if d2 < rp.q && ctr < RingN {
			p.Coeffs[ctr] = d2
			ctr++
		}
	}
	return &p
}

// SampleCBD draws a polynomial from the centred binomial distribution of
// width eta (Kyber's noise sampler, spec.md §4.3): each coefficient is the
// difference of two eta-bit Hamming weights drawn from buf.
func SampleCBD(buf []byte, eta int) *Poly {
	var p Poly
	bitAt := func(pos int) int32 {
		return int32((buf[pos/8] >> uint(pos%8)) & 1)
	}
	bitsPerCoeff := 2 * eta
	for i := 0; i < RingN; i++ {
		base := i * bitsPerCoeff
		var a, b int32
		for j := 0; j < eta; j++ {
			a += bitAt(base + j)
		}
		for j := 0; j < eta; j++ {
			b += bitAt(base + eta + j)
		}
		p.Coeffs[i] = a - b
	}
	return &p
}
