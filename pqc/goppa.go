package pqc

// goppa.go implements binary Goppa decoding for Classic McEliece (spec.md
// §4.5): syndrome computation, Berlekamp-Massey, and Chien search, all
// over GF(2^13). Grounded on original_source/CEX/MPKCN6960T119.cpp's
// Decapsulate/DecryptE pipeline, reworked into a self-contained decoder.
type goppaKey struct {
	g []gfElem // t+1 coefficients, g[t] == 1 (monic)
	l []gfElem // support list, n elements
	t int
	n int
}

// syndrome computes s[0..2t-1] in GF(2^13): s_j = sum_i (r_i / g(L_i)^2) * L_i^j.
func (gk *goppaKey) syndrome(r []byte) []gfElem {
	s := make([]gfElem, 2*gk.t)
	for i := 0; i < gk.n; i++ {
		if getBit(r, i) == 0 {
			continue
		}
		gli := gfEval(gk.g, gk.l[i])
		inv := gfInv(gfMul(gli, gli))
		pow := inv
		for j := 0; j < 2*gk.t; j++ {
			s[j] = gfAdd(s[j], pow)
			pow = gfMul(pow, gk.l[i])
		}
	}
	return s
}

// berlekampMassey recovers the error-locator polynomial sigma (degree <= t)
// from the syndrome sequence via the standard GF(2^13) Berlekamp-Massey
// recursion.
func berlekampMassey(s []gfElem, t int) []gfElem {
	c := make([]gfElem, t+1)
	b := make([]gfElem, t+1)
	c[0], b[0] = 1, 1

	l := 0
	m := 1
	bCoeff := gfElem(1)

	for n := 0; n < 2*t; n++ {
		var delta gfElem
		for i := 0; i <= l; i++ {
			if i < len(c) && n-i >= 0 && n-i < len(s) {
				delta = gfAdd(delta, gfMul(c[i], s[n-i]))
			}
		}

		if delta == 0 {
			m++
			continue
		}

		tCopy := make([]gfElem, len(c))
		copy(tCopy, c)

		coeff := gfMul(delta, gfInv(bCoeff))
		for i := 0; i < len(b) && i+m < len(c); i++ {
			c[i+m] = gfAdd(c[i+m], gfMul(coeff, b[i]))
		}

		if 2*l <= n {
			l = n + 1 - l
			copy(b, tCopy)
			bCoeff = delta
			m = 1
		} else {
			m++
		}
	}

	return c[:l+1]
}

// chienSearch evaluates sigma at the inverse of every support element; a
// zero marks an error position. The Berlekamp-Massey connection polynomial
// satisfies sigma(x) = prod_{i in errors} (1 - L_i*x), i.e. its roots sit at
// the *inverses* of the error locations, not the locations themselves — so
// the search point is L_i^{-1}, matching the syndrome convention
// syndrome() builds (s_j = sum_i e_i / g(L_i)^2 * L_i^j). Returns the error
// vector (n bits) and the count of positions found.
func chienSearch(sigma []gfElem, l []gfElem, n int) ([]byte, int) {
	e := make([]byte, (n+7)/8)
	count := 0
	for i := 0; i < n; i++ {
		if gfEval(sigma, gfInv(l[i])) == 0 {
			setBit(e, i, 1)
			count++
		}
	}
	return e, count
}

// decode runs the full Goppa decoding pipeline (spec.md §4.5): syndrome,
// Berlekamp-Massey, Chien search, then a weight/syndrome cross-check.
// Decode failure is a first-class, non-exceptional result (ok==false);
// callers (McEliece decap) feed it straight into implicit rejection.
func (gk *goppaKey) decode(r []byte) (e []byte, ok bool) {
	s := gk.syndrome(r)
	sigma := berlekampMassey(s, gk.t)
	e, count := chienSearch(sigma, gk.l, gk.n)
	if count != gk.t {
		return e, false
	}
	want := gk.syndrome(xorBits(r, e))
	for _, v := range want {
		if v != 0 {
			return e, false
		}
	}
	return e, true
}

func xorBits(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
