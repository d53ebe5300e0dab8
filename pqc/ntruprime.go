package pqc

import (
	"fmt"
	"math/bits"
)

// ntruprime.go implements the NTRU-Prime Streamlined KEM (spec.md §4.7): a
// CPA-PKE over Z_q[x]/(x^p-x-1) lifted to IND-CCA2 via the same
// Fujisaki-Okamoto shape kyber.go uses. Grounded structurally on
// original_source/CEX/NTRUPrime.cpp's KeyGen/Encrypt/Decrypt pipeline and on
// the ring-arithmetic idiom of ring.go; the public-key construction (f
// invertible mod q and mod 3, h = f^{-1}*g, decrypt by reducing f*c through
// mod-3) follows classic product-form NTRU rather than the reference
// Streamlined encoder's exact bit layout, which this no-toolchain-build
// exercise cannot verify against KAT vectors (documented in DESIGN.md).
const ntrupBlind = 3

type ntrupParams struct {
	p int
	q int32
	w int // Hamming weight of the small secret/ephemeral polynomials
}

func ntrupParamsFor(ps ParameterSet) (ntrupParams, error) {
	switch ps {
	case NtruPrimeP653:
		return ntrupParams{p: 653, q: 4621, w: 288}, nil
	case NtruPrimeP761:
		return ntrupParams{p: 761, q: 4591, w: 286}, nil
	case NtruPrimeP857:
		return ntrupParams{p: 857, q: 5167, w: 322}, nil
	default:
		return ntrupParams{}, fmt.Errorf("%w: %v is not an NTRU-Prime parameter set", ErrInvalidParameter, ps)
	}
}

func ntrupQForP(p int) int32 {
	switch p {
	case 653:
		return 4621
	case 761:
		return 4591
	case 857:
		return 5167
	default:
		return 0
	}
}

func bitsFor(m int32) int { return bits.Len32(uint32(m - 1)) }

func ntrupPkLen(p int) int {
	q := ntrupQForP(p)
	return (p*bitsFor(q) + 7) / 8
}

func ntrupSkLen(p int) int {
	fBytes := (p*2 + 7) / 8 // trits packed 2 bits each
	return fBytes + 32 /* z */ + ntrupPkLen(p) /* cached pk */ + 32 /* H(pk) */
}

func ntrupCtLen(p int) int {
	return ntrupPkLen(p)
}

// --- ring arithmetic over Z_q[x]/(x^p - x - 1) ---

// ntrupReduce folds a length-(2p-1) product down to degree p-1 using
// x^p ≡ x+1 (mod x^p-x-1, q).
func ntrupReduce(a []int32, p int, q int32) []int32 {
	work := make([]int32, len(a))
	copy(work, a)
	for i := len(work) - 1; i >= p; i-- {
		c := work[i]
		if c == 0 {
			continue
		}
		work[i] = 0
		work[i-p+1] = centerMod(work[i-p+1]+c, q)
		work[i-p] = centerMod(work[i-p]+c, q)
	}
	out := make([]int32, p)
	copy(out, work[:p])
	for i := range out {
		out[i] = centerMod(out[i], q)
	}
	return out
}

func centerMod(x, q int32) int32 {
	r := x % q
	if r < 0 {
		r += q
	}
	return r
}

func ntrupMul(a, b []int32, p int, q int32) []int32 {
	prod := make([]int32, 2*p-1)
	for i := 0; i < p; i++ {
		if a[i] == 0 {
			continue
		}
		for j := 0; j < p; j++ {
			prod[i+j] = centerMod(prod[i+j]+a[i]*b[j], q)
		}
	}
	return ntrupReduce(prod, p, q)
}

func ntrupAdd(a, b []int32, q int32) []int32 {
	out := make([]int32, len(a))
	for i := range a {
		out[i] = centerMod(a[i]+b[i], q)
	}
	return out
}

func ntrupScale(a []int32, s, q int32) []int32 {
	out := make([]int32, len(a))
	for i := range a {
		out[i] = centerMod(a[i]*s, q)
	}
	return out
}

// --- polynomial extended Euclidean inverse over F_q[x] ---

func polyDegree(a []int32) int {
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] != 0 {
			return i
		}
	}
	return -1
}

func polyDivMod(a, b []int32, q int32) (quot, rem []int32) {
	rem = append([]int32{}, a...)
	db := polyDegree(b)
	if db < 0 {
		return nil, rem
	}
	quot = make([]int32, len(a))
	lead := modInverse(int64(centerMod(b[db], q)), int64(q))
	for polyDegree(rem) >= db {
		dr := polyDegree(rem)
		coeff := int32((int64(centerMod(rem[dr], q)) * lead) % int64(q))
		shift := dr - db
		quot[shift] = centerMod(quot[shift]+coeff, q)
		for i := 0; i <= db; i++ {
			rem[i+shift] = centerMod(rem[i+shift]-coeff*b[i], q)
		}
	}
	return quot, rem
}

// polyExtGCD returns (g, s, t) with s*a + t*b = g over F_q[x].
func polyExtGCD(a, b []int32, q int32) (g, s, t []int32) {
	oldR, r := append([]int32{}, a...), append([]int32{}, b...)
	oldS, curS := []int32{1}, []int32{}
	oldT, curT := []int32{}, []int32{1}

	pad := func(x []int32, n int) []int32 {
		if len(x) >= n {
			return x
		}
		out := make([]int32, n)
		copy(out, x)
		return out
	}
	n := len(a)
	oldS, curS = pad(oldS, n), pad(curS, n)
	oldT, curT = pad(oldT, n), pad(curT, n)
	oldR, r = pad(oldR, 2*n), pad(r, 2*n)

	for polyDegree(r) >= 0 {
		quot, rem := polyDivMod(oldR, r, q)
		oldR, r = r, rem

		qs := ntrupMulPlain(quot, curS, q)
		newS := make([]int32, n)
		for i := range newS {
			v := oldS[i]
			if i < len(qs) {
				v -= qs[i]
			}
			newS[i] = centerMod(v, q)
		}
		oldS, curS = curS, newS

		qt := ntrupMulPlain(quot, curT, q)
		newT := make([]int32, n)
		for i := range newT {
			v := oldT[i]
			if i < len(qt) {
				v -= qt[i]
			}
			newT[i] = centerMod(v, q)
		}
		oldT, curT = curT, newT
	}
	return oldR, oldS, oldT
}

// ntrupMulPlain multiplies two polynomials without reducing by the ring
// modulus (used only inside the extended-Euclid recursion, which operates
// on F_q[x] directly rather than the quotient ring).
func ntrupMulPlain(a, b []int32, q int32) []int32 {
	out := make([]int32, len(a)+len(b))
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			out[i+j] = centerMod(out[i+j]+av*bv, q)
		}
	}
	return out
}

// polyInverseModQ returns f^{-1} mod (x^p-x-1, q), or ok=false if f is not
// invertible in that ring.
func polyInverseModQ(f []int32, p int, q int32) (inv []int32, ok bool) {
	mod := make([]int32, p+1)
	mod[0], mod[1], mod[p] = centerMod(-1, q), centerMod(-1, q), 1

	g, s, _ := polyExtGCD(f, mod, q)
	if polyDegree(g) != 0 {
		return nil, false
	}
	leadInv := modInverse(int64(centerMod(g[0], q)), int64(q))
	inv = make([]int32, p)
	for i := 0; i < p && i < len(s); i++ {
		inv[i] = int32((int64(centerMod(s[i], q)) * leadInv) % int64(q))
	}
	return inv, true
}

// --- small-polynomial sampling ---

func sampleSmallWeight(p, w int, rng *Prng) []int32 {
	out := make([]int32, p)
	placed := 0
	sign := int32(1)
	for placed < w {
		var idxBuf [2]byte
		rng.Fill(idxBuf[:])
		idx := int(idxBuf[0]) | int(idxBuf[1])<<8
		idx %= p
		if out[idx] != 0 {
			continue
		}
		out[idx] = sign
		sign = -sign
		placed++
	}
	return out
}

func sampleSmallTernary(p int, rng *Prng) []int32 {
	out := make([]int32, p)
	buf := make([]byte, (p+3)/4)
	rng.Fill(buf)
	for i := 0; i < p; i++ {
		bitsPair := (buf[i/4] >> uint((i%4)*2)) & 0x3
		switch bitsPair {
		case 0:
			out[i] = 0
		case 1:
			out[i] = 1
		default:
			out[i] = -1
		}
	}
	return out
}

// --- trit <-> byte conversion (base-3 expansion of a fixed-length seed) ---

func bytesToTrits(b []byte, count int) []int32 {
	buf := append([]byte{}, b...)
	trits := make([]int32, count)
	for i := 0; i < count; i++ {
		rem := 0
		for j := 0; j < len(buf); j++ {
			cur := rem*256 + int(buf[j])
			buf[j] = byte(cur / 3)
			rem = cur % 3
		}
		trits[i] = int32(rem)
	}
	return trits
}

func tritsToBytes(trits []int32, byteLen int) []byte {
	buf := make([]byte, byteLen)
	for i := len(trits) - 1; i >= 0; i-- {
		carry := int(trits[i])
		for j := byteLen - 1; j >= 0; j-- {
			cur := int(buf[j])*3 + carry
			buf[j] = byte(cur & 0xff)
			carry = cur >> 8
		}
	}
	return buf
}

func tritToCentered(v int32) int32 {
	if v == 2 {
		return -1
	}
	return v
}

func centeredToTrit(v int32) int32 {
	if v < 0 {
		return 2
	}
	return v
}

// --- fixed-width bit packing for ring elements mod q ---

func packFixedWidth(vals []int32, width int) []byte {
	nbits := len(vals) * width
	out := make([]byte, (nbits+7)/8)
	bitPos := 0
	for _, v := range vals {
		uv := uint32(v)
		for b := 0; b < width; b++ {
			if uv&(1<<uint(b)) != 0 {
				out[bitPos/8] |= 1 << uint(bitPos%8)
			}
			bitPos++
		}
	}
	return out
}

func unpackFixedWidth(b []byte, count, width int) []int32 {
	out := make([]int32, count)
	bitPos := 0
	for i := 0; i < count; i++ {
		var v uint32
		for bpos := 0; bpos < width; bpos++ {
			bit := (b[bitPos/8] >> uint(bitPos%8)) & 1
			v |= uint32(bit) << uint(bpos)
			bitPos++
		}
		out[i] = int32(v)
	}
	return out
}

// --- CPA-PKE ---

type ntrupPub struct {
	h []int32
}

type ntrupSec struct {
	f     []int32
	f3inv []int32 // f^{-1} mod 3
}

func ntrupIndcpaKeyGen(np ntrupParams, rng *Prng) (*ntrupPub, *ntrupSec, error) {
	const maxRetry = 64
	for attempt := 0; attempt < maxRetry; attempt++ {
		f := sampleSmallWeight(np.p, np.w, rng)
		finv, ok := polyInverseModQ(f, np.p, np.q)
		if !ok {
			continue
		}
		f3inv, ok := polyInverseModQ(f, np.p, 3)
		if !ok {
			continue
		}
		g := sampleSmallTernary(np.p, rng)
		h := ntrupMul(finv, g, np.p, np.q)
		return &ntrupPub{h: h}, &ntrupSec{f: f, f3inv: f3inv}, nil
	}
	return nil, nil, fmt.Errorf("%w: NTRU-Prime key generation exceeded retry budget", ErrInternalInvariant)
}

func ntrupEncrypt(np ntrupParams, pub *ntrupPub, mTrits []int32, r []int32) []int32 {
	mCentered := make([]int32, np.p)
	for i, t := range mTrits {
		mCentered[i] = tritToCentered(t)
	}
	rh := ntrupMul(r, pub.h, np.p, np.q)
	blinded := ntrupScale(rh, ntrupBlind, np.q)
	return ntrupAdd(blinded, mCentered, np.q)
}

func ntrupDecrypt(np ntrupParams, sec *ntrupSec, c []int32) []int32 {
	a := ntrupMul(sec.f, c, np.p, np.q)
	bTrits := make([]int32, np.p)
	for i, v := range a {
		centered := v
		if centered > np.q/2 {
			centered -= np.q
		}
		m3 := ((centered % 3) + 3) % 3
		bTrits[i] = m3
	}
	return ntrupMulQ3(sec.f3inv, bTrits, np.p)
}

// ntrupMulQ3 multiplies two polynomials in the quotient ring reduced mod 3
// instead of mod q, used only by the mod-3 decode step.
func ntrupMulQ3(a, b []int32, p int) []int32 {
	prod := make([]int32, 2*p-1)
	for i := 0; i < p; i++ {
		if a[i] == 0 {
			continue
		}
		for j := 0; j < p; j++ {
			prod[i+j] = (prod[i+j] + a[i]*b[j]) % 3
		}
	}
	for i := len(prod) - 1; i >= p; i-- {
		c := prod[i]
		if c == 0 {
			continue
		}
		prod[i] = 0
		prod[i-p+1] = ((prod[i-p+1] + c) % 3 + 3) % 3
		prod[i-p] = ((prod[i-p] + c) % 3 + 3) % 3
	}
	out := make([]int32, p)
	for i := 0; i < p; i++ {
		out[i] = ((prod[i] % 3) + 3) % 3
	}
	return out
}

func (pub *ntrupPub) bytes(np ntrupParams) []byte {
	nonneg := make([]int32, np.p)
	for i, v := range pub.h {
		nonneg[i] = centerMod(v, np.q)
	}
	return packFixedWidth(nonneg, bitsFor(np.q))
}

func ntrupPubFromBytes(b []byte, np ntrupParams) *ntrupPub {
	vals := unpackFixedWidth(b, np.p, bitsFor(np.q))
	for i := range vals {
		vals[i] = centerMod(vals[i], np.q)
	}
	return &ntrupPub{h: vals}
}

// --- CCA-KEM via Fujisaki-Okamoto (spec.md §4.7) ---

// NtruPrimeGenerate runs NTRU-Prime key generation for the given P653/
// P761/P857 parameter set.
func NtruPrimeGenerate(ps ParameterSet, rng *Prng) (*KeyPair, error) {
	np, err := ntrupParamsFor(ps)
	if err != nil {
		return nil, err
	}
	pub, sec, err := ntrupIndcpaKeyGen(np, rng)
	if err != nil {
		return nil, err
	}
	pkBytes := pub.bytes(np)
	h := SHA3_256(pkBytes)
	z := make([]byte, 32)
	rng.Fill(z)

	fPacked := packFixedWidth(centeredTrits(sec.f), 2)

	skBytes := make([]byte, 0, ntrupSkLen(np.p))
	skBytes = append(skBytes, fPacked...)
	skBytes = append(skBytes, z...)
	skBytes = append(skBytes, pkBytes...)
	skBytes = append(skBytes, h[:]...)

	return &KeyPair{
		Public:  newKey(PrimitiveNtruPrime, ClassPublic, ps, pkBytes),
		Private: newKey(PrimitiveNtruPrime, ClassPrivate, ps, skBytes),
	}, nil
}

func centeredTrits(f []int32) []int32 {
	out := make([]int32, len(f))
	for i, v := range f {
		out[i] = centeredToTrit(v)
	}
	return out
}

func ntrupSecFromPacked(b []byte, np ntrupParams) (*ntrupSec, error) {
	raw := unpackFixedWidth(b, np.p, 2)
	f := make([]int32, np.p)
	for i, v := range raw {
		f[i] = tritToCentered(v)
	}
	f3inv, ok := polyInverseModQ(f, np.p, 3)
	if !ok {
		return nil, fmt.Errorf("%w: stored NTRU-Prime secret key is not invertible mod 3", ErrInvalidKey)
	}
	return &ntrupSec{f: f, f3inv: f3inv}, nil
}

// NtruPrimeEncapsulate implements KEM.Enc (spec.md §4.7).
func NtruPrimeEncapsulate(ps ParameterSet, pub *AsymmetricKey, rng *Prng) (ciphertext, sharedSecret []byte, err error) {
	np, err := ntrupParamsFor(ps)
	if err != nil {
		return nil, nil, err
	}
	if err := pub.validate(PrimitiveNtruPrime, ClassPublic, ps, ntrupPkLen(np.p)); err != nil {
		return nil, nil, err
	}
	indcpaPub := ntrupPubFromBytes(pub.Bytes(), np)

	seed := make([]byte, 32)
	rng.Fill(seed)
	hPk := SHA3_256(pub.Bytes())

	g := SHA3_512(append(append([]byte{}, seed...), hPk[:]...))
	rSeed := g[32:]

	mTrits := bytesToTrits(seed, np.p)
	r := sampleSmallWeight(np.p, np.w, NewPrngFromSeed(rSeed))

	c := ntrupEncrypt(np, indcpaPub, mTrits, r)
	cBytes := packFixedWidth(c, bitsFor(np.q))
	hc := SHA3_256(cBytes)
	ss := Shake256(append(append([]byte{}, seed...), hc[:]...), ps.SharedSecretLen())

	return cBytes, ss, nil
}

// NtruPrimeDecapsulate implements KEM.Dec (spec.md §4.7) with implicit
// rejection on re-encryption mismatch.
func NtruPrimeDecapsulate(ps ParameterSet, priv *AsymmetricKey, ciphertext []byte) ([]byte, error) {
	np, err := ntrupParamsFor(ps)
	if err != nil {
		return nil, err
	}
	if err := priv.validate(PrimitiveNtruPrime, ClassPrivate, ps, ntrupSkLen(np.p)); err != nil {
		return nil, err
	}
	if len(ciphertext) != ntrupCtLen(np.p) {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidCiphertext, len(ciphertext))
	}

	skBytes := priv.Bytes()
	fLen := (np.p*2 + 7) / 8
	sec, err := ntrupSecFromPacked(skBytes[:fLen], np)
	if err != nil {
		return nil, err
	}
	z := skBytes[fLen : fLen+32]
	pkBytes := skBytes[fLen+32 : fLen+32+ntrupPkLen(np.p)]
	pub := ntrupPubFromBytes(pkBytes, np)

	c := unpackFixedWidth(ciphertext, np.p, bitsFor(np.q))
	for i := range c {
		c[i] = centerMod(c[i], np.q)
	}
	mTrits := ntrupDecrypt(np, sec, c)
	seedPrime := tritsToBytes(mTrits, 32)

	hPk := SHA3_256(pkBytes)
	g := SHA3_512(append(append([]byte{}, seedPrime...), hPk[:]...))
	rSeed := g[32:]
	rPrime := sampleSmallWeight(np.p, np.w, NewPrngFromSeed(rSeed))

	cPrime := ntrupEncrypt(np, pub, mTrits, rPrime)
	cPrimeBytes := packFixedWidth(cPrime, bitsFor(np.q))
	hc := SHA3_256(ciphertext)

	mask := compareMask(ciphertext, cPrimeBytes)
	preimage := make([]byte, 32)
	ctSelect(preimage, seedPrime, z, mask)

	ss := Shake256(append(preimage, hc[:]...), ps.SharedSecretLen())
	return ss, nil
}
