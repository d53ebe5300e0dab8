package pqc

import "fmt"

// dilithium.go implements Dilithium (spec.md §4.12): a Fiat-Shamir-with-
// aborts lattice signature over the same Z_q[x]/(x^256+1) ring Kyber uses
// (q=8380417 here), reusing ring.go's dilithiumRing NTT and the fixed-width
// packing helper (packFixedWidth) already built for NTRU-Prime; its uniform
// rejection sampler (dilSampleUniformQ) is its own. Grounded structurally on the teacher's dilithium_sign.go
// parameter table and on the shape of KarpelesLab-mldsa's mldsa44.go
// (CC0), which the retrieval pack supplies as a real, non-stub ML-DSA
// reference.
const dilGamma2Standard = (8380417 - 1) / 88
const dilGamma2Large = (8380417 - 1) / 32

type dilParams struct {
	k, l          int
	eta           int
	tau           int
	beta          int
	gamma1Bits    int
	gamma2        int32
	omega         int
	d             int
}

func dilParamsFor(ps ParameterSet) (dilParams, error) {
	switch ps {
	case DilithiumS1:
		return dilParams{k: 4, l: 4, eta: 2, tau: 39, beta: 78, gamma1Bits: 18, gamma2: dilGamma2Standard, omega: 80, d: 13}, nil
	case DilithiumS2:
		return dilParams{k: 6, l: 5, eta: 4, tau: 49, beta: 196, gamma1Bits: 20, gamma2: dilGamma2Large, omega: 55, d: 13}, nil
	case DilithiumS3:
		return dilParams{k: 8, l: 7, eta: 2, tau: 60, beta: 120, gamma1Bits: 20, gamma2: dilGamma2Large, omega: 75, d: 13}, nil
	default:
		return dilParams{}, fmt.Errorf("%w: %v is not a Dilithium parameter set", ErrInvalidParameter, ps)
	}
}

func dilParamsForK(k int) dilParams {
	switch k {
	case 4:
		p, _ := dilParamsFor(DilithiumS1)
		return p
	case 6:
		p, _ := dilParamsFor(DilithiumS2)
		return p
	default:
		p, _ := dilParamsFor(DilithiumS3)
		return p
	}
}

func dilPkLen(k int) int { return 32 + k*320 }

func dilSkLen(k, l, d int) int {
	dp := dilParamsForK(k)
	etaBytes := (256*bitsFor(int32(2*dp.eta+1)) + 7) / 8
	return 32 + 32 + 32 + l*etaBytes + k*etaBytes + k*(256*(d+1)/8)
}

func dilSigLen(k, eta, tau, beta int) int {
	dp := dilParamsForK(k)
	zBytes := (256*dp.gamma1Bits + 7) / 8
	return 32 + dp.l*zBytes + (dp.omega + k)
}

// --- rounding primitives (spec.md §4.12) ---

func power2Round(a int32, d int) (a1, a0 int32) {
	half := int32(1) << uint(d-1)
	a0 = ((a+half-1)%(1<<uint(d)) + (1 << uint(d))) % (1 << uint(d))
	a0 -= half - 1
	a1 = (a - a0) >> uint(d)
	return a1, a0
}

func decompose(a int32, gamma2 int32) (a1, a0 int32) {
	a = centerMod(a, dilithiumRing.q)
	a0 = a % (2 * gamma2)
	if a0 > gamma2 {
		a0 -= 2 * gamma2
	}
	if a-a0 == dilithiumRing.q-1 {
		a1 = 0
		a0 -= 1
	} else {
		a1 = (a - a0) / (2 * gamma2)
	}
	return a1, a0
}

func makeHint(z, r int32, gamma2 int32) bool {
	r1, _ := decompose(r, gamma2)
	v1, _ := decompose(r+z, gamma2)
	return r1 != v1
}

func useHint(hint bool, r int32, gamma2 int32) int32 {
	r1, r0 := decompose(r, gamma2)
	m := (dilithiumRing.q - 1) / (2 * gamma2)
	if !hint {
		return r1
	}
	if r0 > 0 {
		return (r1 + 1) % m
	}
	return (r1 - 1 + m) % m
}

// --- sampling ---

func dilSampleEta(seed []byte, nonce uint16, eta int) *Poly {
	var p Poly
	ext := append(append([]byte{}, seed...), byte(nonce), byte(nonce>>8))
	xof := NewShake256XOF(ext)
	ctr := 0
	var buf [1]byte
	for ctr < RingN {
		_, _ = xof.Read(buf[:])
		for _, nibble := range [2]byte{buf[0] & 0x0f, buf[0] >> 4} {
			if ctr >= RingN {
				break
			}
			if eta == 2 {
				if nibble < 15 {
					v := int32(nibble % 5)
					p.Coeffs[ctr] = 2 - v
					ctr++
				}
			} else {
				if nibble < 9 {
					p.Coeffs[ctr] = 4 - int32(nibble)
					ctr++
				}
			}
		}
	}
	return &p
}

func dilSampleGamma1(seed []byte, nonce uint16, gamma1Bits int, gamma1 int32) *Poly {
	var p Poly
	ext := append(append([]byte{}, seed...), byte(nonce), byte(nonce>>8))
	total := (256*gamma1Bits + 7) / 8
	buf := Shake256(ext, total)
	vals := unpackFixedWidth(buf, RingN, gamma1Bits)
	for i, v := range vals {
		p.Coeffs[i] = gamma1 - v
	}
	return &p
}

// sampleInBall derives the weight-tau, ±1-coefficient challenge polynomial
// from a commitment hash (spec.md §4.12's "hash to challenge").
func sampleInBall(seed []byte, tau int) *Poly {
	var p Poly
	xof := NewShake256XOF(seed)
	var signBuf [8]byte
	_, _ = xof.Read(signBuf[:])
	signBits := uint64(0)
	for i, b := range signBuf {
		signBits |= uint64(b) << uint(8*i)
	}
	for i := RingN - tau; i < RingN; i++ {
		var jb [1]byte
		var j int
		for {
			_, _ = xof.Read(jb[:])
			j = int(jb[0])
			if j <= i {
				break
			}
		}
		p.Coeffs[i] = p.Coeffs[j]
		sign := int32(1)
		if signBits&1 != 0 {
			sign = -1
		}
		signBits >>= 1
		p.Coeffs[j] = sign
	}
	return &p
}

// --- key generation / sign / verify ---

// dilSampleUniformQ rejection-samples a polynomial uniform over
// [0,dilithiumRing.q): unlike Kyber's 12-bit q, Dilithium's q is a 23-bit
// prime, so each candidate needs 3 bytes and a 23-bit mask rather than
// ring.go's SampleUniform (which is sized for q<4096).
func dilSampleUniformQ(xof *ShakeXOF) *Poly {
	var p Poly
	var buf [3]byte
	ctr := 0
	for ctr < RingN {
		_, _ = xof.Read(buf[:])
		v := int32(buf[0]) | int32(buf[1])<<8 | int32(buf[2]&0x7f)<<16
		if v < dilithiumRing.q {
			p.Coeffs[ctr] = v
			ctr++
		}
	}
	return &p
}

func dilExpandA(rho []byte, k, l int) [][]*Poly {
	a := make([][]*Poly, k)
	for i := range a {
		a[i] = make([]*Poly, l)
		for j := range a[i] {
			ext := append(append([]byte{}, rho...), byte(j), byte(i))
			xof := NewShake128XOF(ext)
			a[i][j] = dilSampleUniformQ(xof)
		}
	}
	return a
}

func dilPackT1(t1 []*Poly) []byte {
	out := make([]byte, 0, len(t1)*320)
	for _, p := range t1 {
		nn := make([]int32, RingN)
		for i, c := range p.Coeffs {
			nn[i] = centerMod(c, 1<<10)
		}
		out = append(out, packFixedWidth(nn, 10)...)
	}
	return out
}

func dilUnpackT1(b []byte, k int) []*Poly {
	out := make([]*Poly, k)
	for i := 0; i < k; i++ {
		vals := unpackFixedWidth(b[i*320:(i+1)*320], RingN, 10)
		p := &Poly{}
		copy(p.Coeffs[:], vals)
		out[i] = p
	}
	return out
}

func dilPackEta(polys []*Poly, eta int) []byte {
	width := bitsFor(int32(2*eta + 1))
	out := make([]byte, 0)
	for _, p := range polys {
		vals := make([]int32, RingN)
		for i, c := range p.Coeffs {
			vals[i] = c + int32(eta)
		}
		out = append(out, packFixedWidth(vals, width)...)
	}
	return out
}

func dilUnpackEta(b []byte, count, eta int) []*Poly {
	width := bitsFor(int32(2*eta + 1))
	bytesPer := (256*width + 7) / 8
	out := make([]*Poly, count)
	for i := 0; i < count; i++ {
		vals := unpackFixedWidth(b[i*bytesPer:(i+1)*bytesPer], RingN, width)
		p := &Poly{}
		for j, v := range vals {
			p.Coeffs[j] = v - int32(eta)
		}
		out[i] = p
	}
	return out
}

func dilPackT0(polys []*Poly, d int) []byte {
	out := make([]byte, 0)
	width := d + 1
	half := int32(1) << uint(d)
	for _, p := range polys {
		vals := make([]int32, RingN)
		for i, c := range p.Coeffs {
			vals[i] = c + half
		}
		out = append(out, packFixedWidth(vals, width)...)
	}
	return out
}

func dilUnpackT0(b []byte, k, d int) []*Poly {
	width := d + 1
	half := int32(1) << uint(d)
	bytesPer := (256*width + 7) / 8
	out := make([]*Poly, k)
	for i := 0; i < k; i++ {
		vals := unpackFixedWidth(b[i*bytesPer:(i+1)*bytesPer], RingN, width)
		p := &Poly{}
		for j, v := range vals {
			p.Coeffs[j] = v - half
		}
		out[i] = p
	}
	return out
}

// DilithiumGenerate runs Dilithium key generation for S1/S2/S3.
func DilithiumGenerate(ps ParameterSet, rng *Prng) (*KeyPair, error) {
	dp, err := dilParamsFor(ps)
	if err != nil {
		return nil, err
	}
	seed := make([]byte, 32)
	rng.Fill(seed)
	expanded := Shake256(seed, 96)
	rho, rhoPrime, key := expanded[:32], expanded[32:64], expanded[64:]

	a := dilExpandA(rho, dp.k, dp.l)

	s1 := make([]*Poly, dp.l)
	for i := range s1 {
		s1[i] = dilSampleEta(rhoPrime, uint16(i), dp.eta)
	}
	s2 := make([]*Poly, dp.k)
	for i := range s2 {
		s2[i] = dilSampleEta(rhoPrime, uint16(dp.l+i), dp.eta)
	}

	s1NTT := make([]*Poly, dp.l)
	for i, p := range s1 {
		s1NTT[i] = &Poly{Coeffs: p.Coeffs}
		dilithiumRing.NTT(s1NTT[i])
	}

	t := make([]*Poly, dp.k)
	t1 := make([]*Poly, dp.k)
	t0 := make([]*Poly, dp.k)
	for i := 0; i < dp.k; i++ {
		acc := &Poly{}
		for j := 0; j < dp.l; j++ {
			aNTT := &Poly{Coeffs: a[i][j].Coeffs}
			acc = dilithiumRing.Add(acc, dilithiumRing.MulNTT(aNTT, s1NTT[j]))
		}
		dilithiumRing.InvNTT(acc)
		t[i] = dilithiumRing.Add(acc, s2[i])

		t1[i] = &Poly{}
		t0[i] = &Poly{}
		for c := 0; c < RingN; c++ {
			hi, lo := power2Round(t[i].Coeffs[c], dp.d)
			t1[i].Coeffs[c] = hi
			t0[i].Coeffs[c] = lo
		}
	}

	pk := append(append([]byte{}, rho...), dilPackT1(t1)...)
	tr := SHA3_256(pk)

	sk := make([]byte, 0, dilSkLen(dp.k, dp.l, dp.d))
	sk = append(sk, rho...)
	sk = append(sk, key...)
	sk = append(sk, tr[:]...)
	sk = append(sk, dilPackEta(s1, dp.eta)...)
	sk = append(sk, dilPackEta(s2, dp.eta)...)
	sk = append(sk, dilPackT0(t0, dp.d)...)

	return &KeyPair{
		Public:  newKey(PrimitiveDilithium, ClassPublic, ps, pk),
		Private: newKey(PrimitiveDilithium, ClassPrivate, ps, sk),
	}, nil
}

func dilInfinityNormExceeds(p *Poly, bound int32) bool {
	for _, c := range p.Coeffs {
		v := c
		if v > dilithiumRing.q/2 {
			v -= dilithiumRing.q
		}
		if v < 0 {
			v = -v
		}
		if v >= bound {
			return true
		}
	}
	return false
}

// DilithiumSign implements Sign (spec.md §4.12): Fiat-Shamir with aborts,
// retrying with a fresh commitment whenever z or the low bits of w exceed
// their rejection bound.
func DilithiumSign(ps ParameterSet, priv *AsymmetricKey, msg []byte, rng *Prng) ([]byte, error) {
	dp, err := dilParamsFor(ps)
	if err != nil {
		return nil, err
	}
	if err := priv.validate(PrimitiveDilithium, ClassPrivate, ps, dilSkLen(dp.k, dp.l, dp.d)); err != nil {
		return nil, err
	}
	skBytes := priv.Bytes()
	rho := skBytes[0:32]
	key := skBytes[32:64]
	tr := skBytes[64:96]
	etaBytes := (256*bitsFor(int32(2*dp.eta+1)) + 7) / 8
	s1Off := 96
	s2Off := s1Off + dp.l*etaBytes
	t0Off := s2Off + dp.k*etaBytes

	s1 := dilUnpackEta(skBytes[s1Off:s2Off], dp.l, dp.eta)
	s2 := dilUnpackEta(skBytes[s2Off:t0Off], dp.k, dp.eta)
	t0 := dilUnpackT0(skBytes[t0Off:], dp.k, dp.d)

	a := dilExpandA(rho, dp.k, dp.l)
	s1NTT := make([]*Poly, dp.l)
	for i, p := range s1 {
		s1NTT[i] = &Poly{Coeffs: p.Coeffs}
		dilithiumRing.NTT(s1NTT[i])
	}
	s2NTT := make([]*Poly, dp.k)
	for i, p := range s2 {
		s2NTT[i] = &Poly{Coeffs: p.Coeffs}
		dilithiumRing.NTT(s2NTT[i])
	}
	t0NTT := make([]*Poly, dp.k)
	for i, p := range t0 {
		t0NTT[i] = &Poly{Coeffs: p.Coeffs}
		dilithiumRing.NTT(t0NTT[i])
	}

	mu := SHA3_256(append(append([]byte{}, tr...), msg...))
	gamma1 := int32(1) << uint(dp.gamma1Bits-1)

	// The commitment seed is derived from the stored signing key, not drawn
	// fresh, so signing the same message with the same key always walks the
	// same rejection-sampling path (spec.md §4.12): rho' = CRH(key || mu).
	rhoPrimeDigest := SHA3_256(append(append([]byte{}, key...), mu[:]...))
	rhoPrimeSeed := rhoPrimeDigest[:]

	const maxAttempts = 1000
	for kappa := 0; kappa < maxAttempts; kappa++ {
		y := make([]*Poly, dp.l)
		for i := range y {
			y[i] = dilSampleGamma1(append(append([]byte{}, rhoPrimeSeed...), mu[:]...), uint16(kappa*dp.l+i), dp.gamma1Bits, gamma1)
		}
		yNTT := make([]*Poly, dp.l)
		for i, p := range y {
			yNTT[i] = &Poly{Coeffs: p.Coeffs}
			dilithiumRing.NTT(yNTT[i])
		}

		w := make([]*Poly, dp.k)
		w1 := make([]*Poly, dp.k)
		for i := 0; i < dp.k; i++ {
			acc := &Poly{}
			for j := 0; j < dp.l; j++ {
				aNTT := &Poly{Coeffs: a[i][j].Coeffs}
				acc = dilithiumRing.Add(acc, dilithiumRing.MulNTT(aNTT, yNTT[j]))
			}
			dilithiumRing.InvNTT(acc)
			w[i] = acc
			w1[i] = &Poly{}
			for c := 0; c < RingN; c++ {
				hi, _ := decompose(acc.Coeffs[c], dp.gamma2)
				w1[i].Coeffs[c] = hi
			}
		}

		w1Bytes := make([]byte, 0, dp.k*RingN)
		for _, p := range w1 {
			for _, c := range p.Coeffs {
				w1Bytes = append(w1Bytes, byte(c))
			}
		}
		cTilde := SHA3_256(append(append([]byte{}, mu[:]...), w1Bytes...))
		c := sampleInBall(cTilde[:], dp.tau)
		cNTT := &Poly{Coeffs: c.Coeffs}
		dilithiumRing.NTT(cNTT)

		z := make([]*Poly, dp.l)
		zOk := true
		for i := 0; i < dp.l; i++ {
			cs1 := dilithiumRing.MulNTT(cNTT, s1NTT[i])
			dilithiumRing.InvNTT(cs1)
			z[i] = dilithiumRing.Add(y[i], cs1)
			if dilInfinityNormExceeds(z[i], gamma1-int32(dp.beta)) {
				zOk = false
			}
		}
		if !zOk {
			continue
		}

		hints := make([]bool, dp.k*RingN)
		hintCount := 0
		r0Ok := true
		for i := 0; i < dp.k; i++ {
			cs2 := dilithiumRing.MulNTT(cNTT, s2NTT[i])
			dilithiumRing.InvNTT(cs2)
			rMinusCs2 := dilithiumRing.Sub(w[i], cs2)
			for c := 0; c < RingN; c++ {
				_, lo := decompose(rMinusCs2.Coeffs[c], dp.gamma2)
				if lo < 0 {
					lo = -lo
				}
				if lo >= dp.gamma2-int32(dp.beta) {
					r0Ok = false
				}
			}
			ct0 := dilithiumRing.MulNTT(cNTT, t0NTT[i])
			dilithiumRing.InvNTT(ct0)
			for c := 0; c < RingN; c++ {
				h := makeHint(ct0.Coeffs[c], rMinusCs2.Coeffs[c], dp.gamma2)
				hints[i*RingN+c] = h
				if h {
					hintCount++
				}
			}
		}
		if !r0Ok || hintCount > dp.omega {
			continue
		}

		sig := make([]byte, 0, dilSigLen(dp.k, dp.eta, dp.tau, dp.beta))
		sig = append(sig, cTilde[:]...)
		for _, p := range z {
			vals := make([]int32, RingN)
			for i, v := range p.Coeffs {
				if v > dilithiumRing.q/2 {
					v -= dilithiumRing.q
				}
				vals[i] = gamma1 - v
			}
			sig = append(sig, packFixedWidth(vals, dp.gamma1Bits)...)
		}
		hintBytes := make([]byte, dp.omega+dp.k)
		pos := 0
		for i := 0; i < dp.k; i++ {
			for c := 0; c < RingN; c++ {
				if hints[i*RingN+c] && pos < dp.omega {
					hintBytes[pos] = byte(c)
					pos++
				}
			}
			hintBytes[dp.omega+i] = byte(pos)
		}
		sig = append(sig, hintBytes...)

		return sig, nil
	}
	return nil, fmt.Errorf("%w: Dilithium signing exceeded rejection-sampling retry budget", ErrInternalInvariant)
}

// DilithiumVerify implements Verify (spec.md §4.12).
func DilithiumVerify(ps ParameterSet, pub *AsymmetricKey, msg, sig []byte) error {
	dp, err := dilParamsFor(ps)
	if err != nil {
		return err
	}
	if err := pub.validate(PrimitiveDilithium, ClassPublic, ps, dilPkLen(dp.k)); err != nil {
		return err
	}
	if len(sig) != dilSigLen(dp.k, dp.eta, dp.tau, dp.beta) {
		return fmt.Errorf("%w: signature length %d", ErrVerifyFailed, len(sig))
	}

	pkBytes := pub.Bytes()
	rho := pkBytes[:32]
	t1 := dilUnpackT1(pkBytes[32:], dp.k)
	tr := SHA3_256(pkBytes)
	mu := SHA3_256(append(append([]byte{}, tr[:]...), msg...))

	cTilde := sig[:32]
	zBytesPer := (256*dp.gamma1Bits + 7) / 8
	gamma1 := int32(1) << uint(dp.gamma1Bits-1)

	z := make([]*Poly, dp.l)
	off := 32
	for i := 0; i < dp.l; i++ {
		vals := unpackFixedWidth(sig[off:off+zBytesPer], RingN, dp.gamma1Bits)
		off += zBytesPer
		p := &Poly{}
		for j, v := range vals {
			p.Coeffs[j] = gamma1 - v
		}
		if dilInfinityNormExceeds(p, gamma1-int32(dp.beta)) {
			return ErrVerifyFailed
		}
		z[i] = p
	}

	hintBytes := sig[off:]
	hints := make([][]bool, dp.k)
	prev := 0
	for i := 0; i < dp.k; i++ {
		hints[i] = make([]bool, RingN)
		count := int(hintBytes[dp.omega+i])
		if count < prev || count > dp.omega {
			return ErrVerifyFailed
		}
		for pos := prev; pos < count; pos++ {
			hints[i][hintBytes[pos]] = true
		}
		prev = count
	}

	a := dilExpandA(rho, dp.k, dp.l)
	c := sampleInBall(cTilde, dp.tau)
	cNTT := &Poly{Coeffs: c.Coeffs}
	dilithiumRing.NTT(cNTT)

	zNTT := make([]*Poly, dp.l)
	for i, p := range z {
		zNTT[i] = &Poly{Coeffs: p.Coeffs}
		dilithiumRing.NTT(zNTT[i])
	}

	w1Prime := make([]*Poly, dp.k)
	for i := 0; i < dp.k; i++ {
		acc := &Poly{}
		for j := 0; j < dp.l; j++ {
			aNTT := &Poly{Coeffs: a[i][j].Coeffs}
			acc = dilithiumRing.Add(acc, dilithiumRing.MulNTT(aNTT, zNTT[j]))
		}

		t1Shifted := &Poly{}
		for c := 0; c < RingN; c++ {
			t1Shifted.Coeffs[c] = t1[i].Coeffs[c] << uint(dp.d)
		}
		t1NTT := &Poly{Coeffs: t1Shifted.Coeffs}
		dilithiumRing.NTT(t1NTT)
		ct1 := dilithiumRing.MulNTT(cNTT, t1NTT)

		acc = dilithiumRing.Sub(acc, ct1)
		dilithiumRing.InvNTT(acc)

		w1Prime[i] = &Poly{}
		for c := 0; c < RingN; c++ {
			w1Prime[i].Coeffs[c] = useHint(hints[i][c], acc.Coeffs[c], dp.gamma2)
		}
	}

	w1Bytes := make([]byte, 0, dp.k*RingN)
	for _, p := range w1Prime {
		for _, c := range p.Coeffs {
			w1Bytes = append(w1Bytes, byte(c))
		}
	}
	cTildePrime := SHA3_256(append(append([]byte{}, mu[:]...), w1Bytes...))

	if !constantTimeCompare(cTilde, cTildePrime[:]) {
		return ErrVerifyFailed
	}
	return nil
}
