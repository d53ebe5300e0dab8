package pqc

import "fmt"

// kyber.go implements the Kyber Module-LWE KEM (spec.md §4.6): a CPA-secure
// PKE lifted to an IND-CCA2 KEM via the Fujisaki-Okamoto transform. Grounded
// on the teacher's key_exchange.go/kyber_ntt.go (the real NTT/noise-sampling
// code in that file, not its stub paths) and on Yawning-kyber's
// indcpa.go/poly.go/kem.go (CC0), generalised from a fixed k=3 to the
// K2/K3/K4 parameter sets spec.md names.
type kyberParams struct {
	k    int
	eta1 int
	eta2 int
	du   int
	dv   int
}

func kyberParamsFor(ps ParameterSet) (kyberParams, error) {
	switch ps {
	case KyberK2:
		return kyberParams{k: 2, eta1: 3, eta2: 2, du: 10, dv: 4}, nil
	case KyberK3:
		return kyberParams{k: 3, eta1: 2, eta2: 2, du: 10, dv: 4}, nil
	case KyberK4:
		return kyberParams{k: 4, eta1: 2, eta2: 2, du: 11, dv: 5}, nil
	default:
		return kyberParams{}, fmt.Errorf("%w: %v is not a Kyber parameter set", ErrInvalidParameter, ps)
	}
}

func kyberPkLen(k int) int   { return k*384 + 32 }
func kyberSkLen(k int) int   { return k*384 + kyberPkLen(k) + 32 + 32 }
func kyberCtLen(k, du, dv int) int {
	return k*(RingN*du/8) + RingN*dv/8
}

// --- 12-bit packing (indcpa secret/public key polynomials) ---

func packPoly12(p *Poly) []byte {
	out := make([]byte, 384)
	for i := 0; i < RingN/2; i++ {
		a := uint16(kyberRing.reduce(p.Coeffs[2*i]))
		b := uint16(kyberRing.reduce(p.Coeffs[2*i+1]))
		out[3*i] = byte(a)
		out[3*i+1] = byte((a>>8)&0x0f) | byte((b&0x0f)<<4)
		out[3*i+2] = byte(b >> 4)
	}
	return out
}

func unpackPoly12(b []byte) *Poly {
	var p Poly
	for i := 0; i < RingN/2; i++ {
		a := uint16(b[3*i]) | (uint16(b[3*i+1]&0x0f) << 8)
		bb := uint16(b[3*i+1]>>4) | (uint16(b[3*i+2]) << 4)
		p.Coeffs[2*i] = int32(a)
		p.Coeffs[2*i+1] = int32(bb)
	}
	return &p
}

// --- arbitrary-width compress/decompress, bit at a time (d in [1,12]) ---

func compressPoly(p *Poly, d int) []byte {
	nbits := RingN * d
	out := make([]byte, (nbits+7)/8)
	bitPos := 0
	for i := 0; i < RingN; i++ {
		c := kyberRing.reduce(p.Coeffs[i])
		// round(c * 2^d / q)
		val := (uint64(c)<<uint(d) + uint64(kyberRing.q)/2) / uint64(kyberRing.q)
		val &= (1 << uint(d)) - 1
		for b := 0; b < d; b++ {
			if val&(1<<uint(b)) != 0 {
				out[bitPos/8] |= 1 << uint(bitPos%8)
			}
			bitPos++
		}
	}
	return out
}

func decompressPoly(b []byte, d int) *Poly {
	var p Poly
	bitPos := 0
	for i := 0; i < RingN; i++ {
		var val uint64
		for bpos := 0; bpos < d; bpos++ {
			bit := (b[bitPos/8] >> uint(bitPos%8)) & 1
			val |= uint64(bit) << uint(bpos)
			bitPos++
		}
		p.Coeffs[i] = int32((val*uint64(kyberRing.q) + (1 << uint(d-1))) >> uint(d))
	}
	return &p
}

func msgToPoly(m []byte) *Poly {
	var p Poly
	for i := 0; i < 32; i++ {
		for j := 0; j < 8; j++ {
			bit := (m[i] >> uint(j)) & 1
			if bit != 0 {
				p.Coeffs[8*i+j] = (kyberRing.q + 1) / 2
			}
		}
	}
	return &p
}

func polyToMsg(p *Poly) []byte {
	m := make([]byte, 32)
	for i := 0; i < 32; i++ {
		for j := 0; j < 8; j++ {
			c := kyberRing.reduce(p.Coeffs[8*i+j])
			t := (uint32(c)<<1 + uint32(kyberRing.q)/2) / uint32(kyberRing.q) & 1
			m[i] |= byte(t << uint(j))
		}
	}
	return m
}

// genMatrixA expands seed into a k*k matrix of uniform polynomials via
// SHAKE-128 rejection sampling (spec.md §4.3 RingQ.sample_uniform).
func genMatrixA(seed []byte, k int, transposed bool) [][]*Poly {
	a := make([][]*Poly, k)
	for i := range a {
		a[i] = make([]*Poly, k)
		for j := range a[i] {
			row, col := i, j
			if transposed {
				row, col = j, i
			}
			ext := append(append([]byte{}, seed...), byte(col), byte(row))
			xof := NewShake128XOF(ext)
			a[i][j] = kyberRing.SampleUniform(xof)
		}
	}
	return a
}

func genNoisePoly(seed []byte, nonce byte, eta int) *Poly {
	ext := append(append([]byte{}, seed...), nonce)
	buf := Shake256(ext, eta*RingN/4)
	return SampleCBD(buf, eta)
}

type kyberIndcpaPub struct {
	t   []*Poly // normal domain
	rho []byte
}

type kyberIndcpaSec struct {
	s []*Poly // normal domain
}

func kyberIndcpaKeyGen(kp kyberParams, rng *Prng) (*kyberIndcpaPub, *kyberIndcpaSec) {
	seed := make([]byte, 32)
	rng.Fill(seed)
	buf := SHA3_512(seed)
	rho, sigma := buf[:32], buf[32:]

	a := genMatrixA(rho, kp.k, false)

	s := make([]*Poly, kp.k)
	e := make([]*Poly, kp.k)
	nonce := byte(0)
	for i := range s {
		s[i] = genNoisePoly(sigma, nonce, kp.eta1)
		nonce++
	}
	for i := range e {
		e[i] = genNoisePoly(sigma, nonce, kp.eta1)
		nonce++
	}

	sNTT := make([]*Poly, kp.k)
	for i := range s {
		sNTT[i] = &Poly{Coeffs: s[i].Coeffs}
		kyberRing.NTT(sNTT[i])
	}

	t := make([]*Poly, kp.k)
	for i := 0; i < kp.k; i++ {
		acc := &Poly{}
		for j := 0; j < kp.k; j++ {
			aNTT := &Poly{Coeffs: a[i][j].Coeffs}
			prod := kyberRing.MulNTT(aNTT, sNTT[j])
			acc = kyberRing.Add(acc, prod)
		}
		kyberRing.InvNTT(acc)
		t[i] = kyberRing.Add(acc, e[i])
	}

	return &kyberIndcpaPub{t: t, rho: rho}, &kyberIndcpaSec{s: s}
}

func (pk *kyberIndcpaPub) bytes(kp kyberParams) []byte {
	out := make([]byte, 0, kyberPkLen(kp.k))
	for _, p := range pk.t {
		out = append(out, packPoly12(p)...)
	}
	out = append(out, pk.rho...)
	return out
}

func kyberIndcpaPubFromBytes(b []byte, kp kyberParams) *kyberIndcpaPub {
	pk := &kyberIndcpaPub{t: make([]*Poly, kp.k)}
	for i := 0; i < kp.k; i++ {
		pk.t[i] = unpackPoly12(b[i*384 : (i+1)*384])
	}
	pk.rho = append([]byte{}, b[kp.k*384:kp.k*384+32]...)
	return pk
}

func (sk *kyberIndcpaSec) bytes() []byte {
	out := make([]byte, 0, len(sk.s)*384)
	for _, p := range sk.s {
		out = append(out, packPoly12(p)...)
	}
	return out
}

func kyberIndcpaSecFromBytes(b []byte, kp kyberParams) *kyberIndcpaSec {
	sk := &kyberIndcpaSec{s: make([]*Poly, kp.k)}
	for i := 0; i < kp.k; i++ {
		sk.s[i] = unpackPoly12(b[i*384 : (i+1)*384])
	}
	return sk
}

func kyberIndcpaEncrypt(kp kyberParams, pk *kyberIndcpaPub, m, coins []byte) []byte {
	at := genMatrixA(pk.rho, kp.k, true)

	rPoly := make([]*Poly, kp.k)
	e1 := make([]*Poly, kp.k)
	nonce := byte(0)
	for i := range rPoly {
		rPoly[i] = genNoisePoly(coins, nonce, kp.eta1)
		nonce++
	}
	for i := range e1 {
		e1[i] = genNoisePoly(coins, nonce, kp.eta2)
		nonce++
	}
	e2 := genNoisePoly(coins, nonce, kp.eta2)

	rNTT := make([]*Poly, kp.k)
	for i := range rPoly {
		rNTT[i] = &Poly{Coeffs: rPoly[i].Coeffs}
		kyberRing.NTT(rNTT[i])
	}

	u := make([]*Poly, kp.k)
	for i := 0; i < kp.k; i++ {
		acc := &Poly{}
		for j := 0; j < kp.k; j++ {
			atNTT := &Poly{Coeffs: at[i][j].Coeffs}
			acc = kyberRing.Add(acc, kyberRing.MulNTT(atNTT, rNTT[j]))
		}
		kyberRing.InvNTT(acc)
		u[i] = kyberRing.Add(acc, e1[i])
	}

	vAcc := &Poly{}
	for j := 0; j < kp.k; j++ {
		tNTT := &Poly{Coeffs: pk.t[j].Coeffs}
		kyberRing.NTT(tNTT)
		vAcc = kyberRing.Add(vAcc, kyberRing.MulNTT(tNTT, rNTT[j]))
	}
	kyberRing.InvNTT(vAcc)
	v := kyberRing.Add(vAcc, e2)
	v = kyberRing.Add(v, msgToPoly(m))

	out := make([]byte, 0, kyberCtLen(kp.k, kp.du, kp.dv))
	for _, p := range u {
		out = append(out, compressPoly(p, kp.du)...)
	}
	out = append(out, compressPoly(v, kp.dv)...)
	return out
}

func kyberIndcpaDecrypt(kp kyberParams, sk *kyberIndcpaSec, ct []byte) []byte {
	uSize := RingN * kp.du / 8
	u := make([]*Poly, kp.k)
	off := 0
	for i := 0; i < kp.k; i++ {
		u[i] = decompressPoly(ct[off:off+uSize], kp.du)
		off += uSize
	}
	v := decompressPoly(ct[off:], kp.dv)

	acc := &Poly{}
	for j := 0; j < kp.k; j++ {
		sNTT := &Poly{Coeffs: sk.s[j].Coeffs}
		kyberRing.NTT(sNTT)
		uNTT := &Poly{Coeffs: u[j].Coeffs}
		kyberRing.NTT(uNTT)
		acc = kyberRing.Add(acc, kyberRing.MulNTT(sNTT, uNTT))
	}
	kyberRing.InvNTT(acc)
	mp := kyberRing.Sub(v, acc)
	return polyToMsg(mp)
}

// --- CCA-KEM via Fujisaki-Okamoto (spec.md §4.6) ---

// KyberGenerate runs Kyber key generation for the given K2/K3/K4 parameter
// set, producing a KeyPair whose Public/Private AsymmetricKeys are already
// validated against the parameter table.
func KyberGenerate(ps ParameterSet, rng *Prng) (*KeyPair, error) {
	kp, err := kyberParamsFor(ps)
	if err != nil {
		return nil, err
	}
	pub, sec := kyberIndcpaKeyGen(kp, rng)
	pkBytes := pub.bytes(kp)
	h := SHA3_256(pkBytes)
	z := make([]byte, 32)
	rng.Fill(z)

	skBytes := make([]byte, 0, kyberSkLen(kp.k))
	skBytes = append(skBytes, sec.bytes()...)
	skBytes = append(skBytes, pkBytes...)
	skBytes = append(skBytes, h[:]...)
	skBytes = append(skBytes, z...)

	return &KeyPair{
		Public:  newKey(PrimitiveKyber, ClassPublic, ps, pkBytes),
		Private: newKey(PrimitiveKyber, ClassPrivate, ps, skBytes),
	}, nil
}

// KyberEncapsulate implements KEM.Enc (spec.md §4.6): draws 32 random
// bytes, derives (Kbar, r) via G, runs CPA.Enc, and derives the shared
// secret via KDF(Kbar, H(c)).
func KyberEncapsulate(ps ParameterSet, pub *AsymmetricKey, rng *Prng) (ciphertext, sharedSecret []byte, err error) {
	kp, err := kyberParamsFor(ps)
	if err != nil {
		return nil, nil, err
	}
	if err := pub.validate(PrimitiveKyber, ClassPublic, ps, kyberPkLen(kp.k)); err != nil {
		return nil, nil, err
	}
	indcpaPub := kyberIndcpaPubFromBytes(pub.Bytes(), kp)

	m := make([]byte, 32)
	rng.Fill(m)
	hPk := SHA3_256(pub.Bytes())

	g := SHA3_512(append(append([]byte{}, m...), hPk[:]...))
	kbar, coins := g[:32], g[32:]

	ct := kyberIndcpaEncrypt(kp, indcpaPub, m, coins)
	hc := SHA3_256(ct)
	ss := Shake256(append(append([]byte{}, kbar...), hc[:]...), ps.SharedSecretLen())

	return ct, ss, nil
}

// KyberDecapsulate implements KEM.Dec (spec.md §4.6): re-encrypts under the
// recovered message and implicitly rejects (constant time) on mismatch.
func KyberDecapsulate(ps ParameterSet, priv *AsymmetricKey, ciphertext []byte) ([]byte, error) {
	kp, err := kyberParamsFor(ps)
	if err != nil {
		return nil, err
	}
	if err := priv.validate(PrimitiveKyber, ClassPrivate, ps, kyberSkLen(kp.k)); err != nil {
		return nil, err
	}
	if len(ciphertext) != kyberCtLen(kp.k, kp.du, kp.dv) {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidCiphertext, len(ciphertext))
	}

	skBytes := priv.Bytes()
	secOff := kp.k * 384
	sec := kyberIndcpaSecFromBytes(skBytes[:secOff], kp)
	pkBytes := skBytes[secOff : secOff+kyberPkLen(kp.k)]
	h := skBytes[secOff+kyberPkLen(kp.k) : secOff+kyberPkLen(kp.k)+32]
	z := skBytes[secOff+kyberPkLen(kp.k)+32:]

	pub := kyberIndcpaPubFromBytes(pkBytes, kp)

	mPrime := kyberIndcpaDecrypt(kp, sec, ciphertext)
	g := SHA3_512(append(append([]byte{}, mPrime...), h...))
	kbarPrime, coinsPrime := g[:32], g[32:]

	ctPrime := kyberIndcpaEncrypt(kp, pub, mPrime, coinsPrime)
	hc := SHA3_256(ciphertext)

	mask := compareMask(ciphertext, ctPrime) // 0xff on match, 0x00 on mismatch
	preimage := make([]byte, 32)
	ctSelect(preimage, kbarPrime, z, mask)

	ss := Shake256(append(preimage, hc[:]...), ps.SharedSecretLen())
	return ss, nil
}
