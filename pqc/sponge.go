// Package pqc implements the post-quantum asymmetric primitive core: Kyber,
// NTRU-Prime Streamlined, Classic McEliece, SPHINCS+-SHAKE and Dilithium,
// together with the Keccak sponge, ring arithmetic, and GF(2^13) kernels
// they share.
package pqc

import "math/bits"

// Sponge is a Keccak-f[1600] state: 25 lanes of 64 bits, addressed as a
// 5x5 array in row-major order (state[5*y+x]).
type Sponge struct {
	state [25]uint64
}

// Rate constants in bytes for the modes the core consumes.
const (
	RateSHA3_256  = 136
	RateSHA3_512  = 72
	RateSHAKE128  = 168
	RateSHAKE256  = 136
	RateCSHAKE128 = 168
	RateCSHAKE256 = 136
)

// Domain separation suffixes per FIPS 202 / SP 800-185.
const (
	domainSHA3   = 0x06
	domainSHAKE  = 0x1f
	domainCSHAKE = 0x04 // only when N or S is non-empty; plain cSHAKE() falls back to SHAKE otherwise.
)

var keccakRC = [24]uint64{
	0x0000000000000001, 0x0000000000008082, 0x800000000000808a, 0x8000000080008000,
	0x000000000000808b, 0x0000000080000001, 0x8000000080008081, 0x8000000000008009,
	0x000000000000008a, 0x0000000000000088, 0x0000000080008009, 0x000000008000000a,
	0x000000008000808b, 0x800000000000008b, 0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080, 0x000000000000800a, 0x800000008000000a,
	0x8000000080008081, 0x8000000000008080, 0x0000000080000001, 0x8000000080008008,
}

var rotc = [25]uint{
	0, 1, 62, 28, 27,
	36, 44, 6, 55, 20,
	3, 10, 43, 25, 39,
	41, 45, 15, 21, 8,
	18, 2, 61, 56, 14,
}

// piLane maps state index i -> the source index for the pi step (compact form).
var piLane = [25]int{
	0, 6, 12, 18, 24,
	3, 9, 10, 16, 22,
	1, 7, 13, 19, 20,
	4, 5, 11, 17, 23,
	2, 8, 14, 15, 21,
}

// permuteCompact runs the 24-round Keccak-f[1600] permutation using a
// straightforward, loop-driven theta/rho/pi/chi/iota pipeline. This is the
// reference form used to check the unrolled form for bit-exactness
// (testable property 8.1).
func permuteCompact(a *[25]uint64) {
	keccakRounds(a, 24)
}

func keccakRounds(a *[25]uint64, rounds int) {
	var c [5]uint64
	var d [5]uint64
	var b [25]uint64

	for round := 0; round < rounds; round++ {
		// theta
		for x := 0; x < 5; x++ {
			c[x] = a[x] ^ a[x+5] ^ a[x+10] ^ a[x+15] ^ a[x+20]
		}
		for x := 0; x < 5; x++ {
			d[x] = c[(x+4)%5] ^ bits.RotateLeft64(c[(x+1)%5], 1)
		}
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				a[5*y+x] ^= d[x]
			}
		}

		// rho + pi
		for i := 0; i < 25; i++ {
			b[i] = bits.RotateLeft64(a[piLane[i]], int(rotc[piLane[i]]))
		}

		// chi
		for y := 0; y < 5; y++ {
			for x := 0; x < 5; x++ {
				a[5*y+x] = b[5*y+x] ^ ((^b[5*y+(x+1)%5]) & b[5*y+(x+2)%5])
			}
		}

		// iota
		a[0] ^= keccakRC[round]
	}
}

// permuteUnrolled is functionally identical to permuteCompact but unrolls
// the x/y loops by hand, matching the style of hand-tuned Keccak
// implementations. Both must produce bit-identical output given identical
// input state (property 8.1); keeping them as two independent code paths
// over the same round function is what that property actually tests.
func permuteUnrolled(a *[25]uint64) {
	var c0, c1, c2, c3, c4 uint64
	var d0, d1, d2, d3, d4 uint64
	var b [25]uint64

	for round := 0; round < 24; round++ {
		c0 = a[0] ^ a[5] ^ a[10] ^ a[15] ^ a[20]
		c1 = a[1] ^ a[6] ^ a[11] ^ a[16] ^ a[21]
		c2 = a[2] ^ a[7] ^ a[12] ^ a[17] ^ a[22]
		c3 = a[3] ^ a[8] ^ a[13] ^ a[18] ^ a[23]
		c4 = a[4] ^ a[9] ^ a[14] ^ a[19] ^ a[24]

		d0 = c4 ^ bits.RotateLeft64(c1, 1)
		d1 = c0 ^ bits.RotateLeft64(c2, 1)
		d2 = c1 ^ bits.RotateLeft64(c3, 1)
		d3 = c2 ^ bits.RotateLeft64(c4, 1)
		d4 = c3 ^ bits.RotateLeft64(c0, 1)

		for y := 0; y < 25; y += 5 {
			a[y+0] ^= d0
			a[y+1] ^= d1
			a[y+2] ^= d2
			a[y+3] ^= d3
			a[y+4] ^= d4
		}

		for i := 0; i < 25; i++ {
			b[i] = bits.RotateLeft64(a[piLane[i]], int(rotc[piLane[i]]))
		}

		for y := 0; y < 25; y += 5 {
			a[y+0] = b[y+0] ^ ((^b[y+1]) & b[y+2])
			a[y+1] = b[y+1] ^ ((^b[y+2]) & b[y+3])
			a[y+2] = b[y+2] ^ ((^b[y+3]) & b[y+4])
			a[y+3] = b[y+3] ^ ((^b[y+4]) & b[y+0])
			a[y+4] = b[y+4] ^ ((^b[y+0]) & b[y+1])
		}

		a[0] ^= keccakRC[round]
	}
}

// keccak1024Rounds is the experimental, non-standard 48-round variant
// (spec.md §9 Open Questions: gated behind explicit feature selection, never
// used by the core's SHA3/SHAKE/cSHAKE modes). It recycles the 24 standard
// round constants for the second half of the permutation, so it is
// bit-exact with permuteCompact/permuteUnrolled on the first 24 rounds.
func keccak1024Rounds(a *[25]uint64) {
	keccakRounds(a, 24)
	keccakRounds(a, 24)
}

func (s *Sponge) reset() { *s = Sponge{} }

func (s *Sponge) xorBlock(block []byte) {
	for i := 0; i+8 <= len(block); i += 8 {
		lane := uint64(block[i]) | uint64(block[i+1])<<8 | uint64(block[i+2])<<16 |
			uint64(block[i+3])<<24 | uint64(block[i+4])<<32 | uint64(block[i+5])<<40 |
			uint64(block[i+6])<<48 | uint64(block[i+7])<<56
		s.state[i/8] ^= lane
	}
}

func (s *Sponge) extractBlock(rate int) []byte {
	out := make([]byte, rate)
	for i := 0; i*8 < rate; i++ {
		lane := s.state[i]
		out[i*8+0] = byte(lane)
		out[i*8+1] = byte(lane >> 8)
		out[i*8+2] = byte(lane >> 16)
		out[i*8+3] = byte(lane >> 24)
		out[i*8+4] = byte(lane >> 32)
		out[i*8+5] = byte(lane >> 40)
		out[i*8+6] = byte(lane >> 48)
		out[i*8+7] = byte(lane >> 56)
	}
	return out
}

// absorb pads input with the pad10*1 rule, XORs it rate-byte block at a
// time into the state (permuting between blocks), and folds in the domain
// separation byte on the final block as described in spec.md §4.1.
func (s *Sponge) absorb(rate int, domain byte, input []byte) {
	s.reset()

	block := make([]byte, rate)
	off := 0
	for off+rate <= len(input) {
		copy(block, input[off:off+rate])
		s.xorBlock(block)
		permuteCompact(&s.state)
		off += rate
	}

	for i := range block {
		block[i] = 0
	}
	n := copy(block, input[off:])
	block[n] ^= domain
	block[rate-1] ^= 0x80
	s.xorBlock(block)
	permuteCompact(&s.state)
}

// squeeze emits outLen bytes, permuting between rate-sized blocks.
func (s *Sponge) squeeze(rate int, outLen int) []byte {
	out := make([]byte, 0, outLen)
	for len(out) < outLen {
		out = append(out, s.extractBlock(rate)...)
		permuteCompact(&s.state)
	}
	return out[:outLen]
}

// --- Fixed-output SHA3 ---

// SHA3_256 returns the SHA3-256 digest of msg.
func SHA3_256(msg []byte) [32]byte {
	var s Sponge
	s.absorb(RateSHA3_256, domainSHA3, msg)
	var out [32]byte
	copy(out[:], s.squeeze(RateSHA3_256, 32))
	return out
}

// SHA3_512 returns the SHA3-512 digest of msg.
func SHA3_512(msg []byte) [64]byte {
	var s Sponge
	s.absorb(RateSHA3_512, domainSHA3, msg)
	var out [64]byte
	copy(out[:], s.squeeze(RateSHA3_512, 64))
	return out
}

// --- Extendable-output SHAKE ---

// Shake128 squeezes outLen bytes of SHAKE-128 output for msg.
func Shake128(msg []byte, outLen int) []byte {
	var s Sponge
	s.absorb(RateSHAKE128, domainSHAKE, msg)
	return s.squeeze(RateSHAKE128, outLen)
}

// Shake256 squeezes outLen bytes of SHAKE-256 output for msg.
func Shake256(msg []byte, outLen int) []byte {
	var s Sponge
	s.absorb(RateSHAKE256, domainSHAKE, msg)
	return s.squeeze(RateSHAKE256, outLen)
}

// ShakeXOF is an incremental SHAKE-128/256 absorb/squeeze handle, used by
// callers (RingQ.sample_uniform, Prng) that need to interleave reads with
// rejection sampling instead of asking for a fixed-length digest up front.
type ShakeXOF struct {
	sponge   Sponge
	rate     int
	buf      []byte
	bufOff   int
	squeeze_ bool
}

// NewShake128XOF creates a SHAKE-128 XOF primed with input already absorbed.
func NewShake128XOF(input []byte) *ShakeXOF {
	x := &ShakeXOF{rate: RateSHAKE128}
	x.sponge.absorb(x.rate, domainSHAKE, input)
	return x
}

// NewShake256XOF creates a SHAKE-256 XOF primed with input already absorbed.
func NewShake256XOF(input []byte) *ShakeXOF {
	x := &ShakeXOF{rate: RateSHAKE256}
	x.sponge.absorb(x.rate, domainSHAKE, input)
	return x
}

// Read fills p with the next len(p) bytes of XOF output.
func (x *ShakeXOF) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if x.bufOff >= len(x.buf) {
			x.buf = x.sponge.extractBlock(x.rate)
			permuteCompact(&x.sponge.state)
			x.bufOff = 0
		}
		c := copy(p[n:], x.buf[x.bufOff:])
		n += c
		x.bufOff += c
	}
	return n, nil
}

// --- cSHAKE (SP 800-185) ---

// bytePad left-encodes w, concatenates x, and pads with zero bytes to a
// multiple of w bytes — the SP 800-185 bytepad primitive.
func bytePad(x []byte, w int) []byte {
	buf := append(leftEncode(uint64(w)), x...)
	for len(buf)%w != 0 {
		buf = append(buf, 0)
	}
	return buf
}

func leftEncode(x uint64) []byte {
	var tmp [9]byte
	n := 0
	v := x
	for {
		n++
		tmp[9-n] = byte(v)
		v >>= 8
		if v == 0 {
			break
		}
	}
	out := make([]byte, n+1)
	out[0] = byte(n)
	copy(out[1:], tmp[9-n:])
	return out
}

func encodeString(s []byte) []byte {
	return append(leftEncode(uint64(len(s))*8), s...)
}

// CShake computes cSHAKE128/256(X, L, N, S) per SP 800-185. rate selects
// the 128 or 256 variant (RateCSHAKE128/RateCSHAKE256). If both N and S are
// empty, cSHAKE degenerates to plain SHAKE as the standard requires.
func CShake(rate int, x []byte, n, sCustom []byte, outLen int) []byte {
	if len(n) == 0 && len(sCustom) == 0 {
		if rate == RateCSHAKE128 {
			return Shake128(x, outLen)
		}
		return Shake256(x, outLen)
	}

	prefix := append(encodeString(n), encodeString(sCustom)...)
	header := bytePad(prefix, rate)
	input := append(header, x...)

	var s Sponge
	s.absorb(rate, domainCSHAKE, input)
	return s.squeeze(rate, outLen)
}
