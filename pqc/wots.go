package pqc

import "math/bits"

// wots.go implements WOTS+ (spec.md §4.9), the one-time hash-based
// signature that authenticates each hypertree node in SPHINCS+. Grounded on
// the teacher's sphincs_sign.go parameter constants and generalised to the
// S128/S192/S256 SHAKE parameter sets; the chaining function is plain
// keyed SHAKE256 over (PK.seed, ADRS, value) — the "simple" SPHINCS+
// hashing mode, not the robust (masked) variant, matching the teacher's
// preference for SHAKE-only primitives throughout the pqc package.
const wotsLogW = 4 // w = 16

// taggedHash is the shared SPHINCS+ keyed-hash primitive: SHAKE256(pubSeed
// || ADRS || msg)[:outLen].
func taggedHash(pubSeed []byte, adrs *address, msg []byte, outLen int) []byte {
	input := make([]byte, 0, len(pubSeed)+32+len(msg))
	input = append(input, pubSeed...)
	input = append(input, adrs.Bytes()...)
	input = append(input, msg...)
	return Shake256(input, outLen)
}

// wotsLen returns the total WOTS+ chain count (message chains + checksum
// chains) for hash length n.
func wotsLen(n int) int {
	len1 := (8*n + wotsLogW - 1) / wotsLogW
	maxChecksum := len1 * 15
	len2 := bits.Len(uint(maxChecksum))/wotsLogW + 1
	return len1 + len2
}

func wotsLen1(n int) int { return (8*n + wotsLogW - 1) / wotsLogW }

// wotsChain applies the hash chain starting at value sk for steps
// iterations, each iteration re-keyed with the current chain position
// (spec.md §4.9 "chain function").
func wotsChain(sk []byte, start, steps int, pubSeed []byte, adrs *address) []byte {
	out := append([]byte{}, sk...)
	for i := start; i < start+steps; i++ {
		adrs.setHashAddress(uint32(i))
		out = taggedHash(pubSeed, adrs, out, len(sk))
	}
	return out
}

// wotsSkSeedElem derives the i-th WOTS+ chain's starting secret value from
// the secret seed via a keyed PRF call (spec.md §4.9).
func wotsSkSeedElem(skSeed, pubSeed []byte, adrs *address, i int, n int) []byte {
	a := adrs.clone()
	a.setChainAddress(uint32(i))
	a.setHashAddress(0)
	return taggedHash(pubSeed, a, skSeed, n)
}

// baseW converts a message digest into wotsLen1(n) base-16 digits, then
// appends the checksum digits derived from their complement sum (spec.md
// §4.9).
func baseW(msg []byte, n int) []int {
	l1 := wotsLen1(n)
	digits := make([]int, l1)
	for i := 0; i < l1; i++ {
		byteIdx := i / 2
		if i%2 == 0 {
			digits[i] = int(msg[byteIdx] >> 4)
		} else {
			digits[i] = int(msg[byteIdx] & 0x0f)
		}
	}
	checksum := 0
	for _, d := range digits {
		checksum += 15 - d
	}
	l2 := bits.Len(uint(l1*15))/wotsLogW + 1
	csDigits := make([]int, l2)
	shift := uint(l2 * wotsLogW)
	for i := 0; i < l2; i++ {
		shift -= wotsLogW
		csDigits[i] = (checksum >> shift) & 0x0f
	}
	return append(digits, csDigits...)
}

// wotsPkFromSig reconstructs the len(n) public-key chain ends from a
// signature and the known digits, then compresses them into a single leaf
// value via a tree-hash call (spec.md §4.9's PKgen/"leaf" combination).
func wotsPkFromSig(sig [][]byte, digits []int, pubSeed []byte, adrs *address) []byte {
	n := len(sig[0])
	ends := make([][]byte, len(sig))
	for i, part := range sig {
		a := adrs.clone()
		a.setChainAddress(uint32(i))
		ends[i] = wotsChain(part, digits[i], 15-digits[i], pubSeed, a)
	}
	concat := make([]byte, 0, len(ends)*n)
	for _, e := range ends {
		concat = append(concat, e...)
	}
	pkAdrs := adrs.clone()
	pkAdrs.setType(addrWotsPk)
	pkAdrs.setKeyPairAddress(binaryGetU32(adrs.b[20:24]))
	return taggedHash(pubSeed, pkAdrs, concat, n)
}

func binaryGetU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// wotsSign produces the len(n) chain-segment signature for a digest already
// reduced to base-16 digits.
func wotsSign(digits []int, skSeed, pubSeed []byte, adrs *address, n int) [][]byte {
	sig := make([][]byte, len(digits))
	for i, d := range digits {
		a := adrs.clone()
		a.setChainAddress(uint32(i))
		sk := wotsSkSeedElem(skSeed, pubSeed, adrs, i, n)
		sig[i] = wotsChain(sk, 0, d, pubSeed, a)
	}
	return sig
}

// wotsPkGen derives the WOTS+ public leaf directly from the secret seed,
// without needing a signature (used while building hypertree layers).
func wotsPkGen(skSeed, pubSeed []byte, adrs *address, n int) []byte {
	l := wotsLen(n)
	ends := make([][]byte, l)
	for i := 0; i < l; i++ {
		a := adrs.clone()
		a.setChainAddress(uint32(i))
		sk := wotsSkSeedElem(skSeed, pubSeed, adrs, i, n)
		ends[i] = wotsChain(sk, 0, 15, pubSeed, a)
	}
	concat := make([]byte, 0, l*n)
	for _, e := range ends {
		concat = append(concat, e...)
	}
	pkAdrs := adrs.clone()
	pkAdrs.setType(addrWotsPk)
	pkAdrs.setKeyPairAddress(binaryGetU32(adrs.b[20:24]))
	return taggedHash(pubSeed, pkAdrs, concat, n)
}
