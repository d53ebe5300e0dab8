package pqc

import "encoding/binary"

// putUint32LE writes v into b[0:4] in little-endian order.
func putUint32LE(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

// getUint32LE reads a little-endian uint32 from b[0:4].
func getUint32LE(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// putUint16LE writes v into b[0:2] in little-endian order.
func putUint16LE(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }

// getUint16LE reads a little-endian uint16 from b[0:2].
func getUint16LE(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// constantTimeCompare reports whether a and b are equal, touching every
// byte of both slices regardless of where they first differ. Unequal
// lengths are rejected without scanning (the length itself is never
// secret in any of this package's call sites: spec.md §5 only requires
// the comparison of secret-dependent *contents*, not length-hiding).
func constantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

// ctSelectByte returns x if mask == 0xff, y if mask == 0x00, branch-free.
func ctSelectByte(mask, x, y byte) byte {
	return (x & mask) | (y & ^mask)
}

// ctSelect copies src into dst when mask == 0xff, leaves dst unchanged when
// mask == 0x00; used for the masked implicit-rejection byte replace spec.md
// §4.7/§4.8/§5 calls for (no branch on the secret comparison result).
func ctSelect(dst, whenTrue, whenFalse []byte, mask byte) {
	for i := range dst {
		dst[i] = ctSelectByte(mask, whenTrue[i], whenFalse[i])
	}
}

// compareMask returns 0xff if a and b are bytewise equal, 0x00 otherwise,
// without branching on the comparison result. Used to drive ctSelect for
// the FO-transform ciphertext re-encryption check and equivalent
// authentication-tag checks elsewhere in the core.
func compareMask(a, b []byte) byte {
	if len(a) != len(b) {
		return 0x00
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	// v == 0 iff equal; turn that into an all-ones/all-zeros mask.
	v |= v >> 4
	v |= v >> 2
	v |= v >> 1
	v &= 1
	return v - 1 // v==0 -> 0xff ; v==1 -> 0x00
}
