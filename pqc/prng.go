package pqc

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// Prng is a deterministic, seed-expanded random source: SHAKE-256(seed)
// wrapped as an io.Reader (spec.md §4.2). The seed is sourced once, from
// the OS entropy collaborator named in spec.md §6; Prng is never rekeyed
// during a single generation — callers wanting an independent stream must
// construct a fresh Prng (NewPrng reads new OS entropy every call).
type Prng struct {
	xof *ShakeXOF
}

// osEntropy is swappable only in tests; production callers always go
// through crypto/rand, the OS-entropy collaborator spec.md §6 names.
var osEntropy io.Reader = rand.Reader

// NewPrng seeds a Prng from 32 bytes of OS entropy. Failure to obtain them
// is fatal per spec.md §4.16 (ErrEntropyUnavailable), not recoverable.
func NewPrng() (*Prng, error) {
	seed := make([]byte, 32)
	if _, err := io.ReadFull(osEntropy, seed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}
	return NewPrngFromSeed(seed), nil
}

// NewPrngFromSeed builds a deterministic Prng from an explicit seed,
// bypassing OS entropy. Used by tests that fix the seed to get reproducible
// keys and signatures, and by internal derivations that already hold seed
// material from a higher-level XOF.
func NewPrngFromSeed(seed []byte) *Prng {
	return &Prng{xof: NewShake256XOF(seed)}
}

// Fill reads len(buf) deterministic bytes from the expanded seed stream.
func (p *Prng) Fill(buf []byte) {
	_, _ = p.xof.Read(buf)
}

// NextU32 returns the next 4 bytes of the stream as a little-endian uint32.
func (p *Prng) NextU32() uint32 {
	var b [4]byte
	p.Fill(b[:])
	return binary.LittleEndian.Uint32(b[:])
}
