package pqc

import "fmt"

// kem.go implements the KEM dispatch façade (spec.md §4.13): a thin tagged
// dispatcher over the parameter-set enum that validates the supplied key's
// (primitive, parameters, class) before forwarding to the concrete scheme.
// Grounded on the teacher's pq_algorithm_registry.go dispatch-by-tag shape.
type Kem struct{}

func (Kem) validateKemPrimitive(ps ParameterSet) error {
	switch ps.Primitive() {
	case PrimitiveKyber, PrimitiveNtruPrime, PrimitiveMcEliece:
		return nil
	default:
		return fmt.Errorf("%w: %v is not a KEM primitive", ErrInvalidParameter, ps)
	}
}

// Generate dispatches key generation to the scheme named by ps.
func (k Kem) Generate(ps ParameterSet, rng *Prng) (*KeyPair, error) {
	if err := k.validateKemPrimitive(ps); err != nil {
		return nil, err
	}
	switch ps.Primitive() {
	case PrimitiveKyber:
		return KyberGenerate(ps, rng)
	case PrimitiveNtruPrime:
		return NtruPrimeGenerate(ps, rng)
	case PrimitiveMcEliece:
		return McElieceGenerate(ps, rng)
	default:
		return nil, fmt.Errorf("%w: unreachable primitive %v", ErrInvalidParameter, ps)
	}
}

// Encapsulate dispatches encapsulation against the given public key.
func (k Kem) Encapsulate(ps ParameterSet, pub *AsymmetricKey, rng *Prng) (ciphertext, sharedSecret []byte, err error) {
	if err := k.validateKemPrimitive(ps); err != nil {
		return nil, nil, err
	}
	if pub == nil || pub.Primitive() != ps.Primitive() || pub.Class() != ClassPublic || pub.Parameters() != ps {
		return nil, nil, fmt.Errorf("%w: key does not match requested parameter set", ErrInvalidKey)
	}
	switch ps.Primitive() {
	case PrimitiveKyber:
		return KyberEncapsulate(ps, pub, rng)
	case PrimitiveNtruPrime:
		return NtruPrimeEncapsulate(ps, pub, rng)
	case PrimitiveMcEliece:
		return McElieceEncapsulate(ps, pub, rng)
	default:
		return nil, nil, fmt.Errorf("%w: unreachable primitive %v", ErrInvalidParameter, ps)
	}
}

// Decapsulate dispatches decapsulation against the given private key. All
// three underlying schemes implement implicit rejection internally, so this
// never returns an authentication error — a forged ciphertext yields a
// pseudorandom shared secret instead (spec.md §4.16).
func (k Kem) Decapsulate(ps ParameterSet, priv *AsymmetricKey, ciphertext []byte) ([]byte, error) {
	if err := k.validateKemPrimitive(ps); err != nil {
		return nil, err
	}
	if priv == nil || priv.Primitive() != ps.Primitive() || priv.Class() != ClassPrivate || priv.Parameters() != ps {
		return nil, fmt.Errorf("%w: key does not match requested parameter set", ErrInvalidKey)
	}
	switch ps.Primitive() {
	case PrimitiveKyber:
		return KyberDecapsulate(ps, priv, ciphertext)
	case PrimitiveNtruPrime:
		return NtruPrimeDecapsulate(ps, priv, ciphertext)
	case PrimitiveMcEliece:
		return McElieceDecapsulate(ps, priv, ciphertext)
	default:
		return nil, fmt.Errorf("%w: unreachable primitive %v", ErrInvalidParameter, ps)
	}
}
