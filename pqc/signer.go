package pqc

import "fmt"

// signer.go implements the Signer dispatch façade (spec.md §4.13), the
// signature-side counterpart to kem.go.
type Signer struct{}

func (Signer) validateSignPrimitive(ps ParameterSet) error {
	switch ps.Primitive() {
	case PrimitiveSphincs, PrimitiveDilithium:
		return nil
	default:
		return fmt.Errorf("%w: %v is not a signature primitive", ErrInvalidParameter, ps)
	}
}

// Generate dispatches key generation to the scheme named by ps.
func (s Signer) Generate(ps ParameterSet, rng *Prng) (*KeyPair, error) {
	if err := s.validateSignPrimitive(ps); err != nil {
		return nil, err
	}
	switch ps.Primitive() {
	case PrimitiveSphincs:
		return SphincsGenerate(ps, rng)
	case PrimitiveDilithium:
		return DilithiumGenerate(ps, rng)
	default:
		return nil, fmt.Errorf("%w: unreachable primitive %v", ErrInvalidParameter, ps)
	}
}

// Sign dispatches signing to the scheme named by ps.
func (s Signer) Sign(ps ParameterSet, priv *AsymmetricKey, msg []byte, rng *Prng) ([]byte, error) {
	if err := s.validateSignPrimitive(ps); err != nil {
		return nil, err
	}
	if priv == nil || priv.Primitive() != ps.Primitive() || priv.Class() != ClassPrivate || priv.Parameters() != ps {
		return nil, fmt.Errorf("%w: key does not match requested parameter set", ErrInvalidKey)
	}
	switch ps.Primitive() {
	case PrimitiveSphincs:
		return SphincsSign(ps, priv, msg, rng)
	case PrimitiveDilithium:
		return DilithiumSign(ps, priv, msg, rng)
	default:
		return nil, fmt.Errorf("%w: unreachable primitive %v", ErrInvalidParameter, ps)
	}
}

// Verify dispatches verification to the scheme named by ps. Returns nil on
// success, ErrVerifyFailed on mismatch — never a bool, so callers cannot
// accidentally ignore the distinction via a truthiness check.
func (s Signer) Verify(ps ParameterSet, pub *AsymmetricKey, msg, sig []byte) error {
	if err := s.validateSignPrimitive(ps); err != nil {
		return err
	}
	if pub == nil || pub.Primitive() != ps.Primitive() || pub.Class() != ClassPublic || pub.Parameters() != ps {
		return fmt.Errorf("%w: key does not match requested parameter set", ErrInvalidKey)
	}
	switch ps.Primitive() {
	case PrimitiveSphincs:
		return SphincsVerify(ps, pub, msg, sig)
	case PrimitiveDilithium:
		return DilithiumVerify(ps, pub, msg, sig)
	default:
		return fmt.Errorf("%w: unreachable primitive %v", ErrInvalidParameter, ps)
	}
}
