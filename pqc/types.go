package pqc

import "fmt"

// Primitive identifies which scheme a key or operation belongs to.
type Primitive uint8

const (
	PrimitiveNone Primitive = iota
	PrimitiveKyber
	PrimitiveNtruPrime
	PrimitiveMcEliece
	PrimitiveSphincs
	PrimitiveDilithium
)

func (p Primitive) String() string {
	switch p {
	case PrimitiveKyber:
		return "Kyber"
	case PrimitiveNtruPrime:
		return "NTRU-Prime"
	case PrimitiveMcEliece:
		return "McEliece"
	case PrimitiveSphincs:
		return "SPHINCS+"
	case PrimitiveDilithium:
		return "Dilithium"
	default:
		return "None"
	}
}

// KeyClass distinguishes the public and private half of a key pair.
type KeyClass uint8

const (
	ClassNone KeyClass = iota
	ClassPublic
	ClassPrivate
)

// ParameterSet is the immutable tag identifying exactly one configured
// algorithm instance (spec.md §3 "Parameter set"). ParamNone is always a
// configuration error.
type ParameterSet uint8

const (
	ParamNone ParameterSet = iota

	KyberK2
	KyberK3
	KyberK4

	NtruPrimeP653
	NtruPrimeP761
	NtruPrimeP857

	McElieceN6960T119

	SphincsS128
	SphincsS192
	SphincsS256

	DilithiumS1
	DilithiumS2
	DilithiumS3
)

// paramInfo is the static, immutable table every ParameterSet tag derives
// its byte sizes from — plain data, shared freely across goroutines (spec
// §5: "Parameter-set tables are immutable after process start; safe to
// share").
type paramInfo struct {
	primitive     Primitive
	name          string
	publicKeyLen  int
	privateKeyLen int
	ciphertextLen int
	signatureLen  int
	sharedSecrLen int
}

var paramTable = map[ParameterSet]paramInfo{
	KyberK2: {PrimitiveKyber, "KYBER-K2", kyberPkLen(2), kyberSkLen(2), kyberCtLen(2, 10, 4), 0, 32},
	KyberK3: {PrimitiveKyber, "KYBER-K3", kyberPkLen(3), kyberSkLen(3), kyberCtLen(3, 10, 4), 0, 32},
	KyberK4: {PrimitiveKyber, "KYBER-K4", kyberPkLen(4), kyberSkLen(4), kyberCtLen(4, 11, 5), 0, 32},

	NtruPrimeP653: {PrimitiveNtruPrime, "NTRUPRIME-P653", ntrupPkLen(653), ntrupSkLen(653), ntrupCtLen(653), 0, 32},
	NtruPrimeP761: {PrimitiveNtruPrime, "NTRUPRIME-P761", ntrupPkLen(761), ntrupSkLen(761), ntrupCtLen(761), 0, 32},
	NtruPrimeP857: {PrimitiveNtruPrime, "NTRUPRIME-P857", ntrupPkLen(857), ntrupSkLen(857), ntrupCtLen(857), 0, 32},

	McElieceN6960T119: {PrimitiveMcEliece, "MCELIECE-N6960T119", mcPkLen, mcSkLen, mcCtLen, 0, 32},

	SphincsS128: {PrimitiveSphincs, "SPHINCS-S128-SHAKE", sphincsN(16), sphincsSkLen(16), 0, sphincsSigLen(16, 66, 22, 15, 9), 0},
	SphincsS192: {PrimitiveSphincs, "SPHINCS-S192-SHAKE", sphincsN(24), sphincsSkLen(24), 0, sphincsSigLen(24, 63, 21, 16, 8), 0},
	SphincsS256: {PrimitiveSphincs, "SPHINCS-S256-SHAKE", sphincsN(32), sphincsSkLen(32), 0, sphincsSigLen(32, 64, 16, 19, 8), 0},

	DilithiumS1: {PrimitiveDilithium, "DILITHIUM-S1", dilPkLen(4), dilSkLen(4, 4, 13), 0, dilSigLen(4, 2, 39, 78), 0},
	DilithiumS2: {PrimitiveDilithium, "DILITHIUM-S2", dilPkLen(6), dilSkLen(6, 5, 13), 0, dilSigLen(6, 4, 49, 196), 0},
	DilithiumS3: {PrimitiveDilithium, "DILITHIUM-S3", dilPkLen(8), dilSkLen(8, 7, 13), 0, dilSigLen(8, 2, 60, 120), 0},
}

func (p ParameterSet) info() (paramInfo, error) {
	info, ok := paramTable[p]
	if !ok {
		return paramInfo{}, fmt.Errorf("%w: unrecognised parameter set tag %d", ErrInvalidParameter, p)
	}
	return info, nil
}

// Primitive returns the scheme this parameter set configures.
func (p ParameterSet) Primitive() Primitive {
	info, err := p.info()
	if err != nil {
		return PrimitiveNone
	}
	return info.primitive
}

// PublicKeyLen returns the declared public-key size in bytes.
func (p ParameterSet) PublicKeyLen() int { info, _ := p.info(); return info.publicKeyLen }

// PrivateKeyLen returns the declared private-key size in bytes.
func (p ParameterSet) PrivateKeyLen() int { info, _ := p.info(); return info.privateKeyLen }

// CiphertextLen returns the declared ciphertext size in bytes (KEMs only).
func (p ParameterSet) CiphertextLen() int { info, _ := p.info(); return info.ciphertextLen }

// SignatureLen returns the declared signature size in bytes (signers only).
func (p ParameterSet) SignatureLen() int { info, _ := p.info(); return info.signatureLen }

// SharedSecretLen returns the declared shared-secret size in bytes (KEMs only).
func (p ParameterSet) SharedSecretLen() int { info, _ := p.info(); return info.sharedSecrLen }

// AsymmetricKey is a tagged polynomial bundle (spec.md §3 "Asymmetric key").
// polynomial is an opaque byte string; its length must equal the scheme's
// declared size for (Primitive, Parameters, Class). Immutable after
// Generate; Zero destroys the backing bytes.
type AsymmetricKey struct {
	polynomial []byte
	primitive  Primitive
	class      KeyClass
	parameters ParameterSet
}

// Bytes returns the key's raw polynomial bytes. The returned slice aliases
// internal storage; callers that need an independent copy should Clone.
func (k *AsymmetricKey) Bytes() []byte { return k.polynomial }

// Primitive reports which scheme this key belongs to.
func (k *AsymmetricKey) Primitive() Primitive { return k.primitive }

// Class reports whether this is a public or private key.
func (k *AsymmetricKey) Class() KeyClass { return k.class }

// Parameters reports the parameter set this key was generated under.
func (k *AsymmetricKey) Parameters() ParameterSet { return k.parameters }

// Clone duplicates the backing buffer so the clone's lifetime is
// independent of k's (spec.md §3: "clones of private keys require an
// explicit call that duplicates the backing buffer").
func (k *AsymmetricKey) Clone() *AsymmetricKey {
	cp := make([]byte, len(k.polynomial))
	copy(cp, k.polynomial)
	return &AsymmetricKey{polynomial: cp, primitive: k.primitive, class: k.class, parameters: k.parameters}
}

// Zero overwrites the key's backing bytes with zeroes. Call explicitly when
// a key's lifetime ends; Go has no destructors, so this is not automatic.
func (k *AsymmetricKey) Zero() {
	for i := range k.polynomial {
		k.polynomial[i] = 0
	}
}

func newKey(primitive Primitive, class KeyClass, params ParameterSet, polynomial []byte) *AsymmetricKey {
	return &AsymmetricKey{polynomial: polynomial, primitive: primitive, class: class, parameters: params}
}

func (k *AsymmetricKey) validate(wantPrimitive Primitive, wantClass KeyClass, wantParams ParameterSet, wantLen int) error {
	if k == nil {
		return fmt.Errorf("%w: nil key", ErrInvalidKey)
	}
	if k.primitive != wantPrimitive || k.class != wantClass || k.parameters != wantParams {
		return fmt.Errorf("%w: (primitive,class,parameters) mismatch", ErrInvalidKey)
	}
	if len(k.polynomial) != wantLen {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidKey, len(k.polynomial), wantLen)
	}
	return nil
}

// KeyPair bundles the public and private halves of a generated key,
// mirroring CEX's IAsymmetricKeyPair (original_source/CEX/IAsymmetricKeyPair.h):
// the public part may be distributed, the private part never is.
type KeyPair struct {
	Public  *AsymmetricKey
	Private *AsymmetricKey
}

// Zero destroys the private half's backing bytes. The public half is not
// secret and is left intact.
func (kp *KeyPair) Zero() {
	if kp.Private != nil {
		kp.Private.Zero()
	}
}
