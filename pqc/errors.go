package pqc

import "errors"

// Error kinds from spec.md §7. These are sentinels, not types: callers
// compare with errors.Is, and wrapping with fmt.Errorf("...: %w", Err...)
// is how call sites attach context without inventing new kinds.
var (
	// ErrInvalidParameter: parameter-set tag is None or inconsistent with
	// another argument.
	ErrInvalidParameter = errors.New("pqc: invalid parameter set")

	// ErrInvalidKey: key bytes' declared (primitive, class, parameters)
	// disagrees with the operation, or length mismatches.
	ErrInvalidKey = errors.New("pqc: invalid key")

	// ErrInvalidCiphertext: ciphertext length wrong. Never raised for
	// "decryption failed" — that case is implicit rejection, not an error.
	ErrInvalidCiphertext = errors.New("pqc: invalid ciphertext")

	// ErrVerifyFailed: a signature does not authenticate. The only
	// observable outcome of a verification mismatch; no sub-reason leaks.
	ErrVerifyFailed = errors.New("pqc: signature verification failed")

	// ErrEntropyUnavailable: the OS entropy source returned fewer bytes
	// than requested. Fatal; never recovered internally.
	ErrEntropyUnavailable = errors.New("pqc: OS entropy source unavailable")

	// ErrInternalInvariant: a bounded-retry key generation loop exhausted
	// its retry cap. Catastrophic; propagate, never silently resample
	// past the cap.
	ErrInternalInvariant = errors.New("pqc: internal invariant violated")

	// ErrAuthenticationFailed mirrors CEX's CryptoAuthenticationFailure:
	// returned by AsymmetricSecureKey.SecurePolynomial when the sealed
	// polynomial fails its authentication-tag check. KEM decapsulation never
	// returns it: a confirmation-tag mismatch there ends in implicit
	// rejection (spec.md §4.16).
	ErrAuthenticationFailed = errors.New("pqc: authentication tag mismatch")
)
