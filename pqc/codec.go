package pqc

import "fmt"

// codec.go implements the parameter-set name registry (SPEC_FULL.md
// "Supplemented features" #2, grounded on original_source/CEX's
// AsymmetricCipherFromName.cpp factory pattern): a canonical-name <-> tag
// mapping plus a FromName constructor, reborn here as a Go function
// returning (ParameterSet, error) rather than a throwing factory.
type CodecEnum struct{}

// Name returns the canonical string tag for a parameter set, matching the
// names baked into paramTable.
func (CodecEnum) Name(ps ParameterSet) (string, error) {
	info, err := ps.info()
	if err != nil {
		return "", err
	}
	return info.name, nil
}

// FromName reverses Name: given a canonical tag, returns the ParameterSet it
// identifies, or InvalidParameter if unrecognised.
func (CodecEnum) FromName(name string) (ParameterSet, error) {
	for ps, info := range paramTable {
		if info.name == name {
			return ps, nil
		}
	}
	return ParamNone, fmt.Errorf("%w: unrecognised parameter set name %q", ErrInvalidParameter, name)
}

// All returns every configured parameter set, in no particular order —
// convenient for test matrices iterating "every parameter set of every
// primitive".
func (CodecEnum) All() []ParameterSet {
	out := make([]ParameterSet, 0, len(paramTable))
	for ps := range paramTable {
		out = append(out, ps)
	}
	return out
}
