package pqc

import (
	"encoding/binary"
	"fmt"
)

// keycontainer.go implements KeyContainer (spec.md §4.14): the fixed,
// unversioned little-endian serialisation of an AsymmetricKey. Grounded on
// the teacher's pubkey_registry.go byte-layout style — tag bytes followed by
// a length-prefixed payload, no embedded version field (a format change
// demands a new enum value, per spec.md).
const keyContainerHeaderLen = 7

// SerializeKey writes (primitive tag, class tag, parameters tag, length,
// polynomial bytes) in the exact order spec.md §4.14 specifies.
func SerializeKey(key *AsymmetricKey) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: nil key", ErrInvalidKey)
	}
	polynomial := key.Bytes()
	out := make([]byte, keyContainerHeaderLen+len(polynomial))
	out[0] = byte(key.Primitive())
	out[1] = byte(key.Class())
	out[2] = byte(key.Parameters())
	binary.LittleEndian.PutUint32(out[3:7], uint32(len(polynomial)))
	copy(out[7:], polynomial)
	return out, nil
}

// DeserializeKey parses the layout SerializeKey produces, validating that the
// declared length matches the trailing payload and that the resulting
// (primitive, parameters, class) combination names a real configured
// parameter set before returning the key.
func DeserializeKey(b []byte) (*AsymmetricKey, error) {
	if len(b) < keyContainerHeaderLen {
		return nil, fmt.Errorf("%w: container shorter than header", ErrInvalidKey)
	}
	primitive := Primitive(b[0])
	class := KeyClass(b[1])
	params := ParameterSet(b[2])
	n := binary.LittleEndian.Uint32(b[3:7])
	if uint32(len(b)-keyContainerHeaderLen) != n {
		return nil, fmt.Errorf("%w: declared length %d does not match payload", ErrInvalidKey, n)
	}

	info, err := params.info()
	if err != nil {
		return nil, err
	}
	if info.primitive != primitive {
		return nil, fmt.Errorf("%w: primitive tag does not match parameters tag", ErrInvalidKey)
	}
	var wantLen int
	switch class {
	case ClassPublic:
		wantLen = info.publicKeyLen
	case ClassPrivate:
		wantLen = info.privateKeyLen
	default:
		return nil, fmt.Errorf("%w: unrecognised key class tag %d", ErrInvalidKey, class)
	}
	if int(n) != wantLen {
		return nil, fmt.Errorf("%w: polynomial length %d, want %d for %s", ErrInvalidKey, n, wantLen, info.name)
	}

	polynomial := make([]byte, n)
	copy(polynomial, b[keyContainerHeaderLen:])
	return newKey(primitive, class, params, polynomial), nil
}
