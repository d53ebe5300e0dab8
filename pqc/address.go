package pqc

import "encoding/binary"

// address.go implements the 32-byte SPHINCS+ hash address (spec.md §3
// "Address"), the tagged-domain-separation structure that makes every
// WOTS+/FORS/tree hash call unique even when the same key material is
// reused across the hypertree. Grounded on the layer/tree/type/word layout
// SPHINCS+-SHAKE's reference code uses, expressed here as plain setter
// methods over a fixed byte array rather than a bitfield struct.
const (
	addrWotsHash = uint32(0)
	addrWotsPk   = uint32(1)
	addrTree     = uint32(2)
	addrForsTree = uint32(3)
	addrForsRoot = uint32(4)
)

type address struct {
	b [32]byte
}

func (a *address) setLayer(layer uint32) {
	binary.BigEndian.PutUint32(a.b[0:4], layer)
}

func (a *address) setTree(tree uint64) {
	binary.BigEndian.PutUint32(a.b[4:8], 0)
	binary.BigEndian.PutUint64(a.b[8:16], tree)
}

func (a *address) setType(t uint32) {
	binary.BigEndian.PutUint32(a.b[16:20], t)
	for i := 20; i < 32; i++ {
		a.b[i] = 0
	}
}

func (a *address) setKeyPairAddress(v uint32) { binary.BigEndian.PutUint32(a.b[20:24], v) }
func (a *address) setChainAddress(v uint32)   { binary.BigEndian.PutUint32(a.b[24:28], v) }
func (a *address) setHashAddress(v uint32)    { binary.BigEndian.PutUint32(a.b[28:32], v) }
func (a *address) setTreeHeight(v uint32)     { binary.BigEndian.PutUint32(a.b[24:28], v) }
func (a *address) setTreeIndex(v uint32)      { binary.BigEndian.PutUint32(a.b[28:32], v) }

func (a *address) Bytes() []byte { return a.b[:] }

func (a *address) clone() *address {
	cp := *a
	return &cp
}
