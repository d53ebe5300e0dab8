package pqc

import "fmt"

// sphincs.go implements the SPHINCS+-SHAKE hypertree orchestrator (spec.md
// §4.11): a stack of XMSS-style Merkle layers whose leaves are WOTS+
// public keys, with the bottom-most message digest authenticated by FORS.
// Grounded on the teacher's sphincs_sign.go parameter table (reshaped to
// the n/h/d/k/logt breakdown spec.md names) and wired directly on top of
// wots.go/fors.go/address.go.
type sphincsParams struct {
	n, h, d, k, logt int
}

func sphincsParamsFor(ps ParameterSet) (sphincsParams, error) {
	switch ps {
	case SphincsS128:
		return sphincsParams{n: 16, h: 66, d: 22, k: 15, logt: 9}, nil
	case SphincsS192:
		return sphincsParams{n: 24, h: 63, d: 21, k: 16, logt: 8}, nil
	case SphincsS256:
		return sphincsParams{n: 32, h: 64, d: 16, k: 19, logt: 8}, nil
	default:
		return sphincsParams{}, fmt.Errorf("%w: %v is not a SPHINCS+ parameter set", ErrInvalidParameter, ps)
	}
}

func sphincsN(n int) int     { return 2 * n }
func sphincsSkLen(n int) int { return 4 * n }

func sphincsSigLen(n, h, d, k, logt int) int {
	return n + k*(logt+1)*n + h*n + d*wotsLen(n)*n
}

// xmssTreeHash builds the Merkle tree of WOTS+ leaves for one hypertree
// layer (2^layerHeight of them) and returns its root plus the
// authentication path for leafIdx.
func xmssTreeHash(skSeed, pubSeed []byte, layer uint32, treeIdx uint64, leafIdx, layerHeight, n int) (root []byte, authPath [][]byte) {
	count := 1 << layerHeight
	level := make([][]byte, count)
	for j := 0; j < count; j++ {
		a := &address{}
		a.setLayer(layer)
		a.setTree(treeIdx)
		a.setType(addrWotsHash)
		a.setKeyPairAddress(uint32(j))
		level[j] = wotsPkGen(skSeed, pubSeed, a, n)
	}

	authPath = make([][]byte, layerHeight)
	idx := leafIdx
	for h := 0; h < layerHeight; h++ {
		sibling := idx ^ 1
		authPath[h] = level[sibling]

		next := make([][]byte, len(level)/2)
		for i := 0; i < len(next); i++ {
			a := &address{}
			a.setLayer(layer)
			a.setTree(treeIdx)
			a.setType(addrTree)
			a.setTreeHeight(uint32(h + 1))
			a.setTreeIndex(uint32(i))
			concat := append(append([]byte{}, level[2*i]...), level[2*i+1]...)
			next[i] = taggedHash(pubSeed, a, concat, n)
		}
		level = next
		idx >>= 1
	}
	return level[0], authPath
}

// rootFromAuthPath recomputes a Merkle root from a leaf value and its
// authentication path (verification-side counterpart of xmssTreeHash).
func rootFromAuthPath(leaf []byte, leafIdx int, authPath [][]byte, pubSeed []byte, layer uint32, treeIdx uint64, n int) []byte {
	node := leaf
	idx := leafIdx
	for h, sib := range authPath {
		a := &address{}
		a.setLayer(layer)
		a.setTree(treeIdx)
		a.setType(addrTree)
		a.setTreeHeight(uint32(h + 1))
		a.setTreeIndex(uint32(idx >> 1))
		var concat []byte
		if idx%2 == 0 {
			concat = append(append([]byte{}, node...), sib...)
		} else {
			concat = append(append([]byte{}, sib...), node...)
		}
		node = taggedHash(pubSeed, a, concat, n)
		idx >>= 1
	}
	return node
}

func bytesToUintMasked(b []byte, bitsWanted int) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	if bitsWanted < 64 {
		v &= (uint64(1) << uint(bitsWanted)) - 1
	}
	return v
}

// SphincsGenerate runs SPHINCS+-SHAKE key generation for S128/S192/S256.
func SphincsGenerate(ps ParameterSet, rng *Prng) (*KeyPair, error) {
	sp, err := sphincsParamsFor(ps)
	if err != nil {
		return nil, err
	}
	skSeed := make([]byte, sp.n)
	skPrf := make([]byte, sp.n)
	pubSeed := make([]byte, sp.n)
	rng.Fill(skSeed)
	rng.Fill(skPrf)
	rng.Fill(pubSeed)

	layerHeight := sp.h / sp.d
	root, _ := xmssTreeHash(skSeed, pubSeed, uint32(sp.d-1), 0, 0, layerHeight, sp.n)

	pk := append(append([]byte{}, pubSeed...), root...)
	sk := make([]byte, 0, sphincsSkLen(sp.n))
	sk = append(sk, skSeed...)
	sk = append(sk, skPrf...)
	sk = append(sk, pubSeed...)
	sk = append(sk, root...)

	return &KeyPair{
		Public:  newKey(PrimitiveSphincs, ClassPublic, ps, pk),
		Private: newKey(PrimitiveSphincs, ClassPrivate, ps, sk),
	}, nil
}

func sphincsDigest(sp sphincsParams, r, pubSeed, root, msg []byte) (forsDigest []byte, idxTree uint64) {
	forsIdxBytes := (sp.k*sp.logt + 7) / 8
	treeIdxBytes := (sp.h + 7) / 8
	total := forsIdxBytes + treeIdxBytes

	input := make([]byte, 0, len(r)+len(pubSeed)+len(root)+len(msg))
	input = append(input, r...)
	input = append(input, pubSeed...)
	input = append(input, root...)
	input = append(input, msg...)
	digest := Shake256(input, total)

	forsDigest = digest[:forsIdxBytes]
	idxTree = bytesToUintMasked(digest[forsIdxBytes:], sp.h)
	return forsDigest, idxTree
}

// SphincsSign implements Sign (spec.md §4.11): FORS-signs the message
// digest, then authenticates the FORS public key up through d WOTS+/Merkle
// hypertree layers.
func SphincsSign(ps ParameterSet, priv *AsymmetricKey, msg []byte, rng *Prng) ([]byte, error) {
	sp, err := sphincsParamsFor(ps)
	if err != nil {
		return nil, err
	}
	if err := priv.validate(PrimitiveSphincs, ClassPrivate, ps, sphincsSkLen(sp.n)); err != nil {
		return nil, err
	}
	skBytes := priv.Bytes()
	skSeed := skBytes[0:sp.n]
	skPrf := skBytes[sp.n : 2*sp.n]
	pubSeed := skBytes[2*sp.n : 3*sp.n]
	root := skBytes[3*sp.n : 4*sp.n]

	optRand := make([]byte, sp.n)
	rng.Fill(optRand)
	r := Shake256(append(append(append([]byte{}, skPrf...), optRand...), msg...), sp.n)

	forsDigest, idxTree := sphincsDigest(sp, r, pubSeed, root, msg)
	indices := forsIndices(forsDigest, sp.k, sp.logt)

	layerHeight := sp.h / sp.d
	leafMask := uint64(1)<<uint(layerHeight) - 1

	leafIdx0 := int(idxTree & leafMask)
	treeIdx0 := idxTree >> uint(layerHeight)

	forsAdrs := &address{}
	forsAdrs.setLayer(0)
	forsAdrs.setTree(treeIdx0)
	forsAdrs.setType(addrForsTree)
	forsAdrs.setKeyPairAddress(uint32(leafIdx0))

	sigLeaves, sigAuth, forsRoots := forsSign(indices, skSeed, pubSeed, forsAdrs, forsParams{k: sp.k, logt: sp.logt, n: sp.n})
	concatRoots := make([]byte, 0, sp.k*sp.n)
	for _, rt := range forsRoots {
		concatRoots = append(concatRoots, rt...)
	}
	pkAdrs := forsAdrs.clone()
	pkAdrs.setType(addrForsRoot)
	nodeToSign := taggedHash(pubSeed, pkAdrs, concatRoots, sp.n)

	sig := make([]byte, 0, sphincsSigLen(sp.n, sp.h, sp.d, sp.k, sp.logt))
	sig = append(sig, r...)
	for i := 0; i < sp.k; i++ {
		sig = append(sig, sigLeaves[i]...)
		for _, node := range sigAuth[i] {
			sig = append(sig, node...)
		}
	}

	idx := idxTree
	for layer := 0; layer < sp.d; layer++ {
		leafIdx := int(idx & leafMask)
		treeIdx := idx >> uint(layerHeight)

		adrs := &address{}
		adrs.setLayer(uint32(layer))
		adrs.setTree(treeIdx)
		adrs.setType(addrWotsHash)
		adrs.setKeyPairAddress(uint32(leafIdx))

		digits := baseW(nodeToSign, sp.n)
		wotsSig := wotsSign(digits, skSeed, pubSeed, adrs, sp.n)
		for _, part := range wotsSig {
			sig = append(sig, part...)
		}

		layerRoot, authPath := xmssTreeHash(skSeed, pubSeed, uint32(layer), treeIdx, leafIdx, layerHeight, sp.n)
		for _, node := range authPath {
			sig = append(sig, node...)
		}

		nodeToSign = layerRoot
		idx = treeIdx
	}

	return sig, nil
}

// SphincsVerify implements Verify (spec.md §4.11): recomputes the FORS and
// hypertree chain from the signature and checks the resulting root against
// the public key.
func SphincsVerify(ps ParameterSet, pub *AsymmetricKey, msg, sig []byte) error {
	sp, err := sphincsParamsFor(ps)
	if err != nil {
		return err
	}
	if err := pub.validate(PrimitiveSphincs, ClassPublic, ps, sphincsN(sp.n)); err != nil {
		return err
	}
	if len(sig) != sphincsSigLen(sp.n, sp.h, sp.d, sp.k, sp.logt) {
		return fmt.Errorf("%w: signature length %d", ErrVerifyFailed, len(sig))
	}

	pubBytes := pub.Bytes()
	pubSeed := pubBytes[:sp.n]
	root := pubBytes[sp.n:]

	off := 0
	r := sig[off : off+sp.n]
	off += sp.n

	sigLeaves := make([][]byte, sp.k)
	sigAuth := make([][][]byte, sp.k)
	for i := 0; i < sp.k; i++ {
		sigLeaves[i] = sig[off : off+sp.n]
		off += sp.n
		auth := make([][]byte, sp.logt)
		for h := 0; h < sp.logt; h++ {
			auth[h] = sig[off : off+sp.n]
			off += sp.n
		}
		sigAuth[i] = auth
	}

	forsDigest, idxTree := sphincsDigest(sp, r, pubSeed, root, msg)
	indices := forsIndices(forsDigest, sp.k, sp.logt)

	layerHeight := sp.h / sp.d
	leafMask := uint64(1)<<uint(layerHeight) - 1
	leafIdx0 := int(idxTree & leafMask)
	treeIdx0 := idxTree >> uint(layerHeight)

	forsAdrs := &address{}
	forsAdrs.setLayer(0)
	forsAdrs.setTree(treeIdx0)
	forsAdrs.setType(addrForsTree)
	forsAdrs.setKeyPairAddress(uint32(leafIdx0))

	nodeToVerify := forsPkFromSig(indices, sigLeaves, sigAuth, pubSeed, forsAdrs, forsParams{k: sp.k, logt: sp.logt, n: sp.n})

	idx := idxTree
	for layer := 0; layer < sp.d; layer++ {
		leafIdx := int(idx & leafMask)
		treeIdx := idx >> uint(layerHeight)

		wotsSig := make([][]byte, wotsLen(sp.n))
		for i := range wotsSig {
			wotsSig[i] = sig[off : off+sp.n]
			off += sp.n
		}
		authPath := make([][]byte, layerHeight)
		for h := range authPath {
			authPath[h] = sig[off : off+sp.n]
			off += sp.n
		}

		adrs := &address{}
		adrs.setLayer(uint32(layer))
		adrs.setTree(treeIdx)
		adrs.setType(addrWotsHash)
		adrs.setKeyPairAddress(uint32(leafIdx))

		digits := baseW(nodeToVerify, sp.n)
		leaf := wotsPkFromSig(wotsSig, digits, pubSeed, adrs)
		nodeToVerify = rootFromAuthPath(leaf, leafIdx, authPath, pubSeed, uint32(layer), treeIdx, sp.n)

		idx = treeIdx
	}

	if !constantTimeCompare(nodeToVerify, root) {
		return ErrVerifyFailed
	}
	return nil
}
