package pqc

// fors.go implements FORS — Forest Of Random Subsets (spec.md §4.10), the
// few-time signature SPHINCS+ uses to sign the actual message digest
// beneath the hypertree. Grounded on the same taggedHash primitive wots.go
// defines, generalised over (k, logt, n) so S128/S192/S256 share one
// implementation.
type forsParams struct {
	k    int
	logt int
	n    int
}

// forsTreeHash builds one FORS Merkle tree (2^logt leaves) from its secret
// leaves and returns (root, authPath).
func forsTreeHash(skSeed, pubSeed []byte, adrs *address, treeIdx, logt, n int, leafIdx int) (root []byte, authPath [][]byte) {
	t := 1 << logt
	leaves := make([][]byte, t)
	for j := 0; j < t; j++ {
		a := adrs.clone()
		a.setType(addrForsTree)
		a.setTreeHeight(0)
		a.setTreeIndex(uint32(treeIdx*t + j))
		sk := taggedHash(pubSeed, a, skSeed, n)
		leaves[j] = taggedHash(pubSeed, a, sk, n)
	}

	authPath = make([][]byte, logt)
	level := leaves
	idx := leafIdx
	for h := 0; h < logt; h++ {
		sibling := idx ^ 1
		authPath[h] = level[sibling]

		next := make([][]byte, len(level)/2)
		for i := 0; i < len(next); i++ {
			a := adrs.clone()
			a.setType(addrForsTree)
			a.setTreeHeight(uint32(h + 1))
			a.setTreeIndex(uint32(treeIdx*t>>uint(h+1) + i))
			concat := append(append([]byte{}, level[2*i]...), level[2*i+1]...)
			next[i] = taggedHash(pubSeed, a, concat, n)
		}
		level = next
		idx >>= 1
	}
	return level[0], authPath
}

// forsSign signs a message digest (already split into k logt-bit indices)
// by revealing one secret leaf and its authentication path per tree.
func forsSign(indices []int, skSeed, pubSeed []byte, adrs *address, fp forsParams) (sigLeaves [][]byte, sigAuth [][][]byte, roots [][]byte) {
	sigLeaves = make([][]byte, fp.k)
	sigAuth = make([][][]byte, fp.k)
	roots = make([][]byte, fp.k)

	for i := 0; i < fp.k; i++ {
		a := adrs.clone()
		a.setType(addrForsTree)
		a.setTreeHeight(0)
		a.setTreeIndex(uint32(i*(1<<fp.logt) + indices[i]))
		sigLeaves[i] = taggedHash(pubSeed, a, skSeed, fp.n)

		root, path := forsTreeHash(skSeed, pubSeed, adrs, i, fp.logt, fp.n, indices[i])
		roots[i] = root
		sigAuth[i] = path
	}
	return sigLeaves, sigAuth, roots
}

// forsPkFromSig recomputes the FORS roots from a signature and the known
// leaf indices, then compresses them into the single public key value
// that a WOTS+ leaf in the layer above signs.
func forsPkFromSig(indices []int, sigLeaves [][]byte, sigAuth [][][]byte, pubSeed []byte, adrs *address, fp forsParams) []byte {
	roots := make([][]byte, fp.k)
	for i := 0; i < fp.k; i++ {
		a := adrs.clone()
		a.setType(addrForsTree)
		a.setTreeHeight(0)
		a.setTreeIndex(uint32(i*(1<<fp.logt) + indices[i]))
		node := taggedHash(pubSeed, a, sigLeaves[i], fp.n)

		idx := indices[i]
		for h := 0; h < fp.logt; h++ {
			sibling := sigAuth[i][h]
			a2 := adrs.clone()
			a2.setType(addrForsTree)
			a2.setTreeHeight(uint32(h + 1))
			a2.setTreeIndex(uint32(i*(1<<fp.logt)>>uint(h+1) + idx/2))
			var concat []byte
			if idx%2 == 0 {
				concat = append(append([]byte{}, node...), sibling...)
			} else {
				concat = append(append([]byte{}, sibling...), node...)
			}
			node = taggedHash(pubSeed, a2, concat, fp.n)
			idx >>= 1
		}
		roots[i] = node
	}

	concatRoots := make([]byte, 0, fp.k*fp.n)
	for _, r := range roots {
		concatRoots = append(concatRoots, r...)
	}
	pkAdrs := adrs.clone()
	pkAdrs.setType(addrForsRoot)
	return taggedHash(pubSeed, pkAdrs, concatRoots, fp.n)
}

// forsIndices splits a message digest into k logt-bit tree-leaf indices.
func forsIndices(digest []byte, k, logt int) []int {
	indices := make([]int, k)
	bitBuf := uint32(0)
	bitsInBuf := 0
	bytePos := 0
	for i := 0; i < k; i++ {
		for bitsInBuf < logt {
			bitBuf = bitBuf<<8 | uint32(digest[bytePos])
			bytePos++
			bitsInBuf += 8
		}
		bitsInBuf -= logt
		indices[i] = int((bitBuf >> uint(bitsInBuf)) & ((1 << uint(logt)) - 1))
	}
	return indices
}
