// Package poseidon computes the Poseidon hash over the BN254 scalar field
// for the two arities the shielded pool circuit uses: 2 (Merkle internal
// nodes, nullifier hashing) and 4 (note commitments). The permutation,
// round constants and MDS matrix come from github.com/iden3/go-iden3-crypto,
// the same Poseidon build circomlib-based circuits use — the implementation
// is intentionally not reinvented here, since any deviation from the
// circuit's parameter set breaks every downstream proof.
package poseidon

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	iden3poseidon "github.com/iden3/go-iden3-crypto/poseidon"
)

// H2 computes the arity-2 Poseidon hash used for Merkle internal nodes and
// for the outer layer of the nullifier hash.
func H2(a, b *fr.Element) (fr.Element, error) {
	return hashN(a, b)
}

// H4 computes the arity-4 Poseidon hash used for note commitments:
// H4(secret, nullifier, amount, asset_id).
func H4(a, b, c, d *fr.Element) (fr.Element, error) {
	return hashN(a, b, c, d)
}

func hashN(inputs ...*fr.Element) (fr.Element, error) {
	bigs := make([]*big.Int, len(inputs))
	for i, in := range inputs {
		bi := new(big.Int)
		in.BigInt(bi)
		bigs[i] = bi
	}

	out, err := iden3poseidon.Hash(bigs)
	var res fr.Element
	if err != nil {
		return res, err
	}
	res.SetBigInt(out)
	return res, nil
}
