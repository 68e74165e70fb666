package disclosure

import (
	"crypto/sha256"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// commitmentToFieldElement folds a Pedersen commitment's compressed point
// encoding into a scalar-field element so it can serve as a circuit
// public input, using the same sha256-then-mask-top-bits reduction
// internal/batch uses for the settlement commitments hash.
func commitmentToFieldElement(c *Commitment) fr.Element {
	digest := sha256.Sum256(c.Bytes())
	digest[0] &= 0x1F

	var out fr.Element
	out.SetBigInt(new(big.Int).SetBytes(digest[:]))
	return out
}

func uint64ToFieldElement(v uint64) fr.Element {
	var out fr.Element
	out.SetUint64(v)
	return out
}
