package disclosure

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/psolprotocol/masp-core/pkg/groth16proof"
)

// RangeDisclosure proves a committed value lies in [MinValue, MaxValue]
// without revealing the value itself. The proof is produced by an
// external range circuit's prover (out of scope, same as the main
// settlement circuit); this type only packages the public inputs in
// the fixed order the circuit expects and verifies against them.
type RangeDisclosure struct {
	Commitment *Commitment
	MinValue   uint64
	MaxValue   uint64
	Proof      *groth16proof.Proof
}

// NewRangeDisclosure packages a previously generated range proof. It
// rejects a disclosure whose stated bounds are inverted, since such a
// range could never be satisfied and is certainly not what the caller
// meant to assert.
func NewRangeDisclosure(commitment *Commitment, minValue, maxValue uint64, proof *groth16proof.Proof) (*RangeDisclosure, error) {
	if minValue > maxValue {
		return nil, fmt.Errorf("disclosure: range [%d, %d] is empty", minValue, maxValue)
	}
	return &RangeDisclosure{Commitment: commitment, MinValue: minValue, MaxValue: maxValue, Proof: proof}, nil
}

// PublicInputs returns the range circuit's public inputs in order:
// commitment, min_value, max_value.
func (d *RangeDisclosure) PublicInputs() []fr.Element {
	return []fr.Element{
		commitmentToFieldElement(d.Commitment),
		uint64ToFieldElement(d.MinValue),
		uint64ToFieldElement(d.MaxValue),
	}
}

// VerifyRangeDisclosure checks d.Proof against vk and d's public inputs.
func VerifyRangeDisclosure(d *RangeDisclosure, vk *groth16proof.VerifyingKey) (bool, error) {
	ok, err := groth16proof.Verify(d.Proof, vk, d.PublicInputs())
	if err != nil {
		return false, fmt.Errorf("disclosure: verify range disclosure: %w", err)
	}
	return ok, nil
}
