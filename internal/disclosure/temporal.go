package disclosure

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/psolprotocol/masp-core/pkg/groth16proof"
)

// TemporalDisclosure proves a note's funds have been held since
// CreationTime for at least MinDuration seconds, as of ProofTime.
type TemporalDisclosure struct {
	Commitment   *Commitment
	CreationTime uint64
	MinDuration  uint64
	ProofTime    uint64
	Proof        *groth16proof.Proof
}

// NewTemporalDisclosure packages a previously generated temporal proof.
// It refuses a disclosure whose own stated times could not satisfy the
// duration it claims, since no valid circuit witness could exist for
// such a claim.
func NewTemporalDisclosure(commitment *Commitment, creationTime, minDuration, proofTime uint64, proof *groth16proof.Proof) (*TemporalDisclosure, error) {
	if proofTime < creationTime || proofTime-creationTime < minDuration {
		return nil, fmt.Errorf("disclosure: proof_time %d does not satisfy min_duration %d since creation_time %d", proofTime, minDuration, creationTime)
	}
	return &TemporalDisclosure{
		Commitment:   commitment,
		CreationTime: creationTime,
		MinDuration:  minDuration,
		ProofTime:    proofTime,
		Proof:        proof,
	}, nil
}

// PublicInputs returns the temporal circuit's public inputs in order:
// commitment, creation_time, min_duration, proof_time.
func (d *TemporalDisclosure) PublicInputs() []fr.Element {
	return []fr.Element{
		commitmentToFieldElement(d.Commitment),
		uint64ToFieldElement(d.CreationTime),
		uint64ToFieldElement(d.MinDuration),
		uint64ToFieldElement(d.ProofTime),
	}
}

// VerifyTemporalDisclosure checks d.Proof against vk and d's public
// inputs.
func VerifyTemporalDisclosure(d *TemporalDisclosure, vk *groth16proof.VerifyingKey) (bool, error) {
	ok, err := groth16proof.Verify(d.Proof, vk, d.PublicInputs())
	if err != nil {
		return false, fmt.Errorf("disclosure: verify temporal disclosure: %w", err)
	}
	return ok, nil
}
