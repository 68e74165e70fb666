package groth16proof

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// ErrPublicInputCount is returned when the number of supplied public
// inputs does not match the verifying key's n_pub.
var ErrPublicInputCount = errors.New("groth16proof: public input count does not match verifying key")

// Verify checks a Groth16 proof against vk and publicInputs by evaluating
// the pairing equation e(A,B) = e(alpha,beta)·e(vk_x,gamma)·e(C,delta)
// directly over bn254, with no dependency on the circuit's R1CS — the
// circuit is an external artifact; this package only checks the bytes.
func Verify(proof *Proof, vk *VerifyingKey, publicInputs []fr.Element) (bool, error) {
	if len(publicInputs) != vk.NumPublicInputs() {
		return false, fmt.Errorf("%w: got %d, want %d", ErrPublicInputCount, len(publicInputs), vk.NumPublicInputs())
	}

	vkX, err := linearCombineIC(vk, publicInputs)
	if err != nil {
		return false, fmt.Errorf("groth16proof: vk_x: %w", err)
	}

	var negA bn254.G1Affine
	negA.Neg(&proof.A)

	ok, err := bn254.PairingCheck(
		[]bn254.G1Affine{negA, vk.Alpha, *vkX, proof.C},
		[]bn254.G2Affine{proof.B, vk.Beta, vk.Gamma, vk.Delta},
	)
	if err != nil {
		return false, fmt.Errorf("groth16proof: pairing check: %w", err)
	}
	return ok, nil
}

// linearCombineIC computes vk_x = IC[0] + Σ inputs[i]·IC[i+1], the
// standard Groth16 public-input commitment.
func linearCombineIC(vk *VerifyingKey, publicInputs []fr.Element) (*bn254.G1Affine, error) {
	acc := new(bn254.G1Affine).Set(&vk.IC[0])

	for i, input := range publicInputs {
		var scalar big.Int
		input.BigInt(&scalar)

		var term bn254.G1Affine
		term.ScalarMultiplication(&vk.IC[i+1], &scalar)

		accJac := new(bn254.G1Jac).FromAffine(acc)
		termJac := new(bn254.G1Jac).FromAffine(&term)
		accJac.AddAssign(termJac)
		acc.FromJacobian(accJac)
	}

	return acc, nil
}
