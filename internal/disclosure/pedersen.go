// Package disclosure implements programmable selective disclosure: Pedersen
// value commitments and the Range/Identity/Temporal proof types a note
// holder can present to demonstrate a property of a shielded note without
// revealing the note itself. This is a supplemented, additive feature —
// spec.md's sequencer never requires a disclosure to settle a batch; a
// disclosure is presented out of band to whatever party asked for it.
package disclosure

import (
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Errors returned by Pedersen commitment operations.
var (
	ErrInvalidValue   = errors.New("disclosure: invalid commitment value")
	ErrInvalidBlinder = errors.New("disclosure: invalid blinder")
)

var (
	generatorG bn254.G1Affine
	generatorH bn254.G1Affine
	generatorsReady bool
)

// initGenerators lazily derives the pair of independent generators a
// Pedersen commitment needs: G is the curve's standard base point, and H
// is G scaled by a scalar derived from a domain-separated hash, so no
// party knows a discrete-log relationship between the two.
func initGenerators() {
	if generatorsReady {
		return
	}
	_, _, g1Gen, _ := bn254.Generators()
	generatorG = g1Gen

	digest := sha256.Sum256([]byte("psol-masp/pedersen/H"))
	generatorH.ScalarMultiplication(&generatorG, new(big.Int).SetBytes(digest[:]))
	generatorsReady = true
}

// Commitment is a Pedersen commitment C = value*G + blinder*H.
type Commitment struct {
	Point bn254.G1Affine
}

// Commit computes a Pedersen commitment to value under blinder.
func Commit(value, blinder *big.Int) (*Commitment, error) {
	initGenerators()
	if value == nil {
		return nil, ErrInvalidValue
	}
	if blinder == nil {
		return nil, ErrInvalidBlinder
	}

	var valueG, blinderH, point bn254.G1Affine
	valueG.ScalarMultiplication(&generatorG, value)
	blinderH.ScalarMultiplication(&generatorH, blinder)
	point.Add(&valueG, &blinderH)

	return &Commitment{Point: point}, nil
}

// CommitRandom commits to value under a freshly sampled blinder and
// returns both, since the caller must keep the blinder to later open or
// prove a property of the commitment.
func CommitRandom(value *big.Int) (*Commitment, *big.Int, error) {
	blinder, err := RandomScalar()
	if err != nil {
		return nil, nil, err
	}
	c, err := Commit(value, blinder)
	if err != nil {
		return nil, nil, err
	}
	return c, blinder, nil
}

// Open reports whether the commitment opens to value and blinder.
func (c *Commitment) Open(value, blinder *big.Int) bool {
	expected, err := Commit(value, blinder)
	if err != nil {
		return false
	}
	return c.Point.Equal(&expected.Point)
}

// Add computes the commitment to the sum of the two committed values,
// the homomorphism Disclosure's value-conservation check relies on.
func (c *Commitment) Add(other *Commitment) *Commitment {
	var sum bn254.G1Affine
	sum.Add(&c.Point, &other.Point)
	return &Commitment{Point: sum}
}

// Sub computes the commitment to the difference of the two committed
// values.
func (c *Commitment) Sub(other *Commitment) *Commitment {
	var negOther, diff bn254.G1Affine
	negOther.Neg(&other.Point)
	diff.Add(&c.Point, &negOther)
	return &Commitment{Point: diff}
}

// Bytes returns the compressed curve-point encoding of the commitment.
func (c *Commitment) Bytes() []byte {
	return c.Point.Marshal()
}

// FromBytes reconstructs a commitment from its compressed encoding.
func FromBytes(data []byte) (*Commitment, error) {
	var p bn254.G1Affine
	if err := p.Unmarshal(data); err != nil {
		return nil, err
	}
	return &Commitment{Point: p}, nil
}

// RandomScalar samples a uniform element of the scalar field as a
// big.Int, suitable for use as a Pedersen blinder.
func RandomScalar() (*big.Int, error) {
	var s fr.Element
	if _, err := s.SetRandom(); err != nil {
		return nil, err
	}
	return s.BigInt(new(big.Int)), nil
}

// VerifyValueConservation checks sum(inputs) = sum(outputs) + fee*G,
// the value-balance identity a shielded transaction's commitments must
// satisfy regardless of what individual values they hide.
func VerifyValueConservation(inputs, outputs []*Commitment, fee uint64) bool {
	initGenerators()

	var inputSum bn254.G1Affine
	inputSum.SetInfinity()
	for _, c := range inputs {
		inputSum.Add(&inputSum, &c.Point)
	}

	var outputSum bn254.G1Affine
	outputSum.SetInfinity()
	for _, c := range outputs {
		outputSum.Add(&outputSum, &c.Point)
	}

	var feeCommitment bn254.G1Affine
	feeCommitment.ScalarMultiplication(&generatorG, new(big.Int).SetUint64(fee))
	outputSum.Add(&outputSum, &feeCommitment)

	return inputSum.Equal(&outputSum)
}
