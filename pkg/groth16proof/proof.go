// Package groth16proof implements the byte-level Groth16 proof and
// verifying-key representation the on-chain verifier consumes, plus a raw
// pairing-check verification path. The circuit itself — witness generator
// and proving key — is an external compiled artifact (WASM + zkey); this
// package only assembles and checks the bytes that cross the prover/verifier
// boundary.
package groth16proof

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/psolprotocol/masp-core/pkg/field"
)

// ErrMalformedProof is returned when a byte string is not exactly the
// expected 256-byte A‖B‖C layout, or its points are non-canonical.
var ErrMalformedProof = errors.New("groth16proof: malformed proof bytes")

// ProofSize is the fixed wire size of a Groth16Proof: 64B A + 128B B + 64B C.
const ProofSize = 64 + 128 + 64

// Proof is the on-chain Groth16 proof layout: A, C in G1 (64B each, x‖y
// big-endian), B in G2 (128B, imaginary-coefficient-first).
type Proof struct {
	A bn254.G1Affine
	B bn254.G2Affine
	C bn254.G1Affine
}

// ToBytes serializes the proof to its fixed 256-byte A‖B‖C wire form.
func (p *Proof) ToBytes() [ProofSize]byte {
	var out [ProofSize]byte
	aBytes := field.G1ToBytes(&p.A)
	bBytes := field.G2ToBytes(&p.B)
	cBytes := field.G1ToBytes(&p.C)

	copy(out[0:64], aBytes[:])
	copy(out[64:192], bBytes[:])
	copy(out[192:256], cBytes[:])
	return out
}

// FromBytes parses a 256-byte A‖B‖C proof, rejecting non-canonical points.
func FromBytes(b []byte) (*Proof, error) {
	if len(b) != ProofSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrMalformedProof, ProofSize, len(b))
	}

	var aBytes [64]byte
	copy(aBytes[:], b[0:64])
	a, err := field.G1FromBytes(aBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: A: %v", ErrMalformedProof, err)
	}

	var bBytes [128]byte
	copy(bBytes[:], b[64:192])
	bPoint, err := field.G2FromBytes(bBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: B: %v", ErrMalformedProof, err)
	}

	var cBytes [64]byte
	copy(cBytes[:], b[192:256])
	c, err := field.G1FromBytes(cBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: C: %v", ErrMalformedProof, err)
	}

	return &Proof{A: a, B: bPoint, C: c}, nil
}
