package groth16proof

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
)

func TestProofRoundTrip(t *testing.T) {
	_, _, g1Gen, g2Gen := bn254.Generators()

	var a, c bn254.G1Affine
	a.ScalarMultiplication(&g1Gen, big.NewInt(3))
	c.ScalarMultiplication(&g1Gen, big.NewInt(5))

	var b bn254.G2Affine
	b.ScalarMultiplication(&g2Gen, big.NewInt(7))

	proof := &Proof{A: a, B: b, C: c}
	wire := proof.ToBytes()

	if len(wire) != ProofSize {
		t.Fatalf("want %d bytes, got %d", ProofSize, len(wire))
	}

	got, err := FromBytes(wire[:])
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}

	if !got.A.Equal(&proof.A) {
		t.Error("A did not round-trip")
	}
	if !got.B.Equal(&proof.B) {
		t.Error("B did not round-trip")
	}
	if !got.C.Equal(&proof.C) {
		t.Error("C did not round-trip")
	}
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	if _, err := FromBytes(make([]byte, ProofSize-1)); err == nil {
		t.Fatal("want error for short proof bytes")
	}
	if _, err := FromBytes(make([]byte, ProofSize+1)); err == nil {
		t.Fatal("want error for long proof bytes")
	}
}

func TestFromBytesRejectsOffCurvePoint(t *testing.T) {
	var buf [ProofSize]byte
	// All-0xFF bytes do not decode to a canonical, on-curve point.
	for i := range buf {
		buf[i] = 0xFF
	}
	if _, err := FromBytes(buf[:]); err == nil {
		t.Fatal("want error decoding a malformed proof")
	}
}
