package poseidon

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

func feUint64(v uint64) fr.Element {
	var x fr.Element
	x.SetUint64(v)
	return x
}

// Golden byte vectors for h2(1,2), h4(1,2,3,4) and the nullifier-hash shape
// h2(h2(2,1),7) must be pinned against the deployed circuit's Poseidon
// build before release (spec.md §8); this environment cannot execute the
// reference permutation, so these tests assert the structural invariants
// that any correct, deterministic arity-matched Poseidon build must satisfy.
func TestH2Deterministic(t *testing.T) {
	a, b := feUint64(1), feUint64(2)
	r1, err := H2(&a, &b)
	if err != nil {
		t.Fatalf("H2: %v", err)
	}
	r2, err := H2(&a, &b)
	if err != nil {
		t.Fatalf("H2: %v", err)
	}
	if !r1.Equal(&r2) {
		t.Error("H2 must be deterministic")
	}
}

func TestH2SensitiveToOrder(t *testing.T) {
	a, b := feUint64(1), feUint64(2)
	ab, err := H2(&a, &b)
	if err != nil {
		t.Fatalf("H2: %v", err)
	}
	ba, err := H2(&b, &a)
	if err != nil {
		t.Fatalf("H2: %v", err)
	}
	if ab.Equal(&ba) {
		t.Error("H2(a,b) must differ from H2(b,a) for a != b")
	}
}

func TestH4Deterministic(t *testing.T) {
	a, b, c, d := feUint64(1), feUint64(2), feUint64(3), feUint64(4)
	r1, err := H4(&a, &b, &c, &d)
	if err != nil {
		t.Fatalf("H4: %v", err)
	}
	r2, err := H4(&a, &b, &c, &d)
	if err != nil {
		t.Fatalf("H4: %v", err)
	}
	if !r1.Equal(&r2) {
		t.Error("H4 must be deterministic")
	}
}

func TestH4SensitiveToEachInput(t *testing.T) {
	a, b, c, d := feUint64(1), feUint64(2), feUint64(3), feUint64(4)
	base, err := H4(&a, &b, &c, &d)
	if err != nil {
		t.Fatalf("H4: %v", err)
	}

	dPrime := feUint64(5)
	perturbed, err := H4(&a, &b, &c, &dPrime)
	if err != nil {
		t.Fatalf("H4: %v", err)
	}
	if base.Equal(&perturbed) {
		t.Error("changing the fourth H4 input must change the output")
	}
}

// NullifierHashShape mirrors H2(H2(nullifier, secret), leaf_index) with
// nullifier=2, secret=1, leaf_index=7, and checks that changing leaf_index
// changes the result — the same property the sequencer relies on to give
// every settled note a unique nullifier hash.
func TestNullifierHashShapeSensitiveToLeafIndex(t *testing.T) {
	nullifier, secret := feUint64(2), feUint64(1)
	inner, err := H2(&nullifier, &secret)
	if err != nil {
		t.Fatalf("H2: %v", err)
	}

	leaf7 := feUint64(7)
	out7, err := H2(&inner, &leaf7)
	if err != nil {
		t.Fatalf("H2: %v", err)
	}

	leaf8 := feUint64(8)
	out8, err := H2(&inner, &leaf8)
	if err != nil {
		t.Fatalf("H2: %v", err)
	}

	if out7.Equal(&out8) {
		t.Error("nullifier hash must change when leaf_index changes")
	}
}
