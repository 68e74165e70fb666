package groth16proof

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

func TestLoadVerifyingKeyJSONRejectsOffCurvePoints(t *testing.T) {
	// These coordinates are simple placeholders and do not lie on bn254;
	// this only checks that the loader's on-curve validation actually
	// runs and rejects garbage rather than accepting it silently.
	data := []byte(`{
		"vk_alpha_1": ["1", "2"],
		"vk_beta_2": [["1", "2"], ["3", "4"]],
		"vk_gamma_2": [["1", "2"], ["3", "4"]],
		"vk_delta_2": [["1", "2"], ["3", "4"]],
		"IC": [["1", "2"], ["1", "2"]],
		"nPublic": 1
	}`)
	if _, err := LoadVerifyingKeyJSON(data); err == nil {
		t.Fatal("want error loading a verifying key with off-curve placeholder coordinates")
	}
}

func TestLoadVerifyingKeyJSONRejectsICLengthMismatch(t *testing.T) {
	data := []byte(`{
		"vk_alpha_1": ["1", "2"],
		"vk_beta_2": [["1", "2"], ["3", "4"]],
		"vk_gamma_2": [["1", "2"], ["3", "4"]],
		"vk_delta_2": [["1", "2"], ["3", "4"]],
		"IC": [],
		"nPublic": 3
	}`)
	if _, err := LoadVerifyingKeyJSON(data); err == nil {
		t.Fatal("want error when IC length does not match nPublic+1")
	}
}

func sampleVK(t *testing.T, numPublic int) *VerifyingKey {
	t.Helper()
	_, _, g1Gen, g2Gen := bn254.Generators()

	ic := make([]bn254.G1Affine, numPublic+1)
	for i := range ic {
		var p bn254.G1Affine
		p.ScalarMultiplication(&g1Gen, big.NewInt(int64(i+1)))
		ic[i] = p
	}

	return &VerifyingKey{
		Alpha: g1Gen,
		Beta:  g2Gen,
		Gamma: g2Gen,
		Delta: g2Gen,
		IC:    ic,
	}
}

func TestVerifyRejectsWrongPublicInputCount(t *testing.T) {
	vk := sampleVK(t, 2)
	_, _, g1Gen, g2Gen := bn254.Generators()
	proof := &Proof{A: g1Gen, B: g2Gen, C: g1Gen}

	_, err := Verify(proof, vk, []fr.Element{{}}) // vk wants 2 inputs, given 1
	if err == nil {
		t.Fatal("want error when public input count does not match the verifying key")
	}
}

func TestVerifyRejectsProofNotMatchingVK(t *testing.T) {
	vk := sampleVK(t, 1)
	_, _, g1Gen, g2Gen := bn254.Generators()

	// A proof built from bare generators has no relation to vk's
	// trapdoor, so it must never satisfy the pairing equation.
	proof := &Proof{A: g1Gen, B: g2Gen, C: g1Gen}

	var input fr.Element
	input.SetUint64(1)

	ok, err := Verify(proof, vk, []fr.Element{input})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("an arbitrary proof must not verify against an unrelated verifying key")
	}
}

// TestVerifyAcceptsAToyValidProof builds a verifying key and a matching
// proof from known discrete logs (a toy trapdoor), without a real circuit:
// e(A,B) = e(alpha,beta)*e(vk_x,gamma)*e(C,delta) holds by construction
// because every exponent involved is known and C is solved for algebraically.
// This is what would have caught the all-four-terms-negated bug: that
// version rejects this proof even though it is genuinely valid.
func TestVerifyAcceptsAToyValidProof(t *testing.T) {
	_, _, g1Gen, g2Gen := bn254.Generators()

	var alphaS, betaS, gammaS, deltaS, ic0S, ic1S, inputS, aS, bS fr.Element
	alphaS.SetUint64(7)
	betaS.SetUint64(11)
	gammaS.SetUint64(13)
	deltaS.SetUint64(17)
	ic0S.SetUint64(3)
	ic1S.SetUint64(5)
	inputS.SetUint64(9)
	aS.SetUint64(19)
	bS.SetUint64(23)

	// vk_x = ic0 + input*ic1 (exponents, mod r).
	var xS fr.Element
	xS.Mul(&inputS, &ic1S)
	xS.Add(&xS, &ic0S)

	// c = (a*b - alpha*beta - x*gamma) / delta (mod r).
	var ab, alphaBeta, xGamma, numerator, deltaInv, cS fr.Element
	ab.Mul(&aS, &bS)
	alphaBeta.Mul(&alphaS, &betaS)
	xGamma.Mul(&xS, &gammaS)
	numerator.Sub(&ab, &alphaBeta)
	numerator.Sub(&numerator, &xGamma)
	deltaInv.Inverse(&deltaS)
	cS.Mul(&numerator, &deltaInv)

	scalarMulG1 := func(s *fr.Element) bn254.G1Affine {
		var n big.Int
		s.BigInt(&n)
		var p bn254.G1Affine
		p.ScalarMultiplication(&g1Gen, &n)
		return p
	}
	scalarMulG2 := func(s *fr.Element) bn254.G2Affine {
		var n big.Int
		s.BigInt(&n)
		var p bn254.G2Affine
		p.ScalarMultiplication(&g2Gen, &n)
		return p
	}

	vk := &VerifyingKey{
		Alpha: scalarMulG1(&alphaS),
		Beta:  scalarMulG2(&betaS),
		Gamma: scalarMulG2(&gammaS),
		Delta: scalarMulG2(&deltaS),
		IC:    []bn254.G1Affine{scalarMulG1(&ic0S), scalarMulG1(&ic1S)},
	}
	proof := &Proof{
		A: scalarMulG1(&aS),
		B: scalarMulG2(&bS),
		C: scalarMulG1(&cS),
	}

	ok, err := Verify(proof, vk, []fr.Element{inputS})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("a proof satisfying the pairing equation by construction must verify")
	}
}

func TestPublicInputsToFrPreservesOrder(t *testing.T) {
	var a, b fr.Element
	a.SetUint64(10)
	b.SetUint64(20)

	out := PublicInputsToFr(a, b)
	if len(out) != 2 {
		t.Fatalf("want 2 elements, got %d", len(out))
	}
	if !out[0].Equal(&a) || !out[1].Equal(&b) {
		t.Error("PublicInputsToFr must preserve input order")
	}
}
