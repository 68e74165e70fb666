package groth16proof

import (
	"encoding/json"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// VerifyingKey is the Groth16 verifying key: alpha in G1, beta/gamma/delta
// in G2, and one IC point per public input plus one constant term.
type VerifyingKey struct {
	Alpha bn254.G1Affine
	Beta  bn254.G2Affine
	Gamma bn254.G2Affine
	Delta bn254.G2Affine
	IC    []bn254.G1Affine
}

// NumPublicInputs returns n_pub, derived from len(IC) - 1.
func (vk *VerifyingKey) NumPublicInputs() int {
	return len(vk.IC) - 1
}

// snarkjsVK mirrors the snarkjs-style JSON verifying-key export: decimal
// string coordinates, G2 points as [[x_re, x_im], [y_re, y_im]].
type snarkjsVK struct {
	VkAlpha1 []string     `json:"vk_alpha_1"`
	VkBeta2  [][2]string  `json:"vk_beta_2"`
	VkGamma2 [][2]string  `json:"vk_gamma_2"`
	VkDelta2 [][2]string  `json:"vk_delta_2"`
	IC       [][2]string  `json:"IC"`
	NPublic  int          `json:"nPublic"`
}

// LoadVerifyingKeyJSON parses a snarkjs-style verifying-key JSON export.
// G2 points are stored [x_re, x_im] / [y_re, y_im] in the file; this loader
// puts each real part in A0 and each imaginary part in A1, and
// pkg/field.G2ToBytes then writes those points in the on-chain
// imaginary-first byte layout.
func LoadVerifyingKeyJSON(data []byte) (*VerifyingKey, error) {
	var raw snarkjsVK
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("groth16proof: parse verifying key: %w", err)
	}

	alpha, err := decimalG1(raw.VkAlpha1)
	if err != nil {
		return nil, fmt.Errorf("groth16proof: vk_alpha_1: %w", err)
	}
	beta, err := decimalG2(raw.VkBeta2)
	if err != nil {
		return nil, fmt.Errorf("groth16proof: vk_beta_2: %w", err)
	}
	gamma, err := decimalG2(raw.VkGamma2)
	if err != nil {
		return nil, fmt.Errorf("groth16proof: vk_gamma_2: %w", err)
	}
	delta, err := decimalG2(raw.VkDelta2)
	if err != nil {
		return nil, fmt.Errorf("groth16proof: vk_delta_2: %w", err)
	}

	ic := make([]bn254.G1Affine, len(raw.IC))
	for i, rawPoint := range raw.IC {
		p, err := decimalG1Pair(rawPoint)
		if err != nil {
			return nil, fmt.Errorf("groth16proof: IC[%d]: %w", i, err)
		}
		ic[i] = p
	}

	if len(ic) != raw.NPublic+1 {
		return nil, fmt.Errorf("groth16proof: IC length %d does not match nPublic+1 (%d)", len(ic), raw.NPublic+1)
	}

	return &VerifyingKey{Alpha: alpha, Beta: beta, Gamma: gamma, Delta: delta, IC: ic}, nil
}

func decimalG1(coords []string) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	if len(coords) < 2 {
		return p, fmt.Errorf("expected at least 2 coordinates, got %d", len(coords))
	}
	return decimalG1Pair([2]string{coords[0], coords[1]})
}

func decimalG1Pair(coords [2]string) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	if _, ok := p.X.SetString(coords[0]); !ok {
		return p, fmt.Errorf("invalid x coordinate %q", coords[0])
	}
	if _, ok := p.Y.SetString(coords[1]); !ok {
		return p, fmt.Errorf("invalid y coordinate %q", coords[1])
	}
	if !p.IsOnCurve() {
		return p, fmt.Errorf("point is not on curve")
	}
	return p, nil
}

// decimalG2 parses a [[x_re, x_im], [y_re, y_im]] snarkjs G2 point into
// gnark-crypto's E2 coordinates: real parts in A0, imaginary parts in A1.
func decimalG2(coords [][2]string) (bn254.G2Affine, error) {
	var p bn254.G2Affine
	if len(coords) != 2 {
		return p, fmt.Errorf("expected 2 coordinate pairs, got %d", len(coords))
	}

	xRe, xIm := coords[0][0], coords[0][1]
	yRe, yIm := coords[1][0], coords[1][1]

	if _, ok := p.X.A0.SetString(xRe); !ok {
		return p, fmt.Errorf("invalid x_re %q", xRe)
	}
	if _, ok := p.X.A1.SetString(xIm); !ok {
		return p, fmt.Errorf("invalid x_im %q", xIm)
	}
	if _, ok := p.Y.A0.SetString(yRe); !ok {
		return p, fmt.Errorf("invalid y_re %q", yRe)
	}
	if _, ok := p.Y.A1.SetString(yIm); !ok {
		return p, fmt.Errorf("invalid y_im %q", yIm)
	}
	if !p.IsOnCurve() {
		return p, fmt.Errorf("point is not on curve")
	}
	return p, nil
}

// PublicInputsToFr converts the canonical public-input field elements a
// caller has assembled (old_root, new_root, start_index, batch_size,
// commitments_hash, …) into a fresh slice for Verify, keeping the order
// the caller passed them in — this helper exists so callers never have to
// hand-build the []fr.Element slice.
func PublicInputsToFr(inputs ...fr.Element) []fr.Element {
	out := make([]fr.Element, len(inputs))
	copy(out, inputs)
	return out
}
