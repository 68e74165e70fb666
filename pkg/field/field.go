// Package field implements canonical encodings between BN254 scalar-field
// elements and the fixed byte layouts the on-chain verifier consumes:
// 32-byte big-endian field elements, 64-byte G1 points, and 128-byte G2
// points in imaginary-coefficient-first order.
package field

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// ErrNonCanonical is returned whenever a byte string does not encode a
// canonical value: an integer at or above the scalar-field modulus, or a
// malformed curve point. Callers must surface it; a non-canonical value is
// never silently reduced.
var ErrNonCanonical = errors.New("field: non-canonical encoding")

// ToBE32 returns the canonical 32-byte big-endian encoding of x.
func ToBE32(x *fr.Element) [32]byte {
	return x.Bytes()
}

// FromBE32 decodes a 32-byte big-endian string into a field element,
// rejecting any integer that is not strictly less than the scalar-field
// modulus r.
func FromBE32(b [32]byte) (fr.Element, error) {
	var x fr.Element
	v := new(big.Int).SetBytes(b[:])
	if v.Cmp(fr.Modulus()) >= 0 {
		return x, ErrNonCanonical
	}
	x.SetBigInt(v)
	return x, nil
}

// G1ToBytes encodes a G1 point as x‖y, 32 bytes each, big-endian.
func G1ToBytes(p *bn254.G1Affine) [64]byte {
	var out [64]byte
	xb := p.X.Bytes()
	yb := p.Y.Bytes()
	copy(out[0:32], xb[:])
	copy(out[32:64], yb[:])
	return out
}

// G1FromBytes decodes a 64-byte x‖y G1 point, rejecting non-canonical
// coordinates.
func G1FromBytes(b [64]byte) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	var xb, yb [32]byte
	copy(xb[:], b[0:32])
	copy(yb[:], b[32:64])
	if err := p.X.SetBytesCanonical(xb[:]); err != nil {
		return p, ErrNonCanonical
	}
	if err := p.Y.SetBytesCanonical(yb[:]); err != nil {
		return p, ErrNonCanonical
	}
	if !p.IsOnCurve() {
		return p, ErrNonCanonical
	}
	return p, nil
}

// G2ToBytes encodes a G2 point with the imaginary coefficient first:
// x_c1‖x_c0‖y_c1‖y_c0, 32 bytes each. This ordering is mandatory — it must
// match the circuit's verifying-key layout bit-for-bit, or a valid-looking
// proof is silently rejected on chain.
func G2ToBytes(p *bn254.G2Affine) [128]byte {
	var out [128]byte
	xc1 := p.X.A1.Bytes()
	xc0 := p.X.A0.Bytes()
	yc1 := p.Y.A1.Bytes()
	yc0 := p.Y.A0.Bytes()
	copy(out[0:32], xc1[:])
	copy(out[32:64], xc0[:])
	copy(out[64:96], yc1[:])
	copy(out[96:128], yc0[:])
	return out
}

// G2FromBytes decodes a 128-byte imaginary-first G2 point.
func G2FromBytes(b [128]byte) (bn254.G2Affine, error) {
	var p bn254.G2Affine
	var xc1, xc0, yc1, yc0 [32]byte
	copy(xc1[:], b[0:32])
	copy(xc0[:], b[32:64])
	copy(yc1[:], b[64:96])
	copy(yc0[:], b[96:128])

	if err := p.X.A1.SetBytesCanonical(xc1[:]); err != nil {
		return p, ErrNonCanonical
	}
	if err := p.X.A0.SetBytesCanonical(xc0[:]); err != nil {
		return p, ErrNonCanonical
	}
	if err := p.Y.A1.SetBytesCanonical(yc1[:]); err != nil {
		return p, ErrNonCanonical
	}
	if err := p.Y.A0.SetBytesCanonical(yc0[:]); err != nil {
		return p, ErrNonCanonical
	}
	if !p.IsOnCurve() {
		return p, ErrNonCanonical
	}
	return p, nil
}

// PubkeyToScalar maps a 32-byte chain public key to a scalar-field element
// using the canonical drop-last-byte rule: result = from_be32(0x00 ‖
// pk[0:31]). This must match the on-chain derivation bit-exactly; any other
// mapping silently invalidates proofs tied to a recipient or relayer
// identity.
func PubkeyToScalar(pk [32]byte) fr.Element {
	var buf [32]byte
	copy(buf[1:], pk[0:31])
	var x fr.Element
	x.SetBytes(buf[:]) // buf[0] == 0 guarantees < 2^248 < r, always canonical
	return x
}
