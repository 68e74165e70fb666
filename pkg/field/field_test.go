package field

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

func TestBE32RoundTrip(t *testing.T) {
	var x fr.Element
	x.SetUint64(123456789)

	b := ToBE32(&x)
	got, err := FromBE32(b)
	if err != nil {
		t.Fatalf("FromBE32: %v", err)
	}
	if !got.Equal(&x) {
		t.Error("FromBE32(ToBE32(x)) must equal x")
	}
}

func TestFromBE32RejectsNonCanonical(t *testing.T) {
	modulus := fr.Modulus()
	var b [32]byte
	modBytes := modulus.Bytes()
	copy(b[32-len(modBytes):], modBytes)

	if _, err := FromBE32(b); err != ErrNonCanonical {
		t.Errorf("FromBE32(modulus) error = %v, want ErrNonCanonical", err)
	}
}

func TestFromBE32AcceptsModulusMinusOne(t *testing.T) {
	modulus := fr.Modulus()
	v := new(big.Int).Sub(modulus, big.NewInt(1))
	var b [32]byte
	vb := v.Bytes()
	copy(b[32-len(vb):], vb)

	got, err := FromBE32(b)
	if err != nil {
		t.Fatalf("FromBE32(modulus-1): %v", err)
	}
	var want fr.Element
	want.SetBigInt(v)
	if !got.Equal(&want) {
		t.Error("FromBE32(modulus-1) did not decode to modulus-1")
	}
}

func TestG1RoundTrip(t *testing.T) {
	_, _, g1, _ := bn254.Generators()

	b := G1ToBytes(&g1)
	got, err := G1FromBytes(b)
	if err != nil {
		t.Fatalf("G1FromBytes: %v", err)
	}
	if !got.Equal(&g1) {
		t.Error("G1FromBytes(G1ToBytes(g1)) must equal g1")
	}
}

func TestG1FromBytesRejectsOffCurvePoint(t *testing.T) {
	_, _, g1, _ := bn254.Generators()
	b := G1ToBytes(&g1)
	// Corrupt the y-coordinate so the point is no longer on the curve.
	b[63] ^= 0xFF

	if _, err := G1FromBytes(b); err != ErrNonCanonical {
		t.Errorf("G1FromBytes(corrupted) error = %v, want ErrNonCanonical", err)
	}
}

func TestG2RoundTrip(t *testing.T) {
	_, _, _, g2 := bn254.Generators()

	b := G2ToBytes(&g2)
	got, err := G2FromBytes(b)
	if err != nil {
		t.Fatalf("G2FromBytes: %v", err)
	}
	if !got.Equal(&g2) {
		t.Error("G2FromBytes(G2ToBytes(g2)) must equal g2")
	}
}

func TestG2ToBytesIsImaginaryCoefficientFirst(t *testing.T) {
	_, _, _, g2 := bn254.Generators()
	b := G2ToBytes(&g2)

	xc1 := g2.X.A1.Bytes()
	var got [32]byte
	copy(got[:], b[0:32])
	if got != xc1 {
		t.Error("G2ToBytes must place X.A1 (imaginary part) in the first 32 bytes")
	}
}

func TestPubkeyToScalarIsCanonicalAndDeterministic(t *testing.T) {
	var pk [32]byte
	for i := range pk {
		pk[i] = byte(i)
	}

	x1 := PubkeyToScalar(pk)
	x2 := PubkeyToScalar(pk)
	if !x1.Equal(&x2) {
		t.Error("PubkeyToScalar must be deterministic")
	}

	// Changing the dropped last byte must not change the result.
	pk2 := pk
	pk2[31] ^= 0xFF
	x3 := PubkeyToScalar(pk2)
	if !x1.Equal(&x3) {
		t.Error("PubkeyToScalar must ignore the pubkey's last byte")
	}

	// Changing any of the retained 31 bytes must change the result.
	pk4 := pk
	pk4[0] ^= 0xFF
	x4 := PubkeyToScalar(pk4)
	if x1.Equal(&x4) {
		t.Error("PubkeyToScalar must depend on the pubkey's first 31 bytes")
	}
}
