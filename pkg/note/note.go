package note

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/psolprotocol/masp-core/pkg/poseidon"
)

// ErrNoLeafIndex is returned by NullifierHash when the note has not yet
// been assigned a position in the commitment tree (i.e. it has not been
// settled by a batch).
var ErrNoLeafIndex = errors.New("note: leaf index not assigned")

// Note is the client-side record of a shielded value: (secret, nullifier,
// amount, asset_id), plus the derived commitment and, once settled, the
// leaf index and root it was inserted under.
type Note struct {
	Secret    fr.Element
	Nullifier fr.Element
	Amount    fr.Element
	AssetID   AssetID

	Commitment fr.Element

	LeafIndex *uint64
	Root      *fr.Element
}

// CreateNote samples a fresh secret and nullifier uniformly from F_r via
// rejection sampling against a cryptographic RNG, and computes the note's
// commitment as H4(secret, nullifier, amount, asset_id).
func CreateNote(amount uint64, assetID AssetID) (*Note, error) {
	secret, err := randomFieldElement()
	if err != nil {
		return nil, err
	}
	nullifier, err := randomFieldElement()
	if err != nil {
		return nil, err
	}

	var amountFE, assetFE fr.Element
	amountFE.SetUint64(amount)
	assetFE.SetBigInt(new(big.Int).SetBytes(assetID[:]))

	n := &Note{
		Secret:    secret,
		Nullifier: nullifier,
		Amount:    amountFE,
		AssetID:   assetID,
	}

	commitment, err := poseidon.H4(&n.Secret, &n.Nullifier, &n.Amount, &assetFE)
	if err != nil {
		return nil, err
	}
	n.Commitment = commitment
	return n, nil
}

// Commit recomputes a note's commitment for verification; it never reads
// n.Commitment, so it can be used to check a note has not been tampered
// with.
func Commit(n *Note) (fr.Element, error) {
	var assetFE fr.Element
	assetFE.SetBigInt(new(big.Int).SetBytes(n.AssetID[:]))
	return poseidon.H4(&n.Secret, &n.Nullifier, &n.Amount, &assetFE)
}

// NullifierHash derives the note's spend-tracking nullifier hash:
// H2(H2(nullifier, secret), leaf_index). It requires the note to carry a
// leaf index, assigned once the note is settled into the commitment tree.
func NullifierHash(n *Note) (fr.Element, error) {
	if n.LeafIndex == nil {
		var zero fr.Element
		return zero, ErrNoLeafIndex
	}

	inner, err := poseidon.H2(&n.Nullifier, &n.Secret)
	if err != nil {
		return inner, err
	}

	var leafFE fr.Element
	leafFE.SetUint64(*n.LeafIndex)
	return poseidon.H2(&inner, &leafFE)
}

// randomFieldElement draws a uniform element of F_r by rejection-sampling
// 32 random bytes until the big-endian integer is strictly less than the
// scalar-field modulus.
func randomFieldElement() (fr.Element, error) {
	modulus := fr.Modulus()
	var x fr.Element
	for {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return x, err
		}
		v := new(big.Int).SetBytes(buf)
		if v.Cmp(modulus) < 0 {
			x.SetBigInt(v)
			return x, nil
		}
	}
}
