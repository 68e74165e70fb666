package note

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// wireNote is the lossless on-wire representation of a Note: field elements
// as decimal strings (so the JSON is diffable and matches the convention
// snarkjs-style tooling uses for public inputs), asset id and leaf index in
// their natural encodings.
type wireNote struct {
	Secret     string  `json:"secret"`
	Nullifier  string  `json:"nullifier"`
	Amount     string  `json:"amount"`
	AssetID    string  `json:"asset_id"`
	Commitment string  `json:"commitment"`
	LeafIndex  *uint64 `json:"leaf_index,omitempty"`
	Root       *string `json:"root,omitempty"`
}

// Serialize produces a lossless JSON encoding of a note, suitable for
// client-side storage.
func Serialize(n *Note) ([]byte, error) {
	w := wireNote{
		Secret:     feToDecimal(&n.Secret),
		Nullifier:  feToDecimal(&n.Nullifier),
		Amount:     feToDecimal(&n.Amount),
		AssetID:    hex.EncodeToString(n.AssetID[:]),
		Commitment: feToDecimal(&n.Commitment),
		LeafIndex:  n.LeafIndex,
	}
	if n.Root != nil {
		s := feToDecimal(n.Root)
		w.Root = &s
	}
	return json.Marshal(w)
}

// Deserialize is the inverse of Serialize; it rejects malformed decimal
// strings and asset ids that are not exactly 32 bytes.
func Deserialize(data []byte) (*Note, error) {
	var w wireNote
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("note: deserialize: %w", err)
	}

	secret, err := decimalToFE(w.Secret)
	if err != nil {
		return nil, fmt.Errorf("note: secret: %w", err)
	}
	nullifier, err := decimalToFE(w.Nullifier)
	if err != nil {
		return nil, fmt.Errorf("note: nullifier: %w", err)
	}
	amount, err := decimalToFE(w.Amount)
	if err != nil {
		return nil, fmt.Errorf("note: amount: %w", err)
	}
	commitment, err := decimalToFE(w.Commitment)
	if err != nil {
		return nil, fmt.Errorf("note: commitment: %w", err)
	}

	assetBytes, err := hex.DecodeString(w.AssetID)
	if err != nil {
		return nil, fmt.Errorf("note: asset_id: %w", err)
	}
	if len(assetBytes) != 32 {
		return nil, fmt.Errorf("note: asset_id: want 32 bytes, got %d", len(assetBytes))
	}
	var assetID AssetID
	copy(assetID[:], assetBytes)

	n := &Note{
		Secret:     secret,
		Nullifier:  nullifier,
		Amount:     amount,
		AssetID:    assetID,
		Commitment: commitment,
		LeafIndex:  w.LeafIndex,
	}
	if w.Root != nil {
		root, err := decimalToFE(*w.Root)
		if err != nil {
			return nil, fmt.Errorf("note: root: %w", err)
		}
		n.Root = &root
	}
	return n, nil
}

func feToDecimal(x *fr.Element) string {
	b := new(big.Int)
	x.BigInt(b)
	return b.String()
}

func decimalToFE(s string) (fr.Element, error) {
	var x fr.Element
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return x, fmt.Errorf("not a decimal integer: %q", s)
	}
	if b.Cmp(fr.Modulus()) >= 0 {
		return x, fmt.Errorf("value exceeds scalar field modulus: %q", s)
	}
	x.SetBigInt(b)
	return x, nil
}
