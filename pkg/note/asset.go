// Package note implements the shielded-pool note and commitment model:
// sampling, commitment recomputation, nullifier-hash derivation, and a
// lossless serialization with an optional authenticated at-rest encryption
// wrapper.
package note

import (
	"golang.org/x/crypto/sha3"
)

// AssetID is a 32-byte asset identifier whose high byte is forced to zero
// so it always fits in the scalar field (< 2^248 < r).
type AssetID [32]byte

const assetIDDomain = "psol:asset_id:v1"

// DeriveAssetID computes the deterministic per-mint asset identifier:
// low 31 bytes = keccak256(domain ‖ mint)[0:31], high byte forced to 0x00.
func DeriveAssetID(mint []byte) AssetID {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(assetIDDomain))
	h.Write(mint)
	sum := h.Sum(nil)

	var id AssetID
	copy(id[1:], sum[0:31])
	return id
}
