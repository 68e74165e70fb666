package chain

import (
	"encoding/binary"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/psolprotocol/masp-core/pkg/field"
)

// Pending-commitment buffer layout: 8B discriminator, 32B pool id, 2B
// little-endian record count, then records of {32B commitment, 8B amount
// LE, 32B asset_id, 8B timestamp LE}. spec.md §9 notes two conflicting
// offsets (40 vs. 42) appear across the original source; this module
// fixes the layout at the 42-byte header spec.md §6 specifies and does
// not infer it from any single reference script.
const (
	pendingBufferDiscLen  = 8
	pendingBufferPoolLen  = 32
	pendingBufferCountLen = 2
	pendingBufferHeader   = pendingBufferDiscLen + pendingBufferPoolLen + pendingBufferCountLen

	pendingRecordCommitmentLen = 32
	pendingRecordAmountLen     = 8
	pendingRecordAssetIDLen    = 32
	pendingRecordTimestampLen  = 8
	pendingRecordLen           = pendingRecordCommitmentLen + pendingRecordAmountLen + pendingRecordAssetIDLen + pendingRecordTimestampLen
)

// PendingCommitment is a deposit that has landed on chain but has not yet
// been folded into the local Merkle tree.
type PendingCommitment struct {
	Commitment fr.Element
	Amount     uint64
	AssetID    [32]byte
	Timestamp  uint64
}

// ParsePendingBuffer decodes the on-chain pending-commitment buffer
// account into an ordered slice of PendingCommitment, oldest first.
func ParsePendingBuffer(data []byte) ([]PendingCommitment, error) {
	if len(data) < pendingBufferHeader {
		return nil, fmt.Errorf("chain: pending buffer too short: %d bytes", len(data))
	}

	count := binary.LittleEndian.Uint16(data[pendingBufferDiscLen+pendingBufferPoolLen : pendingBufferHeader])

	want := pendingBufferHeader + int(count)*pendingRecordLen
	if len(data) < want {
		return nil, fmt.Errorf("chain: pending buffer declares %d records but has only %d bytes (want %d)", count, len(data), want)
	}

	out := make([]PendingCommitment, count)
	offset := pendingBufferHeader
	for i := 0; i < int(count); i++ {
		var commitmentBytes [32]byte
		copy(commitmentBytes[:], data[offset:offset+pendingRecordCommitmentLen])
		offset += pendingRecordCommitmentLen

		amount := binary.LittleEndian.Uint64(data[offset : offset+pendingRecordAmountLen])
		offset += pendingRecordAmountLen

		var assetID [32]byte
		copy(assetID[:], data[offset:offset+pendingRecordAssetIDLen])
		offset += pendingRecordAssetIDLen

		timestamp := binary.LittleEndian.Uint64(data[offset : offset+pendingRecordTimestampLen])
		offset += pendingRecordTimestampLen

		commitment, err := field.FromBE32(commitmentBytes)
		if err != nil {
			return nil, fmt.Errorf("chain: pending buffer record %d: %w", i, err)
		}

		out[i] = PendingCommitment{
			Commitment: commitment,
			Amount:     amount,
			AssetID:    assetID,
			Timestamp:  timestamp,
		}
	}

	return out, nil
}

const (
	merkleAccountDiscLen       = 8
	merkleAccountPoolLen       = 32
	merkleAccountDepthLen      = 1
	merkleAccountNextIndexLen  = 4
	merkleAccountRootLen       = 32
	merkleAccountFixedHeader   = merkleAccountDiscLen + merkleAccountPoolLen + merkleAccountDepthLen + merkleAccountNextIndexLen + merkleAccountRootLen
)

// MerkleTreeAccount holds the three fields the sequencer reads from the
// on-chain Merkle tree account; the root-history ring and any further
// fields are opaque and intentionally not parsed here.
type MerkleTreeAccount struct {
	Depth         uint8
	NextLeafIndex uint32
	CurrentRoot   fr.Element
}

// ParseMerkleTreeAccount decodes depth, next_leaf_index, and current_root
// from the on-chain Merkle tree account.
func ParseMerkleTreeAccount(data []byte) (*MerkleTreeAccount, error) {
	if len(data) < merkleAccountFixedHeader {
		return nil, fmt.Errorf("chain: merkle tree account too short: %d bytes", len(data))
	}

	offset := merkleAccountDiscLen + merkleAccountPoolLen
	depth := data[offset]
	offset += merkleAccountDepthLen

	nextLeafIndex := binary.LittleEndian.Uint32(data[offset : offset+merkleAccountNextIndexLen])
	offset += merkleAccountNextIndexLen

	var rootBytes [32]byte
	copy(rootBytes[:], data[offset:offset+merkleAccountRootLen])

	root, err := field.FromBE32(rootBytes)
	if err != nil {
		return nil, fmt.Errorf("chain: merkle tree account current_root: %w", err)
	}

	return &MerkleTreeAccount{
		Depth:         depth,
		NextLeafIndex: nextLeafIndex,
		CurrentRoot:   root,
	}, nil
}
