package chain

import (
	"encoding/binary"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/psolprotocol/masp-core/pkg/field"
	"github.com/psolprotocol/masp-core/pkg/groth16proof"
)

// SettlementInstruction is the payload the sequencer submits to settle a
// batch: a 256-byte Groth16 proof, the tree's new root, and the number of
// commitments the batch advances the tree by.
type SettlementInstruction struct {
	Proof     [groth16proof.ProofSize]byte
	NewRoot   [32]byte
	BatchSize uint16
}

// EncodeSettlementInstruction serializes the instruction payload in the
// fixed order the on-chain program expects: proof, new_root, batch_size
// (little-endian u16). Well-known account references are appended by the
// caller's transaction-building layer, which this package does not own.
func EncodeSettlementInstruction(ins *SettlementInstruction) []byte {
	out := make([]byte, groth16proof.ProofSize+32+2)
	copy(out[0:groth16proof.ProofSize], ins.Proof[:])
	copy(out[groth16proof.ProofSize:groth16proof.ProofSize+32], ins.NewRoot[:])
	binary.LittleEndian.PutUint16(out[groth16proof.ProofSize+32:], ins.BatchSize)
	return out
}

// BuildSettlementInstruction assembles a SettlementInstruction from a
// proof and the root the batch advances the tree to.
func BuildSettlementInstruction(proof *groth16proof.Proof, newRoot fr.Element, batchSize uint16) *SettlementInstruction {
	ins := &SettlementInstruction{BatchSize: batchSize}
	ins.Proof = proof.ToBytes()
	ins.NewRoot = field.ToBE32(&newRoot)
	return ins
}

const (
	eventDiscLen        = 8
	eventCommitmentLen  = 32
	eventLeafIndexLen   = 4
	commitmentInsertedEventLen = eventDiscLen + eventCommitmentLen + eventLeafIndexLen
)

// CommitmentInsertedEvent is the on-chain log event emitted when a
// commitment is folded into the tree: commitment plus the leaf index it
// landed at. Rebuild mode replays these in order to reconstruct local
// sequencer state after a reset.
type CommitmentInsertedEvent struct {
	Commitment fr.Element
	LeafIndex  uint32
}

// ParseCommitmentInsertedEvent decodes a single program log entry. It
// returns an error rather than silently skipping malformed entries —
// rebuild mode must never fabricate a placeholder for a leaf it cannot
// parse.
func ParseCommitmentInsertedEvent(data []byte) (*CommitmentInsertedEvent, error) {
	if len(data) != commitmentInsertedEventLen {
		return nil, fmt.Errorf("chain: commitment-inserted event has %d bytes, want %d", len(data), commitmentInsertedEventLen)
	}

	offset := eventDiscLen
	var commitmentBytes [32]byte
	copy(commitmentBytes[:], data[offset:offset+eventCommitmentLen])
	offset += eventCommitmentLen

	leafIndex := binary.LittleEndian.Uint32(data[offset : offset+eventLeafIndexLen])

	commitment, err := field.FromBE32(commitmentBytes)
	if err != nil {
		return nil, fmt.Errorf("chain: commitment-inserted event commitment: %w", err)
	}

	return &CommitmentInsertedEvent{Commitment: commitment, LeafIndex: leafIndex}, nil
}
