// Package batch assembles a settlement batch: the commitments a sequencer
// cycle pulls off the pending queue, the authentication paths and new root
// produced by simulating their insertion, the public inputs the circuit
// binds to, and the batch id used to correlate a halt or retry with the
// attempt that produced it.
package batch

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/psolprotocol/masp-core/pkg/merkletree"
)

// Batch is the transient unit of work a sequencer cycle builds: a
// contiguous run of commitments and the tree transition they produce. It
// exists only from poll to confirmation and is never persisted as-is —
// confirmed batches are folded into SequencerState instead.
type Batch struct {
	StartIndex      uint64
	Commitments     []fr.Element
	OldRoot         fr.Element
	NewRoot         fr.Element
	Paths           []*merkletree.AuthPath
	CommitmentsHash fr.Element
	ID              [8]byte
}

// Build simulates appending commitments (already truncated to at most
// max_batch_size by the caller) against tree starting at the tree's
// current next_index, and assembles the resulting Batch without mutating
// the tree. maxBatchSize is the circuit's fixed fan-in: commitments past
// len(commitments) up to maxBatchSize are zero-padded only for the
// commitments-hash computation, never written as real leaves.
func Build(ctx context.Context, tree *merkletree.Tree, commitments []fr.Element, maxBatchSize int) (*Batch, error) {
	if len(commitments) == 0 {
		return nil, fmt.Errorf("batch: cannot build an empty batch")
	}
	if len(commitments) > maxBatchSize {
		return nil, fmt.Errorf("batch: %d commitments exceeds max_batch_size %d", len(commitments), maxBatchSize)
	}

	startIndex := tree.NextIndex()
	oldRoot := tree.CurrentRoot()

	result, err := tree.SimulateBatchInsert(ctx, startIndex, commitments)
	if err != nil {
		return nil, fmt.Errorf("batch: simulate: %w", err)
	}

	commitmentsHash := ComputeCommitmentsHash(commitments, maxBatchSize)

	b := &Batch{
		StartIndex:      startIndex,
		Commitments:     commitments,
		OldRoot:         oldRoot,
		NewRoot:         result.NewRoot,
		Paths:           result.Paths,
		CommitmentsHash: commitmentsHash,
	}
	b.ID = ComputeBatchID(oldRoot, result.NewRoot, startIndex, uint16(len(commitments)))
	return b, nil
}

// ComputeCommitmentsHash computes sha256 over maxBatchSize 32-byte
// big-endian commitment slots (zero-padded past len(commitments)), then
// folds the digest into a scalar-field element by masking the three highest
// bits (reducing mod 2^253) — the binding the circuit's public input
// expects, per spec.md §4.5.
func ComputeCommitmentsHash(commitments []fr.Element, maxBatchSize int) fr.Element {
	h := sha256.New()
	for i := 0; i < maxBatchSize; i++ {
		var buf [32]byte
		if i < len(commitments) {
			buf = commitments[i].Bytes()
		}
		h.Write(buf[:])
	}
	digest := h.Sum(nil)

	// Mask the three highest bits of the first byte to bring the 256-bit
	// digest below 2^253, guaranteeing it is a canonical F_r element
	// regardless of the scalar field's exact modulus.
	digest[0] &= 0x1F

	var out fr.Element
	out.SetBigInt(new(big.Int).SetBytes(digest))
	return out
}

// ComputeBatchID derives the 8-byte identifier logged on every halt or
// retry: sha256(old_root ‖ new_root ‖ start_index ‖ batch_size)[0:8].
// start_index and batch_size are each encoded as 8-byte big-endian
// integers for the hash input, independent of their on-wire instruction
// encoding (settlement.go uses a narrower little-endian batch_size field;
// the two encodings serve different purposes and are not required to
// match).
func ComputeBatchID(oldRoot, newRoot fr.Element, startIndex uint64, batchSize uint16) [8]byte {
	h := sha256.New()

	oldBytes := oldRoot.Bytes()
	newBytes := newRoot.Bytes()
	h.Write(oldBytes[:])
	h.Write(newBytes[:])

	var startBuf [8]byte
	binary.BigEndian.PutUint64(startBuf[:], startIndex)
	h.Write(startBuf[:])

	var sizeBuf [8]byte
	binary.BigEndian.PutUint64(sizeBuf[:], uint64(batchSize))
	h.Write(sizeBuf[:])

	digest := h.Sum(nil)
	var id [8]byte
	copy(id[:], digest[:8])
	return id
}

// PublicInputs returns the batch's public inputs in the fixed order the
// circuit expects: old_root, new_root, start_index, batch_size,
// commitments_hash.
func (b *Batch) PublicInputs() []fr.Element {
	var startIndexFE, batchSizeFE fr.Element
	startIndexFE.SetUint64(b.StartIndex)
	batchSizeFE.SetUint64(uint64(len(b.Commitments)))

	return []fr.Element{
		b.OldRoot,
		b.NewRoot,
		startIndexFE,
		batchSizeFE,
		b.CommitmentsHash,
	}
}
