package sequencer

import (
	"context"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/psolprotocol/masp-core/internal/batch"
	"github.com/psolprotocol/masp-core/pkg/groth16proof"
)

// WitnessGenerator wraps the circuit's external witness generator (the
// compiled WASM artifact spec.md §1 places out of scope). The sequencer
// never inspects a witness's internal structure; it only forwards the
// public inputs and batch-specific private inputs and gets back
// opaque bytes to hand to Prover.
type WitnessGenerator interface {
	GenerateWitness(ctx context.Context, publicInputs []fr.Element, privateInputs BatchPrivateInputs) ([]byte, error)
}

// BatchPrivateInputs are the per-leaf values the circuit needs but that
// never leave this process: each inserted commitment together with the
// authentication path it was proven against during batch simulation.
type BatchPrivateInputs struct {
	Commitments []fr.Element
	Paths       []AuthPathInput
}

// AuthPathInput mirrors merkletree.AuthPath in the shape the witness
// generator expects, decoupling this package's collaborator interface
// from pkg/merkletree's internal representation.
type AuthPathInput struct {
	Siblings []fr.Element
	Index    uint64
}

// Prover wraps the circuit's external Groth16 prover (also out of scope
// per spec.md §1). It consumes a witness produced by WitnessGenerator and
// returns a proof ready for groth16proof.Verify or on-chain submission.
type Prover interface {
	Prove(ctx context.Context, witness []byte) (*groth16proof.Proof, error)
}

// AuditRecorder records a confirmed batch for observability/compliance
// review. It is never the sequencer's source of truth — State and the
// tree remain authoritative — so a nil AuditRecorder (or one that errors)
// never blocks or reverts a commit; commit only logs the failure.
type AuditRecorder interface {
	RecordBatch(ctx context.Context, b *batch.Batch, txSignature string, settledAt time.Time) error
}
