// Package sequencer implements the batch-settlement state machine: it
// polls the chain for pending commitments, builds a batch against the
// local Merkle tree, drives the external witness generator and prover,
// submits the settlement instruction, and folds the confirmed batch into
// durable state. It never commits local state ahead of on-chain
// confirmation, and it never fabricates a commitment it cannot account
// for — every halt names its cause and the batch id that triggered it.
package sequencer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/psolprotocol/masp-core/internal/chain"
	"github.com/psolprotocol/masp-core/pkg/groth16proof"
	"github.com/psolprotocol/masp-core/pkg/merkletree"
)

// Sequencer drives one pool's settlement cycles.
type Sequencer struct {
	cfg    *Config
	client chain.Client
	tree   *merkletree.Tree
	state  *State

	witnessGen WitnessGenerator
	prover     Prover
	vk         *groth16proof.VerifyingKey
	audit      AuditRecorder

	log zerolog.Logger
}

// New constructs a Sequencer. tree must already reflect the same
// commitments recorded in the state file at cfg.StatePath — the caller
// builds it by replaying state.Commitments through tree.CommitBatch
// against a fresh store, since no TreeStore implementation in this
// module persists node state across process restarts.
func New(cfg *Config, client chain.Client, tree *merkletree.Tree, witnessGen WitnessGenerator, prover Prover, vk *groth16proof.VerifyingKey, log zerolog.Logger) (*Sequencer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	state, err := LoadState(cfg.StatePath)
	if err != nil {
		return nil, err
	}
	return &Sequencer{
		cfg:        cfg,
		client:     client,
		tree:       tree,
		state:      state,
		witnessGen: witnessGen,
		prover:     prover,
		vk:         vk,
		log:        log,
	}, nil
}

// WithAuditRecorder attaches an optional audit trail. It is purely
// observational: commit still succeeds and advances state even if audit
// is nil or its RecordBatch call fails, since the audit log is never the
// sequencer's source of truth.
func (s *Sequencer) WithAuditRecorder(audit AuditRecorder) *Sequencer {
	s.audit = audit
	return s
}

// Run drives the sequencer according to cfg.Mode: one_shot runs a single
// cycle and returns, continuous loops until ctx is cancelled, and
// rebuild replays the event log before running one cycle.
func (s *Sequencer) Run(ctx context.Context) error {
	if s.cfg.Mode == ModeRebuild {
		if err := s.rebuild(ctx); err != nil {
			s.halt("rebuild", err, nil)
			return err
		}
	}

	if s.cfg.Mode != ModeContinuous {
		return s.runCycleLogged(ctx)
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if err := s.runCycleLogged(ctx); err != nil && isFatal(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Sequencer) runCycleLogged(ctx context.Context) error {
	if err := s.runCycle(ctx); err != nil {
		s.halt("cycle", err, nil)
		return err
	}
	return nil
}

// halt logs the one line spec.md §7 requires for every fatal stop: the
// cause and, when available, the batch id of the attempt that triggered
// it.
func (s *Sequencer) halt(stage string, err error, batchID *[8]byte) {
	ev := s.log.Error().Str("stage", stage).Err(err)
	if batchID != nil {
		ev = ev.Str("batch_id", hexBatchID(*batchID))
	}
	ev.Msg("sequencer halted")
}
