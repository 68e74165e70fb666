package sequencer

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/psolprotocol/masp-core/internal/batch"
	"github.com/psolprotocol/masp-core/internal/chain"
	"github.com/psolprotocol/masp-core/pkg/groth16proof"
)

// runCycle executes one ReadChain -> Build -> Prove -> Submit -> Commit
// pass. It returns nil if there was nothing to settle.
func (s *Sequencer) runCycle(ctx context.Context) error {
	chainState, pending, err := s.readChain(ctx)
	if err != nil {
		return err
	}

	if err := s.checkSync(chainState); err != nil {
		if !s.cfg.Force {
			return err
		}
		s.log.Warn().Err(err).Msg("--force set: rebuilding local state before continuing")
		if rebuildErr := s.rebuild(ctx); rebuildErr != nil {
			return rebuildErr
		}
	}

	if len(pending) == 0 {
		s.log.Debug().Msg("no pending commitments")
		return nil
	}

	batchSize := len(pending)
	if batchSize > s.cfg.MaxBatchSize {
		batchSize = s.cfg.MaxBatchSize
	}
	if batchSize < s.cfg.MinBatchSize {
		s.log.Debug().Int("pending", len(pending)).Int("min_batch_size", s.cfg.MinBatchSize).Msg("below min_batch_size, waiting")
		return nil
	}
	toSettle := pending[:batchSize]

	b, err := s.buildBatch(ctx, toSettle)
	if err != nil {
		return err
	}

	proof, err := s.prove(ctx, b)
	if err != nil {
		return err
	}

	sig, err := s.submitWithRetry(ctx, proof, b)
	if err != nil {
		return err
	}

	return s.commit(ctx, b, sig)
}

// readChain fetches the merkle tree account and the pending-commitment
// buffer, the only two on-chain accounts this package reads.
func (s *Sequencer) readChain(ctx context.Context) (*chain.MerkleTreeAccount, []chain.PendingCommitment, error) {
	treeData, err := s.client.GetAccount(ctx, s.cfg.MerkleTreeKey)
	if err != nil {
		return nil, nil, fmt.Errorf("sequencer: read merkle tree account: %w", err)
	}
	treeAccount, err := chain.ParseMerkleTreeAccount(treeData)
	if err != nil {
		return nil, nil, fmt.Errorf("sequencer: parse merkle tree account: %w", err)
	}

	bufData, err := s.client.GetAccount(ctx, s.cfg.PendingBufferKey)
	if err != nil {
		return nil, nil, fmt.Errorf("sequencer: read pending buffer: %w", err)
	}
	pending, err := chain.ParsePendingBuffer(bufData)
	if err != nil {
		return nil, nil, fmt.Errorf("sequencer: parse pending buffer: %w", err)
	}

	return treeAccount, pending, nil
}

// checkSync halts the cycle unless the chain's view of the tree matches
// the local tree exactly: mismatched root or next_leaf_index means local
// state has drifted and settling further would bind a proof to a stale
// transition.
func (s *Sequencer) checkSync(chainState *chain.MerkleTreeAccount) error {
	localRoot := s.tree.CurrentRoot()
	if !localRoot.Equal(&chainState.CurrentRoot) {
		return fmt.Errorf("%w: local=%x chain=%x", ErrRootMismatch, localRoot.Bytes(), chainState.CurrentRoot.Bytes())
	}
	if s.tree.NextIndex() != uint64(chainState.NextLeafIndex) {
		return fmt.Errorf("%w: local=%d chain=%d", ErrIndexMismatch, s.tree.NextIndex(), chainState.NextLeafIndex)
	}
	return nil
}

func (s *Sequencer) buildBatch(ctx context.Context, pending []chain.PendingCommitment) (*batch.Batch, error) {
	commitments := make([]fr.Element, len(pending))
	for i, p := range pending {
		commitments[i] = p.Commitment
	}
	b, err := batch.Build(ctx, s.tree, commitments, s.cfg.MaxBatchSize)
	if err != nil {
		return nil, fmt.Errorf("sequencer: build batch: %w", err)
	}
	return b, nil
}

// prove drives the external witness generator and prover, then verifies
// the resulting proof locally before it is ever submitted on chain — a
// proof that fails local verification never reaches the network.
func (s *Sequencer) prove(ctx context.Context, b *batch.Batch) (*groth16proof.Proof, error) {
	paths := make([]AuthPathInput, len(b.Paths))
	for i, p := range b.Paths {
		paths[i] = AuthPathInput{Siblings: p.Siblings, Index: p.Index}
	}

	witness, err := s.witnessGen.GenerateWitness(ctx, b.PublicInputs(), BatchPrivateInputs{
		Commitments: b.Commitments,
		Paths:       paths,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWitnessGeneration, err)
	}

	proof, err := s.prover.Prove(ctx, witness)
	if err != nil {
		return nil, fmt.Errorf("%w: prove: %v", ErrWitnessGeneration, err)
	}

	ok, err := groth16proof.Verify(proof, s.vk, b.PublicInputs())
	if err != nil {
		return nil, fmt.Errorf("%w: local verify: %v", ErrWitnessGeneration, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: locally-generated proof failed verification, batch_id=%s", ErrWitnessGeneration, hexBatchID(b.ID))
	}

	return proof, nil
}

// submitWithRetry submits the settlement instruction, retrying with
// exponential backoff up to cfg.MaxRetries before giving up. It never
// advances local state before a submission succeeds.
func (s *Sequencer) submitWithRetry(ctx context.Context, proof *groth16proof.Proof, b *batch.Batch) (string, error) {
	ins := chain.BuildSettlementInstruction(proof, b.NewRoot, uint16(len(b.Commitments)))
	tx := chain.EncodeSettlementInstruction(ins)

	delay := s.cfg.RetryBaseDelay
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		sig, err := s.client.Submit(ctx, tx)
		if err == nil {
			return sig, nil
		}
		lastErr = err
		s.log.Warn().Err(err).Int("attempt", attempt).Str("batch_id", hexBatchID(b.ID)).Msg("settlement submission failed, retrying")

		if attempt == s.cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return "", fmt.Errorf("%w: batch_id=%s: %v", ErrSubmissionFatal, hexBatchID(b.ID), lastErr)
}

// commit folds a confirmed batch into the local tree and durable state.
// This is the only place that mutates either, and it only runs after
// submitWithRetry has returned a signature for a transaction the chain
// accepted.
func (s *Sequencer) commit(ctx context.Context, b *batch.Batch, sig string) error {
	if err := s.tree.CommitBatch(ctx, b.Commitments); err != nil {
		return fmt.Errorf("sequencer: commit batch to local tree: %w", err)
	}
	s.state.AppendCommitments(b.Commitments, nowUTC())
	s.state.SetLastTxSignature(sig)
	if err := SaveState(s.cfg.StatePath, s.state); err != nil {
		return fmt.Errorf("sequencer: persist state: %w", err)
	}
	s.log.Info().Str("batch_id", hexBatchID(b.ID)).Str("tx_signature", sig).Int("batch_size", len(b.Commitments)).Msg("batch settled")

	if s.audit != nil {
		if err := s.audit.RecordBatch(ctx, b, sig, nowUTC()); err != nil {
			s.log.Warn().Err(err).Str("batch_id", hexBatchID(b.ID)).Msg("audit log record failed, settlement already confirmed")
		}
	}

	return nil
}

// rebuild replays the chain's commitment-inserted event log from leaf 0
// and folds every leaf not yet reflected in the local tree into it. It
// fails fatally the moment a leaf index in [0, next_leaf_index) has no
// corresponding event — it never fabricates a placeholder commitment.
func (s *Sequencer) rebuild(ctx context.Context) error {
	treeAccount, _, err := s.readChain(ctx)
	if err != nil {
		return err
	}

	logCh, err := s.client.SubscribeLogs(ctx, s.cfg.ProgramID)
	if err != nil {
		return fmt.Errorf("sequencer: subscribe to commitment log: %w", err)
	}

	byIndex := make(map[uint32]fr.Element)
	for line := range logCh {
		ev, err := chain.ParseCommitmentInsertedEvent(line)
		if err != nil {
			return fmt.Errorf("sequencer: parse commitment-inserted event: %w", err)
		}
		byIndex[ev.LeafIndex] = ev.Commitment
	}

	target := treeAccount.NextLeafIndex
	ordered := make([]fr.Element, 0, target)
	for i := uint32(0); i < target; i++ {
		c, ok := byIndex[i]
		if !ok {
			return fmt.Errorf("%w: leaf index %d", ErrMissingLeaf, i)
		}
		ordered = append(ordered, c)
	}

	alreadyApplied := s.tree.NextIndex()
	if uint64(len(ordered)) < alreadyApplied {
		return fmt.Errorf("sequencer: rebuild log shorter than local tree state: log=%d local=%d", len(ordered), alreadyApplied)
	}

	toApply := ordered[alreadyApplied:]
	if err := s.tree.CommitBatch(ctx, toApply); err != nil {
		return fmt.Errorf("sequencer: rebuild: %w", err)
	}
	s.state.AppendCommitments(toApply, nowUTC())
	if err := SaveState(s.cfg.StatePath, s.state); err != nil {
		return fmt.Errorf("sequencer: rebuild: persist state: %w", err)
	}
	s.log.Info().Int("leaves_replayed", len(toApply)).Msg("rebuild complete")
	return nil
}

func hexBatchID(id [8]byte) string {
	return hex.EncodeToString(id[:])
}

func nowUTC() time.Time { return time.Now().UTC() }
