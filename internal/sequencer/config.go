package sequencer

import (
	"fmt"
	"time"
)

// Mode selects the sequencer's run strategy.
type Mode string

const (
	// ModeOneShot runs a single poll/build/prove/submit cycle and exits.
	ModeOneShot Mode = "one_shot"
	// ModeContinuous polls forever at Config.PollInterval.
	ModeContinuous Mode = "continuous"
	// ModeRebuild reads the chain's commitment-inserted event log from
	// leaf 0 and appends to the local tree, as loaded from the persisted
	// state file, every leaf at or past its next_index. Leaves already in
	// the local tree are not discarded or compared against the log, and
	// the rebuild fails if the chain's next_leaf_index is below the local
	// next_index.
	ModeRebuild Mode = "rebuild"
)

// Config holds every sequencer tunable spec.md §6 enumerates. ProgramID,
// PoolID, PendingBufferKey, MerkleTreeKey, and VerifyingKeyKey name
// on-chain accounts this sequencer instance watches and settles against.
type Config struct {
	ProgramID        [32]byte
	PoolID           [32]byte
	PendingBufferKey [32]byte
	MerkleTreeKey    [32]byte
	VerifyingKeyKey  [32]byte

	MerkleDepth    uint32
	MaxBatchSize   int
	MinBatchSize   int
	PollInterval   time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration

	ComputeUnits uint32
	PriorityFee  uint64

	Mode  Mode
	Force bool

	StatePath string
}

// Validate rejects configurations that would make the state machine
// behave nonsensically rather than failing partway through a cycle.
func (c *Config) Validate() error {
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("sequencer: max_batch_size must be positive, got %d", c.MaxBatchSize)
	}
	if c.MinBatchSize <= 0 || c.MinBatchSize > c.MaxBatchSize {
		return fmt.Errorf("sequencer: min_batch_size must be in (0, max_batch_size], got %d", c.MinBatchSize)
	}
	if c.MerkleDepth == 0 {
		return fmt.Errorf("sequencer: merkle_depth must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("sequencer: poll_interval must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("sequencer: max_retries cannot be negative")
	}
	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("sequencer: retry_base_delay must be positive")
	}
	if c.StatePath == "" {
		return fmt.Errorf("sequencer: state_path is required")
	}
	return nil
}
