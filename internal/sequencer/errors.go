package sequencer

import "errors"

// Fatal errors halt the sequencer immediately; none of them are retried,
// because retrying would either resubmit a proof against a root that no
// longer matches the chain or paper over a bug that corrupted local state.
var (
	// ErrRootMismatch is raised when the chain's current_root does not
	// match the local tree's root at the start of a cycle. With --force,
	// runCycle runs a rebuild instead of halting and then continues; the
	// rebuild appends only event-log leaves past the local tree's
	// next_index and leaves the leaves already in the local tree as they
	// are (see Sequencer.runCycle and Sequencer.rebuild).
	ErrRootMismatch = errors.New("sequencer: on-chain root does not match local tree root")

	// ErrIndexMismatch is raised when the chain's next_leaf_index does
	// not match the local tree's next_index.
	ErrIndexMismatch = errors.New("sequencer: on-chain next_leaf_index does not match local tree next_index")

	// ErrMissingLeaf is raised during rebuild when an expected leaf index
	// in [0, next_leaf_index) has no corresponding commitment-inserted
	// event; the sequencer never fabricates a placeholder for a missing
	// leaf.
	ErrMissingLeaf = errors.New("sequencer: commitment-inserted event log is missing a leaf index")

	// ErrWitnessGeneration is raised when the external witness generator
	// fails or returns a malformed witness.
	ErrWitnessGeneration = errors.New("sequencer: witness generation failed")

	// ErrSubmissionFatal is raised when chain submission fails in a way
	// that cannot be resolved by retrying (e.g. the transaction was
	// rejected for a reason unrelated to transient network conditions).
	ErrSubmissionFatal = errors.New("sequencer: proof submission failed fatally")
)

// ErrSubmissionTransient marks a submission failure the caller should
// retry with exponential backoff before giving up after max_retries.
var ErrSubmissionTransient = errors.New("sequencer: proof submission failed transiently")

// isFatal reports whether err should halt the sequencer rather than be
// retried.
func isFatal(err error) bool {
	switch {
	case errors.Is(err, ErrRootMismatch),
		errors.Is(err, ErrIndexMismatch),
		errors.Is(err, ErrMissingLeaf),
		errors.Is(err, ErrWitnessGeneration),
		errors.Is(err, ErrSubmissionFatal):
		return true
	default:
		return false
	}
}
