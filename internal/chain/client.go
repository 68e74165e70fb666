// Package chain defines the boundary between the sequencer and the chain
// it settles against. The chain's own RPC client, gossip, and consensus are
// explicitly out of scope (spec.md §1); this package treats the chain only
// as the three opaque operations the sequencer needs — submit a
// transaction, fetch an account, and subscribe to program logs — plus the
// byte-layout parsers for the two account types the sequencer reads.
package chain

import (
	"context"
	"errors"
)

// ErrAccountNotFound is returned when a requested account does not exist.
var ErrAccountNotFound = errors.New("chain: account not found")

// Client is the opaque chain collaborator. Its concrete implementation
// (RPC transport, retries below the sequencer's own retry policy,
// authentication) lives outside this module.
type Client interface {
	// Submit sends a signed transaction and returns its signature/hash.
	// It does not wait for confirmation; callers poll GetAccount or
	// SubscribeLogs to observe the effect.
	Submit(ctx context.Context, tx []byte) (string, error)

	// GetAccount fetches the raw bytes stored at pubkey. Returns
	// ErrAccountNotFound if the account does not exist.
	GetAccount(ctx context.Context, pubkey [32]byte) ([]byte, error)

	// SubscribeLogs streams raw log lines emitted by programID until ctx
	// is cancelled or the returned channel is drained and closed.
	SubscribeLogs(ctx context.Context, programID [32]byte) (<-chan []byte, error)
}
