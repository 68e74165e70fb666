// Package merkletree implements the incremental Poseidon Merkle tree the
// batch sequencer keeps in sync with the on-chain commitment log: append-only
// insertion in O(D) hashes via cached filled subtrees, authentication-path
// generation and verification, a bounded root-history ring for reorg
// tolerance, and a pure batch-insert simulation used to build settlement
// proofs without mutating tree state.
package merkletree

import (
	"context"
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/psolprotocol/masp-core/pkg/poseidon"
)

// Errors returned by tree operations.
var (
	ErrTreeFull        = errors.New("merkletree: tree is full")
	ErrIndexMismatch   = errors.New("merkletree: start index does not match next_index")
	ErrInvalidPosition = errors.New("merkletree: leaf position out of range")
	ErrNodeNotFound    = errors.New("merkletree: node not found")
)

// DefaultRootHistoryCapacity is the ring size used when a pool does not
// override it; it comfortably absorbs reorgs well beyond what any
// supported chain backend exhibits in practice.
const DefaultRootHistoryCapacity = 100

// MinRootHistoryCapacity is the floor below which a root-history ring
// cannot shrink: a shallower ring defeats the point of absorbing reorgs.
const MinRootHistoryCapacity = 30

// TreeStore persists tree nodes, the current root, the leaf count, and the
// root-history ring. A single sequencer process owns one store for the
// lifetime of a pool; there is no concurrent access inside the process.
type TreeStore interface {
	GetNode(ctx context.Context, level uint32, index uint64) (fr.Element, bool, error)
	SetNode(ctx context.Context, level uint32, index uint64, hash fr.Element) error

	GetRoot(ctx context.Context) (fr.Element, error)
	SetRoot(ctx context.Context, root fr.Element) error

	GetSize(ctx context.Context) (uint64, error)
	SetSize(ctx context.Context, size uint64) error

	// PushRootHistory records a root that was superseded by an insertion,
	// overwriting the oldest ring entry once capacity is reached.
	PushRootHistory(ctx context.Context, root fr.Element) error
	// RootHistory returns every root still held in the ring, oldest first.
	RootHistory(ctx context.Context) ([]fr.Element, error)
}

// AuthPath is a Merkle authentication path: D sibling field elements and D
// direction bits, bit i taken from the leaf index's i-th bit (LSB first).
type AuthPath struct {
	Siblings []fr.Element
	Index    uint64
	Depth    uint32
}

// Tree is the incremental Merkle tree over Poseidon(H2). Depth D is fixed
// for the lifetime of the pool.
type Tree struct {
	depth             uint32
	store             TreeStore
	zeros             []fr.Element
	rootHistoryCap    int
	filledSubtrees    []fr.Element
	currentRoot       fr.Element
	nextIndex         uint64
}

// New constructs a tree of the given depth backed by store, computing the
// zero-hash ladder zeros[0]=0, zeros[i+1]=H2(zeros[i],zeros[i]).
// rootHistoryCapacity is clamped up to MinRootHistoryCapacity.
func New(depth uint32, store TreeStore, rootHistoryCapacity int) (*Tree, error) {
	if rootHistoryCapacity < MinRootHistoryCapacity {
		rootHistoryCapacity = MinRootHistoryCapacity
	}

	zeros, err := computeZeroLadder(depth)
	if err != nil {
		return nil, err
	}

	t := &Tree{
		depth:          depth,
		store:          store,
		zeros:          zeros,
		rootHistoryCap: rootHistoryCapacity,
		filledSubtrees: make([]fr.Element, depth),
	}
	for i := range t.filledSubtrees {
		t.filledSubtrees[i] = zeros[i]
	}
	t.currentRoot = zeros[depth]
	return t, nil
}

func computeZeroLadder(depth uint32) ([]fr.Element, error) {
	zeros := make([]fr.Element, depth+1)
	for i := uint32(1); i <= depth; i++ {
		h, err := poseidon.H2(&zeros[i-1], &zeros[i-1])
		if err != nil {
			return nil, fmt.Errorf("merkletree: zero ladder: %w", err)
		}
		zeros[i] = h
	}
	return zeros, nil
}

// Depth returns the tree's fixed depth D.
func (t *Tree) Depth() uint32 { return t.depth }

// NextIndex returns the position the next inserted leaf will occupy.
func (t *Tree) NextIndex() uint64 { return t.nextIndex }

// CurrentRoot returns the tree's current root.
func (t *Tree) CurrentRoot() fr.Element { return t.currentRoot }

// Capacity returns 2^D, the maximum number of leaves this tree can hold.
func (t *Tree) Capacity() uint64 { return uint64(1) << t.depth }

// Insert appends a single leaf, updates the cached filled subtrees, pushes
// the pre-insertion root onto the root-history ring, and recomputes the
// root with exactly D Poseidon invocations.
func (t *Tree) Insert(ctx context.Context, leaf fr.Element) (uint64, error) {
	if t.nextIndex >= t.Capacity() {
		return 0, ErrTreeFull
	}

	index := t.nextIndex
	newRoot, err := t.insertAt(ctx, index, leaf)
	if err != nil {
		return 0, err
	}

	if err := t.store.PushRootHistory(ctx, t.currentRoot); err != nil {
		return 0, fmt.Errorf("merkletree: push root history: %w", err)
	}

	t.currentRoot = newRoot
	t.nextIndex = index + 1

	if err := t.store.SetRoot(ctx, t.currentRoot); err != nil {
		return 0, fmt.Errorf("merkletree: persist root: %w", err)
	}
	if err := t.store.SetSize(ctx, t.nextIndex); err != nil {
		return 0, fmt.Errorf("merkletree: persist size: %w", err)
	}

	return index, nil
}

// insertAt writes leaf at index and recomputes every ancestor hash up to
// the root, storing each level's node and updating the filled-subtree
// cache. It does not touch root history or next_index; callers own those.
func (t *Tree) insertAt(ctx context.Context, index uint64, leaf fr.Element) (fr.Element, error) {
	if err := t.store.SetNode(ctx, 0, index, leaf); err != nil {
		return fr.Element{}, fmt.Errorf("merkletree: set leaf: %w", err)
	}

	current := leaf
	currentIndex := index

	for level := uint32(0); level < t.depth; level++ {
		isLeft := currentIndex%2 == 0

		var sibling fr.Element
		if isLeft {
			sibling = t.zeros[level]
			t.filledSubtrees[level] = current
		} else {
			sibling = t.filledSubtrees[level]
		}

		var left, right fr.Element
		if isLeft {
			left, right = current, sibling
		} else {
			left, right = sibling, current
		}

		parent, err := poseidon.H2(&left, &right)
		if err != nil {
			return fr.Element{}, fmt.Errorf("merkletree: hash level %d: %w", level, err)
		}

		currentIndex /= 2
		if err := t.store.SetNode(ctx, level+1, currentIndex, parent); err != nil {
			return fr.Element{}, fmt.Errorf("merkletree: set node level %d: %w", level+1, err)
		}
		current = parent
	}

	return current, nil
}

// Prove returns the authentication path for the leaf at index: D sibling
// field elements, padding with zeros[level] wherever a level's real
// sibling was never written.
func (t *Tree) Prove(ctx context.Context, index uint64) (*AuthPath, error) {
	if index >= t.nextIndex {
		return nil, ErrInvalidPosition
	}

	siblings := make([]fr.Element, t.depth)
	currentIndex := index

	for level := uint32(0); level < t.depth; level++ {
		siblingIndex := currentIndex ^ 1
		hash, found, err := t.store.GetNode(ctx, level, siblingIndex)
		if err != nil {
			return nil, fmt.Errorf("merkletree: get sibling level %d: %w", level, err)
		}
		if !found {
			hash = t.zeros[level]
		}
		siblings[level] = hash
		currentIndex /= 2
	}

	return &AuthPath{Siblings: siblings, Index: index, Depth: t.depth}, nil
}

// Verify is a pure check that re-hashing leaf up path with its siblings,
// taking directions from the bits of path.Index (LSB first), reproduces
// root.
func Verify(leaf fr.Element, path *AuthPath, root fr.Element) (bool, error) {
	if uint32(len(path.Siblings)) != path.Depth {
		return false, nil
	}

	current := leaf
	index := path.Index

	for level := uint32(0); level < path.Depth; level++ {
		sibling := path.Siblings[level]
		isLeft := index%2 == 0

		var left, right fr.Element
		if isLeft {
			left, right = current, sibling
		} else {
			left, right = sibling, current
		}

		parent, err := poseidon.H2(&left, &right)
		if err != nil {
			return false, fmt.Errorf("merkletree: verify hash level %d: %w", level, err)
		}
		current = parent
		index /= 2
	}

	return current.Equal(&root), nil
}

// IsKnownRoot reports whether r is the current root or still present in
// the root-history ring, which lets a backend accept a withdrawal proved
// against a root that has since been superseded by further insertions.
func (t *Tree) IsKnownRoot(ctx context.Context, r fr.Element) (bool, error) {
	if r.Equal(&t.currentRoot) {
		return true, nil
	}
	history, err := t.store.RootHistory(ctx)
	if err != nil {
		return false, fmt.Errorf("merkletree: root history: %w", err)
	}
	for _, h := range history {
		if r.Equal(&h) {
			return true, nil
		}
	}
	return false, nil
}

// CommitBatch appends commitments in order, advancing next_index and the
// root-history ring exactly as a sequence of Insert calls would. Use this
// once a batch has been confirmed on chain.
func (t *Tree) CommitBatch(ctx context.Context, commitments []fr.Element) error {
	for _, c := range commitments {
		if _, err := t.Insert(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
