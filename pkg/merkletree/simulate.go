package merkletree

import (
	"context"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/psolprotocol/masp-core/pkg/poseidon"
)

// BatchResult is the outcome of simulating a batch of insertions: one
// authentication path per commitment, captured at the moment that
// commitment was appended, and the tree's root after all of them land.
type BatchResult struct {
	Paths   []*AuthPath
	NewRoot fr.Element
}

// overlayNode keys a node by (level, index) in the copy-on-write cache
// simulation uses instead of touching the backing store.
type overlayNode struct {
	level uint32
	index uint64
}

// SimulateBatchInsert computes the per-commitment authentication paths and
// the resulting root for appending commitments starting at startIndex,
// without mutating the tree or its store. startIndex must equal the
// tree's current next_index. This is the pure planning step the sequencer
// runs before it has on-chain confirmation of a batch.
func (t *Tree) SimulateBatchInsert(ctx context.Context, startIndex uint64, commitments []fr.Element) (*BatchResult, error) {
	if startIndex != t.nextIndex {
		return nil, ErrIndexMismatch
	}
	if t.nextIndex+uint64(len(commitments)) > t.Capacity() {
		return nil, ErrTreeFull
	}

	overlay := make(map[overlayNode]fr.Element)

	getNode := func(level uint32, index uint64) (fr.Element, error) {
		if v, ok := overlay[overlayNode{level, index}]; ok {
			return v, nil
		}
		v, found, err := t.store.GetNode(ctx, level, index)
		if err != nil {
			return fr.Element{}, err
		}
		if !found {
			return t.zeros[level], nil
		}
		return v, nil
	}
	setNode := func(level uint32, index uint64, v fr.Element) {
		overlay[overlayNode{level, index}] = v
	}

	paths := make([]*AuthPath, len(commitments))
	currentIndex := startIndex

	for i, leaf := range commitments {
		siblings := make([]fr.Element, t.depth)

		setNode(0, currentIndex, leaf)
		current := leaf
		idx := currentIndex

		for level := uint32(0); level < t.depth; level++ {
			siblingIndex := idx ^ 1
			sibling, err := getNode(level, siblingIndex)
			if err != nil {
				return nil, fmt.Errorf("merkletree: simulate get sibling level %d: %w", level, err)
			}
			siblings[level] = sibling

			isLeft := idx%2 == 0
			var left, right fr.Element
			if isLeft {
				left, right = current, sibling
			} else {
				left, right = sibling, current
			}

			parent, err := poseidon.H2(&left, &right)
			if err != nil {
				return nil, fmt.Errorf("merkletree: simulate hash level %d: %w", level, err)
			}

			idx /= 2
			setNode(level+1, idx, parent)
			current = parent
		}

		paths[i] = &AuthPath{Siblings: siblings, Index: currentIndex, Depth: t.depth}
		currentIndex++
	}

	finalRoot, err := getNode(t.depth, 0)
	if err != nil {
		return nil, fmt.Errorf("merkletree: simulate final root: %w", err)
	}

	return &BatchResult{Paths: paths, NewRoot: finalRoot}, nil
}
