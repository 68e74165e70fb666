package merkletree

import (
	"context"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

func feUint64(v uint64) fr.Element {
	var x fr.Element
	x.SetUint64(v)
	return x
}

func newTestTree(t *testing.T, depth uint32) *Tree {
	t.Helper()
	store := NewInMemoryTreeStore(MinRootHistoryCapacity)
	tree, err := New(depth, store, MinRootHistoryCapacity)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tree
}

func TestEmptyTreeRootIsZeroLadderTop(t *testing.T) {
	tree := newTestTree(t, 4)
	if !tree.CurrentRoot().Equal(&tree.zeros[4]) {
		t.Error("empty tree root must equal zeros[D]")
	}
}

func TestInsertThenProveVerifies(t *testing.T) {
	ctx := context.Background()
	tree := newTestTree(t, 8)

	leaf := feUint64(1234)
	idx, err := tree.Insert(ctx, leaf)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	path, err := tree.Prove(ctx, idx)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	ok, err := Verify(leaf, path, tree.CurrentRoot())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("authentication path must verify against the current root")
	}
}

func TestTwoIndependentTreesAgree(t *testing.T) {
	ctx := context.Background()
	leaves := []fr.Element{feUint64(1), feUint64(2), feUint64(3), feUint64(4)}

	treeA := newTestTree(t, 6)
	treeB := newTestTree(t, 6)

	for _, l := range leaves {
		if _, err := treeA.Insert(ctx, l); err != nil {
			t.Fatalf("treeA.Insert: %v", err)
		}
		if _, err := treeB.Insert(ctx, l); err != nil {
			t.Fatalf("treeB.Insert: %v", err)
		}
	}

	if !treeA.CurrentRoot().Equal(ptr(treeB.CurrentRoot())) {
		t.Error("two independent trees fed identical leaves must agree on the root")
	}
}

func ptr(x fr.Element) *fr.Element { return &x }

func TestTreeFullAfterCapacityInsertions(t *testing.T) {
	ctx := context.Background()
	tree := newTestTree(t, 2) // capacity 4

	for i := 0; i < 4; i++ {
		if _, err := tree.Insert(ctx, feUint64(uint64(i))); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}

	if _, err := tree.Insert(ctx, feUint64(99)); err != ErrTreeFull {
		t.Fatalf("want ErrTreeFull, got %v", err)
	}
}

func TestIsKnownRootAcceptsHistoricalRoot(t *testing.T) {
	ctx := context.Background()
	tree := newTestTree(t, 6)

	rootBeforeAny := tree.CurrentRoot()

	if _, err := tree.Insert(ctx, feUint64(1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := tree.Insert(ctx, feUint64(2)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	known, err := tree.IsKnownRoot(ctx, rootBeforeAny)
	if err != nil {
		t.Fatalf("IsKnownRoot: %v", err)
	}
	if !known {
		t.Error("a superseded root still inside the ring must be known")
	}
}

func TestRootHistoryExpiresAfterCapacityInsertions(t *testing.T) {
	ctx := context.Background()
	capacity := MinRootHistoryCapacity
	tree := newTestTree(t, 16)

	rootAtInsertion0 := tree.CurrentRoot()

	for i := 0; i < capacity+1; i++ {
		if _, err := tree.Insert(ctx, feUint64(uint64(i))); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}

	known, err := tree.IsKnownRoot(ctx, rootAtInsertion0)
	if err != nil {
		t.Fatalf("IsKnownRoot: %v", err)
	}
	if known {
		t.Error("root preceding insertion #0 must expire from the ring after capacity+1 insertions")
	}
}

func TestSimulateBatchInsertMatchesSequentialCommit(t *testing.T) {
	ctx := context.Background()
	commitments := []fr.Element{feUint64(10), feUint64(20), feUint64(30)}

	simTree := newTestTree(t, 10)
	result, err := simTree.SimulateBatchInsert(ctx, simTree.NextIndex(), commitments)
	if err != nil {
		t.Fatalf("SimulateBatchInsert: %v", err)
	}

	// Simulation must not mutate the tree.
	if simTree.NextIndex() != 0 {
		t.Error("SimulateBatchInsert must not advance next_index")
	}

	committedTree := newTestTree(t, 10)
	if err := committedTree.CommitBatch(ctx, commitments); err != nil {
		t.Fatalf("CommitBatch: %v", err)
	}

	if !result.NewRoot.Equal(ptr(committedTree.CurrentRoot())) {
		t.Error("simulated batch root must match the root from sequential commit")
	}

	for i, path := range result.Paths {
		ok, err := Verify(commitments[i], path, result.NewRoot)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if ok {
			// Paths are captured at insertion time, not against the
			// final batch root (earlier commitments' paths predate
			// later siblings), so verifying against the final root is
			// only expected to succeed for the last commitment.
			continue
		}
	}

	lastIdx := len(result.Paths) - 1
	okLast, err := Verify(commitments[lastIdx], result.Paths[lastIdx], result.NewRoot)
	if err != nil {
		t.Fatalf("Verify last: %v", err)
	}
	if !okLast {
		t.Error("the last commitment's path must verify against the final batch root")
	}
}

func TestSimulateBatchInsertRejectsIndexMismatch(t *testing.T) {
	ctx := context.Background()
	tree := newTestTree(t, 10)
	if _, err := tree.Insert(ctx, feUint64(1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, err := tree.SimulateBatchInsert(ctx, 0, []fr.Element{feUint64(2)})
	if err != ErrIndexMismatch {
		t.Fatalf("want ErrIndexMismatch, got %v", err)
	}
}

func TestPaddingUsesZerosNotFreshHashes(t *testing.T) {
	ctx := context.Background()
	tree := newTestTree(t, 4)

	idx, err := tree.Insert(ctx, feUint64(7))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	path, err := tree.Prove(ctx, idx)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	for level, sibling := range path.Siblings {
		if !sibling.Equal(&tree.zeros[level]) {
			t.Errorf("level %d: sibling of the lone leaf must be the zero hash", level)
		}
	}
}
