package auditlog

import (
	"testing"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/psolprotocol/masp-core/internal/batch"
)

func sampleBatch(t *testing.T) *batch.Batch {
	t.Helper()
	var oldRoot, newRoot fr.Element
	oldRoot.SetUint64(1)
	newRoot.SetUint64(2)
	var hash fr.Element
	hash.SetUint64(3)

	b := &batch.Batch{
		StartIndex:      10,
		Commitments:     []fr.Element{oldRoot, newRoot},
		OldRoot:         oldRoot,
		NewRoot:         newRoot,
		CommitmentsHash: hash,
	}
	b.ID = batch.ComputeBatchID(oldRoot, newRoot, 10, 2)
	return b
}

func TestRecordFromBatchPreservesBatchIdentity(t *testing.T) {
	b := sampleBatch(t)
	settledAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	r := RecordFromBatch(b, "sig-123", settledAt)

	if r.BatchID != b.ID {
		t.Error("RecordFromBatch must preserve the batch's id")
	}
	if r.StartIndex != b.StartIndex {
		t.Errorf("StartIndex = %d, want %d", r.StartIndex, b.StartIndex)
	}
	if r.BatchSize != uint16(len(b.Commitments)) {
		t.Errorf("BatchSize = %d, want %d", r.BatchSize, len(b.Commitments))
	}
	if r.TxSignature != "sig-123" {
		t.Errorf("TxSignature = %q, want sig-123", r.TxSignature)
	}
	if !r.SettledAt.Equal(settledAt) {
		t.Error("SettledAt must be preserved exactly")
	}

	wantOldRoot := b.OldRoot.Bytes()
	if r.OldRoot != wantOldRoot {
		t.Error("OldRoot must match the batch's canonical 32-byte encoding")
	}
	wantNewRoot := b.NewRoot.Bytes()
	if r.NewRoot != wantNewRoot {
		t.Error("NewRoot must match the batch's canonical 32-byte encoding")
	}
	wantHash := b.CommitmentsHash.Bytes()
	if r.CommitmentsHash != wantHash {
		t.Error("CommitmentsHash must match the batch's canonical 32-byte encoding")
	}
}

func TestDefaultConfigIsUsable(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Host == "" {
		t.Error("DefaultConfig must set a host")
	}
	if cfg.Port == 0 {
		t.Error("DefaultConfig must set a port")
	}
	if cfg.MaxConns <= 0 {
		t.Error("DefaultConfig must set a positive pool size")
	}
}
