// Package auditlog persists a read-only audit trail of settled batches
// to PostgreSQL. It is never the sequencer's authoritative state — that
// remains the JSON file internal/sequencer owns — this package exists
// purely so an operator or compliance reviewer can query settlement
// history without replaying the chain's event log.
package auditlog

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/psolprotocol/masp-core/internal/batch"
)

// Errors returned by Store operations.
var (
	ErrNotFound     = errors.New("auditlog: batch not found")
	ErrDBConnection = errors.New("auditlog: database connection error")
)

// Config holds PostgreSQL connection parameters.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

// DefaultConfig returns sensible local-development defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		User:     "masp",
		Database: "masp_audit",
		SSLMode:  "disable",
		MaxConns: 10,
	}
}

// Store is a PostgreSQL-backed audit trail of settled batches.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and verifies the connection with a ping
// before returning, so a misconfigured pool fails at startup rather than
// on the first settled batch.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode, cfg.MaxConns,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// BatchRecord is one settled batch's audit entry.
type BatchRecord struct {
	BatchID         [8]byte
	StartIndex      uint64
	BatchSize       uint16
	OldRoot         [32]byte
	NewRoot         [32]byte
	CommitmentsHash [32]byte
	TxSignature     string
	SettledAt       time.Time
}

// SaveBatch records a confirmed batch. Re-recording the same batch id is
// a no-op: a sequencer retrying after an ambiguous failure must be free
// to call SaveBatch again without producing duplicate audit rows.
func (s *Store) SaveBatch(ctx context.Context, r BatchRecord) error {
	query := `
		INSERT INTO settlement_batches (
			batch_id, start_index, batch_size, old_root, new_root,
			commitments_hash, tx_signature, settled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (batch_id) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query,
		r.BatchID[:],
		r.StartIndex,
		r.BatchSize,
		r.OldRoot[:],
		r.NewRoot[:],
		r.CommitmentsHash[:],
		r.TxSignature,
		r.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("auditlog: save batch %s: %w", hex.EncodeToString(r.BatchID[:]), err)
	}
	return nil
}

// GetBatch looks up a single batch by id.
func (s *Store) GetBatch(ctx context.Context, batchID [8]byte) (*BatchRecord, error) {
	query := `
		SELECT batch_id, start_index, batch_size, old_root, new_root,
			   commitments_hash, tx_signature, settled_at
		FROM settlement_batches WHERE batch_id = $1
	`
	row := s.pool.QueryRow(ctx, query, batchID[:])
	r, err := scanBatchRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auditlog: get batch: %w", err)
	}
	return r, nil
}

// ListBatches returns the most recently settled batches, newest first,
// up to limit entries.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]BatchRecord, error) {
	query := `
		SELECT batch_id, start_index, batch_size, old_root, new_root,
			   commitments_hash, tx_signature, settled_at
		FROM settlement_batches
		ORDER BY settled_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("auditlog: list batches: %w", err)
	}
	defer rows.Close()

	var out []BatchRecord
	for rows.Next() {
		r, err := scanBatchRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("auditlog: scan batch row: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// RecordBatch adapts Store to internal/sequencer's AuditRecorder
// interface: it builds the BatchRecord from b and saves it in one call,
// so the sequencer's commit step doesn't need to know this package's
// row layout.
func (s *Store) RecordBatch(ctx context.Context, b *batch.Batch, txSignature string, settledAt time.Time) error {
	return s.SaveBatch(ctx, RecordFromBatch(b, txSignature, settledAt))
}

// RecordFromBatch builds the audit row for a batch the sequencer has just
// received on-chain confirmation for. It is the only place that converts
// field elements to the raw bytes this package stores, keeping the
// big-endian encoding convention in one place alongside internal/batch's
// own ComputeCommitmentsHash/ComputeBatchID.
func RecordFromBatch(b *batch.Batch, txSignature string, settledAt time.Time) BatchRecord {
	return BatchRecord{
		BatchID:         b.ID,
		StartIndex:      b.StartIndex,
		BatchSize:       uint16(len(b.Commitments)),
		OldRoot:         b.OldRoot.Bytes(),
		NewRoot:         b.NewRoot.Bytes(),
		CommitmentsHash: b.CommitmentsHash.Bytes(),
		TxSignature:     txSignature,
		SettledAt:       settledAt,
	}
}

// row is the subset of pgx.Row/pgx.Rows this package needs to scan,
// letting scanBatchRecord serve both QueryRow and Query call sites.
type row interface {
	Scan(dest ...any) error
}

func scanBatchRecord(rw row) (*BatchRecord, error) {
	var r BatchRecord
	var batchID, oldRoot, newRoot, commitmentsHash []byte

	if err := rw.Scan(
		&batchID,
		&r.StartIndex,
		&r.BatchSize,
		&oldRoot,
		&newRoot,
		&commitmentsHash,
		&r.TxSignature,
		&r.SettledAt,
	); err != nil {
		return nil, err
	}

	copy(r.BatchID[:], batchID)
	copy(r.OldRoot[:], oldRoot)
	copy(r.NewRoot[:], newRoot)
	copy(r.CommitmentsHash[:], commitmentsHash)
	return &r, nil
}
