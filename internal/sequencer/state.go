package sequencer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// State is the sequencer's durable record of progress: the last leaf
// index folded into the local tree, every settled commitment in order,
// and the signature of the most recent confirmed settlement. It is
// written after every confirmed batch and at the end of every rebuild.
type State struct {
	LastProcessedIndex int64      `json:"last_processed_index"`
	Commitments        []string   `json:"commitments"`
	LastTxSignature    *string    `json:"last_tx_signature,omitempty"`
	LastUpdated        string     `json:"last_updated"`
}

// NewState returns the state of a freshly initialized pool: no leaves
// processed yet.
func NewState() *State {
	return &State{LastProcessedIndex: -1, Commitments: []string{}}
}

// AppendCommitments records newly confirmed leaves in index order and
// advances last_processed_index; it does not write to disk — callers
// persist via SaveState after this call succeeds.
func (s *State) AppendCommitments(commitments []fr.Element, timestamp time.Time) {
	for _, c := range commitments {
		b := c.Bytes()
		s.Commitments = append(s.Commitments, hex.EncodeToString(b[:]))
		s.LastProcessedIndex++
	}
	s.LastUpdated = timestamp.UTC().Format(time.RFC3339)
}

// SetLastTxSignature records the signature of the settlement transaction
// that produced the current state.
func (s *State) SetLastTxSignature(sig string) {
	s.LastTxSignature = &sig
}

// LoadState reads sequencer state from path. A missing file is not an
// error: it means the pool has never settled a batch, so the caller
// should start from NewState().
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("sequencer: read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("sequencer: parse state: %w", err)
	}
	return &s, nil
}

// SaveState writes state to path atomically: it writes to a temp file in
// the same directory, then renames over the destination, so a crash
// mid-write never leaves a torn state file behind.
func SaveState(path string, s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("sequencer: marshal state: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".sequencer-state-*.tmp")
	if err != nil {
		return fmt.Errorf("sequencer: create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sequencer: write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sequencer: sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sequencer: close temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sequencer: rename state file: %w", err)
	}
	return nil
}
