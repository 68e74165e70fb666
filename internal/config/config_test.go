package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/psolprotocol/masp-core/internal/sequencer"
)

func TestLoadAppliesDefaultsWithNoFlags(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxBatchSize != 16 {
		t.Errorf("MaxBatchSize = %d, want 16", cfg.MaxBatchSize)
	}
	if cfg.MerkleDepth != 24 {
		t.Errorf("MerkleDepth = %d, want 24", cfg.MerkleDepth)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
	if cfg.StatePath != "./sequencer-state.json" {
		t.Errorf("StatePath = %q, want ./sequencer-state.json", cfg.StatePath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadFlagsOverrideDefaults(t *testing.T) {
	cfg, err := Load([]string{"--max-batch-size", "32", "--once", "--log-level", "debug"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxBatchSize != 32 {
		t.Errorf("MaxBatchSize = %d, want 32", cfg.MaxBatchSize)
	}
	if !cfg.OneShot {
		t.Error("OneShot must be true when --once is passed")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadFlagsOverrideYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sequencerd.yaml")
	yamlBody := "max_batch_size: 8\nlog_level: warn\nrebuild: true\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	// The YAML file sets max_batch_size to 8, but the flag passed on the
	// command line must win.
	cfg, err := Load([]string{"--config", path, "--max-batch-size", "64"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxBatchSize != 64 {
		t.Errorf("MaxBatchSize = %d, want 64 (flag must override file)", cfg.MaxBatchSize)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (from file, no flag override)", cfg.LogLevel)
	}
	if !cfg.Rebuild {
		t.Error("Rebuild must be true from the file when no flag overrides it")
	}
}

func TestSequencerModePrecedence(t *testing.T) {
	cases := []struct {
		name    string
		rebuild bool
		oneShot bool
		want    sequencer.Mode
	}{
		{"continuous by default", false, false, sequencer.ModeContinuous},
		{"one-shot when set", false, true, sequencer.ModeOneShot},
		{"rebuild wins over one-shot", true, true, sequencer.ModeRebuild},
		{"rebuild wins alone", true, false, sequencer.ModeRebuild},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Rebuild: tc.rebuild, OneShot: tc.oneShot}
			if got := cfg.SequencerMode(); got != tc.want {
				t.Errorf("SequencerMode() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseAddressRejectsBadHex(t *testing.T) {
	if _, err := parseAddress("not-hex", "program-id"); err == nil {
		t.Error("parseAddress must reject invalid hex")
	}
	if _, err := parseAddress("ab", "program-id"); err == nil {
		t.Error("parseAddress must reject a short address")
	}
}

func TestParseAddressAcceptsEmptyAndValidHex(t *testing.T) {
	out, err := parseAddress("", "program-id")
	if err != nil {
		t.Fatalf("parseAddress(\"\"): %v", err)
	}
	if out != ([32]byte{}) {
		t.Error("parseAddress(\"\") must return the zero address")
	}

	raw := make([]byte, 32)
	raw[0] = 0xab
	want := hex.EncodeToString(raw)
	out, err = parseAddress(want, "program-id")
	if err != nil {
		t.Fatalf("parseAddress(%q): %v", want, err)
	}
	if out[0] != 0xab {
		t.Errorf("parseAddress(%q)[0] = %x, want ab", want, out[0])
	}
}

func TestToSequencerConfigMapsFields(t *testing.T) {
	cfg, err := Load([]string{
		"--max-batch-size", "10",
		"--min-batch-size", "2",
		"--merkle-depth", "20",
		"--poll-interval-ms", "1000",
		"--max-retries", "7",
		"--retry-base-delay-ms", "250",
		"--compute-units", "500000",
		"--priority-fee", "42",
		"--state", "/tmp/state.json",
		"--force",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	sc := cfg.ToSequencerConfig()
	if sc.MaxBatchSize != 10 {
		t.Errorf("MaxBatchSize = %d, want 10", sc.MaxBatchSize)
	}
	if sc.MinBatchSize != 2 {
		t.Errorf("MinBatchSize = %d, want 2", sc.MinBatchSize)
	}
	if sc.MerkleDepth != 20 {
		t.Errorf("MerkleDepth = %d, want 20", sc.MerkleDepth)
	}
	if sc.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", sc.PollInterval)
	}
	if sc.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", sc.MaxRetries)
	}
	if sc.RetryBaseDelay != 250*time.Millisecond {
		t.Errorf("RetryBaseDelay = %v, want 250ms", sc.RetryBaseDelay)
	}
	if sc.ComputeUnits != 500000 {
		t.Errorf("ComputeUnits = %d, want 500000", sc.ComputeUnits)
	}
	if sc.PriorityFee != 42 {
		t.Errorf("PriorityFee = %d, want 42", sc.PriorityFee)
	}
	if sc.StatePath != "/tmp/state.json" {
		t.Errorf("StatePath = %q, want /tmp/state.json", sc.StatePath)
	}
	if !sc.Force {
		t.Error("Force must propagate through ToSequencerConfig")
	}
	if sc.Mode != sequencer.ModeContinuous {
		t.Errorf("Mode = %v, want ModeContinuous", sc.Mode)
	}
}
