// Package config loads sequencerd's configuration from CLI flags (as the
// teacher's cmd/ccoind/main.go does) with an optional YAML file overlay.
// Flags always take precedence over the YAML file; the YAML file only
// fills in values the operator didn't pass on the command line.
package config

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/psolprotocol/masp-core/internal/auditlog"
	"github.com/psolprotocol/masp-core/internal/sequencer"
)

// Config is the fully resolved configuration for cmd/sequencerd, covering
// every option spec.md §6 enumerates plus the filesystem paths to the
// circuit artifacts it names as an external collaborator.
type Config struct {
	// On-chain addresses (spec.md §6).
	ProgramID       [32]byte
	PoolConfig      [32]byte
	MerkleTree      [32]byte
	PendingBuffer   [32]byte
	VKAccount       [32]byte

	// Sequencer tunables (spec.md §6).
	MaxBatchSize   int
	MerkleDepth    uint32
	PollInterval   time.Duration
	MinBatchSize   int
	MaxRetries     int
	RetryBaseDelay time.Duration
	ComputeUnits   uint32
	PriorityFee    uint64

	// Mode flags (spec.md §6).
	OneShot bool
	Rebuild bool
	Force   bool

	// Circuit artifacts (spec.md §6, filesystem collaborators).
	WitnessGeneratorPath string
	ProvingKeyPath       string
	VerifyingKeyPath     string

	// RPC endpoint for the opaque chain collaborator (internal/chain).
	RPCEndpoint string

	// Durable state and logging.
	StatePath string
	LogLevel  string
	LogFile   string

	// Optional audit trail; zero value means auditlog is disabled.
	Audit auditlog.Config
	AuditEnabled bool
}

// fileConfig mirrors Config's fields for YAML overlay purposes. Addresses
// are hex strings on disk, matching how an operator would paste them from
// a block explorer, and are converted to [32]byte during Load.
type fileConfig struct {
	ProgramID     string `yaml:"program_id"`
	PoolConfig    string `yaml:"pool_config"`
	MerkleTree    string `yaml:"merkle_tree"`
	PendingBuffer string `yaml:"pending_buffer"`
	VKAccount     string `yaml:"vk_account"`

	MaxBatchSize     int    `yaml:"max_batch_size"`
	MerkleDepth      uint32 `yaml:"merkle_depth"`
	PollIntervalMs   int64  `yaml:"poll_interval_ms"`
	MinBatchSize     int    `yaml:"min_batch_size"`
	MaxRetries       int    `yaml:"max_retries"`
	RetryBaseDelayMs int64  `yaml:"retry_base_delay_ms"`
	ComputeUnits     uint32 `yaml:"compute_units"`
	PriorityFee      uint64 `yaml:"priority_fee"`

	OneShot bool `yaml:"one_shot"`
	Rebuild bool `yaml:"rebuild"`
	Force   bool `yaml:"force"`

	WitnessGeneratorPath string `yaml:"witness_generator_path"`
	ProvingKeyPath       string `yaml:"proving_key_path"`
	VerifyingKeyPath     string `yaml:"verifying_key_path"`

	RPCEndpoint string `yaml:"rpc_endpoint"`

	StatePath string `yaml:"state_path"`
	LogLevel  string `yaml:"log_level"`
	LogFile   string `yaml:"log_file"`

	AuditDBHost     string `yaml:"audit_db_host"`
	AuditDBPort     int    `yaml:"audit_db_port"`
	AuditDBUser     string `yaml:"audit_db_user"`
	AuditDBPassword string `yaml:"audit_db_password"`
	AuditDBName     string `yaml:"audit_db_name"`
	AuditEnabled    bool   `yaml:"audit_enabled"`
}

// Load parses args (normally os.Args[1:]) into a Config. If --config
// names a YAML file, its values seed the flag defaults; any flag the
// operator actually passed on the command line overrides the file.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("sequencerd", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "optional YAML config file overlay")

	var fc fileConfig
	if path := extractConfigFlag(args); path != "" {
		loaded, err := loadFileConfig(path)
		if err != nil {
			return nil, err
		}
		fc = *loaded
	}
	applyFileDefaults(&fc)

	programID := fs.String("program-id", fc.ProgramID, "pool program address (hex)")
	poolConfig := fs.String("pool-config", fc.PoolConfig, "pool config account address (hex)")
	merkleTree := fs.String("merkle-tree", fc.MerkleTree, "merkle tree account address (hex)")
	pendingBuffer := fs.String("pending-buffer", fc.PendingBuffer, "pending commitment buffer address (hex)")
	vkAccount := fs.String("vk-account", fc.VKAccount, "on-chain verifying key account address (hex)")

	maxBatchSize := fs.Int("max-batch-size", fc.MaxBatchSize, "maximum commitments per settlement batch")
	merkleDepth := fs.Uint("merkle-depth", uint(fc.MerkleDepth), "merkle tree depth")
	pollIntervalMs := fs.Int64("poll-interval-ms", fc.PollIntervalMs, "continuous-mode poll interval, milliseconds")
	minBatchSize := fs.Int("min-batch-size", fc.MinBatchSize, "minimum pending commitments before a batch is built")
	maxRetries := fs.Int("max-retries", fc.MaxRetries, "maximum submission retries before halting fatally")
	retryBaseDelayMs := fs.Int64("retry-base-delay-ms", fc.RetryBaseDelayMs, "initial retry backoff, milliseconds")
	computeUnits := fs.Uint("compute-units", uint(fc.ComputeUnits), "compute unit budget requested per settlement transaction")
	priorityFee := fs.Uint64("priority-fee", fc.PriorityFee, "priority fee (micro-lamports) per settlement transaction")

	once := fs.Bool("once", fc.OneShot, "run a single cycle and exit")
	rebuild := fs.Bool("rebuild", fc.Rebuild, "replay the chain's commitment log before continuing")
	force := fs.Bool("force", fc.Force, "bypass a root-mismatch halt (operator override only)")

	witnessPath := fs.String("witness-generator", fc.WitnessGeneratorPath, "path to the compiled witness generator")
	provingKeyPath := fs.String("proving-key", fc.ProvingKeyPath, "path to the proving key")
	verifyingKeyPath := fs.String("verifying-key", fc.VerifyingKeyPath, "path to the verifying key JSON")

	rpcEndpoint := fs.String("rpc", fc.RPCEndpoint, "chain RPC endpoint")

	statePath := fs.String("state", fc.StatePath, "path to the durable sequencer state file")
	logLevel := fs.String("log-level", fc.LogLevel, "log level (debug, info, warn, error)")
	logFile := fs.String("log-file", fc.LogFile, "log file path (empty for stdout)")

	auditEnabled := fs.Bool("audit-enabled", fc.AuditEnabled, "record settled batches to the postgres audit log")
	auditHost := fs.String("audit-db-host", fc.AuditDBHost, "audit log postgres host")
	auditPort := fs.Int("audit-db-port", fc.AuditDBPort, "audit log postgres port")
	auditUser := fs.String("audit-db-user", fc.AuditDBUser, "audit log postgres user")
	auditPassword := fs.String("audit-db-password", fc.AuditDBPassword, "audit log postgres password")
	auditDBName := fs.String("audit-db-name", fc.AuditDBName, "audit log postgres database name")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	programIDBytes, err := parseAddress(*programID, "program-id")
	if err != nil {
		return nil, err
	}
	poolConfigBytes, err := parseAddress(*poolConfig, "pool-config")
	if err != nil {
		return nil, err
	}
	merkleTreeBytes, err := parseAddress(*merkleTree, "merkle-tree")
	if err != nil {
		return nil, err
	}
	pendingBufferBytes, err := parseAddress(*pendingBuffer, "pending-buffer")
	if err != nil {
		return nil, err
	}
	vkAccountBytes, err := parseAddress(*vkAccount, "vk-account")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ProgramID:     programIDBytes,
		PoolConfig:    poolConfigBytes,
		MerkleTree:    merkleTreeBytes,
		PendingBuffer: pendingBufferBytes,
		VKAccount:     vkAccountBytes,

		MaxBatchSize:   *maxBatchSize,
		MerkleDepth:    uint32(*merkleDepth),
		PollInterval:   time.Duration(*pollIntervalMs) * time.Millisecond,
		MinBatchSize:   *minBatchSize,
		MaxRetries:     *maxRetries,
		RetryBaseDelay: time.Duration(*retryBaseDelayMs) * time.Millisecond,
		ComputeUnits:   uint32(*computeUnits),
		PriorityFee:    *priorityFee,

		OneShot: *once,
		Rebuild: *rebuild,
		Force:   *force,

		WitnessGeneratorPath: *witnessPath,
		ProvingKeyPath:       *provingKeyPath,
		VerifyingKeyPath:     *verifyingKeyPath,

		RPCEndpoint: *rpcEndpoint,

		StatePath: *statePath,
		LogLevel:  *logLevel,
		LogFile:   *logFile,

		AuditEnabled: *auditEnabled,
		Audit: auditlog.Config{
			Host:     *auditHost,
			Port:     *auditPort,
			User:     *auditUser,
			Password: *auditPassword,
			Database: *auditDBName,
			SSLMode:  "disable",
			MaxConns: 10,
		},
	}

	return cfg, nil
}

// SequencerMode resolves the three mode flags into the sequencer.Mode
// spec.md §6's CLI surface describes: rebuild wins over once, which wins
// over the continuous default.
func (c *Config) SequencerMode() sequencer.Mode {
	switch {
	case c.Rebuild:
		return sequencer.ModeRebuild
	case c.OneShot:
		return sequencer.ModeOneShot
	default:
		return sequencer.ModeContinuous
	}
}

// ToSequencerConfig builds the internal/sequencer.Config this
// configuration describes.
func (c *Config) ToSequencerConfig() *sequencer.Config {
	return &sequencer.Config{
		ProgramID:        c.ProgramID,
		PoolID:           c.PoolConfig,
		PendingBufferKey: c.PendingBuffer,
		MerkleTreeKey:    c.MerkleTree,
		VerifyingKeyKey:  c.VKAccount,

		MerkleDepth:    c.MerkleDepth,
		MaxBatchSize:   c.MaxBatchSize,
		MinBatchSize:   c.MinBatchSize,
		PollInterval:   c.PollInterval,
		MaxRetries:     c.MaxRetries,
		RetryBaseDelay: c.RetryBaseDelay,

		ComputeUnits: c.ComputeUnits,
		PriorityFee:  c.PriorityFee,

		Mode:  c.SequencerMode(),
		Force: c.Force,

		StatePath: c.StatePath,
	}
}

func parseAddress(s string, flagName string) ([32]byte, error) {
	var out [32]byte
	if s == "" {
		return out, nil
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("config: --%s: invalid hex: %w", flagName, err)
	}
	if len(decoded) != 32 {
		return out, fmt.Errorf("config: --%s: want 32 bytes, got %d", flagName, len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}

// extractConfigFlag finds a --config/-config value in args without fully
// parsing the flag set, so it can seed flag defaults before fs.Parse runs.
func extractConfigFlag(args []string) string {
	for i, a := range args {
		if a == "--config" || a == "-config" {
			if i+1 < len(args) {
				return args[i+1]
			}
		}
	}
	return ""
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &fc, nil
}

// applyFileDefaults fills in the sequencer defaults spec.md leaves to
// operator judgment, for fields the YAML file (or its absence) left zero.
func applyFileDefaults(fc *fileConfig) {
	if fc.MaxBatchSize == 0 {
		fc.MaxBatchSize = 16
	}
	if fc.MerkleDepth == 0 {
		fc.MerkleDepth = 24
	}
	if fc.PollIntervalMs == 0 {
		fc.PollIntervalMs = 5000
	}
	if fc.MinBatchSize == 0 {
		fc.MinBatchSize = 1
	}
	if fc.MaxRetries == 0 {
		fc.MaxRetries = 5
	}
	if fc.RetryBaseDelayMs == 0 {
		fc.RetryBaseDelayMs = 500
	}
	if fc.StatePath == "" {
		fc.StatePath = "./sequencer-state.json"
	}
	if fc.LogLevel == "" {
		fc.LogLevel = "info"
	}
	if fc.AuditDBHost == "" {
		fc.AuditDBHost = "localhost"
	}
	if fc.AuditDBPort == 0 {
		fc.AuditDBPort = 5432
	}
	if fc.AuditDBName == "" {
		fc.AuditDBName = "masp_audit"
	}
}
