// Sequencerd is the psol MASP batch-settlement daemon: it polls a pool's
// pending-commitment buffer, builds settlement batches against a local
// Merkle tree, drives the circuit's external witness generator and
// prover, submits settlement transactions, and folds confirmed batches
// into durable state.
package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/rs/zerolog"

	"github.com/psolprotocol/masp-core/internal/auditlog"
	"github.com/psolprotocol/masp-core/internal/chain"
	"github.com/psolprotocol/masp-core/internal/config"
	"github.com/psolprotocol/masp-core/internal/sequencer"
	"github.com/psolprotocol/masp-core/pkg/field"
	"github.com/psolprotocol/masp-core/pkg/groth16proof"
	"github.com/psolprotocol/masp-core/pkg/merkletree"
)

const banner = `
           _
 _ __  ___| |
| '_ \/ __| |
| |_) \__ \ |
| .__/|___/_|
|_|

 psol sequencerd v%s
 Batch-settlement daemon for the shielded pool
`

const version = "0.1.0"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)

	fmt.Printf(banner, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("sequencerd exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	vkData, err := os.ReadFile(cfg.VerifyingKeyPath)
	if err != nil {
		return fmt.Errorf("sequencerd: read verifying key: %w", err)
	}
	vk, err := groth16proof.LoadVerifyingKeyJSON(vkData)
	if err != nil {
		return fmt.Errorf("sequencerd: parse verifying key: %w", err)
	}

	state, err := sequencer.LoadState(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("sequencerd: load state: %w", err)
	}

	store := merkletree.NewInMemoryTreeStore(merkletree.MinRootHistoryCapacity)
	tree, err := merkletree.New(cfg.MerkleDepth, store, merkletree.MinRootHistoryCapacity)
	if err != nil {
		return fmt.Errorf("sequencerd: init tree: %w", err)
	}
	leaves, err := decodeCommitments(state.Commitments)
	if err != nil {
		return fmt.Errorf("sequencerd: decode persisted commitments: %w", err)
	}
	if len(leaves) > 0 {
		if err := tree.CommitBatch(ctx, leaves); err != nil {
			return fmt.Errorf("sequencerd: replay persisted commitments: %w", err)
		}
	}
	log.Info().Uint64("next_index", tree.NextIndex()).Msg("local tree ready")

	// The chain's own RPC client is an opaque, out-of-scope collaborator
	// (spec.md §1): a production deployment supplies a real chain.Client
	// wired to cfg.RPCEndpoint. No such implementation ships in this
	// module, so a deployer must replace FakeClient with one before
	// running against a live pool.
	log.Warn().Str("rpc_endpoint", cfg.RPCEndpoint).Msg("using in-memory fake chain client; wire a real chain.Client for production use")
	client := chain.NewFakeClient()

	witnessGen := execWitnessGenerator{path: cfg.WitnessGeneratorPath}
	prover := execProver{path: cfg.ProvingKeyPath}

	seq, err := sequencer.New(cfg.ToSequencerConfig(), client, tree, witnessGen, prover, vk, log)
	if err != nil {
		return fmt.Errorf("sequencerd: init sequencer: %w", err)
	}

	if cfg.AuditEnabled {
		audit, err := auditlog.New(ctx, &cfg.Audit)
		if err != nil {
			log.Warn().Err(err).Msg("audit log unavailable, continuing without it")
		} else {
			defer audit.Close()
			seq = seq.WithAuditRecorder(audit)
		}
	}

	return seq.Run(ctx)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	var out *os.File = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			out = f
		}
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func decodeCommitments(hexLeaves []string) ([]fr.Element, error) {
	out := make([]fr.Element, len(hexLeaves))
	for i, h := range hexLeaves {
		raw, err := hex.DecodeString(h)
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		var buf [32]byte
		copy(buf[:], raw)
		fe, err := field.FromBE32(buf)
		if err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		out[i] = fe
	}
	return out, nil
}

// execWitnessGenerator and execProver invoke the circuit's external
// artifacts as subprocesses: spec.md §6 names the WASM witness generator
// and proving key only as filesystem paths, so this package's only job is
// to pass it the public/private inputs as JSON on stdin and read its
// output from stdout. The artifact itself remains entirely out of scope.
type execWitnessGenerator struct {
	path string
}

type witnessRequest struct {
	PublicInputs  []string                     `json:"public_inputs"`
	Commitments   []string                     `json:"commitments"`
	Paths         []witnessRequestAuthPath     `json:"paths"`
}

type witnessRequestAuthPath struct {
	Siblings []string `json:"siblings"`
	Index    uint64   `json:"index"`
}

func (g execWitnessGenerator) GenerateWitness(ctx context.Context, publicInputs []fr.Element, priv sequencer.BatchPrivateInputs) ([]byte, error) {
	req := witnessRequest{
		PublicInputs: feHexSlice(publicInputs),
		Commitments:  feHexSlice(priv.Commitments),
	}
	for _, p := range priv.Paths {
		req.Paths = append(req.Paths, witnessRequestAuthPath{Siblings: feHexSlice(p.Siblings), Index: p.Index})
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("witness generator: marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, g.path)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("witness generator: %w: %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}

type execProver struct {
	path string
}

func (p execProver) Prove(ctx context.Context, witness []byte) (*groth16proof.Proof, error) {
	cmd := exec.CommandContext(ctx, p.path)
	cmd.Stdin = bytes.NewReader(witness)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("prover: %w: %s", err, stderr.String())
	}
	return groth16proof.FromBytes(stdout.Bytes())
}

func feHexSlice(els []fr.Element) []string {
	out := make([]string, len(els))
	for i, e := range els {
		b := e.Bytes()
		out[i] = hex.EncodeToString(b[:])
	}
	return out
}
