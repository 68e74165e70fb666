// Maspctl is the operator CLI for the psol shielded pool: it creates
// notes, inspects the sequencer's persisted local state, and dumps the
// local Merkle tree's root history. It never talks to the chain directly
// — everything it shows comes from local files.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/psolprotocol/masp-core/pkg/field"
	"github.com/psolprotocol/masp-core/pkg/merkletree"
	"github.com/psolprotocol/masp-core/pkg/note"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version":
		fmt.Printf("maspctl v%s\n", version)
	case "help":
		printUsage()
	case "note":
		err = cmdNote(args)
	case "state":
		err = cmdState(args)
	case "roots":
		err = cmdRoots(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("maspctl - operator CLI for the psol shielded pool")
	fmt.Println()
	fmt.Println("Usage: maspctl <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  version             Show version information")
	fmt.Println("  help                Show this help message")
	fmt.Println("  note new            Create a new note")
	fmt.Println("  state show          Show the sequencer's persisted local state")
	fmt.Println("  roots dump          Rebuild the local tree from state and dump its root history")
}

func cmdNote(args []string) error {
	if len(args) == 0 || args[0] != "new" {
		return fmt.Errorf("usage: maspctl note new --amount <n> --asset <hex32> [--password <pw>] [--out <path>]")
	}

	fs := flag.NewFlagSet("note new", flag.ContinueOnError)
	amount := fs.Uint64("amount", 0, "note amount")
	assetHex := fs.String("asset", "", "32-byte asset id, hex")
	password := fs.String("password", "", "password to encrypt the note for storage")
	out := fs.String("out", "", "write the note's serialized/encrypted form to this path")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	var assetID note.AssetID
	if *assetHex != "" {
		decoded, err := hex.DecodeString(*assetHex)
		if err != nil || len(decoded) != 32 {
			return fmt.Errorf("--asset must be 32 bytes of hex")
		}
		copy(assetID[:], decoded)
	}

	n, err := note.CreateNote(*amount, assetID)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}

	commitmentBytes := field.ToBE32(&n.Commitment)
	fmt.Println("Note created.")
	fmt.Printf("  Amount:     %d\n", *amount)
	fmt.Printf("  Asset ID:   %s\n", hex.EncodeToString(assetID[:]))
	fmt.Printf("  Commitment: %s\n", hex.EncodeToString(commitmentBytes[:]))

	if *out == "" {
		return nil
	}

	var data []byte
	if *password != "" {
		data, err = note.EncryptForStorage(n, []byte(*password))
		if err != nil {
			return fmt.Errorf("encrypt note: %w", err)
		}
	} else {
		data, err = note.Serialize(n)
		if err != nil {
			return fmt.Errorf("serialize note: %w", err)
		}
	}

	if err := os.WriteFile(*out, data, 0600); err != nil {
		return fmt.Errorf("write note file: %w", err)
	}
	fmt.Printf("  Saved to:   %s\n", *out)
	return nil
}

func cmdState(args []string) error {
	if len(args) == 0 || args[0] != "show" {
		return fmt.Errorf("usage: maspctl state show --state <path>")
	}

	fs := flag.NewFlagSet("state show", flag.ContinueOnError)
	statePath := fs.String("state", "./sequencer-state.json", "path to the sequencer state file")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	data, err := os.ReadFile(*statePath)
	if err != nil {
		return fmt.Errorf("read state file: %w", err)
	}

	var s struct {
		LastProcessedIndex int64    `json:"last_processed_index"`
		Commitments        []string `json:"commitments"`
		LastTxSignature    *string  `json:"last_tx_signature"`
		LastUpdated        string   `json:"last_updated"`
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parse state file: %w", err)
	}

	fmt.Println("Sequencer State:")
	fmt.Printf("  Last processed index: %d\n", s.LastProcessedIndex)
	fmt.Printf("  Commitments recorded: %d\n", len(s.Commitments))
	if s.LastTxSignature != nil {
		fmt.Printf("  Last tx signature:    %s\n", *s.LastTxSignature)
	} else {
		fmt.Println("  Last tx signature:    (none)")
	}
	fmt.Printf("  Last updated:         %s\n", s.LastUpdated)
	return nil
}

func cmdRoots(args []string) error {
	if len(args) == 0 || args[0] != "dump" {
		return fmt.Errorf("usage: maspctl roots dump --state <path> --merkle-depth <d>")
	}

	fs := flag.NewFlagSet("roots dump", flag.ContinueOnError)
	statePath := fs.String("state", "./sequencer-state.json", "path to the sequencer state file")
	depth := fs.Uint("merkle-depth", 24, "merkle tree depth")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	data, err := os.ReadFile(*statePath)
	if err != nil {
		return fmt.Errorf("read state file: %w", err)
	}
	var s struct {
		Commitments []string `json:"commitments"`
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parse state file: %w", err)
	}

	leaves := make([]fr.Element, len(s.Commitments))
	for i, h := range s.Commitments {
		raw, err := hex.DecodeString(h)
		if err != nil {
			return fmt.Errorf("decode leaf %d: %w", i, err)
		}
		var buf [32]byte
		copy(buf[:], raw)
		fe, err := field.FromBE32(buf)
		if err != nil {
			return fmt.Errorf("decode leaf %d: %w", i, err)
		}
		leaves[i] = fe
	}

	store := merkletree.NewInMemoryTreeStore(merkletree.DefaultRootHistoryCapacity)
	tree, err := merkletree.New(uint32(*depth), store, merkletree.DefaultRootHistoryCapacity)
	if err != nil {
		return fmt.Errorf("init tree: %w", err)
	}
	ctx := context.Background()
	if len(leaves) > 0 {
		if err := tree.CommitBatch(ctx, leaves); err != nil {
			return fmt.Errorf("replay commitments: %w", err)
		}
	}

	history, err := store.RootHistory(ctx)
	if err != nil {
		return fmt.Errorf("read root history: %w", err)
	}

	fmt.Printf("Current root: %s\n", hexFE(tree.CurrentRoot()))
	fmt.Printf("Next index:   %d\n", tree.NextIndex())
	fmt.Println("Root history (oldest first):")
	for i, r := range history {
		fmt.Printf("  [%d] %s\n", i, hexFE(r))
	}
	return nil
}

func hexFE(e fr.Element) string {
	b := field.ToBE32(&e)
	return hex.EncodeToString(b[:])
}
