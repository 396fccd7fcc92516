// Command compactlogctl opens an in-memory compact-log tree, pushes
// leaves read from stdin (one per line), and prints the resulting root
// and, optionally, an inclusion proof. It is a demonstration CLI, not
// a production log server: the core packages never import flag or os
// themselves.
package main

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/Barre/compact-log/kv"
	"github.com/Barre/compact-log/kv/memkv"
	"github.com/Barre/compact-log/merkle"
	"github.com/Barre/compact-log/tree"
)

func main() {
	var (
		snapshotPath = flag.String("snapshot", "", "optional path to load/save a gob snapshot of the in-memory store")
		proveIndex   = flag.Int64("prove", -1, "leaf index to print an inclusion proof for, after pushing stdin")
		metricsAddr  = flag.String("metrics-addr", "", "optional address to serve Prometheus /metrics on, e.g. :9090")
	)
	flag.Parse()

	if err := run(*snapshotPath, *proveIndex, *metricsAddr); err != nil {
		glog.Errorf("compactlogctl: %v", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(snapshotPath string, proveIndex int64, metricsAddr string) error {
	ctx := context.Background()
	store := memkv.New()

	if snapshotPath != "" {
		if err := loadSnapshot(snapshotPath, store); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading snapshot: %w", err)
		}
	}

	var opts []tree.Option
	if metricsAddr != "" {
		reg := serveMetrics(metricsAddr)
		opts = append(opts, tree.WithMetrics(newPrometheusMetrics(reg)))
	}

	t, err := tree.OpenReadWrite[[]byte](ctx, store, sha256.New, kv.BytesCodec{}, opts...)
	if err != nil {
		return fmt.Errorf("opening tree: %w", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	var items [][]byte
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		items = append(items, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	if len(items) > 0 {
		start, err := t.BatchPush(ctx, items)
		if err != nil {
			return fmt.Errorf("pushing leaves: %w", err)
		}
		glog.V(1).Infof("compactlogctl: pushed %d leaves starting at %d", len(items), start)
	}

	root, size, err := t.Root(ctx)
	if err != nil {
		return fmt.Errorf("reading root: %w", err)
	}
	fmt.Printf("size=%d root=%s\n", size, hex.EncodeToString(root))

	if proveIndex >= 0 {
		proof, err := t.ProveInclusion(ctx, merkle.LeafIndex(proveIndex))
		if err != nil {
			return fmt.Errorf("proving inclusion of %d: %w", proveIndex, err)
		}
		fmt.Printf("inclusion proof for leaf %d (%d hashes):\n", proveIndex, len(proof.Hashes))
		for i, h := range proof.Hashes {
			fmt.Printf("  [%d] %s\n", i, hex.EncodeToString(h))
		}
	}

	if snapshotPath != "" {
		if err := saveSnapshot(snapshotPath, store); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
	}
	return nil
}

func loadSnapshot(path string, store *memkv.Store) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return store.LoadGob(gob.NewDecoder(f))
}

func saveSnapshot(path string, store *memkv.Store) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return store.SaveGob(gob.NewEncoder(f))
}
