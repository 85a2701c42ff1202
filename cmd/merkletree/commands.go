package main

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
	"github.com/veraison/go-cose"
	"go.uber.org/zap"

	"github.com/forestrie/go-merkletree/batch"
	"github.com/forestrie/go-merkletree/cborcodec"
	"github.com/forestrie/go-merkletree/checkpoint"
	"github.com/forestrie/go-merkletree/merkle"
	"github.com/forestrie/go-merkletree/metrics"
	"github.com/forestrie/go-merkletree/receipt"
)

func newRootCommand() cli.Command {
	return cli.Command{
		Name:      "root",
		Usage:     "print the root of the tree over the given leaves",
		ArgsUsage: "[leaf values...]",
		Action:    printRoot,
		Flags:     withFlags(settingsFlags, leafFlags),
	}
}

func printRoot(ctx *cli.Context) error {
	s, err := loadSettings(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.log.Sync() //nolint:errcheck
	leaves, err := readLeaves(ctx, s.hasher)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	tree, err := buildTree(s, leaves)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, tree.RootHex())
	return nil
}

func newProofCommand() cli.Command {
	return cli.Command{
		Name:      "proof",
		Usage:     "prove the inclusion of the leaves at the given positions",
		ArgsUsage: "[leaf values...]",
		Action:    prove,
		Flags: withFlags(settingsFlags, leafFlags, []cli.Flag{
			cli.StringSliceFlag{Name: "positions, p", Usage: "comma separated leaf positions, may be repeated"},
			cli.StringFlag{Name: "out, o", Usage: "write a CBOR receipt for a single set of positions to this file"},
			cli.IntFlag{Name: "concurrency", Usage: "number of proofs produced at once"},
		}),
	}
}

func prove(ctx *cli.Context) error {
	s, err := loadSettings(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.log.Sync() //nolint:errcheck

	var sets [][]uint64
	for _, p := range ctx.StringSlice("positions") {
		positions, err := parsePositions(p)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		sets = append(sets, positions)
	}
	if len(sets) == 0 {
		return cli.NewExitError("at least one set of --positions is required", 1)
	}
	out := ctx.String("out")
	if out != "" && len(sets) != 1 {
		return cli.NewExitError("--out needs exactly one set of --positions", 1)
	}

	leaves, err := readLeaves(ctx, s.hasher)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	tree, err := buildTree(s, leaves)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	proofs, err := batch.ProveAll(context.Background(), tree, sets,
		batch.WithConcurrency(ctx.Int("concurrency")), merkle.WithLogger(s.log))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "root %s\n", tree.RootHex())
	for i, proof := range proofs {
		fmt.Fprintf(ctx.App.Writer, "%s %s\n", formatPositions(sets[i]), merkle.ToHex(proof.Bytes()))
	}

	if out == "" {
		return nil
	}
	r, err := receipt.New(tree, sets[0], s.cfg.TreeConfig(), s.cfg.Algorithm)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	codec, err := cborcodec.New()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	data, err := r.Marshal(codec)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err = os.WriteFile(out, data, 0o644); err != nil {
		return cli.NewExitError(err, 1)
	}
	s.log.Debug("wrote receipt", zap.String("path", out), zap.Int("bytes", len(data)))
	return nil
}

func formatPositions(positions []uint64) string {
	fields := make([]string, 0, len(positions))
	for _, pos := range positions {
		fields = append(fields, fmt.Sprint(pos))
	}
	return strings.Join(fields, ",")
}

func newVerifyCommand() cli.Command {
	return cli.Command{
		Name:   "verify",
		Usage:  "verify a receipt against a root",
		Action: verifyReceipt,
		Flags: withFlags(settingsFlags, []cli.Flag{
			cli.StringFlag{Name: "receipt, r", Usage: "path to a CBOR receipt"},
			cli.StringFlag{Name: "root", Usage: "hex encoded root to verify against"},
		}),
	}
}

func verifyReceipt(ctx *cli.Context) error {
	s, err := loadSettings(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.log.Sync() //nolint:errcheck

	data, err := os.ReadFile(ctx.String("receipt"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	root, err := hex.DecodeString(ctx.String("root"))
	if err != nil || len(root) == 0 {
		return cli.NewExitError(fmt.Sprintf("invalid --root %q", ctx.String("root")), 1)
	}
	codec, err := cborcodec.New()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	r, err := receipt.Unmarshal(codec, data)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	// the receipt names its algorithm, the configured one does not apply
	hasher, err := r.Hasher()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	ok, err := r.Verify(hasher, root)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	s.log.Debug("verified receipt",
		zap.String("algorithm", r.Algorithm), zap.Uint64("leaves", r.LeafCount), zap.Bool("valid", ok))
	if !ok {
		fmt.Fprintln(ctx.App.Writer, "invalid")
		return cli.NewExitError("receipt does not verify against the root", 1)
	}
	fmt.Fprintln(ctx.App.Writer, "valid")
	return nil
}

func newSignCommand() cli.Command {
	return cli.Command{
		Name:      "sign",
		Usage:     "sign the state of the tree over the given leaves",
		ArgsUsage: "[leaf values...]",
		Action:    signState,
		Flags: withFlags(settingsFlags, leafFlags, []cli.Flag{
			cli.StringFlag{Name: "key, k", Usage: "path to a PEM encoded P-256 EC private key"},
			cli.StringFlag{Name: "kid", Value: "merkletree", Usage: "key identifier for the protected header"},
			cli.StringFlag{Name: "tree-id", Usage: "tree uuid, a new one is generated when empty"},
			cli.StringFlag{Name: "out, o", Usage: "write the COSE Sign1 message to this file"},
		}),
	}
}

func signState(ctx *cli.Context) error {
	s, err := loadSettings(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.log.Sync() //nolint:errcheck

	key, err := readECPrivateKey(ctx.String("key"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	treeID := uuid.New()
	if id := ctx.String("tree-id"); id != "" {
		if treeID, err = uuid.Parse(id); err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	leaves, err := readLeaves(ctx, s.hasher)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	tree, err := buildTree(s, leaves)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	coseSigner, err := cose.NewSigner(cose.AlgorithmES256, key)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	codec, err := cborcodec.New()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	state := checkpoint.NewTreeState(treeID, tree, s.cfg.Algorithm, s.cfg.TreeConfig(), time.Now())
	msg, err := checkpoint.NewSigner(s.cfg.Issuer, codec).Sign1(
		coseSigner, ctx.String("kid"), s.cfg.Subject, state, nil)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	s.log.Debug("signed tree state",
		zap.Stringer("tree", treeID), zap.Uint64("leaves", state.LeafCount), zap.String("root", tree.RootHex()))

	if out := ctx.String("out"); out != "" {
		if err = os.WriteFile(out, msg, 0o644); err != nil {
			return cli.NewExitError(err, 1)
		}
		return nil
	}
	fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(msg))
	return nil
}

func newVerifyCheckpointCommand() cli.Command {
	return cli.Command{
		Name:      "verify-checkpoint",
		Usage:     "verify a signed tree state against the tree over the given leaves",
		ArgsUsage: "[leaf values...]",
		Action:    verifyCheckpoint,
		Flags: withFlags(settingsFlags, leafFlags, []cli.Flag{
			cli.StringFlag{Name: "checkpoint", Usage: "path to a COSE Sign1 message produced by sign"},
			cli.StringFlag{Name: "pub", Usage: "path to a PEM encoded PKIX public key"},
		}),
	}
}

func verifyCheckpoint(ctx *cli.Context) error {
	s, err := loadSettings(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.log.Sync() //nolint:errcheck

	pub, err := readPublicKey(ctx.String("pub"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	msg, err := os.ReadFile(ctx.String("checkpoint"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	codec, err := cborcodec.New()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	signed, unverified, err := checkpoint.DecodeSignedState(codec, msg)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err = signed.ValidateClaims(s.cfg.Issuer, time.Now()); err != nil {
		return cli.NewExitError(err, 1)
	}
	if unverified.Algorithm != s.cfg.Algorithm || unverified.SortedPairs != s.cfg.SortedPairs {
		return cli.NewExitError(fmt.Sprintf(
			"checkpoint was signed for %s (sorted pairs %v), configured for %s (sorted pairs %v)",
			unverified.Algorithm, unverified.SortedPairs, s.cfg.Algorithm, s.cfg.SortedPairs), 1)
	}

	leaves, err := readLeaves(ctx, s.hasher)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	tree, err := buildTree(s, leaves)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	state, err := checkpoint.VerifyTree(codec, pub, msg, tree, nil)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "valid %s %d %s\n", state.TreeID, state.LeafCount, tree.RootHex())
	return nil
}

func readECPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	block, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	return x509.ParseECPrivateKey(block.Bytes)
}

func readPublicKey(path string) (crypto.PublicKey, error) {
	block, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	return x509.ParsePKIXPublicKey(block.Bytes)
}

func readPEM(path string) (*pem.Block, error) {
	if path == "" {
		return nil, fmt.Errorf("a key file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%s: no PEM data", path)
	}
	return block, nil
}

func newDemoCommand() cli.Command {
	return cli.Command{
		Name:      "demo",
		Usage:     "stage, commit and roll back leaves, printing the root at each step",
		ArgsUsage: "[leaf values...]",
		Action:    demo,
		Flags: withFlags(settingsFlags, []cli.Flag{
			cli.BoolFlag{Name: "metrics", Usage: "print the tree metrics when done"},
		}),
	}
}

// demo walks a tree through the commit history a..f, g, h k and back.
func demo(ctx *cli.Context) error {
	s, err := loadSettings(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.log.Sync() //nolint:errcheck

	values := []string(ctx.Args())
	if len(values) == 0 {
		values = []string{"a", "b", "c", "d", "e", "f"}
	}
	hashAll := func(values ...string) [][]byte {
		leaves := make([][]byte, 0, len(values))
		for _, v := range values {
			leaves = append(leaves, s.hasher.Hash([]byte(v)))
		}
		return leaves
	}

	m := metrics.New("")
	reg := prometheus.NewRegistry()
	if err = m.Register(reg); err != nil {
		return cli.NewExitError(err, 1)
	}
	opts := append(s.cfg.TreeOptions(), merkle.WithLogger(s.log), merkle.WithMetrics(m))
	tree, err := merkle.NewTree(s.hasher, opts...)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	cfg := s.cfg.TreeConfig()
	w := ctx.App.Writer

	steps := []struct {
		label string
		do    func() error
	}{
		{"append " + strings.Join(values, " "), func() error { return tree.Append(hashAll(values...)) }},
		{"commit", func() error { return tree.Commit(cfg) }},
		{"insert g", func() error { return tree.Insert(s.hasher.Hash([]byte("g"))) }},
		{"commit", func() error { return tree.Commit(cfg) }},
		{"append h k", func() error { return tree.Append(hashAll("h", "k")) }},
		{"commit", func() error { return tree.Commit(cfg) }},
		{"commit", func() error { return tree.Commit(cfg) }},
		{"rollback", func() error { tree.Rollback(); return nil }},
		{"rollback", func() error { tree.Rollback(); return nil }},
	}
	for _, step := range steps {
		if err = step.do(); err != nil {
			return cli.NewExitError(err, 1)
		}
		uncommitted, err := tree.UncommittedRootHex(cfg)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Fprintf(w, "%-24s leaves %d staged %d root %s uncommitted %s\n",
			step.label, tree.LeavesLen(), tree.StagedLen(), orNone(tree.RootHex()), orNone(uncommitted))
	}

	if !ctx.Bool("metrics") {
		return nil
	}
	families, err := reg.Gather()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				fmt.Fprintf(w, "%s %v\n", f.GetName(), metric.GetCounter().GetValue())
			case metric.GetGauge() != nil:
				fmt.Fprintf(w, "%s %v\n", f.GetName(), metric.GetGauge().GetValue())
			case metric.GetHistogram() != nil:
				fmt.Fprintf(w, "%s_count %d\n", f.GetName(), metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return nil
}

func orNone(rootHex string) string {
	if rootHex == "" {
		return "none"
	}
	return rootHex
}
