package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/forestrie/go-merkletree/algorithms"
	"github.com/forestrie/go-merkletree/config"
	"github.com/forestrie/go-merkletree/merkle"
)

func newApp() *cli.App {
	ctl := cli.NewApp()
	ctl.Name = "merkletree"
	ctl.Usage = "build Merkle trees, prove and verify leaf inclusion, sign tree states"
	ctl.ErrWriter = os.Stderr
	ctl.Commands = []cli.Command{
		newRootCommand(),
		newProofCommand(),
		newVerifyCommand(),
		newSignCommand(),
		newVerifyCheckpointCommand(),
		newDemoCommand(),
	}
	return ctl
}

// settingsFlags are accepted by every command.
var settingsFlags = []cli.Flag{
	cli.StringFlag{Name: "config, c", Usage: "path to a YAML configuration file"},
	cli.StringFlag{Name: "algorithm, a", Usage: "hash algorithm, one of " + strings.Join(algorithms.Names(), ", ")},
	cli.BoolFlag{Name: "sorted", Usage: "hash each pair in sorted order"},
	cli.BoolFlag{Name: "debug, d", Usage: "enable debug logging"},
}

// leafFlags select the leaves of the tree a command works on.
var leafFlags = []cli.Flag{
	cli.StringFlag{Name: "leaves, l", Usage: "read leaf values from a file, one per line"},
	cli.BoolFlag{Name: "hashed", Usage: "leaf values are hex encoded leaf hashes rather than data to hash"},
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

type settings struct {
	cfg    config.Config
	hasher *algorithms.Algorithm
	log    *zap.Logger
}

// loadSettings reads the configuration file, applies flag overrides and
// creates the logger.
func loadSettings(ctx *cli.Context) (settings, error) {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return settings{}, err
	}
	if ctx.IsSet("algorithm") {
		cfg.Algorithm = ctx.String("algorithm")
	}
	if ctx.Bool("sorted") {
		cfg.SortedPairs = true
	}
	if err = cfg.Validate(); err != nil {
		return settings{}, err
	}
	hasher, err := cfg.Hasher()
	if err != nil {
		return settings{}, err
	}
	log, err := newLogger(ctx.Bool("debug"), cfg)
	if err != nil {
		return settings{}, err
	}
	return settings{cfg: cfg, hasher: hasher, log: log}, nil
}

// readLeaves returns the leaf hashes from the --leaves file or, failing that,
// the command arguments.
func readLeaves(ctx *cli.Context, hasher merkle.Hasher) ([][]byte, error) {
	values := []string(ctx.Args())
	if path := ctx.String("leaves"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		values = nil
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				values = append(values, line)
			}
		}
		if err = scanner.Err(); err != nil {
			return nil, err
		}
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no leaves given")
	}

	leaves := make([][]byte, 0, len(values))
	for _, v := range values {
		if !ctx.Bool("hashed") {
			leaves = append(leaves, hasher.Hash([]byte(v)))
			continue
		}
		leaf, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("leaf %q: %w", v, err)
		}
		leaves = append(leaves, leaf)
	}
	return leaves, nil
}

// buildTree commits leaves to a new tree configured by s.
func buildTree(s settings, leaves [][]byte) (*merkle.Tree, error) {
	opts := append(s.cfg.TreeOptions(), merkle.WithLogger(s.log))
	return merkle.TreeFromLeaves(s.hasher, leaves, s.cfg.TreeConfig(), opts...)
}

// parsePositions parses a comma separated list of leaf positions.
func parsePositions(s string) ([]uint64, error) {
	var positions []uint64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		pos, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("leaf position %q: %w", field, err)
		}
		positions = append(positions, pos)
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("no leaf positions in %q", s)
	}
	return positions, nil
}
