// Package config loads the YAML configuration of the merkletree command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/forestrie/go-merkletree/algorithms"
	"github.com/forestrie/go-merkletree/merkle"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config top level struct representing the config for the command line tool.
type Config struct {
	// Algorithm names the leaf and node hash, see algorithms.Names.
	Algorithm   string `yaml:"Algorithm"`
	SortedPairs bool   `yaml:"SortedPairs"`
	LogLevel    string `yaml:"LogLevel"`
	// LogPath redirects logs to a file, stderr is used when empty.
	LogPath        string `yaml:"LogPath"`
	HistoryLimit   int    `yaml:"HistoryLimit"`
	ProofCacheSize int    `yaml:"ProofCacheSize"`
	// Issuer and Subject go into the CWT claims of signed tree states.
	Issuer  string `yaml:"Issuer"`
	Subject string `yaml:"Subject"`
}

func Default() Config {
	return Config{
		Algorithm: algorithms.NameSHA256,
		LogLevel:  "info",
		Issuer:    "merkletree",
		Subject:   "merkletree",
	}
}

// Load reads the config at path over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	configData, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Decode(configData)
}

// Decode parses YAML over the defaults. Unknown keys are rejected.
func Decode(configData []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: problem unmarshaling config yaml data: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := algorithms.ByName(c.Algorithm); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("%w: negative HistoryLimit %d", ErrInvalidConfig, c.HistoryLimit)
	}
	if c.ProofCacheSize < 0 {
		return fmt.Errorf("%w: negative ProofCacheSize %d", ErrInvalidConfig, c.ProofCacheSize)
	}
	return nil
}

func (c Config) TreeConfig() merkle.TreeConfig {
	return merkle.TreeConfig{SortedPairs: c.SortedPairs}
}

func (c Config) Hasher() (*algorithms.Algorithm, error) {
	return algorithms.ByName(c.Algorithm)
}

// TreeOptions returns the tree options the config selects.
func (c Config) TreeOptions() []merkle.Option {
	opts := []merkle.Option{}
	if c.HistoryLimit > 0 {
		opts = append(opts, merkle.WithHistoryLimit(c.HistoryLimit))
	}
	if c.ProofCacheSize > 0 {
		opts = append(opts, merkle.WithProofCache(c.ProofCacheSize))
	}
	return opts
}
