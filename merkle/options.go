package merkle

import (
	"github.com/forestrie/go-merkletree/metrics"
	"go.uber.org/zap"
)

type TreeOptions struct {
	Logger *zap.Logger
	// HistoryLimit bounds the number of committed states kept for Rollback.
	// Zero keeps every state.
	HistoryLimit int
	// ProofCacheSize enables an LRU cache of proofs for the current committed
	// state. Zero disables it.
	ProofCacheSize int
	Metrics        *metrics.Metrics
}

// Option is a generic option type. Implementations type assert to their
// options record and ignore options that do not apply to them.
type Option func(any)

func WithLogger(log *zap.Logger) Option {
	return func(opts any) {
		if o, ok := opts.(*TreeOptions); ok {
			o.Logger = log
		}
	}
}

func WithHistoryLimit(limit int) Option {
	return func(opts any) {
		if o, ok := opts.(*TreeOptions); ok {
			o.HistoryLimit = limit
		}
	}
}

func WithProofCache(size int) Option {
	return func(opts any) {
		if o, ok := opts.(*TreeOptions); ok {
			o.ProofCacheSize = size
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(opts any) {
		if o, ok := opts.(*TreeOptions); ok {
			o.Metrics = m
		}
	}
}
