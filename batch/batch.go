// Package batch runs independent proof operations in parallel. Each job is
// still computed synchronously, the context is only consulted before a job
// starts.
package batch

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/forestrie/go-merkletree/merkle"
)

type Options struct {
	merkle.TreeOptions
	// Concurrency bounds the number of jobs run at once. Zero selects
	// GOMAXPROCS.
	Concurrency int
}

// WithConcurrency sets the number of jobs run at once.
func WithConcurrency(n int) merkle.Option {
	return func(opts any) {
		if o, ok := opts.(*Options); ok {
			o.Concurrency = n
		}
	}
}

// newOptions applies opts. merkle.WithLogger and merkle.WithMetrics apply to
// the embedded tree options.
func newOptions(opts []merkle.Option) Options {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
		opt(&o.TreeOptions)
	}
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Job is a proof to check against a root.
type Job struct {
	Proof      *merkle.Proof
	Root       []byte
	Positions  []uint64
	LeafHashes [][]byte
	LeafCount  uint64
}

// VerifyAll verifies every job and returns the results in job order. A proof
// that does not verify is a false result, not an error. The only error is the
// cancellation of ctx.
func VerifyAll(ctx context.Context, jobs []Job, cfg merkle.TreeConfig, opts ...merkle.Option) ([]bool, error) {
	o := newOptions(opts)
	results := make([]bool, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Concurrency)
	for i := range jobs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			job := jobs[i]
			results[i] = job.Proof.Verify(job.Root, job.Positions, job.LeafHashes, job.LeafCount, cfg)
			o.Metrics.ObserveVerification(results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	o.Logger.Debug("verified batch", zap.Int("jobs", len(jobs)), zap.Int("concurrency", o.Concurrency))
	return results, nil
}

// ProveAll produces a proof for each set of leaf positions against the
// committed state of tree, in set order. The first failure cancels the
// remaining jobs and is returned.
//
// tree must not be mutated until ProveAll returns.
func ProveAll(ctx context.Context, tree *merkle.Tree, sets [][]uint64, opts ...merkle.Option) ([]*merkle.Proof, error) {
	o := newOptions(opts)
	proofs := make([]*merkle.Proof, len(sets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Concurrency)
	for i := range sets {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			proof, err := tree.Proof(sets[i])
			if err != nil {
				return err
			}
			proofs[i] = proof
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	o.Logger.Debug("proved batch", zap.Int("sets", len(sets)), zap.Int("concurrency", o.Concurrency))
	return proofs, nil
}
