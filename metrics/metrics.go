// Package metrics provides Prometheus instrumentation for trees and batch
// proof operations. Nothing is registered globally: callers create a Metrics
// value and register it with the registry of their choice.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const DefaultNamespace = "merkletree"

// Metrics is the set of collectors updated by trees and batches. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Commits         prometheus.Counter
	Rollbacks       prometheus.Counter
	CommittedLeaves prometheus.Gauge
	StagedLeaves    prometheus.Gauge
	CommitDuration  prometheus.Histogram
	Proofs          prometheus.Counter
	ProofCacheHits  prometheus.Counter
	Verifications   *prometheus.CounterVec
}

// New creates the collectors under namespace. An empty namespace selects
// DefaultNamespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Metrics{
		Commits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Help:      "Number of commits that added leaves",
				Name:      "commits_total",
				Namespace: namespace,
			},
		),
		Rollbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Help:      "Number of rollbacks that restored a previous state",
				Name:      "rollbacks_total",
				Namespace: namespace,
			},
		),
		CommittedLeaves: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Help:      "Number of committed leaves",
				Name:      "committed_leaves",
				Namespace: namespace,
			},
		),
		StagedLeaves: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Help:      "Number of leaves waiting for a commit",
				Name:      "staged_leaves",
				Namespace: namespace,
			},
		),
		CommitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Help:      "Time taken to fold staged leaves into the committed tree",
				Name:      "commit_duration_seconds",
				Namespace: namespace,
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		Proofs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Help:      "Number of proofs produced",
				Name:      "proofs_total",
				Namespace: namespace,
			},
		),
		ProofCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Help:      "Number of proofs served from the proof cache",
				Name:      "proof_cache_hits_total",
				Namespace: namespace,
			},
		),
		Verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Help:      "Number of proof verifications by result",
				Name:      "verifications_total",
				Namespace: namespace,
			},
			[]string{"result"},
		),
	}
}

// Collectors returns every collector, for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Commits,
		m.Rollbacks,
		m.CommittedLeaves,
		m.StagedLeaves,
		m.CommitDuration,
		m.Proofs,
		m.ProofCacheHits,
		m.Verifications,
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveCommit(committedLeaves int, took time.Duration) {
	if m == nil {
		return
	}
	m.Commits.Inc()
	m.CommittedLeaves.Set(float64(committedLeaves))
	m.StagedLeaves.Set(0)
	m.CommitDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveRollback(committedLeaves int) {
	if m == nil {
		return
	}
	m.Rollbacks.Inc()
	m.CommittedLeaves.Set(float64(committedLeaves))
	m.StagedLeaves.Set(0)
}

func (m *Metrics) SetStaged(staged int) {
	if m == nil {
		return
	}
	m.StagedLeaves.Set(float64(staged))
}

func (m *Metrics) ObserveProof(cached bool) {
	if m == nil {
		return
	}
	m.Proofs.Inc()
	if cached {
		m.ProofCacheHits.Inc()
	}
}

func (m *Metrics) ObserveVerification(ok bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if ok {
		result = "valid"
	}
	m.Verifications.WithLabelValues(result).Inc()
}
