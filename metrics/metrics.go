/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package metrics exposes Prometheus instrumentation for the entity cache.
package metrics

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Prefix is shared by all metric names of this package.
const Prefix = "entitycache_"

// Metrics definitions
var (
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entitycache_mutations_total",
		Help: "Total number of cache mutations by entity kind and operation.",
	}, []string{"kind", "op"})

	CommitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entitycache_commits_total",
		Help: "Total number of commits by result.",
	}, []string{"result"})

	CommitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "entitycache_commit_seconds",
		Help:    "Time spent handing dirty state to the backing store and reconciling the cache.",
		Buckets: prometheus.DefBuckets,
	})

	CommittedEntities = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entitycache_committed_entities_total",
		Help: "Total number of entities written by commits, by change.",
	}, []string{"change"})

	LoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "entitycache_store_loads_total",
		Help: "Total number of bulk loads requested from the backing store, by entity kind.",
	}, []string{"kind"})

	LoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "entitycache_store_load_seconds",
		Help:    "Time spent in bulk loads from the backing store.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	BatchRecords = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "entitycache_batch_records",
		Help:    "Number of records per applied batch, by backend.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"backend"})
)

// Commit results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// WriteText writes the entity cache metric families gathered from g in the
// Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), Prefix) {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
