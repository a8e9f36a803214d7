/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteText(t *testing.T) {
	CommitsTotal.WithLabelValues(ResultSuccess).Inc()

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, prometheus.DefaultGatherer))
	out := buf.String()
	assert.Contains(t, out, `entitycache_commits_total{result="success"}`)
	assert.NotContains(t, out, "go_goroutines", "runtime metrics are filtered out")
}
