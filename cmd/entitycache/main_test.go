/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/entitycache/config"
	"github.com/suparena/entitycache/errors"
)

func sqliteConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Project = "Plant"
	cfg.Store.Kind = config.StoreSQLite
	cfg.Store.SQLite.Path = filepath.Join(t.TempDir(), "plant.db")
	return cfg
}

func TestRunCommands(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)

	var out bytes.Buffer
	require.NoError(t, run(ctx, "create", cfg, zerolog.Nop(), &out))
	assert.Contains(t, out.String(), `created project "Plant" in sqlite store`)

	out.Reset()
	require.NoError(t, run(ctx, "inspect", cfg, zerolog.Nop(), &out))
	assert.Contains(t, out.String(), "project Plant (version 1)")
	assert.Contains(t, out.String(), "0 top-level model objects")

	err := run(ctx, "create", cfg, zerolog.Nop(), &out)
	assert.True(t, errors.IsAlreadyExists(err))

	out.Reset()
	require.NoError(t, run(ctx, "erase", cfg, zerolog.Nop(), &out))
	err = run(ctx, "inspect", cfg, zerolog.Nop(), &out)
	assert.True(t, errors.IsNotFound(err))
}

func TestRunRejectsUnknownCommands(t *testing.T) {
	err := run(context.Background(), "compact", sqliteConfig(t), zerolog.Nop(), &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown command")
}

func TestRunConfig(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), "config", sqliteConfig(t), zerolog.Nop(), &out))
	assert.Contains(t, out.String(), "kind: sqlite")
}
