/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads the settings that select and parameterize the
// backing store of a project.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/entitycache/errors"
)

// Store kinds.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
)

// Defaults applied before the file and the environment are read.
const (
	DefaultSQLitePath = "entitycache.db"
	DefaultLogLevel   = "info"
)

type SQLite struct {
	Path string `yaml:"path"`
}

type DynamoDB struct {
	Region    string `yaml:"region"`
	Table     string `yaml:"table"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type Store struct {
	Kind     string   `yaml:"kind"`
	SQLite   SQLite   `yaml:"sqlite"`
	DynamoDB DynamoDB `yaml:"dynamodb"`
}

type Log struct {
	Level string `yaml:"level"`
}

type Metrics struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the complete configuration of one project session.
type Config struct {
	Project string  `yaml:"project"`
	Store   Store   `yaml:"store"`
	Log     Log     `yaml:"log"`
	Metrics Metrics `yaml:"metrics"`
}

// Default returns a configuration for an in-memory store.
func Default() *Config {
	return &Config{
		Store: Store{
			Kind:   StoreMemory,
			SQLite: SQLite{Path: DefaultSQLitePath},
		},
		Log: Log{Level: DefaultLogLevel},
	}
}

// Load reads the YAML file at path when it exists, then the .env file of the
// working directory, then the environment. Later sources win. An empty path
// skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := Parse(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case stderrors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// A missing .env is fine; the process environment may carry everything.
	_ = godotenv.Load()
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping the values the document leaves out.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides settings from environment variables looked up by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("ENTITYCACHE_PROJECT", &c.Project)
	set("ENTITYCACHE_STORE", &c.Store.Kind)
	set("ENTITYCACHE_SQLITE_PATH", &c.Store.SQLite.Path)
	set("ENTITYCACHE_LOG_LEVEL", &c.Log.Level)
	set("AWS_ACCESS_KEY", &c.Store.DynamoDB.AccessKey)
	set("AWS_SECRET_KEY", &c.Store.DynamoDB.SecretKey)
	set("AWS_REGION", &c.Store.DynamoDB.Region)
	set("AWS_DDB_TABLE", &c.Store.DynamoDB.Table)
	if v, ok := lookup("ENTITYCACHE_METRICS"); ok && v != "" {
		c.Metrics.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
}

// Validate checks that the configuration can open a store.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Project) == "" {
		return errors.NewValidationError("project", "must not be empty")
	}
	switch c.Store.Kind {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.SQLite.Path == "" {
			return errors.NewValidationError("store.sqlite.path", "must not be empty")
		}
	case StoreDynamoDB:
		if c.Store.DynamoDB.Region == "" {
			return errors.NewValidationError("store.dynamodb.region", "must not be empty")
		}
		if c.Store.DynamoDB.Table == "" {
			return errors.NewValidationError("store.dynamodb.table", "must not be empty")
		}
	default:
		return errors.NewValidationError("store.kind", fmt.Sprintf("unknown store %q", c.Store.Kind))
	}
	return nil
}

// String renders the configuration as YAML with secrets masked.
func (c *Config) String() string {
	masked := *c
	if masked.Store.DynamoDB.SecretKey != "" {
		masked.Store.DynamoDB.SecretKey = "***"
	}
	out, err := yaml.Marshal(&masked)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(out)
}
