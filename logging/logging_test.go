/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info().Msg("hidden")
	logger.Warn().Str("project", "Plant").Msg("visible")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Expected exactly one JSON entry, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "visible" || entry["project"] != "Plant" {
		t.Errorf("Unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Errorf("Expected timestamp in entry: %v", entry)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "loud"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.log")
	logger, f, err := NewFile(path, "")
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	defer f.Close()

	logger.Info().Msg("opened")
	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Expected log file to contain the entry")
	}
}
