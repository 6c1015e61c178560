package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_ReloadsOnInputChange(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "baskets.csv")
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(input, []byte("a,b\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfgPath, []byte("input:\n  path: "+input+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	changed := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, cfgPath, nil, func(c *Config) { changed <- c })
	}()

	// Give the watcher time to register before touching files.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(input, []byte("a,b\nb,c\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changed:
		if c.Input.Path != input {
			t.Errorf("input.path: got %q", c.Input.Path)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() returned %v", err)
	}
}

func TestWatch_InvalidReloadKeepsWaiting(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("input:\n  path: a.csv\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	changed := make(chan *Config, 4)
	go func() { _ = Watch(ctx, cfgPath, nil, func(c *Config) { changed <- c }) }()
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(cfgPath, []byte("input: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
		t.Fatal("onChange called for invalid config")
	case <-time.After(2 * settle):
	}

	if err := os.WriteFile(cfgPath, []byte("input:\n  path: b.csv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-changed:
		if c.Input.Path != "b.csv" {
			t.Errorf("input.path: got %q", c.Input.Path)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatch_OverrideAppliedBeforeValidate(t *testing.T) {
	dir := t.TempDir()
	fileInput := filepath.Join(dir, "from_file.csv")
	flagInput := filepath.Join(dir, "from_flag.csv")
	cfgPath := filepath.Join(dir, "config.yaml")
	for _, p := range []string{fileInput, flagInput} {
		if err := os.WriteFile(p, []byte("a,b\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	// No input.path: only valid once the override supplies it.
	if err := os.WriteFile(cfgPath, []byte("mining:\n  min_support: 0.2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	override := func(c *Config) { c.Input.Path = flagInput }
	changed := make(chan *Config, 4)
	go func() { _ = Watch(ctx, cfgPath, override, func(c *Config) { changed <- c }) }()
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(flagInput, []byte("a,b\nb,c\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-changed:
		if c.Input.Path != flagInput {
			t.Errorf("input.path: got %q, want %q", c.Input.Path, flagInput)
		}
		if c.Mining.MinSupport != 0.2 {
			t.Errorf("min_support: got %g", c.Mining.MinSupport)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for reload")
	}
}

func TestTracker_ReplacesInput(t *testing.T) {
	var added []string
	tr, err := newTracker("/cfg/config.yaml", func(dir string) error {
		added = append(added, dir)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := tr.setInput("/data/old.csv"); err != nil {
		t.Fatal(err)
	}
	if !tr.matches("/data/old.csv") {
		t.Error("old input should match before it is replaced")
	}

	if err := tr.setInput("/data/new.csv"); err != nil {
		t.Fatal(err)
	}
	if tr.matches("/data/old.csv") {
		t.Error("replaced input still matches")
	}
	if !tr.matches("/data/new.csv") {
		t.Error("new input does not match")
	}
	if !tr.matches("/cfg/config.yaml") {
		t.Error("config file does not match")
	}
	if tr.matches("/data/other.csv") {
		t.Error("unrelated file in a watched dir matches")
	}

	if len(added) != 2 {
		t.Errorf("watched dirs: got %v, want /cfg and /data once each", added)
	}

	if err := tr.setInput(""); err != nil {
		t.Fatal(err)
	}
	if tr.matches("/data/new.csv") {
		t.Error("cleared input still matches")
	}
}
