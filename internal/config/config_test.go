package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteDefaultConfigThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "csvs-convert.yml")

	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Describe.Threads != 4 {
		t.Fatalf("Threads = %d, want 4", cfg.Describe.Threads)
	}
	if cfg.Describe.Quote != `"` {
		t.Fatalf("Quote = %q, want \"", cfg.Describe.Quote)
	}
	if !cfg.Describe.Stats {
		t.Fatal("Stats = false, want true")
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "csvs-convert.yml")
	contents := "describe:\n  threads: 4\n  bogus_field: true\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected an error for an unknown field")
	}
	if !asErrUnknownField(err) {
		t.Fatalf("expected *ErrUnknownField in chain, got %T: %v", err, err)
	}
}

func asErrUnknownField(err error) bool {
	for err != nil {
		if _, ok := err.(*ErrUnknownField); ok {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func TestLoadAppliesSampleSizeDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "csvs-convert.yml")
	contents := "describe:\n  threads: 2\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Describe.SampleSize != 0 {
		t.Fatalf("SampleSize = %d, want 0 default", cfg.Describe.SampleSize)
	}
}
