package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	job := `back: bg.png
comp: fg.png
out: result.png
masks: a.png;b.png
norm: 3
fast: true
automask: background
feather: 1.5
`
	if err := os.WriteFile(path, []byte(job), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	want := defaultConfig()
	want.Back = "bg.png"
	want.Comp = "fg.png"
	want.Out = "result.png"
	want.Masks = "a.png;b.png"
	want.Norm = 3
	want.Fast = true
	want.Automask = "background"
	want.Feather = 1.5
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	if err := os.WriteFile(path, []byte("back: bg.png\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Clusters != 2 || cfg.Tolerance != 0.3 {
		t.Errorf("defaults lost: clusters=%d tolerance=%v", cfg.Clusters, cfg.Tolerance)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing job file")
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	if err := os.WriteFile(path, []byte("back: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestMergeConfigFlagsWin(t *testing.T) {
	file := Config{Back: "file-bg.png", Norm: 4, Fast: true}
	flags := Config{Back: "flag-bg.png", Norm: 2}
	got := mergeConfig(file, flags, map[string]bool{"back": true, "norm": true})
	if got.Back != "flag-bg.png" {
		t.Errorf("back = %q, want the flag value", got.Back)
	}
	if got.Norm != 2 {
		t.Errorf("norm = %d, want the flag value", got.Norm)
	}
	// Untouched flags leave the file values alone.
	if !got.Fast {
		t.Error("fast lost its file value")
	}
}
